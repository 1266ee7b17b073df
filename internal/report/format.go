package report

import (
	"fmt"
	"strings"

	"github.com/kuntur-security/kuntur-console/internal/alert"
)

// narrativeMaxTranscription caps how much of the clip transcription is quoted
// in a generated narrative.
const narrativeMaxTranscription = 500

// Narrative composes a report description from a canonical alert, used when
// the operator does not write one. Only fields that actually carry a value
// appear in the text.
func Narrative(a alert.Alert) string {
	var b strings.Builder

	if a.Classification != "" {
		fmt.Fprintf(&b, "Incidente clasificado como %q", a.Classification)
	} else {
		b.WriteString("Incidente detectado")
	}

	if a.Device.ID != "" {
		fmt.Fprintf(&b, " por el dispositivo %s", a.Device.ID)
		if a.Device.IP != "" {
			fmt.Fprintf(&b, " (%s)", a.Device.IP)
		}
	}

	if a.Location != "" {
		fmt.Fprintf(&b, " en %s", a.Location)
	}

	if when := strings.TrimSpace(a.Date + " " + a.Time); when != "" {
		fmt.Fprintf(&b, ", %s", when)
	}
	b.WriteString(".")

	if a.Keywords != "" {
		fmt.Fprintf(&b, " Palabras clave detectadas: %s.", a.Keywords)
	}

	if a.Confidence != nil {
		fmt.Fprintf(&b, " Nivel de confianza: %.2f.", *a.Confidence)
	}

	if a.Transcription != "" {
		fmt.Fprintf(&b, " Transcripción: %s", truncateText(a.Transcription, narrativeMaxTranscription))
	}

	return b.String()
}

// truncateText shortens text to maxLen characters, appending an ellipsis when
// anything was cut.
func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
