package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuntur-security/kuntur-console/internal/alert"
	"github.com/kuntur-security/kuntur-console/internal/roster"
)

func testAlert() alert.Alert {
	confidence := 0.91
	duration := 12.5
	return alert.Alert{
		Device: alert.Device{
			ID:   "cam-07",
			Type: "camara",
			IP:   "10.0.4.7",
		},
		Location:       "Av. Amazonas y Colón",
		Date:           "2025-07-01",
		Time:           "14:32:05",
		Transcription:  "se escucharon gritos y un disparo",
		Keywords:       "disparo, gritos",
		Confidence:     &confidence,
		Classification: "robo",
		MediaDuration:  &duration,
		Coordinates: &alert.Coordinates{
			Latitude:  -0.1807,
			Longitude: -78.4678,
		},
	}
}

func testOfficer() roster.Officer {
	return roster.Officer{
		ID:        "3",
		FirstName: "Carlos",
		LastName:  "Andrade Vera",
		Rank:      "Sargento",
		Badge:     "PNC-1042",
	}
}

func TestBuild(t *testing.T) {
	t.Run("should copy alert and officer data", func(t *testing.T) {
		a := testAlert()
		r := Build(a, testOfficer(), "Reporte manual del operador.", "CP-580")

		assert.NotEmpty(t, r.ID)
		assert.Equal(t, a.Location, r.Location)
		assert.Equal(t, a.Date, r.Date)
		assert.Equal(t, a.Time, r.Time)
		assert.Equal(t, "Reporte manual del operador.", r.Description)
		assert.Equal(t, a.Keywords, r.Keywords)
		assert.Equal(t, a.Confidence, r.Confidence)
		assert.Equal(t, a.Classification, r.Classification)
		assert.Equal(t, a.Device, r.Device)
		assert.Equal(t, "Carlos Andrade Vera", r.OfficerName)
		assert.Equal(t, "Sargento", r.OfficerRank)
		assert.Equal(t, "PNC-1042", r.OfficerBadge)
		assert.Equal(t, "CP-580", r.CrimeCode)
		assert.False(t, r.GeneratedAt.IsZero())

		require.NotNil(t, r.Coordinates)
		assert.Equal(t, -0.1807, r.Coordinates.Lat)
		assert.Equal(t, -78.4678, r.Coordinates.Lng)
	})

	t.Run("should generate narrative when description is empty", func(t *testing.T) {
		r := Build(testAlert(), testOfficer(), "", "")

		assert.Contains(t, r.Description, "robo")
		assert.Contains(t, r.Description, "cam-07")
		assert.Contains(t, r.Description, "Av. Amazonas y Colón")
	})

	t.Run("should leave coordinates nil when alert has none", func(t *testing.T) {
		a := testAlert()
		a.Coordinates = nil
		r := Build(a, testOfficer(), "desc", "")

		assert.Nil(t, r.Coordinates)
	})

	t.Run("should assign unique ids", func(t *testing.T) {
		a := testAlert()
		first := Build(a, testOfficer(), "desc", "")
		second := Build(a, testOfficer(), "desc", "")

		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestEmptyFields(t *testing.T) {
	t.Run("should be empty for a complete report", func(t *testing.T) {
		r := Build(testAlert(), testOfficer(), "desc", "CP-580")
		assert.Empty(t, r.EmptyFields())
	})

	t.Run("should list missing values by wire name", func(t *testing.T) {
		a := testAlert()
		a.Location = ""
		a.Keywords = ""
		a.Confidence = nil
		a.Coordinates = nil
		a.MediaDuration = nil

		r := Build(a, testOfficer(), "desc", "")
		empty := r.EmptyFields()

		assert.Contains(t, empty, "location")
		assert.Contains(t, empty, "key_words")
		assert.Contains(t, empty, "confidence_level")
		assert.Contains(t, empty, "cordinates")
		assert.Contains(t, empty, "media_duration")
		assert.NotContains(t, empty, "date")
		assert.NotContains(t, empty, "officer_name")
	})
}

func TestNarrative(t *testing.T) {
	t.Run("should include populated fields", func(t *testing.T) {
		text := Narrative(testAlert())

		assert.Contains(t, text, `Incidente clasificado como "robo"`)
		assert.Contains(t, text, "cam-07")
		assert.Contains(t, text, "10.0.4.7")
		assert.Contains(t, text, "Av. Amazonas y Colón")
		assert.Contains(t, text, "2025-07-01 14:32:05")
		assert.Contains(t, text, "disparo, gritos")
		assert.Contains(t, text, "0.91")
		assert.Contains(t, text, "se escucharon gritos y un disparo")
	})

	t.Run("should handle sparse alerts", func(t *testing.T) {
		text := Narrative(alert.Alert{})

		assert.Equal(t, "Incidente detectado.", text)
	})

	t.Run("should truncate long transcriptions", func(t *testing.T) {
		a := testAlert()
		a.Transcription = strings.Repeat("x", 600)
		text := Narrative(a)

		assert.Contains(t, text, strings.Repeat("x", 500)+"...")
		assert.NotContains(t, text, strings.Repeat("x", 501))
	})
}
