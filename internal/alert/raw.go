package alert

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Raw is the wire shape of an alert as the detection backend sends it. The
// backend is loose about shapes: any field may arrive as a bare scalar or as a
// one-element array, coordinates may be a JSON object or a JSON-encoded
// string, and keywords may be a list or a single delimited string. Raw absorbs
// all of that during unmarshaling so that Normalize can produce one canonical
// record.
//
// Note "cordinates" is not a typo here; it is the actual key on the wire.
type Raw struct {
	DeviceID       FlexString      `json:"device_id"`
	DeviceType     FlexString      `json:"device_type"`
	IP             FlexString      `json:"ip"`
	Location       FlexString      `json:"location"`
	Date           FlexString      `json:"date"`
	Time           FlexString      `json:"time"`
	StreamURL      FlexString      `json:"stream_url"`
	Transcription  FlexString      `json:"transcription_video"`
	Keywords       FlexStrings     `json:"key_words"`
	Confidence     FlexFloat       `json:"confidence_level"`
	ConfidenceAlt  FlexFloat       `json:"confidence level"`
	Classification FlexString      `json:"alert_type"`
	UserID         FlexString      `json:"user_id"`
	MediaDuration  FlexFloat       `json:"media_duration"`
	Coordinates    FlexCoordinates `json:"cordinates"`
}

// Normalize converts a raw payload into the canonical Alert record. It is a
// pure transformation: absent fields become empty strings, absent confidence,
// duration and coordinates become nil.
func (r Raw) Normalize() Alert {
	a := Alert{
		Device: Device{
			ID:   r.DeviceID.String(),
			Type: r.DeviceType.String(),
			IP:   r.IP.String(),
		},
		Location:       r.Location.String(),
		Date:           r.Date.String(),
		Time:           r.Time.String(),
		StreamURL:      r.StreamURL.String(),
		Transcription:  r.Transcription.String(),
		Keywords:       r.Keywords.Display(),
		Classification: r.Classification.String(),
		UserID:         r.UserID.String(),
	}

	// The backend has shipped the confidence level under two different keys
	if v, ok := r.Confidence.Value(); ok {
		a.Confidence = &v
	} else if v, ok := r.ConfidenceAlt.Value(); ok {
		a.Confidence = &v
	}

	if v, ok := r.MediaDuration.Value(); ok {
		a.MediaDuration = &v
	}

	if c, ok := r.Coordinates.Value(); ok {
		a.Coordinates = &c
	}

	return a
}

// Parse unmarshals a raw alert payload and normalizes it in one step.
func Parse(data []byte) (Alert, error) {
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return Alert{}, err
	}
	return raw.Normalize(), nil
}

// FlexString is a string field that tolerates the backend's shape drift: a
// bare string, a one-element array (first element wins), a number, or null.
// Unmarshaling never fails; anything unrecognized degrades to the empty
// string.
type FlexString struct {
	val string
}

// String returns the normalized value, or "" when the field was absent.
func (f FlexString) String() string {
	return f.val
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	f.val = scalarString(data)
	return nil
}

// scalarString extracts a display string from a scalar-or-singleton-array
// JSON value. Arrays take index 0; unparseable input yields "".
func scalarString(data []byte) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) == 0 {
			return ""
		}
		return scalarString(arr[0])
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	return ""
}

// FlexStrings is the keywords field: a list joined with ", " for display, a
// single pre-joined string passed through, or absent.
type FlexStrings struct {
	val string
}

// Display returns the ", "-joined display form of the keywords.
func (f FlexStrings) Display() string {
	return f.val
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.val = s
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, scalarString(item))
		}
		f.val = strings.Join(parts, ", ")
		return nil
	}

	f.val = ""
	return nil
}

// FlexFloat is a numeric field that may arrive as a number, a numeric string,
// or a one-element array of either. Absent and unparseable values are
// reported as not set rather than as zero, so callers can distinguish "no
// confidence level" from "confidence level 0".
type FlexFloat struct {
	val float64
	set bool
}

// Value returns the numeric value and whether one was present.
func (f FlexFloat) Value() (float64, bool) {
	return f.val, f.set
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.val, f.set = n, true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			f.val, f.set = n, true
		}
		return nil
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return f.UnmarshalJSON(arr[0])
	}

	return nil
}

// FlexCoordinates is the coordinates field: a {latitude, longitude} object, a
// JSON-encoded string of that object, or a one-element array of either. A
// value that fails to parse is treated as absent; the parse error is never
// propagated.
type FlexCoordinates struct {
	val Coordinates
	set bool
}

// Value returns the coordinates and whether a parseable pair was present.
func (f FlexCoordinates) Value() (Coordinates, bool) {
	return f.val, f.set
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexCoordinates) UnmarshalJSON(data []byte) error {
	if c, ok := decodeCoordinates(data); ok {
		f.val, f.set = c, true
		return nil
	}

	// JSON-encoded string form: "{\"latitude\": ..., \"longitude\": ...}"
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if c, ok := decodeCoordinates([]byte(s)); ok {
			f.val, f.set = c, true
		}
		return nil
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return f.UnmarshalJSON(arr[0])
	}

	return nil
}

// decodeCoordinates accepts only objects carrying both latitude and longitude
// keys. Anything else, including null and partial objects, reports no value.
func decodeCoordinates(data []byte) (Coordinates, bool) {
	var aux struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return Coordinates{}, false
	}
	if aux.Latitude == nil || aux.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: *aux.Latitude, Longitude: *aux.Longitude}, true
}
