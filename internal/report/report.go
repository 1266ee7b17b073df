// Package report builds police reports (partes policiales) from canonical
// alerts and submits them to the report-processing backend.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/kuntur-security/kuntur-console/internal/alert"
	"github.com/kuntur-security/kuntur-console/internal/roster"
)

// Coordinates is the report-side coordinate pair. The report backend expects
// lat/lng, not the latitude/longitude names alerts arrive with.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PoliceReport is the record submitted to the report backend. It is derived
// from an alert plus operator input and the selected officer; the alert
// itself is never modified.
type PoliceReport struct {
	ID             string       `json:"id"`
	Location       string       `json:"location"`
	Date           string       `json:"date"`
	Time           string       `json:"time"`
	Description    string       `json:"description"`
	Keywords       string       `json:"key_words"`
	Confidence     *float64     `json:"confidence_level,omitempty"`
	Classification string       `json:"alert_type"`
	Device         alert.Device `json:"device"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	MediaDuration  *float64     `json:"media_duration,omitempty"`
	OfficerName    string       `json:"officer_name"`
	OfficerRank    string       `json:"officer_rank"`
	OfficerBadge   string       `json:"officer_badge"`
	CrimeCode      string       `json:"crime_code,omitempty"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// Build derives a police report from an alert, the responding officer, and
// optional operator input. The description defaults to a generated narrative
// when the operator supplied none.
func Build(a alert.Alert, officer roster.Officer, description, crimeCode string) PoliceReport {
	if description == "" {
		description = Narrative(a)
	}

	r := PoliceReport{
		ID:             uuid.NewString(),
		Location:       a.Location,
		Date:           a.Date,
		Time:           a.Time,
		Description:    description,
		Keywords:       a.Keywords,
		Confidence:     a.Confidence,
		Classification: a.Classification,
		Device:         a.Device,
		MediaDuration:  a.MediaDuration,
		OfficerName:    officer.FullName(),
		OfficerRank:    officer.Rank,
		OfficerBadge:   officer.Badge,
		CrimeCode:      crimeCode,
		GeneratedAt:    time.Now().UTC(),
	}

	if a.Coordinates != nil {
		r.Coordinates = &Coordinates{
			Lat: a.Coordinates.Latitude,
			Lng: a.Coordinates.Longitude,
		}
	}

	return r
}

// EmptyFields lists the report fields that ended up without a value, using
// the wire names the field-completion endpoint expects.
func (r PoliceReport) EmptyFields() []string {
	var empty []string

	stringFields := []struct {
		name  string
		value string
	}{
		{"location", r.Location},
		{"date", r.Date},
		{"time", r.Time},
		{"description", r.Description},
		{"key_words", r.Keywords},
		{"alert_type", r.Classification},
		{"device_id", r.Device.ID},
		{"device_type", r.Device.Type},
		{"ip", r.Device.IP},
		{"officer_name", r.OfficerName},
		{"officer_rank", r.OfficerRank},
		{"officer_badge", r.OfficerBadge},
	}
	for _, f := range stringFields {
		if f.value == "" {
			empty = append(empty, f.name)
		}
	}

	if r.Confidence == nil {
		empty = append(empty, "confidence_level")
	}
	if r.Coordinates == nil {
		empty = append(empty, "cordinates")
	}
	if r.MediaDuration == nil {
		empty = append(empty, "media_duration")
	}

	return empty
}
