package alert

// Coordinates is a geographic point attached to an alert.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Device describes the camera or sensor that originated an alert.
type Device struct {
	ID   string `json:"id"`
	Type string `json:"tipo"`
	IP   string `json:"ip"`
}

// Alert is the canonical, shape-stable alert record consumed by the rest of
// the application. It is produced exclusively by normalizing a Raw payload;
// once built it is never mutated, only copied into derived records such as
// police reports.
type Alert struct {
	// Device identifies the originating camera or sensor
	Device Device `json:"device"`

	// Location is the free-text incident location
	Location string `json:"location"`

	// Date and Time are kept as the backend delivered them (display strings)
	Date string `json:"date"`
	Time string `json:"time"`

	// StreamURL points at the live stream or recorded clip for the incident
	StreamURL string `json:"streamUrl"`

	// Transcription is the free-text transcription of the clip audio
	Transcription string `json:"transcription"`

	// Keywords is the display form of the detected keywords, joined with ", "
	Keywords string `json:"keywords"`

	// Confidence is the detection confidence level; nil when the backend
	// did not send one
	Confidence *float64 `json:"confidence,omitempty"`

	// Classification is the free-text alert classification (e.g. "robo")
	Classification string `json:"classification"`

	// UserID identifies the account the originating device belongs to
	UserID string `json:"userId"`

	// MediaDuration is the clip length in seconds; nil when absent
	MediaDuration *float64 `json:"mediaDuration,omitempty"`

	// Coordinates is the geo position of the incident; nil when absent or
	// unparseable
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// DeliveryHandle is the opaque token correlating one fetched alert to one
// acknowledgement call. Zero is never a valid handle.
type DeliveryHandle int64

// Key returns a stable identity for deduplication purposes. Alerts carry no
// server-side ID, so the device plus the event timestamp is the closest thing
// to one.
func (a Alert) Key() string {
	return a.Device.ID + "|" + a.Date + "|" + a.Time
}
