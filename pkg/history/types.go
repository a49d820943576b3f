package history

import "time"

// Entry is the persisted superset of a normalized access-point record.
// Entries are keyed by BSSID and never deleted automatically; Reset is
// the only (operator-driven) purge.
type Entry struct {
	BSSID       string `json:"bssid"`
	SSID        string `json:"ssid,omitempty"`
	Channel     *int   `json:"channel,omitempty"`
	RSSI        *int   `json:"rssi,omitempty"`
	Whitelisted bool   `json:"whitelisted"`

	// FirstSeenAt is immutable once set. LastSeenAt only moves forward.
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`

	// CapturePath is the handshake file recorded by the most recent
	// capture-confirmed event. Once set it is only ever replaced, never
	// cleared.
	CapturePath string `json:"capture_path,omitempty"`

	CrackedPassword string     `json:"cracked_password,omitempty"`
	CrackedAt       *time.Time `json:"cracked_at,omitempty"`
}
