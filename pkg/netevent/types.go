package netevent

// Record is the canonical access-point observation extracted from a raw
// event payload. The BSSID is mandatory; everything else is best-effort
// and may be missing depending on which shape the device emitted.
type Record struct {
	BSSID   string `json:"bssid"`
	SSID    string `json:"ssid,omitempty"`
	Channel *int   `json:"channel,omitempty"`
	RSSI    *int   `json:"rssi,omitempty"`

	// CapturePath is set only for capture-confirmed events that carry a
	// handshake file reference.
	CapturePath string `json:"capture_path,omitempty"`
}

// UnknownShape describes a payload (or payload element) that could not be
// normalized because no recognized key carried a BSSID. The keys that were
// present are kept so the debug panel can show what the device actually
// sent.
type UnknownShape struct {
	Keys []string `json:"keys"`
}

// Result is the outcome of normalizing one raw payload. Unrecognized
// input is never dropped silently: anything that didn't yield a Record
// ends up in Unknown.
type Result struct {
	Records []Record       `json:"records"`
	Unknown []UnknownShape `json:"unknown,omitempty"`
}
