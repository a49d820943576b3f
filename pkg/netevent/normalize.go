package netevent

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hexwave/wifidash/internal/utils"
)

// The device firmware has shipped several generations of event payloads.
// Rather than sniffing shapes at runtime, each field is pulled from a
// fixed, ordered alias list; the first key that carries a usable value
// wins. Extending support for a new firmware means adding a key here.
var (
	listKeys    = []string{"access_points", "aps", "list", "scanned"}
	bssidKeys   = []string{"bssid", "mac", "ap", "address"}
	ssidKeys    = []string{"essid", "ssid", "name", "ap_name"}
	rssiKeys    = []string{"rssi", "signal", "strength", "level"}
	channelKeys = []string{"channel", "chan"}
	captureKeys = []string{"file", "pcap"}
)

// Normalize converts one raw event payload into canonical Records. It is
// a pure transform: callers decide whether to persist the result.
//
// Tolerated shapes: a JSON array of AP objects, an object with the list
// nested under a known key, an object keyed by BSSID-looking keys, or a
// single AP object (including capture-confirmed events carrying a file
// reference). Anything that yields no BSSID is reported in
// Result.Unknown together with the keys that were present.
func Normalize(payload []byte) Result {
	var res Result
	if !gjson.ValidBytes(payload) {
		res.Unknown = append(res.Unknown, UnknownShape{})
		return res
	}

	root := gjson.ParseBytes(payload)
	elements, ok := selectElements(root)
	if !ok {
		res.Unknown = append(res.Unknown, UnknownShape{Keys: objectKeys(root)})
		return res
	}

	// Duplicate BSSIDs within one payload merge last-write-wins per
	// field, same rule the history store applies across payloads.
	index := make(map[string]int)
	for _, el := range elements {
		rec, keys, ok := extract(el.value, el.fallbackBSSID)
		if !ok {
			res.Unknown = append(res.Unknown, UnknownShape{Keys: keys})
			continue
		}
		if i, seen := index[rec.BSSID]; seen {
			res.Records[i] = mergeRecord(res.Records[i], rec)
		} else {
			index[rec.BSSID] = len(res.Records)
			res.Records = append(res.Records, rec)
		}
	}
	return res
}

type element struct {
	value gjson.Result

	// fallbackBSSID is used when the element itself carries no BSSID but
	// its map key did (payloads keyed by hardware address).
	fallbackBSSID string
}

func selectElements(root gjson.Result) ([]element, bool) {
	if root.IsArray() {
		var els []element
		for _, v := range root.Array() {
			els = append(els, element{value: v})
		}
		return els, true
	}

	if !root.IsObject() {
		return nil, false
	}

	for _, k := range listKeys {
		if v := root.Get(k); v.IsArray() {
			var els []element
			for _, item := range v.Array() {
				els = append(els, element{value: item})
			}
			return els, true
		}
	}

	// Some firmwares send a map keyed by BSSID instead of a list.
	var keyed []element
	root.ForEach(func(key, value gjson.Result) bool {
		if utils.IsBSSID(key.String()) && value.IsObject() {
			keyed = append(keyed, element{value: value, fallbackBSSID: key.String()})
		}
		return true
	})
	if len(keyed) > 0 {
		return keyed, true
	}

	// Otherwise treat the object itself as a single AP / capture event.
	return []element{{value: root}}, true
}

func extract(el gjson.Result, fallbackBSSID string) (Record, []string, bool) {
	if !el.IsObject() {
		return Record{}, nil, false
	}

	bssid, ok := firstString(el, bssidKeys)
	if !ok && fallbackBSSID != "" {
		bssid, ok = fallbackBSSID, true
	}
	if !ok {
		// An access point with no stable address cannot be tracked.
		return Record{}, objectKeys(el), false
	}

	rec := Record{BSSID: utils.NormalizeBSSID(bssid)}
	if ssid, ok := firstString(el, ssidKeys); ok {
		rec.SSID = ssid
	}
	rec.Channel = firstInt(el, channelKeys)
	rec.RSSI = firstInt(el, rssiKeys)
	if path, ok := firstString(el, captureKeys); ok {
		rec.CapturePath = path
	}
	return rec, nil, true
}

// firstString returns the first non-empty string value among the aliases.
func firstString(el gjson.Result, keys []string) (string, bool) {
	for _, k := range keys {
		if v := el.Get(k); v.Type == gjson.String && v.Str != "" {
			return v.Str, true
		}
	}
	return "", false
}

// firstInt tolerates both numeric values and numeric strings, which some
// firmwares emit for rssi/channel.
func firstInt(el gjson.Result, keys []string) *int {
	for _, k := range keys {
		v := el.Get(k)
		switch v.Type {
		case gjson.Number:
			n := int(v.Int())
			return &n
		case gjson.String:
			if n, err := strconv.Atoi(strings.TrimSpace(v.Str)); err == nil {
				return &n
			}
		}
	}
	return nil
}

func mergeRecord(dst, src Record) Record {
	if src.SSID != "" {
		dst.SSID = src.SSID
	}
	if src.Channel != nil {
		dst.Channel = src.Channel
	}
	if src.RSSI != nil {
		dst.RSSI = src.RSSI
	}
	if src.CapturePath != "" {
		dst.CapturePath = src.CapturePath
	}
	return dst
}

func objectKeys(el gjson.Result) []string {
	if !el.IsObject() {
		return nil
	}
	var keys []string
	el.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}
