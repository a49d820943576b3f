package utils

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

func SetLogLevel(level string) {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

var bssidRegex = regexp.MustCompile(`^[0-9a-fA-F]{2}([:-][0-9a-fA-F]{2}){5}$`)

// IsBSSID checks if a string looks like a hardware address
// (aa:bb:cc:dd:ee:ff, colon or dash separated).
func IsBSSID(s string) bool {
	return bssidRegex.MatchString(strings.TrimSpace(s))
}

// NormalizeBSSID lowercases a hardware address and unifies separators to
// colons. The BSSID is the only stable merge key, so every component
// stores it in this form.
func NormalizeBSSID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "-", ":")
}

// FlattenBSSID strips separators: aa:bb:cc:dd:ee:ff -> aabbccddeeff.
// Capture files on disk usually encode the address this way.
func FlattenBSSID(s string) string {
	return strings.ReplaceAll(NormalizeBSSID(s), ":", "")
}
