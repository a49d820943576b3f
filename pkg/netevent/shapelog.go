package netevent

import (
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

const (
	shapeLogDepth  = 6
	shapeLogMaxRaw = 4000
)

// Sample is one recorded raw payload, kept for the dashboard debug panel
// so an operator can see what the device actually sent when lists come
// up empty.
type Sample struct {
	Tag  string    `json:"tag"`
	At   time.Time `json:"at"`
	Keys []string  `json:"keys,omitempty"`
	Raw  string    `json:"raw"`
}

// ShapeLog is a bounded, newest-first ring of raw payload samples.
// Safe for concurrent use.
type ShapeLog struct {
	mu      sync.Mutex
	samples []Sample
}

// Add records a payload under the given tag (usually the event name that
// delivered it). Only top-level keys and a truncated body are kept.
func (l *ShapeLog) Add(tag string, payload []byte) {
	s := Sample{Tag: tag, At: time.Now()}
	if gjson.ValidBytes(payload) {
		s.Keys = objectKeys(gjson.ParseBytes(payload))
	}
	raw := string(payload)
	if len(raw) > shapeLogMaxRaw {
		raw = raw[:shapeLogMaxRaw]
	}
	s.Raw = raw

	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = append([]Sample{s}, l.samples...)
	if len(l.samples) > shapeLogDepth {
		l.samples = l.samples[:shapeLogDepth]
	}
}

// Samples returns a copy of the recorded samples, newest first.
func (l *ShapeLog) Samples() []Sample {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Sample, len(l.samples))
	copy(out, l.samples)
	return out
}
