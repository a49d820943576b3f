package netevent

import (
	"fmt"
	"strings"
	"testing"
)

func TestShapeLogBoundedNewestFirst(t *testing.T) {
	var l ShapeLog
	for i := 0; i < shapeLogDepth+2; i++ {
		l.Add(fmt.Sprintf("tag-%d", i), []byte(`{"bssid":"aa:bb:cc:dd:ee:ff"}`))
	}

	samples := l.Samples()
	if len(samples) != shapeLogDepth {
		t.Fatalf("expected ring to hold %d samples, got %d", shapeLogDepth, len(samples))
	}
	if samples[0].Tag != fmt.Sprintf("tag-%d", shapeLogDepth+1) {
		t.Errorf("expected newest sample first, got %s", samples[0].Tag)
	}
	if len(samples[0].Keys) != 1 || samples[0].Keys[0] != "bssid" {
		t.Errorf("expected top-level keys to be recorded, got %v", samples[0].Keys)
	}
}

func TestShapeLogTruncatesRaw(t *testing.T) {
	var l ShapeLog
	l.Add("big", []byte(strings.Repeat("x", shapeLogMaxRaw*2)))

	samples := l.Samples()
	if len(samples[0].Raw) != shapeLogMaxRaw {
		t.Fatalf("expected raw to be truncated to %d bytes, got %d", shapeLogMaxRaw, len(samples[0].Raw))
	}
}
