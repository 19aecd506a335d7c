package ids

import (
	"strings"
	"testing"
)

func TestCountersSequential(t *testing.T) {
	var c Counters
	if got := c.Building(); got != "B1" {
		t.Fatalf("first building=%q", got)
	}
	if got := c.Transport(); got != "T1" {
		t.Fatalf("first transport=%q", got)
	}
	c.Observe("B41")
	c.Observe("T7")
	c.Observe("X99")
	if got := c.Building(); got != "B42" {
		t.Fatalf("after observe building=%q", got)
	}
	if got := c.Transport(); got != "T8" {
		t.Fatalf("after observe transport=%q", got)
	}
}

func TestLessNumeric(t *testing.T) {
	if !Less("B9", "B10") {
		t.Fatalf("B9 should sort before B10")
	}
	if Less("T2", "B3") {
		t.Fatalf("prefix order should fall back to string compare")
	}
}

func TestNewIDsArePrefixed(t *testing.T) {
	if p := NewPlayerID(); !strings.HasPrefix(string(p), "P-") || len(p) < 10 {
		t.Fatalf("player id=%q", p)
	}
	if NewGameID() == NewGameID() {
		t.Fatalf("game ids collide")
	}
}
