package tuning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := "tick_rate_hz: 10\nplanner:\n  already_exists_coef: 0.5\nmap:\n  width: 32\n"
	if err := os.WriteFile(p, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.TickRateHz != 10 || tu.Planner.AlreadyExistsCoef != 0.5 || tu.Map.Width != 32 {
		t.Fatalf("overrides not applied: %+v", tu)
	}
	if tu.Map.Depth != 64 || tu.Planner.WarnMs != 20 || tu.Stations.LinkDistance != 4 {
		t.Fatalf("defaults lost: %+v", tu)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte("tick_rate_hz: 0\ntransport:\n  default_speed: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(p)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "tick_rate_hz") || !strings.Contains(err.Error(), "default_speed") {
		t.Fatalf("error misses a field: %v", err)
	}
}

func TestRepoTuningFileLoads(t *testing.T) {
	tu, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("load configs/tuning.yaml: %v", err)
	}
	if err := tu.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
