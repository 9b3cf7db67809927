package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml"), true).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Station.ID != "9414131" {
		t.Errorf("Station.ID = %q, expected %q", cfg.Station.ID, "9414131")
	}
	if cfg.Analysis.DayStartHour != 10 || cfg.Analysis.DayEndHour != 16 {
		t.Errorf("daytime window = [%d, %d), expected [10, 16)", cfg.Analysis.DayStartHour, cfg.Analysis.DayEndHour)
	}
	if cfg.Analysis.TidepoolTide != 0.1 {
		t.Errorf("TidepoolTide = %v, expected 0.1", cfg.Analysis.TidepoolTide)
	}
	if cfg.Analysis.MaxNeighborGap != 16*time.Hour {
		t.Errorf("MaxNeighborGap = %v, expected 16h", cfg.Analysis.MaxNeighborGap)
	}
	if cfg.Storage.Enabled() {
		t.Errorf("storage should be disabled by default")
	}
	if cfg.Station.HasCoordinates() {
		t.Errorf("coordinates should be unset by default")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml"), false).LoadConfig()
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfig(t, `
station:
  id: "9410230"
  name: La Jolla
  latitude: 32.867
  longitude: -117.257
analysis:
  day_start_hour: 8
  day_end_hour: 18
  tidepool_tide: -0.5
  max_neighbor_gap: 14h
  empty_months: fill
export:
  format: xlsx
storage:
  sqlite_path: data/tides.db
`)

	cfg, err := NewYAMLProvider(path, false).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Station.ID != "9410230" {
		t.Errorf("Station.ID = %q, expected %q", cfg.Station.ID, "9410230")
	}
	if !cfg.Station.HasCoordinates() || *cfg.Station.Latitude != 32.867 {
		t.Errorf("Latitude = %v, expected 32.867", cfg.Station.Latitude)
	}
	if cfg.Analysis.DayStartHour != 8 || cfg.Analysis.DayEndHour != 18 {
		t.Errorf("daytime window = [%d, %d), expected [8, 18)", cfg.Analysis.DayStartHour, cfg.Analysis.DayEndHour)
	}
	if cfg.Analysis.MaxNeighborGap != 14*time.Hour {
		t.Errorf("MaxNeighborGap = %v, expected 14h", cfg.Analysis.MaxNeighborGap)
	}
	if cfg.Analysis.EmptyMonths != "fill" {
		t.Errorf("EmptyMonths = %q, expected fill", cfg.Analysis.EmptyMonths)
	}
	// Unset sections keep their defaults
	if cfg.Period.StartYear != 2019 {
		t.Errorf("Period.StartYear = %d, expected 2019", cfg.Period.StartYear)
	}
	if cfg.Station.TimeZone != "America/Los_Angeles" {
		t.Errorf("TimeZone = %q, expected America/Los_Angeles", cfg.Station.TimeZone)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "analysis:\n  day_start_hour: 9\n")
	t.Setenv("TIDAL_ANALYSIS_DAY_START_HOUR", "11")
	t.Setenv("TIDAL_ANALYSIS_TIDEPOOL_TIDE", "0.25")
	t.Setenv("TIDAL_NOAA_TOKEN", "from-env")

	cfg, err := NewYAMLProvider(path, false).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Analysis.DayStartHour != 11 {
		t.Errorf("DayStartHour = %d, expected 11", cfg.Analysis.DayStartHour)
	}
	if cfg.Analysis.TidepoolTide != 0.25 {
		t.Errorf("TidepoolTide = %v, expected 0.25", cfg.Analysis.TidepoolTide)
	}
	if cfg.NOAA.Token != "from-env" {
		t.Errorf("NOAA.Token = %q, expected from-env", cfg.NOAA.Token)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		errContains string
	}{
		{
			name:        "inverted window",
			body:        "analysis:\n  day_start_hour: 16\n  day_end_hour: 10\n",
			errContains: "analysis.day_end_hour",
		},
		{
			name:        "hour out of range",
			body:        "analysis:\n  day_end_hour: 25\n",
			errContains: "analysis.day_end_hour",
		},
		{
			name:        "unknown empty month policy",
			body:        "analysis:\n  empty_months: skip\n",
			errContains: "analysis.empty_months",
		},
		{
			name:        "inverted period",
			body:        "period:\n  start_year: 2024\n  end_year: 2020\n",
			errContains: "period.end_year",
		},
		{
			name:        "two storage backends",
			body:        "storage:\n  sqlite_path: a.db\n  postgres_dsn: postgres://localhost/tides\n",
			errContains: "storage.sqlite_path",
		},
		{
			name:        "unknown timezone",
			body:        "station:\n  timezone: Mars/Olympus_Mons\n",
			errContains: "station.timezone",
		},
		{
			name:        "unknown key",
			body:        "analysis:\n  day_start: 9\n",
			errContains: "day_start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewYAMLProvider(writeConfig(t, tt.body), false).LoadConfig()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %q, expected it to mention %q", err.Error(), tt.errContains)
			}
		})
	}
}
