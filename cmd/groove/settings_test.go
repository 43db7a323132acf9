package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-groove/groove/config"
	"github.com/RyanBlaney/sonido-groove/logging"
	"github.com/spf13/cobra"
)

// loadArgs resolves settings the way the analyze command does for args
func loadArgs(t *testing.T, args ...string) (*settings, error) {
	t.Helper()
	v := newViper()
	cmd := &cobra.Command{Use: "analyze"}
	if err := bindAnalyzeFlags(cmd, v); err != nil {
		t.Fatalf("bindAnalyzeFlags: %v", err)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	configFile, _ := cmd.Flags().GetString("config")
	return loadSettings(v, configFile)
}

func TestSettingsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	s, err := loadArgs(t)
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}

	want := config.DefaultConfig()
	if s.Config.WindowLength != want.WindowLength || s.Config.HopLength != want.HopLength {
		t.Errorf("segmentation = %v/%v", s.Config.WindowLength, s.Config.HopLength)
	}
	if !slices.Equal(s.Config.Descriptors, want.Descriptors) {
		t.Errorf("descriptors = %v", s.Config.Descriptors)
	}
	if s.Config.Thresholds[config.DescriptorOnsetVariability] != want.Thresholds[config.DescriptorOnsetVariability] {
		t.Errorf("thresholds = %v", s.Config.Thresholds)
	}
	if s.Config.Decimals != -1 || s.Config.Selection != config.SelectHighestConfidence {
		t.Errorf("decimals/selection = %d/%s", s.Config.Decimals, s.Config.Selection)
	}
	if s.Decoder.TargetSampleRate != 0 || s.Decoder.FFmpegPath != "ffmpeg" || s.Decoder.Timeout != 2*time.Minute {
		t.Errorf("decoder = %+v", s.Decoder)
	}
	if s.Output != "results" || s.LogFormat != "text" {
		t.Errorf("output/log format = %s/%s", s.Output, s.LogFormat)
	}
}

func TestSettingsLayering(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	file := filepath.Join(dir, "groove.yaml")
	yaml := `window_length: 10
hop_length: 5
workers: 3
thresholds:
  bpm:
    low: 90
    high: 130
decoder:
  target_sample_rate: 22050
  timeout: 45s
`
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GROOVE_WORKERS", "6")
	t.Setenv("GROOVE_SELECTION", "median")

	s, err := loadArgs(t, "--config", file, "--hop", "2.5", "--descriptors", "bpm,mfcc")
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}

	if s.Config.WindowLength != 10 {
		t.Errorf("window from file = %v, want 10", s.Config.WindowLength)
	}
	if s.Config.HopLength != 2.5 {
		t.Errorf("hop from flag = %v, want 2.5", s.Config.HopLength)
	}
	if s.Config.Workers != 6 || s.Config.Selection != config.SelectMedian {
		t.Errorf("env overrides = %d/%s", s.Config.Workers, s.Config.Selection)
	}
	if !slices.Equal(s.Config.Descriptors, []config.Descriptor{config.DescriptorBPM, config.DescriptorMFCC}) {
		t.Errorf("descriptors = %v", s.Config.Descriptors)
	}
	if got := s.Config.Thresholds[config.DescriptorBPM]; got.Low != 90 || got.High != 130 {
		t.Errorf("bpm thresholds = %+v", got)
	}
	if _, ok := s.Config.Thresholds[config.DescriptorTempoStability]; !ok {
		t.Error("default thresholds dropped by config file")
	}
	if s.Decoder.TargetSampleRate != 22050 || s.Decoder.Timeout != 45*time.Second {
		t.Errorf("decoder = %+v", s.Decoder)
	}
}

func TestSettingsRejectInvalid(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := [][]string{
		{"--window", "0"},
		{"--selection", "loudest"},
		{"--descriptors", "bpm", "--similarity", "mfcc"},
		{"--config", "missing.yaml"},
	}
	for _, args := range tests {
		if _, err := loadArgs(t, args...); err == nil {
			t.Errorf("loadSettings(%v) succeeded, want error", args)
		}
	}
}

func TestSetupLogging(t *testing.T) {
	t.Cleanup(func() { logging.SetGlobalLogger(&logging.NoOpLogger{}) })

	for _, format := range []string{"json", "text", "color"} {
		if err := setupLogging(format, "warn"); err != nil {
			t.Errorf("format %s: %v", format, err)
		}
	}
	if err := setupLogging("xml", "info"); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := setupLogging("text", "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
