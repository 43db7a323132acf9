package transcode

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-groove/logging"
)

func init() {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
}

const probeJSON = `{
  "streams": [
    {
      "codec_type": "audio",
      "codec_name": "mp3",
      "codec_long_name": "MP3 (MPEG audio layer 3)",
      "sample_rate": "44100",
      "channels": 2,
      "duration": "61.440000",
      "bit_rate": "192000"
    }
  ]
}`

func TestParseFFprobeOutput(t *testing.T) {
	meta, err := parseFFprobeOutput([]byte(probeJSON))
	if err != nil {
		t.Fatalf("parseFFprobeOutput: %v", err)
	}
	if meta.SampleRate != 44100 || meta.Channels != 2 || meta.Codec != "mp3" {
		t.Errorf("metadata = %+v", meta)
	}
	if math.Abs(meta.Duration-61.44) > 1e-9 || meta.Bitrate != 192000 {
		t.Errorf("duration/bitrate = %v/%v", meta.Duration, meta.Bitrate)
	}
}

func TestParseFFprobeOutputRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "ffprobe: error"},
		{"no streams", `{"streams": []}`},
		{"video stream", `{"streams": [{"codec_type": "video", "sample_rate": "44100", "channels": 1}]}`},
		{"missing sample rate", `{"streams": [{"codec_type": "audio", "channels": 1}]}`},
		{"no channels", `{"streams": [{"codec_type": "audio", "sample_rate": "44100", "channels": 0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFFprobeOutput([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBytesToFloat64(t *testing.T) {
	want := []float64{0, 0.5, -1, 0.25}
	data := make([]byte, 0, len(want)*8+3)
	for _, v := range want {
		data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
	}
	// a partial trailing sample is dropped
	data = append(data, 1, 2, 3)

	got := bytesToFloat64(data)
	if !slices.Equal(got, want) {
		t.Errorf("bytesToFloat64 = %v, want %v", got, want)
	}
	if got := bytesToFloat64([]byte{1, 2}); got != nil {
		t.Errorf("short input = %v, want nil", got)
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	meta := &AudioMetadata{SampleRate: 48000, Channels: 2}

	native := NewDecoder(nil)
	args := strings.Join(native.buildFFmpegArgs(meta), " ")
	if !strings.Contains(args, "-f f64le -ac 1 -ar 48000") {
		t.Errorf("native args = %q", args)
	}
	if strings.Contains(args, "-af") {
		t.Errorf("native args should not filter: %q", args)
	}

	cfg := DefaultDecoderConfig()
	cfg.TargetSampleRate = 22050
	cfg.ResampleQuality = "high"
	cfg.EnableNormalization = true
	cfg.MaxDuration = 0
	args = strings.Join(NewDecoder(cfg).buildFFmpegArgs(meta), " ")
	if !strings.Contains(args, "-ar 22050") {
		t.Errorf("resampled args = %q", args)
	}
	if !strings.Contains(args, "-af aresample=resampler=soxr:precision=28,loudnorm=I=-16.0:TP=-1.0:LRA=8.0") {
		t.Errorf("filter chain missing in %q", args)
	}
}

func TestOutputSampleRate(t *testing.T) {
	meta := &AudioMetadata{SampleRate: 44100}
	if got := NewDecoder(nil).outputSampleRate(meta); got != 44100 {
		t.Errorf("native rate = %d", got)
	}
	cfg := DefaultDecoderConfig()
	cfg.TargetSampleRate = 16000
	if got := NewDecoder(cfg).outputSampleRate(meta); got != 16000 {
		t.Errorf("target rate = %d", got)
	}
}

func TestDecodeFailsWithoutFFprobe(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.FFprobePath = filepath.Join(t.TempDir(), "no-such-ffprobe")
	if _, err := NewDecoder(cfg).Decode(t.Context(), "track.mp3"); err == nil {
		t.Error("expected error when ffprobe is missing")
	}
}

func TestDecoderConfigValidate(t *testing.T) {
	if err := DefaultDecoderConfig().Validate(); err != nil {
		t.Errorf("default config: %v", err)
	}
	cfg := DefaultDecoderConfig()
	cfg.TargetSampleRate = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative sample rate")
	}
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp3", "a.MP3", "notes.txt", "c.wav"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.mp3"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := DiscoverFiles(dir, []string{".mp3"})
	if err != nil {
		t.Fatalf("DiscoverFiles: %v", err)
	}
	want := []string{filepath.Join(dir, "a.MP3"), filepath.Join(dir, "b.mp3")}
	if !slices.Equal(got, want) {
		t.Errorf("DiscoverFiles = %v, want %v", got, want)
	}

	got, err = DiscoverFiles(dir, []string{"wav", "MP3"})
	if err != nil {
		t.Fatalf("DiscoverFiles: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %v, want three files", got)
	}

	if _, err := DiscoverFiles(filepath.Join(dir, "missing"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}
