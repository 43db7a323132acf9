package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/RyanBlaney/sonido-groove/groove/config"
	"github.com/RyanBlaney/sonido-groove/logging"
	"github.com/RyanBlaney/sonido-groove/transcode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "GROOVE"

// settings is everything the analyze command resolves from flags, env and config file
type settings struct {
	Config    *config.Config
	Decoder   *transcode.DecoderConfig
	Output    string
	LogLevel  string
	LogFormat string
}

// newViper creates a viper instance holding the built-in defaults and reading GROOVE_* variables
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := config.DefaultConfig()
	v.SetDefault("window_length", cfg.WindowLength)
	v.SetDefault("hop_length", cfg.HopLength)
	v.SetDefault("descriptors", descriptorStrings(cfg.Descriptors))
	v.SetDefault("selection", string(cfg.Selection))
	v.SetDefault("similarity", descriptorStrings(cfg.Similarity))
	v.SetDefault("mfcc_coefficients", cfg.MFCCCoefficients)
	v.SetDefault("extensions", cfg.Extensions)
	v.SetDefault("decimals", cfg.Decimals)
	v.SetDefault("workers", cfg.Workers)
	for d, t := range cfg.Thresholds {
		v.SetDefault("thresholds."+string(d)+".low", t.Low)
		v.SetDefault("thresholds."+string(d)+".high", t.High)
	}

	dec := transcode.DefaultDecoderConfig()
	v.SetDefault("decoder.target_sample_rate", dec.TargetSampleRate)
	v.SetDefault("decoder.max_duration", dec.MaxDuration)
	v.SetDefault("decoder.resample_quality", dec.ResampleQuality)
	v.SetDefault("decoder.ffmpeg_path", dec.FFmpegPath)
	v.SetDefault("decoder.ffprobe_path", dec.FFprobePath)
	v.SetDefault("decoder.timeout", dec.Timeout)
	v.SetDefault("decoder.enable_normalization", dec.EnableNormalization)
	v.SetDefault("decoder.normalization_method", dec.NormalizationMethod)
	v.SetDefault("decoder.target_lufs", dec.TargetLUFS)
	v.SetDefault("decoder.target_peak", dec.TargetPeak)
	v.SetDefault("decoder.loudness_range", dec.LoudnessRange)

	v.SetDefault("output", "results")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	return v
}

// bindAnalyzeFlags registers the analyze flags and binds them to their viper keys
func bindAnalyzeFlags(cmd *cobra.Command, v *viper.Viper) error {
	cfg := config.DefaultConfig()
	dec := transcode.DefaultDecoderConfig()

	f := cmd.Flags()
	f.String("config", "", "path to a YAML config file")
	f.StringP("output", "o", "results", "directory for the CSV tables and manifest")
	f.Float64P("window", "w", cfg.WindowLength, "window length in seconds")
	f.Float64("hop", cfg.HopLength, "hop length in seconds")
	f.StringSlice("descriptors", descriptorStrings(cfg.Descriptors), "descriptors to compute")
	f.StringSlice("similarity", descriptorStrings(cfg.Similarity), "descriptors to build similarity matrices for")
	f.String("selection", string(cfg.Selection), "candidate selection policy (highest_confidence, median)")
	f.IntP("workers", "j", cfg.Workers, "files analyzed concurrently")
	f.Int("decimals", cfg.Decimals, "decimal places in the CSV output, -1 for full precision")
	f.Int("mfcc-coefficients", cfg.MFCCCoefficients, "number of MFCC coefficients")
	f.StringSlice("extensions", cfg.Extensions, "file extensions to analyze")
	f.Int("sample-rate", dec.TargetSampleRate, "resample to this rate, 0 keeps the source rate")
	f.String("ffmpeg", dec.FFmpegPath, "ffmpeg binary")
	f.String("ffprobe", dec.FFprobePath, "ffprobe binary")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
	f.String("log-format", "text", "log format (text, json, color)")

	bindings := map[string]string{
		"output":                     "output",
		"window_length":              "window",
		"hop_length":                 "hop",
		"descriptors":                "descriptors",
		"similarity":                 "similarity",
		"selection":                  "selection",
		"workers":                    "workers",
		"decimals":                   "decimals",
		"mfcc_coefficients":          "mfcc-coefficients",
		"extensions":                 "extensions",
		"decoder.target_sample_rate": "sample-rate",
		"decoder.ffmpeg_path":        "ffmpeg",
		"decoder.ffprobe_path":       "ffprobe",
		"log_level":                  "log-level",
		"log_format":                 "log-format",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// loadSettings reads .env and the optional config file, then resolves every
// setting. Flags win over GROOVE_* variables, which win over the file.
func loadSettings(v *viper.Viper, configFile string) (*settings, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	s := &settings{
		Config:    &config.Config{},
		Decoder:   &transcode.DecoderConfig{},
		Output:    v.GetString("output"),
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
	}
	if err := v.Unmarshal(s.Config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := v.UnmarshalKey("decoder", s.Decoder); err != nil {
		return nil, fmt.Errorf("failed to decode decoder config: %w", err)
	}

	if err := s.Config.Validate(); err != nil {
		return nil, err
	}
	if err := s.Decoder.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// setupLogging installs the global logger for the chosen format and level
func setupLogging(format, level string) error {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}

	var logger logging.Logger
	format = strings.ToLower(format)
	switch format {
	case "json", "text":
		l := logrus.New()
		l.SetOutput(os.Stderr)
		if format == "json" {
			l.SetFormatter(&logrus.JSONFormatter{})
		} else {
			l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		}
		logger = logging.NewLogrusLogger(l)
	case "color":
		logger = logging.NewDefaultLogger()
	default:
		return fmt.Errorf("unknown log format: %q", format)
	}

	logger.SetLevel(lvl)
	logging.SetGlobalLogger(logger)
	return nil
}

func descriptorStrings(ds []config.Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = string(d)
	}
	return out
}
