package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/sonido-groove/export"
	"github.com/RyanBlaney/sonido-groove/groove"
	"github.com/RyanBlaney/sonido-groove/groove/extractors"
	"github.com/RyanBlaney/sonido-groove/logging"
	"github.com/RyanBlaney/sonido-groove/transcode"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

const manifestName = "manifest.yaml"

func newAnalyzeCmd() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "analyze <dir>",
		Short: "Analyze every matching audio file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			s, err := loadSettings(v, configFile)
			if err != nil {
				return err
			}
			if err := setupLogging(s.LogFormat, s.LogLevel); err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), s, args[0])
		},
	}

	if err := bindAnalyzeFlags(cmd, v); err != nil {
		panic(err)
	}
	return cmd
}

func runAnalyze(ctx context.Context, s *settings, dir string) error {
	logger := logging.WithFields(logging.Fields{
		"component": "cli",
		"function":  "runAnalyze",
		"dir":       dir,
	})

	paths, err := transcode.DiscoverFiles(dir, s.Config.Extensions)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files with extensions %v in %s", s.Config.Extensions, dir)
	}

	decoder := transcode.NewDecoder(s.Decoder)
	if err := decoder.CheckAvailability(ctx); err != nil {
		return err
	}

	algorithms, err := extractors.DefaultAlgorithms(s.Config)
	if err != nil {
		return err
	}
	analyzer, err := groove.NewAnalyzer(s.Config, decoder, algorithms)
	if err != nil {
		return err
	}

	progress := mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
	bar := progress.AddBar(int64(len(paths)),
		mpb.PrependDecorators(
			decor.Name("Analyzing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.AverageETA(decor.ET_STYLE_GO),
		),
	)
	analyzer.OnFileDone(func(string, error) {
		bar.Increment()
	})

	result, err := analyzer.Run(ctx, paths)
	if err != nil {
		bar.Abort(false)
		progress.Wait()
		return err
	}
	progress.Wait()

	sink := export.NewCSVSink(s.Output, s.Config.Decimals)
	if err := groove.Export(ctx, sink, result); err != nil {
		return err
	}
	manifest := filepath.Join(s.Output, manifestName)
	if err := export.WriteManifest(manifest, s.Config, result); err != nil {
		return err
	}

	report := result.Report
	logger.Info("Results written", logging.Fields{
		"run_id":        report.RunID,
		"output":        s.Output,
		"tables":        len(sink.Written()),
		"analyzed":      len(report.Analyzed),
		"failed":        len(report.Failures),
		"empty":         len(report.Empty),
		"substitutions": len(report.Substitutions),
	})

	if len(report.Analyzed) == 0 {
		return errors.New("no file could be analyzed, see " + manifest)
	}
	return nil
}
