package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-emoscan/internal/config"
	"github.com/teslashibe/go-emoscan/internal/log"
	"github.com/teslashibe/go-emoscan/pkg/annotate"
	"github.com/teslashibe/go-emoscan/pkg/camera"
	"github.com/teslashibe/go-emoscan/pkg/debug"
	"github.com/teslashibe/go-emoscan/pkg/emotion/fer"
	"github.com/teslashibe/go-emoscan/pkg/pipeline"
)

// Version is the application version.
const Version = "0.1.0"

// Options holds the detection settings shared by serve and probe
type Options struct {
	Device        int
	Width         int
	Height        int
	NoMirror      bool
	DetectorModel string
	EmotionModel  string
	HistorySize   int
	Floor         float64
	KeepHistory   bool
	Theme         string
}

var (
	logLevel      string
	debugAll      bool
	debugPipeline bool
)

var rootCmd = &cobra.Command{
	Use:     "emoscan",
	Short:   "Live webcam emotion detection",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug.Enabled = debugAll
		debug.Pipeline = debugPipeline || debugAll
		if debugAll {
			logLevel = "debug"
		}
		log.Init(logLevel)
	},
	SilenceUsage: true,
}

// Execute runs the root command with a context cancelled on Ctrl+C.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&debugAll, "debug", false, "Enable verbose debug output")
	rootCmd.PersistentFlags().BoolVar(&debugPipeline, "debug-pipeline", false, "Trace every frame through the pipeline")
}

// addDetectionFlags registers the flags behind Options on cmd.
func addDetectionFlags(cmd *cobra.Command, opts *Options) {
	def := camera.DefaultConfig()
	pdef := pipeline.DefaultConfig()

	cmd.Flags().IntVarP(&opts.Device, "camera", "c", config.Camera(), "Webcam device index")
	cmd.Flags().IntVar(&opts.Width, "width", def.Width, "Requested frame width")
	cmd.Flags().IntVar(&opts.Height, "height", def.Height, "Requested frame height")
	cmd.Flags().BoolVar(&opts.NoMirror, "no-mirror", false, "Do not flip frames horizontally")
	cmd.Flags().StringVar(&opts.DetectorModel, "detector-model", config.DetectorModel(), "YuNet face detector ONNX model")
	cmd.Flags().StringVar(&opts.EmotionModel, "emotion-model", config.EmotionModel(), "Facial expression ONNX model")
	cmd.Flags().IntVar(&opts.HistorySize, "history", pdef.HistorySize, "Frames in the majority vote window")
	cmd.Flags().Float64Var(&opts.Floor, "floor", pdef.ConfidenceFloor, "Readings at or below this confidence are ignored")
	cmd.Flags().BoolVar(&opts.KeepHistory, "keep-history", false, "Keep history across camera sessions")
	cmd.Flags().StringVar(&opts.Theme, "theme", annotate.DefaultTheme,
		"Face overlay theme: "+strings.Join(annotate.ThemeNames(), ", "))
}

// cameraConfig builds the camera settings from opts.
func (o Options) cameraConfig() (camera.Config, error) {
	cfg := camera.DefaultConfig()
	cfg.Device = o.Device
	cfg.Width = o.Width
	cfg.Height = o.Height
	cfg.Mirror = !o.NoMirror
	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("invalid camera settings: %v", errs)
	}
	return cfg, nil
}

// style resolves the overlay theme.
func (o Options) style() (annotate.Style, error) {
	if o.Theme == "" {
		return annotate.DefaultStyle(), nil
	}
	s, ok := annotate.LookupTheme(o.Theme)
	if !ok {
		return s, fmt.Errorf("unknown theme %q (want one of: %s)", o.Theme, strings.Join(annotate.ThemeNames(), ", "))
	}
	return s, nil
}

// newPipeline loads the models and builds a pipeline from opts. The caller
// closes the returned classifier.
func (o Options) newPipeline() (*pipeline.Pipeline, *fer.Classifier, error) {
	pcfg := pipeline.DefaultConfig()
	pcfg.HistorySize = o.HistorySize
	pcfg.ConfidenceFloor = o.Floor
	pcfg.ResetOnStart = !o.KeepHistory
	if errs := pcfg.Validate(); len(errs) > 0 {
		return nil, nil, fmt.Errorf("invalid pipeline settings: %v", errs)
	}
	style, err := o.style()
	if err != nil {
		return nil, nil, err
	}

	fcfg := fer.DefaultConfig()
	fcfg.DetectorPath = o.DetectorModel
	fcfg.EmotionPath = o.EmotionModel

	clf, err := fer.New(fcfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("models loaded", "detector", fcfg.DetectorPath, "emotion", fcfg.EmotionPath)

	pipe := pipeline.New(clf, pcfg)
	pipe.SetStyle(style)
	return pipe, clf, nil
}
