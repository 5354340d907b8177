package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-emoscan/internal/config"
	"github.com/teslashibe/go-emoscan/internal/log"
	"github.com/teslashibe/go-emoscan/pkg/camera"
	"github.com/teslashibe/go-emoscan/pkg/camera/webcam"
	"github.com/teslashibe/go-emoscan/pkg/scanner"
	"github.com/teslashibe/go-emoscan/pkg/web"
)

type serveOptions struct {
	Options
	Port      string
	StaticDir string
	Interval  time.Duration
	AutoStart bool
}

var serveOpts serveOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live display server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, serveOpts)
	},
}

func init() {
	addDetectionFlags(serveCmd, &serveOpts.Options)
	serveCmd.Flags().StringVarP(&serveOpts.Port, "port", "p", config.Port(), "HTTP port")
	serveCmd.Flags().StringVar(&serveOpts.StaticDir, "static", "", "Directory of static display assets")
	serveCmd.Flags().DurationVar(&serveOpts.Interval, "interval", 30*time.Millisecond, "Display refresh interval")
	serveCmd.Flags().BoolVar(&serveOpts.AutoStart, "start", false, "Start scanning immediately")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	ctx := cmd.Context()

	camCfg, err := opts.cameraConfig()
	if err != nil {
		return err
	}
	pipe, clf, err := opts.newPipeline()
	if err != nil {
		return err
	}
	defer clf.Close()

	scfg := scanner.DefaultConfig()
	scfg.Interval = opts.Interval
	scfg.Camera = camCfg
	scfg.Model = strings.TrimSuffix(filepath.Base(opts.EmotionModel), filepath.Ext(opts.EmotionModel))
	if errs := scfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid scanner settings: %v", errs)
	}

	sc := scanner.New(pipe, webcam.Opener{}, scfg)
	server := web.NewServer(opts.Port, sc, camera.NewManager(camCfg), opts.StaticDir)

	if opts.AutoStart {
		if err := sc.Start(ctx); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		sc.Stop()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	return server.Shutdown()
}
