package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/menta2k/idphoto"
	"github.com/menta2k/idphoto/internal/config"
	"github.com/menta2k/idphoto/internal/utils"
	"github.com/menta2k/idphoto/pkg/imageio"
)

// app carries the state shared by every subcommand
type app struct {
	configPath string
	logLevel   string
	pretty     bool

	cfg    *config.Config
	studio *idphoto.Studio
	logger zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "idphoto",
		Short:         "Prepare ID photos: retouch, recolour, crop and lay out for print",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (.json, .yaml or .yml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.pretty, "pretty", false, "human-readable console logs")

	root.AddCommand(
		a.processCmd(),
		a.toneCmd(),
		a.beautyCmd(),
		a.backgroundCmd(),
		a.rotateCmd(),
		a.cropCmd(),
		a.layoutCmd(),
		a.presetsCmd(),
		a.detectCmd(),
		versionCmd(),
	)
	return root
}

// setup configures logging, loads the config and builds the studio.
func (a *app) setup() error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(strings.ToLower(a.logLevel))
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", a.logLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	if a.pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	a.logger = log.Logger

	a.cfg = config.Default()
	path := a.configPath
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}
	if path != "" {
		if a.cfg, err = config.LoadFromFile(path); err != nil {
			return err
		}
		a.logger.Debug().Str("path", path).Msg("config loaded")
	}

	a.studio, err = idphoto.NewWithConfig(a.cfg, idphoto.WithLogger(a.logger))
	return err
}

// outputOptions returns the encoder settings from the config
func (a *app) outputOptions() imageio.Options {
	return imageio.Options{
		Format:   a.cfg.Output.Format,
		Quality:  a.cfg.Output.Quality,
		Lossless: a.cfg.Output.Lossless,
	}
}

// forEachInput loads every input (directories expand to their images),
// transforms it and saves the result next to the configured output dir.
func (a *app) forEachInput(ctx context.Context, args []string, fn func(image.Image) (image.Image, error)) error {
	inputs, err := utils.ExpandInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input images")
	}

	failed := 0
	for _, in := range inputs {
		if err := a.processOne(ctx, in, fn); err != nil {
			a.logger.Error().Err(err).Str("input", in).Msg("failed")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(inputs))
	}
	return nil
}

func (a *app) processOne(ctx context.Context, in string, fn func(image.Image) (image.Image, error)) error {
	img, err := a.studio.Load(ctx, in)
	if err != nil {
		return err
	}
	out, err := fn(img)
	if err != nil {
		return err
	}

	format := a.cfg.Output.Format
	if a.cfg.Output.MaxSizeKB > 0 {
		format = "jpg"
	}
	path := utils.OutputPath(in, a.cfg.Output.Dir, a.cfg.Output.Prefix, a.cfg.Output.Suffix, format)
	if err := a.studio.Save(out, path, a.outputOptions(), a.cfg.Output.MaxSizeKB); err != nil {
		return err
	}
	return a.logWritten(in, path)
}

func (a *app) logWritten(in, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat output: %w", err)
	}
	a.logger.Info().Str("input", in).Str("output", path).Str("size", utils.FormatFileSize(info.Size())).Msg("wrote")
	return nil
}
