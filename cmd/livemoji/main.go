package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/menta2k/livemoji/internal/config"
	"github.com/menta2k/livemoji/internal/logging"
	"github.com/menta2k/livemoji/pkg/export"
	"github.com/menta2k/livemoji/pkg/facedetect"
	"github.com/menta2k/livemoji/pkg/imageio"
	"github.com/menta2k/livemoji/pkg/model"
	"github.com/menta2k/livemoji/pkg/pipeline"
	"github.com/menta2k/livemoji/pkg/store"
)

func main() {
	cmd := &cli.Command{
		Name:  "livemoji",
		Usage: "Turn a face photo into an animated emoji (GIF/MP4/PNG)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Sources: cli.EnvVars("LIVEMOJI_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			createCommand(),
			exportCommand(),
			exportAllCommand(),
			listCommand(),
			deleteCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logging.Default().Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the --config flag, or defaults
func loadConfig(c *cli.Command) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.Default(), nil
}

// buildPipeline wires the store, encoder and locator from configuration
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, *store.RecordStore, error) {
	recordStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}

	encoder := export.NewWithConfig(export.Config{
		OutputDir:  cfg.Export.OutputDir,
		FilePrefix: cfg.Export.FilePrefix,
		FFmpegPath: cfg.Export.FFmpegPath,
	})

	var locator facedetect.Locator
	switch cfg.Locator.Backend {
	case "ollama":
		locator, err = facedetect.NewOllamaLocator(cfg.Locator.URL, cfg.Locator.Model)
		if err != nil {
			return nil, nil, err
		}
	default:
		locator = facedetect.NewSaliencyLocator()
	}

	pipeCfg := pipeline.DefaultConfig()
	pipeCfg.Style = model.Style(cfg.Pipeline.Style)
	pipeCfg.Animation = model.AnimationKind(cfg.Pipeline.Animation)
	pipeCfg.Intensity = cfg.Pipeline.Intensity
	pipeCfg.Duration = cfg.Pipeline.Duration

	return pipeline.NewWithConfig(recordStore, encoder, locator, pipeCfg), recordStore, nil
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Process a photo into a stored emoji artifact",
		ArgsUsage: "<image-path>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "animation",
				Aliases: []string{"a"},
				Usage:   "Animation kind: bounce or wave",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if kind := c.String("animation"); kind != "" {
				cfg.Pipeline.Animation = kind
			}

			ctx = logging.With(ctx, logging.New(cfg.Logging.Level, os.Stderr))

			p, _, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			p.SetProgressFunc(func(v float64) {
				if v > 0 {
					fmt.Printf("\rprocessing... %3.0f%%", v*100)
				}
			})

			img, err := imageio.Load(c.Args().First())
			if err != nil {
				return err
			}

			artifact, err := p.ProcessImage(ctx, img)
			fmt.Println()
			if err != nil {
				return err
			}

			fmt.Printf("created %s (%s, %s, %.1fs)\n",
				artifact.ID, artifact.Name, artifact.Animation.DisplayName(), artifact.Duration)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export a stored emoji as GIF, MP4 or PNG",
		ArgsUsage: "<artifact-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "gif",
				Usage:   "Export format: gif, mp4 or png",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ctx = logging.With(ctx, logging.New(cfg.Logging.Level, os.Stderr))

			p, recordStore, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			format := model.ExportFormat(c.String("format"))
			if err := format.Validate(); err != nil {
				return err
			}

			artifact := recordStore.Get(model.ArtifactID(c.Args().First()))
			if artifact == nil {
				return fmt.Errorf("artifact %q not found", c.Args().First())
			}

			path, err := p.Export(ctx, artifact, format)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

func exportAllCommand() *cli.Command {
	return &cli.Command{
		Name:  "export-all",
		Usage: "Export every stored emoji, skipping failures",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "gif",
				Usage:   "Export format: gif, mp4 or png",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ctx = logging.With(ctx, logging.New(cfg.Logging.Level, os.Stderr))

			p, _, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			format := model.ExportFormat(c.String("format"))
			if err := format.Validate(); err != nil {
				return err
			}

			paths, err := p.ExportAll(ctx, format)
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Println(path)
			}
			fmt.Printf("exported %d artifact(s)\n", len(paths))
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored emoji artifacts, newest first",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			recordStore, err := store.Open(cfg.Store.Path)
			if err != nil {
				return err
			}

			for _, a := range recordStore.List() {
				fmt.Printf("%s  %-14s %-7s %.1fs  %s\n",
					a.ID, a.Name, a.Animation, a.Duration, a.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a stored emoji artifact by id",
		ArgsUsage: "<artifact-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			recordStore, err := store.Open(cfg.Store.Path)
			if err != nil {
				return err
			}
			return recordStore.Delete(model.ArtifactID(c.Args().First()))
		},
	}
}
