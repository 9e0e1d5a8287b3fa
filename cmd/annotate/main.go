// Command annotate runs person detection on one image file and prints the
// detections, optionally writing the annotated overlay as PNG.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"humandetector/internal/app"
	"humandetector/internal/config"
	"humandetector/internal/detection"
	"humandetector/internal/intake"
	"humandetector/internal/layout"
	"humandetector/internal/logger"
	"humandetector/internal/model"
	"humandetector/internal/service/render"
)

const (
	flagBackend  = "backend"
	flagModel    = "model"
	flagConfig   = "config"
	flagLabels   = "labels"
	flagURL      = "url"
	flagMax      = "max"
	flagMinScore = "min-score"
	flagWidth    = "width"
	flagHeight   = "height"
	flagOut      = "out"
	flagVerbose  = "verbose"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	cfg := config.Load()

	return &cli.App{
		Name:      "annotate",
		Usage:     "detect people and objects in an image",
		ArgsUsage: "IMAGE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagBackend, Value: cfg.DetectorBackend, Usage: "detector backend: gocv or remote"},
			&cli.PathFlag{Name: flagModel, Value: cfg.ModelPath, Usage: "frozen graph `FILE` for the gocv backend"},
			&cli.PathFlag{Name: flagConfig, Value: cfg.ConfigPath, Usage: "graph config `FILE` for the gocv backend"},
			&cli.PathFlag{Name: flagLabels, Value: cfg.LabelsPath, Usage: "labels `FILE`, one per line"},
			&cli.StringFlag{Name: flagURL, Value: cfg.InferenceURL, Usage: "inference endpoint for the remote backend"},
			&cli.IntFlag{Name: flagMax, Value: cfg.MaxDetections, Usage: "maximum number of detections"},
			&cli.Float64Flag{Name: flagMinScore, Value: cfg.MinScore, Usage: "minimum detection score"},
			&cli.Float64Flag{Name: flagWidth, Usage: "rendered width; 0 fits the display box"},
			&cli.Float64Flag{Name: flagHeight, Usage: "rendered height; 0 fits the display box"},
			&cli.PathFlag{Name: flagOut, Aliases: []string{"o"}, Usage: "write the annotated image to `FILE`"},
			&cli.BoolFlag{Name: flagVerbose, Aliases: []string{"v"}, Usage: "log detector progress to stderr"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one IMAGE argument", 2)
			}

			cfg.DetectorBackend = c.String(flagBackend)
			cfg.ModelPath = c.Path(flagModel)
			cfg.ConfigPath = c.Path(flagConfig)
			cfg.LabelsPath = c.Path(flagLabels)
			cfg.InferenceURL = c.String(flagURL)
			cfg.MaxDetections = c.Int(flagMax)
			cfg.MinScore = c.Float64(flagMinScore)
			if err := cfg.Validate(); err != nil {
				return cli.Exit(err, 2)
			}

			var w io.Writer = io.Discard
			if c.Bool(flagVerbose) {
				w = os.Stderr
			}
			return annotate(c, cfg, logger.New(w), c.Args().First())
		},
	}
}

func annotate(c *cli.Context, cfg *config.Config, log *logger.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	bitmap, err := intake.Decode(c.Context, &intake.File{Name: filepath.Base(path), Data: data})
	if err != nil {
		return err
	}

	var lay layout.Layout = layout.Fit{MaxWidth: float64(cfg.DisplayMaxWidth), MaxHeight: float64(cfg.DisplayMaxHeight)}
	if w, h := c.Float64(flagWidth), c.Float64(flagHeight); w > 0 || h > 0 {
		lay = layout.Fixed{Width: w, Height: h}
	}
	rendered := lay.Measure(bitmap.Natural)

	loader, err := app.NewLoader(cfg, log)
	if err != nil {
		return err
	}
	pipeline := detection.NewPipeline(loader, cfg.MaxDetections, log)
	defer pipeline.Close()

	detections, err := pipeline.Detect(c.Context, bitmap.Image, bitmap.Natural, rendered)
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "%s: natural %v, rendered %v\n", bitmap.Name, bitmap.Natural, rendered)
	persons, others := detection.Partition(detections)
	printGroup(out, "persons", persons)
	printGroup(out, "objects", others)

	if dest := c.Path(flagOut); dest != "" {
		img, err := render.Overlay(bitmap.Image, rendered, detections)
		if err != nil {
			return err
		}
		if err := render.SavePNG(dest, img); err != nil {
			return fmt.Errorf("save overlay: %w", err)
		}
		fmt.Fprintf(out, "overlay written to %s\n", dest)
	}
	return nil
}

func printGroup(w io.Writer, title string, detections []model.RescaledDetection) {
	fmt.Fprintf(w, "%s (%d)\n", title, len(detections))
	for _, d := range detections {
		fmt.Fprintf(w, "  %-24s x=%.1f y=%.1f w=%.1f h=%.1f\n", d.Caption(), d.Box.X, d.Box.Y, d.Box.Width, d.Box.Height)
	}
}
