package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Noofbiz/sensorviz/config"
	"github.com/Noofbiz/sensorviz/figures"
	"github.com/Noofbiz/sensorviz/logging"
	"github.com/Noofbiz/sensorviz/model"
	"github.com/Noofbiz/sensorviz/task"
)

// env is what every subcommand starts from.
type env struct {
	cfg    *config.Config
	bundle *task.Bundle
	logger *slog.Logger
	proj   *figures.Projection
	maps   figures.MapOptions
}

func newEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	path := viper.GetString("bundle")
	if path == "" {
		return nil, errors.New("no bundle given: use --bundle")
	}
	b, err := task.LoadBundle(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded bundle", "path", path, "context_sets", len(b.Task.XC), "target_sets", len(b.Task.XT))

	proj := figures.PlateCarree()
	if cfg.Map.Projection != "" {
		if proj, err = figures.NewProjection(cfg.Map.Projection); err != nil {
			return nil, err
		}
	}
	bounds, err := cfg.Map.ParseExtent()
	if err != nil {
		return nil, err
	}
	var extent *figures.Extent
	switch {
	case bounds == nil:
	case len(bounds) == 0:
		extent = figures.GlobalExtent()
	default:
		extent = figures.BoundsExtent(bounds[0], bounds[1], bounds[2], bounds[3])
	}

	return &env{
		cfg:    cfg,
		bundle: b,
		logger: logger,
		proj:   proj,
		maps: figures.MapOptions{
			Extent:     extent,
			Size:       cfg.Render.Size,
			Coastlines: b.Coastlines,
			Gridlines:  cfg.Map.Gridlines,
		},
	}, nil
}

// path is where a figure called name is written.
func (e *env) path(name string) string {
	return filepath.Join(e.cfg.Output.Dir, name+"."+e.cfg.Render.Format)
}

func (e *env) save(fig *figures.Figure, name string) error {
	fig.DPI = e.cfg.Render.DPI
	path := e.path(name)
	if err := fig.Save(path); err != nil {
		return err
	}
	e.logger.Info("wrote figure", "path", path)
	return nil
}

// model builds the reference ConvNP sized by the bundle.
func (e *env) model() (*model.ConvNP, error) {
	spec := e.bundle.Model
	m, err := model.NewConvNP(model.Config{
		GridSize: spec.GridSize,
		Channels: spec.Channels,
		Seed:     spec.Seed,
	}, e.bundle.Metadata.ContextDims)
	if err != nil {
		return nil, fmt.Errorf("building model: %w", err)
	}
	e.logger.Debug("built model", "grid_size", m.Config.GridSize, "channels", m.Config.Channels)
	return m, nil
}

// placements returns the bundle's placements, replaced by a CSV table when
// csvPath is set.
func (e *env) placements(csvPath string) (*task.Placements, error) {
	p := e.bundle.Placements
	if csvPath != "" {
		names := e.bundle.Processor.RawSpatialCoordNames()
		var err error
		if p, err = task.LoadPlacementsCSV(csvPath, names[0], names[1]); err != nil {
			return nil, err
		}
	}
	if p != nil {
		e.logger.Info("loaded placements", "rows", len(p.Rows), "iterations", p.Iterations())
	}
	return p, nil
}
