package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/spf13/cobra"

	"github.com/Noofbiz/sensorviz/figures"
	"github.com/Noofbiz/sensorviz/model"
	"github.com/Noofbiz/sensorviz/tensor"
	"github.com/Noofbiz/sensorviz/webview"
)

var encodingCmd = &cobra.Command{
	Use:   "encoding",
	Short: "Draw the gridded encoding of the context sets",
	Long: `Draw every channel of the context encoding, one row per context set.

The encoding stored in the bundle is used when present; otherwise the
reference ConvNP described by the bundle's model section computes it.

Examples:
  # Only the second and first context sets, in that order
  sensorplot encoding -b task.yaml --sets 1,0

  # Outline land using encoding channel 3
  sensorplot encoding -b task.yaml --land 3

  # Also write an interactive page
  sensorplot encoding -b task.yaml --html encoding.html`,
	RunE: runEncoding,
}

var offgridCmd = &cobra.Command{
	Use:   "offgrid",
	Short: "Map the off-grid context locations",
	RunE:  runOffgrid,
}

var receptiveFieldCmd = &cobra.Command{
	Use:   "receptive-field",
	Short: "Map the receptive field of the model",
	RunE:  runReceptiveField,
}

var featureMapsCmd = &cobra.Command{
	Use:   "feature-maps",
	Short: "Draw sampled channels of every decoder layer",
	RunE:  runFeatureMaps,
}

var placementsCmd = &cobra.Command{
	Use:   "placements",
	Short: "Map proposed sensor placements over the context",
	RunE:  runPlacements,
}

var acquisitionCmd = &cobra.Command{
	Use:   "acquisition",
	Short: "Draw the acquisition function per placement iteration",
	RunE:  runAcquisition,
}

var (
	encodingSets    []int
	encodingBatch   int
	encodingLand    int
	encodingBackend string
	encodingHTML    string

	offgridTargets  bool
	offgridAnnotate int
	offgridFormat   string

	receptiveField float64

	featureReplay  bool
	featureBackend string

	placementsCSV string

	acquisitionColumn string
	acquisitionHTML   string
)

func init() {
	rootCmd.AddCommand(encodingCmd, offgridCmd, receptiveFieldCmd, featureMapsCmd, placementsCmd, acquisitionCmd)

	encodingCmd.Flags().IntSliceVar(&encodingSets, "sets", nil, "context sets to draw, in row order (default all)")
	encodingCmd.Flags().IntVar(&encodingBatch, "batch", 0, "batch index")
	encodingCmd.Flags().IntVar(&encodingLand, "land", -1, "encoding channel outlined at 0.5 (-1 for none)")
	encodingCmd.Flags().StringVar(&encodingBackend, "backend", "array", "tensor backend of the reference model (array/gomlx)")
	encodingCmd.Flags().StringVar(&encodingHTML, "html", "", "also write an interactive page to this file")

	offgridCmd.Flags().BoolVar(&offgridTargets, "targets", false, "also draw the target sets")
	offgridCmd.Flags().IntVar(&offgridAnnotate, "annotate", -1, "write the values of this context set (-1 for none)")
	offgridCmd.Flags().StringVar(&offgridFormat, "value-format", "%.1f", "printf format of annotated values")

	receptiveFieldCmd.Flags().Float64Var(&receptiveField, "rf", 0, "receptive field in normalised units")
	_ = receptiveFieldCmd.MarkFlagRequired("rf")

	featureMapsCmd.Flags().BoolVar(&featureReplay, "replay", false, "recompute the layers instead of observing the forward pass")
	featureMapsCmd.Flags().StringVar(&featureBackend, "backend", "array", "tensor backend of the reference model (array/gomlx)")

	placementsCmd.Flags().StringVar(&placementsCSV, "placements", "", "placement table CSV overriding the bundle")

	acquisitionCmd.Flags().StringVar(&acquisitionColumn, "column-dim", "iteration", "dim spread across panels")
	acquisitionCmd.Flags().StringVar(&placementsCSV, "placements", "", "placement table CSV overriding the bundle")
	acquisitionCmd.Flags().StringVar(&acquisitionHTML, "html", "", "also write an interactive page to this file")
}

func checkBackend(name string) error {
	switch name {
	case "array", "gomlx":
		return nil
	}
	return fmt.Errorf("unknown backend %q: must be array or gomlx", name)
}

func runEncoding(cmd *cobra.Command, args []string) error {
	if err := checkBackend(encodingBackend); err != nil {
		return err
	}
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	b := e.bundle

	opts := figures.DefaultEncodingOptions()
	opts.BatchIndex = encodingBatch
	opts.ContextSets = encodingSets
	opts.Colormap = e.cfg.Render.Colormap
	opts.Colorbar = e.cfg.Render.Colorbar
	opts.Size = e.cfg.Render.Size
	if encodingLand >= 0 {
		opts.LandIndex = &encodingLand
	}

	enc := b.Encoding
	var fig *figures.Figure
	if enc != nil {
		fig, err = figures.ContextEncoding(enc, b.Metadata, opts)
	} else {
		m, merr := e.model()
		if merr != nil {
			return merr
		}
		if encodingBackend == "gomlx" {
			fig, err = figures.ContextEncodingFromModel[*tensors.Tensor](model.GomlxModel{Net: m}, b.Task, tensor.GomlxConverter, b.Metadata, opts)
		} else {
			fig, err = figures.ContextEncodingFromModel[*tensor.Array](m, b.Task, tensor.Identity, b.Metadata, opts)
		}
		if err == nil && encodingHTML != "" {
			enc, err = m.EncodingTensor(b.Task)
		}
	}
	if err != nil {
		return err
	}
	if err := e.save(fig, "context_encoding"); err != nil {
		return err
	}

	if encodingHTML == "" {
		return nil
	}
	return writePage(e, encodingHTML, func(f *os.File) error {
		return webview.EncodingHTML(f, enc, b.Metadata, encodingSets, webview.Options{Title: "Context encoding"})
	})
}

func runOffgrid(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	b := e.bundle
	fig, err := figures.NewMap(e.proj, e.maps)
	if err != nil {
		return err
	}
	overlay := figures.DefaultOverlayOptions()
	overlay.Processor = b.Processor
	overlay.Metadata = b.Metadata
	overlay.PlotTarget = offgridTargets
	if err := figures.OffgridContext(fig.Axes, b.Task, overlay); err != nil {
		return err
	}
	if offgridAnnotate >= 0 {
		obs := figures.ObservationOptions{Format: offgridFormat}
		if err := figures.OffgridContextObservations(fig.Axes, b.Task, b.Processor, b.Metadata, offgridAnnotate, obs); err != nil {
			return err
		}
	}
	fig.Axes[0].AddCoastlines(e.maps.Coastlines)
	return e.save(fig, "offgrid_context")
}

func runReceptiveField(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	opts := e.maps
	opts.Size = 2 * e.cfg.Render.Size
	fig, err := figures.ReceptiveField(receptiveField, e.bundle.Processor, e.proj, opts)
	if err != nil {
		return err
	}
	return e.save(fig, "receptive_field")
}

func runFeatureMaps(cmd *cobra.Command, args []string) error {
	if err := checkBackend(featureBackend); err != nil {
		return err
	}
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	m, err := e.model()
	if err != nil {
		return err
	}
	opts := figures.DefaultFeatureMapOptions()
	opts.PerLayer = e.cfg.Features.PerLayer
	opts.Seed = e.cfg.Features.Seed
	opts.Size = e.cfg.Render.Size
	opts.Colorbar = e.cfg.Render.Colorbar
	opts.Replay = featureReplay

	var figs []*figures.Figure
	if featureBackend == "gomlx" {
		figs, err = figures.FeatureMaps[*tensors.Tensor](model.GomlxModel{Net: m}, e.bundle.Task, tensor.GomlxConverter, opts)
	} else {
		figs, err = figures.FeatureMaps[*tensor.Array](m, e.bundle.Task, tensor.Identity, opts)
	}
	if err != nil {
		return err
	}
	for i, fig := range figs {
		if err := e.save(fig, fmt.Sprintf("feature_maps_layer_%d", i)); err != nil {
			return err
		}
	}
	return nil
}

func runPlacements(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	cands, err := e.placements(placementsCSV)
	if err != nil {
		return err
	}
	if cands == nil {
		e.logger.Warn("no placements in bundle, drawing context only")
	}
	fig, err := figures.Placements(e.bundle.Task, cands, e.bundle.Processor, e.proj, e.maps)
	if err != nil {
		return err
	}
	return e.save(fig, "placements")
}

func runAcquisition(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	b := e.bundle
	if b.Acquisition == nil {
		return fmt.Errorf("bundle has no acquisition section")
	}
	cands, err := e.placements(placementsCSV)
	if err != nil {
		return err
	}

	opts := figures.DefaultAcquisitionOptions()
	opts.ColumnDim = acquisitionColumn
	opts.Colormap = e.cfg.Render.AcquisitionColormap
	opts.Size = e.cfg.Render.Size
	opts.Colorbar = e.cfg.Render.Colorbar
	opts.MaxCols = e.cfg.Render.MaxCols
	opts.Map = e.maps
	opts.Logger = e.logger

	fig, err := figures.AcquisitionFn(b.Task, b.Acquisition, cands, b.Processor, e.proj, opts)
	if err != nil {
		return err
	}
	if err := e.save(fig, "acquisition_"+b.Acquisition.Name); err != nil {
		return err
	}

	if acquisitionHTML == "" {
		return nil
	}
	return writePage(e, acquisitionHTML, func(f *os.File) error {
		return webview.AcquisitionHTML(f, b.Acquisition, webview.Options{
			Title:     "Acquisition function: " + b.Acquisition.Name,
			ColumnDim: acquisitionColumn,
			Spatial:   b.Processor.RawSpatialCoordNames(),
		})
	})
}

// writePage creates path, relative paths going under the output dir, and
// fills it with render.
func writePage(e *env, path string, render func(*os.File) error) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.cfg.Output.Dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	e.logger.Info("wrote page", "path", path)
	return nil
}
