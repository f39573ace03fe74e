// Package config holds the sensorplot configuration: rendering defaults,
// feature-map sampling, map projection, logging and output location. Values
// come from viper, so a config file, SENSORVIZ_* environment variables and
// command-line flags all feed the same struct.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// SENSORVIZ_RENDER_DPI for render.dpi.
const EnvPrefix = "SENSORVIZ"

// FileName is the config file looked up without an explicit --config.
const FileName = "sensorviz"

// Config represents the complete sensorplot configuration
type Config struct {
	Render   RenderConfig   `mapstructure:"render"`
	Features FeaturesConfig `mapstructure:"features"`
	Map      MapConfig      `mapstructure:"map"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
}

// RenderConfig controls figure appearance
type RenderConfig struct {
	// Size is the side of one panel in inches
	Size float64 `mapstructure:"size"`
	// DPI of raster output
	DPI    float64 `mapstructure:"dpi"`
	Format string  `mapstructure:"format"`
	// Colormap of encoding figures
	Colormap string `mapstructure:"colormap"`
	// AcquisitionColormap of acquisition figures
	AcquisitionColormap string `mapstructure:"acquisition_colormap"`
	MaxCols             int    `mapstructure:"max_cols"`
	Colorbar            bool   `mapstructure:"colorbar"`
}

// FeaturesConfig controls feature-map sampling
type FeaturesConfig struct {
	PerLayer int   `mapstructure:"per_layer"`
	Seed     int64 `mapstructure:"seed"`
}

// MapConfig controls map axes
type MapConfig struct {
	// Projection is a proj4 definition; empty means plate carrée
	Projection string `mapstructure:"projection"`
	// Extent is "global", empty, or "x2min,x2max,x1min,x1max"
	Extent    string `mapstructure:"extent"`
	Gridlines bool   `mapstructure:"gridlines"`
}

// LoggingConfig controls the logger
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig controls where figures go
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Size:                3,
			DPI:                 100,
			Format:              "png",
			Colormap:            "viridis",
			AcquisitionColormap: "Greys_r",
			MaxCols:             5,
			Colorbar:            true,
		},
		Features: FeaturesConfig{PerLayer: 5, Seed: 42},
		Map:      MapConfig{Gridlines: true},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Output:   OutputConfig{Dir: "figures"},
	}
}

// SetDefaults registers the defaults with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("render.size", defaults.Render.Size)
	viper.SetDefault("render.dpi", defaults.Render.DPI)
	viper.SetDefault("render.format", defaults.Render.Format)
	viper.SetDefault("render.colormap", defaults.Render.Colormap)
	viper.SetDefault("render.acquisition_colormap", defaults.Render.AcquisitionColormap)
	viper.SetDefault("render.max_cols", defaults.Render.MaxCols)
	viper.SetDefault("render.colorbar", defaults.Render.Colorbar)

	viper.SetDefault("features.per_layer", defaults.Features.PerLayer)
	viper.SetDefault("features.seed", defaults.Features.Seed)

	viper.SetDefault("map.projection", defaults.Map.Projection)
	viper.SetDefault("map.extent", defaults.Map.Extent)
	viper.SetDefault("map.gridlines", defaults.Map.Gridlines)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)

	viper.SetDefault("output.dir", defaults.Output.Dir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// BindEnv wires SENSORVIZ_* environment overrides into v; nested keys use
// underscores, e.g. SENSORVIZ_RENDER_MAX_COLS for render.max_cols.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadFrom is Load on a given viper instance
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidFormats lists the output formats figures can be written in
func ValidFormats() []string {
	return []string{"png", "jpg", "jpeg", "svg", "pdf", "eps", "tif", "tiff"}
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	if c.Render.Size <= 0 {
		errs = append(errs, ValidationError{"render.size", c.Render.Size, "must be positive"})
	}
	if c.Render.DPI <= 0 {
		errs = append(errs, ValidationError{"render.dpi", c.Render.DPI, "must be positive"})
	}
	if !slices.Contains(ValidFormats(), strings.ToLower(c.Render.Format)) {
		errs = append(errs, ValidationError{"render.format", c.Render.Format,
			fmt.Sprintf("must be one of: %s", strings.Join(ValidFormats(), ", "))})
	}
	if c.Render.MaxCols <= 0 {
		errs = append(errs, ValidationError{"render.max_cols", c.Render.MaxCols, "must be positive"})
	}
	if c.Features.PerLayer <= 0 {
		errs = append(errs, ValidationError{"features.per_layer", c.Features.PerLayer, "must be positive"})
	}
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{"logging.level", c.Logging.Level,
			fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", "))})
	}
	if _, err := c.Map.ParseExtent(); err != nil {
		errs = append(errs, ValidationError{"map.extent", c.Map.Extent, err.Error()})
	}
	return errs
}

// ParseExtent returns nil for an empty extent, []float64{} for "global"
// and the four bounds otherwise.
func (m MapConfig) ParseExtent() ([]float64, error) {
	s := strings.TrimSpace(m.Extent)
	switch strings.ToLower(s) {
	case "":
		return nil, nil
	case "global":
		return []float64{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("want \"global\" or four comma-separated bounds")
	}
	out := make([]float64, 4)
	for i, p := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%g", &out[i]); err != nil {
			return nil, fmt.Errorf("bound %d: %v", i, err)
		}
	}
	return out, nil
}
