package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Noofbiz/sensorviz/config"
)

var rootCmd = &cobra.Command{
	Use:   "sensorplot",
	Short: "Draw sensor placement diagnostics",
	Long: `Sensorplot renders the figures used to inspect a sensor placement run:
context encodings, off-grid context, receptive fields, decoder feature
maps, proposed placements and acquisition function surfaces.

Everything is read from a task bundle (YAML) given with --bundle.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "config file (default is ./sensorviz.yaml)")
	pf.StringP("bundle", "b", "", "task bundle file")
	pf.StringP("out", "o", "", "output directory")
	pf.String("format", "", "image format (png, jpg, svg, pdf, eps, tif)")
	pf.Float64("dpi", 0, "raster resolution")
	pf.String("log-level", "", "log level (debug/info/warn/error)")

	_ = viper.BindPFlag("config", pf.Lookup("config"))
	_ = viper.BindPFlag("bundle", pf.Lookup("bundle"))
	_ = viper.BindPFlag("output.dir", pf.Lookup("out"))
	_ = viper.BindPFlag("render.format", pf.Lookup("format"))
	_ = viper.BindPFlag("render.dpi", pf.Lookup("dpi"))
	_ = viper.BindPFlag("logging.level", pf.Lookup("log-level"))
}

func initConfig() {
	// Defaults first so they hold without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(config.FileName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/sensorviz")
	}

	config.BindEnv(viper.GetViper())

	// A missing config file is fine
	_ = viper.ReadInConfig()
}
