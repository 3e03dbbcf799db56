// Command photocore-admin is operator tooling for a photocore data
// directory: bootstrap it, replay the deletion journal, sweep orphaned
// derivatives, and create/inspect users and albums directly against the
// catalog. It is not the end-user client application; it covers only
// the catalog-level operations an operator needs against a running or
// stopped data directory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/photocore/pkg/config"
	"github.com/cuemby/photocore/pkg/log"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "photocore-admin",
	Short:   "Operator CLI for a photocore catalog data directory",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("photocore-admin version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file supplying flag defaults")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("data-dir", "./photocore-data", "Catalog data directory")
	rootCmd.PersistentFlags().String("image-dir", "./photocore-data/images", "Image derivative directory")

	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(albumCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(serveMaintenanceCmd)
}

// initConfig loads the --config file (when given) and applies its values
// to every persistent flag the command line didn't set explicitly, so
// flags always win over the file and the file wins over built-in
// defaults.
func initConfig() {
	flags := rootCmd.PersistentFlags()
	path, _ := flags.GetString("config")
	if path == "" {
		return
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fromConfig := map[string]string{
		"data-dir":  cfg.DataDir,
		"image-dir": cfg.ImageDir,
		"log-level": string(cfg.LogLevel),
		"log-json":  fmt.Sprintf("%t", cfg.LogJSON),
	}
	for name, value := range fromConfig {
		if !flags.Changed(name) {
			flags.Set(name, value)
		}
	}

	metricsFlag := serveMaintenanceCmd.Flags().Lookup("metrics-addr")
	if metricsFlag != nil && !metricsFlag.Changed {
		metricsFlag.Value.Set(cfg.MetricsAddr)
	}
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
		Output:     os.Stdout,
	})
}
