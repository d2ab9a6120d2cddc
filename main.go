package main

import (
	"fmt"
	"log"
	"os"

	"github.com/CristiGvl/picoFanCtl/internal/config"
	"github.com/CristiGvl/picoFanCtl/internal/platform"
	"github.com/spf13/cobra"
)

var (
	configPath string
	bindFlag   string
	portFlag   string
)

var rootCmd = &cobra.Command{
	Use:           "picofanctl",
	Short:         "Fan curve control service and CLI",
	Long:          "Edit fan curves, manage presets and drive the fan controller from a REST API, a websocket editor or the command line.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&bindFlag, "bind", "", "IP address to bind the server to")
	rootCmd.PersistentFlags().StringVar(&portFlag, "port", "", "Port to run the server on")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(dutyCmd)
}

// loadConfig reads the config file and applies command line overrides
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if bindFlag != "" {
		cfg.Server.Bind = bindFlag
	}
	if portFlag != "" {
		cfg.Server.Port = portFlag
	}
	return cfg, cfg.Validate()
}

func main() {
	// Validate platform support
	if err := platform.ValidateSupport(); err != nil {
		log.Fatalf("Platform validation failed: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
