// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the philquery CLI. It serves the
// question page and offers offline access to the formatter and the local
// source catalogue.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/philquery/internal/backend"
	"github.com/pdiddy/philquery/internal/config"
	"github.com/pdiddy/philquery/internal/logging"
	"github.com/pdiddy/philquery/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the philquery CLI.
var rootCmd = &cobra.Command{
	Use:   "philquery",
	Short: "Front end for a political-philosophy question-answering assistant",
	Long: `philquery serves a browser front end for a question-answering backend
over a fixed corpus of political-philosophy texts. Questions run in one of two
modes: understanding (a synthesized explanation) or retrieval (literal
passages with citations).

The serve subcommand runs the web page and JSON API. ask sends one question
from the terminal, format renders a saved answer offline, and sources manages
the local catalogue of corpus texts.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./philquery.yaml or ~/.config/philquery/philquery.yaml)")
	rootCmd.PersistentFlags().String("backend-url", "", "question-answering backend base URL")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("catalog-dir", "", "directory holding the source catalogue database")

	viper.BindPFlag("backend.url", rootCmd.PersistentFlags().Lookup("backend-url"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("catalog.dir", rootCmd.PersistentFlags().Lookup("catalog-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("philquery")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "philquery"))
		}
	}

	viper.SetEnvPrefix("PHILQUERY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes and validates the merged configuration.
func loadConfig() (types.Config, error) {
	return config.Load(viper.GetViper())
}

// setup loads configuration and builds the logger and backend client
// shared by subcommands.
func setup() (types.Config, *zap.Logger, *backend.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return types.Config{}, nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return types.Config{}, nil, nil, err
	}
	client, err := backend.New(cfg.Backend, logger)
	if err != nil {
		return types.Config{}, nil, nil, err
	}
	return cfg, logger, client, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
