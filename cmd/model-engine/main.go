// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the model-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the model-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "model-engine",
	Short: "Extract template models from systems-biology documents",
	Long: `model-engine turns SBML reaction networks into template models: typed
population-level events (conversions, productions, degradations, controlled
conversions) with symbolic rate laws and ontology-grounded participants.

Each stage is a subcommand: acquire downloads models from BioModels,
extract builds template models from cached documents, and store indexes
the results for querying.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./model-engine.yaml or ~/.config/model-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("model-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "model-engine"))
		}
	}

	viper.SetEnvPrefix("MODEL_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// stringSetting resolves a string option: an explicitly set flag wins,
// then the config file, then the flag default.
func stringSetting(cmd *cobra.Command, flag, viperKey string) string {
	if cmd.Flags().Changed(flag) || !viper.IsSet(viperKey) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return viper.GetString(viperKey)
}

// intSetting resolves an integer option with the same precedence.
func intSetting(cmd *cobra.Command, flag, viperKey string) int {
	if cmd.Flags().Changed(flag) || !viper.IsSet(viperKey) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	return viper.GetInt(viperKey)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
