// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the postbot CLI. The root command runs
// the posting pipeline once; an external scheduler invokes it on each tick.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/postbot/internal/activity"
	"github.com/pdiddy/postbot/internal/secrets"
	"github.com/pdiddy/postbot/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// envFiles are loaded before configuration is read. Values already in the
// process environment win.
var envFiles = []string{".env", ".env.local"}

// errRunFailed marks a run that was recorded with status FAILED.
var errRunFailed = errors.New("run failed")

// Exit codes.
const (
	exitOK            = 0
	exitRunFailed     = 1
	exitConfiguration = 2
	exitStorage       = 3
)

// rootCmd is the base command for the postbot CLI.
var rootCmd = &cobra.Command{
	Use:   "postbot",
	Short: "Generate and publish one social media post per run",
	Long: `postbot picks a content idea, asks a language model to turn it into a
post, checks the post against the platform's limits, publishes it, and records
the outcome in an append-only activity log.

Running postbot with no subcommand performs one run. Schedule it with cron or
a CI workflow; runs must not overlap.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadEnvFiles()

		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logrus.WithField("keys", keys).Debug("loaded secrets")
		}
		return nil
	},
	RunE: runPipeline,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./postbot.yaml or ~/.config/postbot/postbot.yaml)")
	rootCmd.PersistentFlags().String("log-dir", "", "directory holding the activity log and trace file")
	rootCmd.PersistentFlags().String("ideas", "", "YAML file with the idea pool (default: built-in pool)")
	addRunFlags(rootCmd)

	viper.BindPFlag("activity.dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("ideas.file", rootCmd.PersistentFlags().Lookup("ideas"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("postbot")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "postbot"))
		}
	}

	viper.SetEnvPrefix("POSTBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.BindEnv("log.level", "POSTBOT_LOG_LEVEL", "LOG_LEVEL")
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	}
}

// loadEnvFiles loads .env style files from the working directory.
func loadEnvFiles() {
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			logrus.WithError(err).Warnf("failed to load %s", file)
		}
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *types.ConfigurationError
	var se *activity.StorageError
	switch {
	case errors.As(err, &ce):
		return exitConfiguration
	case errors.As(err, &se):
		return exitStorage
	}
	return exitRunFailed
}

func main() {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errRunFailed) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}
