// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the glossary-engine CLI. Each pipeline
// step is a subcommand: serp, queries, outline, section, article and
// keywords. serve runs the interactive web form; archive manages saved
// articles.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/glossary-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets secrets.Set

// logger is configured from --log-level and --log-format before any command runs.
var logger = slog.Default()

// rootCmd is the base command for the glossary-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "glossary-engine",
	Short: "Generate retirement glossary articles from search results",
	Long: `glossary-engine drafts retirement glossary articles. It fetches search
results for a keyword, asks a language model for a two-level outline, and
expands the outline into Markdown sections that accumulate into an article.

Every step is a subcommand. Use --state to carry a session between
invocations, or run "glossary-engine serve" for the interactive form.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetString("log.level"), viper.GetString("log.format"))
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)

		dir := viper.GetString("secrets_dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", "dir", dir, "keys", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./glossary-engine.yaml or ~/.config/glossary-engine/config.yaml)")
	pf.String("secrets-dir", ".secrets", "directory of credential files")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("model", "", "completion model (overrides generation.model)")
	pf.String("tone", "", "extra tone instruction for generated text")
	pf.String("prompt-style", "", "outline prompt style: serp-informed or keyword-only")
	pf.Bool("dry-run", false, "print prompts instead of calling the completion service")

	viper.BindPFlag("secrets_dir", pf.Lookup("secrets-dir"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
	viper.BindPFlag("generation.model", pf.Lookup("model"))
	viper.BindPFlag("generation.tone", pf.Lookup("tone"))
	viper.BindPFlag("generation.prompt_style", pf.Lookup("prompt-style"))
	viper.BindPFlag("dry_run", pf.Lookup("dry-run"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("glossary-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "glossary-engine"))
		}
	}

	viper.SetEnvPrefix("GLOSSARY_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindConventionalEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
