// Package main provides the entry point for the soundboard CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/soundboard/internal/config"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	unlock     string

	// cfg is loaded before any command runs.
	cfg = config.DefaultConfig()

	rootCmd = &cobra.Command{
		Use:   "soundboard",
		Short: "Play sounds on the CLI, in space!",
		Long: paragraph(
			fmt.Sprintf("\nPlay sounds on the CLI, %s!", keyword("in space")),
		),
		SilenceErrors:     false,
		SilenceUsage:      true,
		TraverseChildren:  true,
		PersistentPreRunE: loadConfig,
	}
)

func loadConfig(cmd *cobra.Command, _ []string) error {
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	v := viper.GetViper()
	if cmd.Flags().Changed("config") {
		v.SetConfigFile(configFile)
		if err := config.Read(v); err != nil {
			return err
		}
	}

	c, err := config.Load(v)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("unlock") {
		c.Audio.Unlock = unlock
	}
	cfg = c
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug output to the log file")
	rootCmd.PersistentFlags().StringVar(&unlock, "unlock", "", "keep-alive for idle-suspending devices: auto, always or never")

	rootCmd.AddCommand(playCmd, boardCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	dirs, err := config.SearchDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	v := viper.GetViper()
	config.Setup(v, dirs)
	if err := config.Read(v); err != nil {
		log.Warn("Could not parse configuration file", "err", err)
	}

	if v.ConfigFileUsed() != "" {
		return
	}

	configFile = filepath.Join(dirs[0], config.Name+".yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
