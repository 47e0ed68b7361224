package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/soundboard/internal/config"
	"github.com/dgnsrekt/soundboard/pkg/sound"
	"github.com/dgnsrekt/soundboard/ui"
)

var (
	boardMouse   bool
	boardSpatial bool
	boardRadius  float64

	boardCmd = &cobra.Command{
		Use:   "board [DIR]",
		Short: "Play the sounds of a directory from an interactive board",
		Long: paragraph(fmt.Sprintf("\nLists the sounds in DIR. %s plays them, the arrow keys walk the listener around them.",
			keyword("1-9"))),
		Example: paragraph("soundboard board\nsoundboard board ~/sounds --radius 5"),
		Args:    cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		},
		RunE: runBoard,
	}
)

func init() {
	boardCmd.Flags().BoolVarP(&boardMouse, "mouse", "m", false, "enable mouse support")
	boardCmd.Flags().BoolVar(&boardSpatial, "spatial", true, "place the sounds around the listener")
	boardCmd.Flags().Float64Var(&boardRadius, "radius", 0, "distance of the sounds from the center (default from config)")
	_ = boardCmd.Flags().MarkHidden("mouse")
}

func boardConfig(cmd *cobra.Command, args []string) (ui.Config, error) {
	// Read environment to get debugging stuff
	c, err := env.ParseAs[ui.Config]()
	if err != nil {
		return c, fmt.Errorf("error parsing config: %v", err)
	}

	dir := cfg.Board.Dir
	if len(args) > 0 {
		dir = args[0]
	}
	info, err := os.Stat(dir)
	if err != nil {
		return c, fmt.Errorf("unable to open directory: %w", err)
	}
	if !info.IsDir() {
		return c, fmt.Errorf("%s is not a directory", dir)
	}
	if c.Dir, err = filepath.Abs(dir); err != nil {
		return c, fmt.Errorf("unable to get absolute path: %w", err)
	}

	c.Spatial = cfg.Board.Spatial
	c.Radius = cfg.Board.Radius
	c.Step = cfg.Board.Step
	c.DistanceModel = cfg.DistanceModel()
	c.Volume = cfg.Audio.Volume
	c.EnableMouse = cfg.Board.Mouse

	flags := cmd.Flags()
	if flags.Changed("mouse") {
		c.EnableMouse = boardMouse
	}
	if flags.Changed("spatial") {
		c.Spatial = boardSpatial
	}
	if flags.Changed("radius") {
		if boardRadius <= 0 {
			return c, errors.New("radius must be positive")
		}
		c.Radius = boardRadius
	}
	return c, nil
}

func runBoard(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec
		return errors.New("the board needs a terminal, use play instead")
	}

	boardCfg, err := boardConfig(cmd, args)
	if err != nil {
		return err
	}

	session, err := sound.New(cfg.Sound())
	if err != nil {
		return err
	}
	defer session.Close() //nolint:errcheck

	p := ui.NewProgram(boardCfg, session)

	// audio settings need a new session, board settings apply right away
	if viper.GetViper().ConfigFileUsed() != "" {
		config.Watch(viper.GetViper(), func(c config.Config) {
			if c.Audio.SampleRate != cfg.Audio.SampleRate || c.Audio.BufferSize != cfg.Audio.BufferSize {
				log.Info("Output settings change on the next start")
			}
			p.Send(ui.SettingsMsg{
				Spatial:       c.Board.Spatial,
				Radius:        c.Board.Radius,
				Step:          c.Board.Step,
				DistanceModel: c.DistanceModel(),
				Volume:        c.Audio.Volume,
			})
		})
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}
