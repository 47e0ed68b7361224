package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/soundboard/pkg/sound"
)

var (
	playTag    string
	playVolume float64
	playRate   float64
	playX      float64
	playY      float64
	playZ      float64
	playMono   bool
	playPan    float64
	playWait   time.Duration

	playCmd = &cobra.Command{
		Use:   "play SOURCE",
		Short: "Play a sound file or URL",
		Long: paragraph(fmt.Sprintf("\n%s a file, an http(s) URL or stdin (-). Give a position with --x, --y and --z to hear it from there.",
			keyword("Play"))),
		Example: paragraph("soundboard play click.wav\nsoundboard play --x 3 https://example.com/boom.ogg\ncat beep.wav | soundboard play -"),
		Args:    cobra.ExactArgs(1),
		RunE:    runPlay,
	}
)

func init() {
	playCmd.Flags().StringVar(&playTag, "tag", "", "cache tag (default the source path)")
	playCmd.Flags().Float64VarP(&playVolume, "volume", "v", 1, "volume, 0 mutes and 1 is unchanged (default from config)")
	playCmd.Flags().Float64VarP(&playRate, "rate", "r", 1, "playback rate")
	playCmd.Flags().Float64Var(&playX, "x", 0, "source position, right of the listener")
	playCmd.Flags().Float64Var(&playY, "y", 0, "source position, above the listener")
	playCmd.Flags().Float64Var(&playZ, "z", 0, "source position, behind the listener")
	playCmd.Flags().BoolVar(&playMono, "mono", false, "mix both channels down to mono")
	playCmd.Flags().Float64Var(&playPan, "pan", 0, "stereo pan from -1 (left) to 1 (right)")
	playCmd.Flags().DurationVarP(&playWait, "wait", "w", 0, "stop after this long (0 plays to the end)")
}

// sourceFromArg turns a play argument into a sound source.
func sourceFromArg(arg string) (sound.Source, error) {
	if arg == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return sound.Source{}, fmt.Errorf("unable to read from stdin: %w", err)
		}
		return sound.Bytes(b, "stdin"), nil
	}

	src := sound.File(arg)
	if src.IsRemote() {
		return src, nil
	}
	if _, err := os.Stat(arg); err != nil {
		return sound.Source{}, fmt.Errorf("unable to open file: %w", err)
	}
	p, err := filepath.Abs(arg)
	if err != nil {
		return sound.Source{}, fmt.Errorf("unable to get absolute path: %w", err)
	}
	return sound.File(p), nil
}

func playOptions(cmd *cobra.Command) sound.Options {
	opts := sound.Options{
		Tag:    playTag,
		Volume: lo.ToPtr(cfg.Audio.Volume),
		Rate:   playRate,
	}
	if cmd.Flags().Changed("volume") {
		opts.Volume = lo.ToPtr(playVolume)
	}

	if playMono {
		opts.Processors = append(opts.Processors, effects.Mono)
	}
	if playPan != 0 {
		pan := playPan
		opts.Processors = append(opts.Processors, func(s beep.Streamer) beep.Streamer {
			return &effects.Pan{Streamer: s, Pan: pan}
		})
	}

	flags := cmd.Flags()
	if flags.Changed("x") || flags.Changed("y") || flags.Changed("z") {
		opts.Spatial = &sound.Spatial{
			X:             playX,
			Y:             playY,
			Z:             playZ,
			DistanceModel: cfg.DistanceModel(),
		}
	}
	return opts
}

func runPlay(cmd *cobra.Command, args []string) error {
	src, err := sourceFromArg(args[0])
	if err != nil {
		return err
	}

	session, err := sound.New(cfg.Sound())
	if err != nil {
		return err
	}
	defer session.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// a CLI invocation is the user gesture
	if err := session.TryResume(); err != nil {
		if errors.Is(err, sound.ErrEngineUnavailable) {
			return fmt.Errorf("no audio output: %w", err)
		}
		log.Warn("Unable to resume output", "error", err)
	}

	snd := session.Play(ctx, src, playOptions(cmd))
	if snd == nil {
		logFile, _ := getLogFilePath()
		return fmt.Errorf("unable to play %s (see %s)", src, logFile)
	}
	if playWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, playWait)
		defer cancel()
	}

	select {
	case <-snd.Done():
	case <-ctx.Done():
		snd.Stop()
	}
	return nil
}
