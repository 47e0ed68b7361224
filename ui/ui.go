// Package ui provides the interactive soundboard.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"
	"github.com/samber/lo"

	"github.com/dgnsrekt/soundboard/internal/unlock"
	"github.com/dgnsrekt/soundboard/pkg/sound"
)

const (
	statusMessageTimeout = time.Second * 3
	maxNameWidth         = 32
	ellipsis             = "…"
)

// Player is the part of a sound session the board drives.
type Player interface {
	Play(ctx context.Context, src sound.Source, opts sound.Options) *sound.Sound
	StopAll()
	Sounds() []*sound.Sound
	SetListenerPosition(x, y, z float64)
	Listener() sound.Listener
	CacheStats() sound.CacheStats
	ResumeOnInteraction(ctx context.Context, src sound.InteractionSource) <-chan struct{}
}

// NewProgram returns a new Tea program for the board.
func NewProgram(cfg Config, player Player) *tea.Program {
	log.Debug("Starting soundboard", "dir", cfg.Dir, "spatial", cfg.Spatial)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, player), opts...)
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// SettingsMsg replaces the board settings that can change while it runs.
type SettingsMsg struct {
	Spatial       bool
	Radius        float64
	Step          float64
	DistanceModel sound.DistanceModel
	Volume        float64
}

type (
	playedMsg struct {
		name string
		path string
		ok   bool
	}
	endedMsg                string
	statusMessageTimeoutMsg struct{ seq int }
)

type model struct {
	cfg     Config
	player  Player
	ctx     context.Context
	cancel  context.CancelFunc
	trigger *unlock.Trigger
	resumed <-chan struct{}
	watcher *fsnotify.Watcher
	ended   chan string

	files []fileEntry
	last  string

	keys  keyMap
	help  help.Model
	width int

	status    string
	statusErr bool
	statusSeq int
}

func newModel(cfg Config, player Player) model {
	ctx, cancel := context.WithCancel(context.Background())
	trigger := unlock.NewTrigger()

	m := model{
		cfg:     cfg,
		player:  player,
		ctx:     ctx,
		cancel:  cancel,
		trigger: trigger,
		resumed: player.ResumeOnInteraction(ctx, trigger),
		ended:   make(chan string, 16),
		keys:    defaultKeyMap(),
		help:    help.New(),
	}

	if !cfg.NoWatch {
		w, err := fsnotify.NewWatcher()
		if err == nil {
			err = w.Add(cfg.Dir)
		}
		if err != nil {
			log.Warn("Not watching sound directory", "dir", cfg.Dir, "error", err)
			if w != nil {
				_ = w.Close()
			}
		} else {
			m.watcher = w
		}
	}
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{scanDir(m.cfg.Dir), waitForEnd(m.ended)}
	if m.watcher != nil {
		cmds = append(cmds, waitForChange(m.watcher))
	}
	return tea.Batch(cmds...)
}

func waitForEnd(ch chan string) tea.Cmd {
	return func() tea.Msg {
		return endedMsg(<-ch)
	}
}

func (m *model) setStatus(s string, isErr bool) tea.Cmd {
	m.status = s
	m.statusErr = isErr
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{seq}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.MouseMsg:
		m.trigger.Fire()

	case tea.KeyMsg:
		m.trigger.Fire()
		return m.handleKey(msg)

	case filesMsg:
		m.files = msg
		return m, m.setStatus(fmt.Sprintf("%d sounds", len(m.files)), false)

	case dirChangedMsg:
		return m, tea.Batch(scanDir(m.cfg.Dir), waitForChange(m.watcher))

	case watchErrMsg:
		log.Warn("Sound directory watch error", "error", msg.err)
		return m, waitForChange(m.watcher)

	case errMsg:
		return m, m.setStatus(msg.Error(), true)

	case SettingsMsg:
		m.cfg.Spatial = msg.Spatial
		m.cfg.Radius = msg.Radius
		m.cfg.Step = msg.Step
		m.cfg.DistanceModel = msg.DistanceModel
		m.cfg.Volume = msg.Volume
		return m, m.setStatus("settings reloaded", false)

	case playedMsg:
		if !msg.ok {
			return m, m.setStatus("unable to play "+msg.name, true)
		}
		m.last = msg.path
		return m, m.setStatus("▶ "+msg.name, false)

	case endedMsg:
		return m, waitForEnd(m.ended)

	case statusMessageTimeoutMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Play):
		i := int(msg.Runes[0] - '1')
		if i >= len(m.files) {
			return m, nil
		}
		return m, m.play(i)

	case key.Matches(msg, m.keys.Stop):
		m.player.StopAll()
		return m, m.setStatus("stopped", false)

	case key.Matches(msg, m.keys.Copy):
		if m.last == "" {
			return m, nil
		}
		// Copy using OSC 52
		termenv.Copy(m.last)
		// Copy using native system clipboard
		_ = clipboard.WriteAll(m.last)
		return m, m.setStatus("copied "+m.last, false)

	case key.Matches(msg, m.keys.Reload):
		return m, scanDir(m.cfg.Dir)

	case key.Matches(msg, m.keys.Left):
		m.moveListener(-m.cfg.Step, 0)
	case key.Matches(msg, m.keys.Right):
		m.moveListener(m.cfg.Step, 0)
	case key.Matches(msg, m.keys.Forward):
		m.moveListener(0, -m.cfg.Step)
	case key.Matches(msg, m.keys.Back):
		m.moveListener(0, m.cfg.Step)
	case key.Matches(msg, m.keys.Center):
		m.player.SetListenerPosition(0, 0, 0)
	}
	return m, nil
}

func (m model) moveListener(dx, dz float64) {
	p := m.player.Listener().Position
	m.player.SetListenerPosition(p.X+dx, p.Y, p.Z+dz)
}

func (m model) play(i int) tea.Cmd {
	f := m.files[i]
	ended := m.ended

	opts := sound.Options{
		Tag:    f.path,
		Volume: lo.ToPtr(m.cfg.Volume),
		OnEnd: func(tag string) {
			select {
			case ended <- tag:
			default:
			}
		},
	}
	if m.cfg.Spatial {
		x, z := placement(i, min(len(m.files), 9), m.cfg.Radius)
		opts.Spatial = &sound.Spatial{X: x, Z: z, DistanceModel: m.cfg.DistanceModel}
	}

	ctx, player := m.ctx, m.player
	return func() tea.Msg {
		snd := player.Play(ctx, sound.File(f.path), opts)
		return playedMsg{name: f.name, path: f.path, ok: snd != nil}
	}
}

func (m model) shutdown() {
	m.cancel()
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
}

func (m model) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n  %s %s\n\n", titleStyle.Render("Soundboard"), pathStyle.Render(m.cfg.Dir))

	live := lo.CountValuesBy(m.player.Sounds(), (*sound.Sound).Tag)
	if len(m.files) == 0 {
		b.WriteString(infoStyle.Render("  No sounds found.") + "\n")
	}
	for i, f := range m.files {
		num := " "
		if i < 9 {
			num = fmt.Sprint(i + 1)
		}
		name := runewidth.FillRight(runewidth.Truncate(f.name, maxNameWidth, ellipsis), maxNameWidth)
		line := fmt.Sprintf("  %s  %s %8s",
			numberStyle.Render(num),
			nameStyle.Render(name),
			sizeStyle.Render(humanize.Bytes(uint64(f.size)))) //nolint:gosec
		if n := live[f.path]; n > 0 {
			line += playingStyle.Render(fmt.Sprintf("  ▶ ×%d", n))
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + dividerStyle.Render("  "+strings.Repeat("─", 40)) + "\n")

	l := m.player.Listener().Position
	stats := m.player.CacheStats()
	b.WriteString(infoStyle.Render(fmt.Sprintf("  listener (%.1f, %.1f, %.1f) · %d playing · %s cached frames · %.0f%% hits",
		l.X, l.Y, l.Z,
		len(m.player.Sounds()),
		humanize.Comma(stats.Frames),
		stats.HitRate()*100)) + "\n")

	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		status := m.status
		if m.width > 4 {
			status = truncate.StringWithTail(status, uint(m.width-4), ellipsis) //nolint:gosec
		}
		b.WriteString("  " + style.Render(status) + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n  " + m.help.View(m.keys) + "\n")
	return b.String()
}
