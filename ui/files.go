package ui

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/dgnsrekt/soundboard/internal/decode"
)

// fileEntry is one playable file on the board.
type fileEntry struct {
	name    string
	path    string
	size    int64
	modTime time.Time
}

type (
	filesMsg      []fileEntry
	dirChangedMsg struct{}
	watchErrMsg   struct{ err error }
)

// listSounds returns the playable files directly inside dir, by name.
func listSounds(dir string) ([]fileEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", dir, err)
	}

	return lo.FilterMap(entries, func(e os.DirEntry, _ int) (fileEntry, bool) {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			return fileEntry{}, false
		}
		if decode.Sniff(nil, name) == decode.FormatUnknown {
			return fileEntry{}, false
		}
		info, err := e.Info()
		if err != nil {
			return fileEntry{}, false
		}
		return fileEntry{
			name:    name,
			path:    filepath.Join(dir, name),
			size:    info.Size(),
			modTime: info.ModTime(),
		}, true
	}), nil
}

func scanDir(dir string) tea.Cmd {
	return func() tea.Msg {
		files, err := listSounds(dir)
		if err != nil {
			return errMsg{err}
		}
		return filesMsg(files)
	}
}

// waitForChange blocks until the watched directory changes.
func waitForChange(w *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Write) {
					return dirChangedMsg{}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err}
			}
		}
	}
}

// placement spreads n sounds evenly on a circle of radius r around the
// origin, the first one straight ahead (-Z) and the rest clockwise.
func placement(i, n int, r float64) (x, z float64) {
	if n <= 0 {
		return 0, -r
	}
	a := 2 * math.Pi * float64(i) / float64(n)
	return r * math.Sin(a), -r * math.Cos(a)
}
