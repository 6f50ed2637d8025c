// Package templates loads modal view definitions from a directory of JSON
// files and keeps them fresh while the bot runs.
package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/slack-go/slack"

	"github.com/m3rciful/meetsy/core/logger"
)

// ErrUnknownTemplate is returned for names with no matching file.
var ErrUnknownTemplate = errors.New("templates: unknown template")

const ext = ".json"

// Store resolves a template name (file name without extension) to a view.
type Store struct {
	dir string

	mu    sync.RWMutex
	views map[string][]byte
}

// Load reads every *.json file in dir. A file that is not a valid modal
// fails the load.
func Load(dir string) (*Store, error) {
	s := &Store{dir: dir}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rereads the directory and swaps the template set atomically. On
// error the previous set stays in place.
func (s *Store) Reload() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("templates: read dir %s: %w", s.dir, err)
	}
	views := make(map[string][]byte, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("templates: read %s: %w", path, err)
		}
		if err := checkModal(data); err != nil {
			return fmt.Errorf("templates: %s: %w", path, err)
		}
		views[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = data
	}

	s.mu.Lock()
	s.views = views
	s.mu.Unlock()
	return nil
}

func checkModal(data []byte) error {
	var v slack.ModalViewRequest
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if v.Type != slack.VTModal {
		return fmt.Errorf("view type %q, want %q", v.Type, slack.VTModal)
	}
	return nil
}

// Names returns the loaded template names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.views))
	for n := range s.views {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Raw returns the template bytes.
func (s *Store) Raw(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.views[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	return data, nil
}

// Modal decodes the named template. Each call returns a fresh value, so
// callers may set PrivateMetadata freely.
func (s *Store) Modal(name string) (slack.ModalViewRequest, error) {
	var v slack.ModalViewRequest
	data, err := s.Raw(name)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("templates: decode %q: %w", name, err)
	}
	return v, nil
}

// Watch reloads the store whenever a template file changes, until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("templates: watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return fmt.Errorf("templates: watch %s: %w", s.dir, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !strings.EqualFold(filepath.Ext(ev.Name), ext) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if err := s.Reload(); err != nil {
					logger.Warn(ctx, "forms", "templates.reload_failed",
						slog.String("file", ev.Name),
						slog.String("err", err.Error()),
					)
					continue
				}
				logger.Info(ctx, "forms", "templates.reloaded",
					slog.String("file", ev.Name),
					slog.Int("templates", len(s.Names())),
				)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn(ctx, "forms", "templates.watch_error", slog.String("err", err.Error()))
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
