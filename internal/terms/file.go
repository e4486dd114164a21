package terms

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// fileFormat is the YAML layout of a term list file:
//
//	lists:
//	  - name: Profanity
//	    category: profanity
//	    active: true
//	    terms: [damn, hell]
type fileFormat struct {
	Lists []struct {
		Name     string   `yaml:"name"`
		Category string   `yaml:"category"`
		Active   *bool    `yaml:"active"`
		Terms    []string `yaml:"terms"`
	} `yaml:"lists"`
}

// FileSource serves term lists from a YAML file and reloads them when the file changes.
type FileSource struct {
	path string
	log  *slog.Logger

	mu    sync.RWMutex
	lists Lists
}

// NewFileSource reads path once; call Watch to pick up later edits.
func NewFileSource(path string, log *slog.Logger) (*FileSource, error) {
	if log == nil {
		log = slog.Default()
	}
	lists, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{path: path, log: log, lists: lists}, nil
}

// ParseFile loads active lists from a YAML file. Lists without an explicit
// active flag are treated as active.
func ParseFile(path string) (Lists, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read term list file: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse term list file %s: %w", path, err)
	}
	lists := Lists{}
	for _, l := range f.Lists {
		if l.Active != nil && !*l.Active {
			continue
		}
		lists[l.Category] = append(lists[l.Category], l.Terms...)
	}
	return Normalize(lists), nil
}

func (s *FileSource) Load(context.Context) (Lists, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.lists) == 0 {
		return Defaults(), nil
	}
	return s.lists.Clone(), nil
}

// Watch reloads the file on write/create events until ctx is done. A file that
// fails to parse leaves the previous lists in place.
func (s *FileSource) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create term list watcher: %w", err)
	}
	defer w.Close()

	// Editors often replace the file, so watch the directory.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			s.reload()
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("term list watcher error", "err", werr)
		}
	}
}

func (s *FileSource) reload() {
	lists, err := ParseFile(s.path)
	if err != nil {
		s.log.Warn("keeping previous term lists", "path", s.path, "err", err)
		return
	}
	s.mu.Lock()
	s.lists = lists
	s.mu.Unlock()
	s.log.Info("term lists reloaded", "path", s.path, "categories", len(lists))
}
