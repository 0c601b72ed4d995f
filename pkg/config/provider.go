package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

const reloadDebounce = 100 * time.Millisecond

// OverridesProvider watches a policy override file and republishes parsed
// snapshots. Malformed or invalid edits are logged and dropped; subscribers
// only ever see snapshots that passed validation.
type OverridesProvider struct {
	path        string
	logger      *slog.Logger
	mu          sync.RWMutex
	current     Overrides
	subscribers []chan Overrides
	watcher     *fsnotify.Watcher
	cancel      context.CancelFunc
}

// NewOverridesProvider loads the file and starts watching its directory.
// A missing file is not an error; the empty override set applies until the
// file shows up.
func NewOverridesProvider(path string, logger *slog.Logger) (*OverridesProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve overrides path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &OverridesProvider{
		path:    absPath,
		logger:  logger,
		watcher: watcher,
		cancel:  cancel,
	}

	if err := p.load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("overrides file absent, using built-in policy values", "path", absPath)
		} else {
			logger.Warn("initial overrides load failed", "path", absPath, "error", err)
		}
	}

	// Watch the directory: editors and config mounts replace the file
	// rather than writing it in place.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		cancel()
		_ = watcher.Close()
		return nil, fmt.Errorf("watch overrides directory: %w", err)
	}

	go p.watchLoop(ctx)

	return p, nil
}

// Current returns the last good override snapshot.
func (p *OverridesProvider) Current() Overrides {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Subscribe returns a channel carrying each new good snapshot. The current
// snapshot is delivered immediately. Slow consumers miss intermediate
// updates rather than blocking the watcher.
func (p *OverridesProvider) Subscribe() <-chan Overrides {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan Overrides, 1)
	p.subscribers = append(p.subscribers, ch)
	ch <- p.current
	return ch
}

// Close stops the watcher. Subscriber channels go quiet but stay open; the
// provider does not own their lifetime.
func (p *OverridesProvider) Close() error {
	p.cancel()
	return p.watcher.Close()
}

func (p *OverridesProvider) watchLoop(ctx context.Context) {
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != p.path {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Chmod) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, func() {
					if err := p.load(); err != nil {
						p.logger.Error("overrides reload failed, keeping last good snapshot",
							"path", p.path, "error", err)
						return
					}
					p.logger.Info("policy overrides reloaded", "path", p.path)
				})
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("overrides watcher error", "error", err)
		}
	}
}

func (p *OverridesProvider) load() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}

	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parse overrides file: %w", err)
	}
	if err := o.Validate(); err != nil {
		return fmt.Errorf("invalid overrides: %w", err)
	}

	p.mu.Lock()
	p.current = o
	subscribers := make([]chan Overrides, len(p.subscribers))
	copy(subscribers, p.subscribers)
	p.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- o:
		default:
			// Skip if channel is full (slow consumer)
		}
	}

	return nil
}
