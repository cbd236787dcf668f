package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	yaml "go.yaml.in/yaml/v3"

	"hotkeyd/pkg/logx"
)

// Manager owns the config file for one daemon process: it loads the file at
// startup, watches it for edits, and hands validated reloads to the single
// consumer (the event loop) through Updates.
//
// Reload pipeline: raw-byte hash dedup, strict decode, validator hook, commit,
// publish. A reload that fails any stage keeps the previous config live.
type Manager struct {
	path string
	log  logx.Logger

	validator func(ctx context.Context, cfg *Config) error

	mu       sync.RWMutex
	cfg      *Config
	lastHash uint64

	// Buffered one deep; a newer config replaces an unconsumed older one.
	updates chan *Config
}

func NewManager(path string) *Manager {
	return &Manager{
		path:    path,
		updates: make(chan *Config, 1),
	}
}

func (m *Manager) SetLogger(log logx.Logger) { m.log = log }

// SetValidator installs the hook run on every watched reload before commit.
func (m *Manager) SetValidator(fn func(ctx context.Context, cfg *Config) error) {
	m.validator = fn
}

// Updates delivers committed reloads. Only the newest pending config is ever
// buffered; a consumer that reads late still applies the latest state.
func (m *Manager) Updates() <-chan *Config { return m.updates }

// Load reads, decodes and commits the config file.
func (m *Manager) Load() (*Config, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, err
	}
	cfg, err := m.decode(data)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.cfg = cfg
	m.lastHash = hashBytes(data)
	m.mu.Unlock()
	return cfg, nil
}

// Commit replaces the current config without touching the file, mainly for
// tests and tooling that assemble a Config in memory.
func (m *Manager) Commit(cfg *Config) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// decode picks the format from the file extension. Both paths are strict:
// unknown fields are an error, as is trailing content after a JSON document.
func (m *Manager) decode(data []byte) (*Config, error) {
	var cfg Config
	switch strings.ToLower(filepath.Ext(m.path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("yaml decode: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("json decode: %w", err)
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			return nil, errors.New("json decode: trailing data after config document")
		}
	}
	return &cfg, nil
}

// reload runs the pipeline for one watched change. Every failure path only
// logs: a broken edit must never take down the running config.
func (m *Manager) reload(ctx context.Context) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		m.log.Warn("config unreadable; keeping current", logx.String("path", m.path), logx.Err(err))
		return
	}

	h := hashBytes(data)
	m.mu.RLock()
	unchanged := h != 0 && h == m.lastHash
	m.mu.RUnlock()
	if unchanged {
		m.log.Debug("config unchanged; skipping reload", logx.String("path", m.path))
		return
	}

	cfg, err := m.decode(data)
	if err != nil {
		m.log.Warn("config decode failed; keeping current", logx.String("path", m.path), logx.Err(err))
		return
	}

	if m.validator != nil {
		vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := m.validator(vctx, cfg)
		cancel()
		if err != nil {
			m.log.Warn("config rejected; keeping current", logx.String("path", m.path), logx.Err(err))
			return
		}
	}

	m.mu.Lock()
	m.cfg = cfg
	m.lastHash = h
	m.mu.Unlock()

	// Replace a pending unconsumed update rather than queueing behind it.
	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- cfg:
	default:
	}
	m.log.Info("config reloaded", logx.String("path", m.path))
}

// hashBytes returns a stable 64-bit hash of the raw file content.
func hashBytes(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

// Editors settle their write bursts (tmp file, rename, chmod) well inside
// this window; reload runs once per burst.
const watchSettle = 250 * time.Millisecond

// Watch blocks until ctx is done, reloading the config on file changes. A
// broken watcher (editor quirks, fs unmounts) is recreated with a doubling
// backoff rather than ending the watch.
func (m *Manager) Watch(ctx context.Context) error {
	backoff := watchSettle
	for {
		err := m.watchOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		m.log.Warn("config watcher stopped; restarting",
			logx.Err(err), logx.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < 8*time.Second {
			backoff *= 2
		}
	}
}

// watchOnce runs a single watcher lifetime. It watches the config file's
// directory (not the file itself) so atomic-rename saves keep being seen.
func (m *Manager) watchOnce(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(m.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	m.log.Debug("config watcher started", logx.String("dir", dir))

	base := filepath.Base(m.path)
	settle := time.NewTimer(watchSettle)
	if !settle.Stop() {
		<-settle.C
	}
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("event channel closed")
			}
			// Any op counts: saves arrive as write, create, rename or chmod
			// depending on the editor.
			if strings.EqualFold(filepath.Base(ev.Name), base) {
				settle.Reset(watchSettle)
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return errors.New("error channel closed")
			}
			if werr != nil {
				m.log.Warn("config watch error", logx.Err(werr))
			}

		case <-settle.C:
			m.reload(ctx)
		}
	}
}
