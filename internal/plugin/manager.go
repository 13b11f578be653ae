package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// ManifestFile is the manifest each plugin directory must contain.
const ManifestFile = "plugin.json"

var (
	// ErrPluginNotFound is returned when a requested plugin cannot be found.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrInvalidManifest is returned for a manifest that cannot describe a runnable plugin.
	ErrInvalidManifest = errors.New("invalid plugin manifest")
)

// Manager indexes the plugins installed under one directory.
type Manager struct {
	pluginDir string
	log       zerolog.Logger

	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// NewManager creates a Manager for pluginDir. Nothing is read until Discover.
func NewManager(pluginDir string, log zerolog.Logger) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
		log:       log.With().Str("component", "plugins").Logger(),
	}
}

// Discover rebuilds the index from the subdirectories of the plugin dir.
// A missing plugin dir yields an empty index. Directories without a manifest
// are ignored; broken manifests are logged and skipped.
func (m *Manager) Discover() error {
	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.replace(nil)
			return nil
		}
		return fmt.Errorf("read plugin dir: %w", err)
	}

	found := make(map[string]*Plugin)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := loadPlugin(filepath.Join(m.pluginDir, entry.Name()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			m.log.Warn().Err(err).Str("dir", entry.Name()).Msg("skipping plugin")
			continue
		}
		if _, dup := found[p.Manifest.Name]; dup {
			m.log.Warn().Str("plugin", p.Manifest.Name).Str("dir", entry.Name()).Msg("duplicate plugin name, keeping first")
			continue
		}
		found[p.Manifest.Name] = p
		m.log.Debug().Str("plugin", p.Manifest.Name).Strs("actions", p.Manifest.Actions).Msg("plugin discovered")
	}

	m.replace(found)
	return nil
}

func (m *Manager) replace(plugins map[string]*Plugin) {
	if plugins == nil {
		plugins = make(map[string]*Plugin)
	}
	m.mu.Lock()
	m.plugins = plugins
	m.mu.Unlock()
}

// loadPlugin reads dir/plugin.json. The name defaults to the directory name.
func loadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if manifest.Executable == "" {
		return nil, fmt.Errorf("%w: no executable", ErrInvalidManifest)
	}
	if manifest.Name == "" {
		manifest.Name = filepath.Base(dir)
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// Get returns a plugin by name, or an error wrapping ErrPluginNotFound.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return p, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	return m.filter(func(*Plugin) bool { return true })
}

// Supporting returns the plugins whose manifest lists action, sorted by name.
func (m *Manager) Supporting(action string) []*Plugin {
	return m.filter(func(p *Plugin) bool { return p.Manifest.Supports(action) })
}

func (m *Manager) filter(keep func(*Plugin) bool) []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Manifest.Name < out[j].Manifest.Name
	})
	return out
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
