package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"tradeassist/internal/backtest"
)

// PresetFile is the on-disk structure of presets.yaml.
type PresetFile struct {
	Presets map[string]backtest.Config `yaml:"presets"`
}

// PresetWriter reads and writes the preset file. Writes go through a temp
// file and keep timestamped backups of the previous content.
type PresetWriter struct {
	path string
	mu   sync.RWMutex
}

func NewPresetWriter(path string) *PresetWriter {
	return &PresetWriter{path: path}
}

// Read parses the current preset file. A missing file yields an empty set.
func (w *PresetWriter) Read() (*PresetFile, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	data, err := os.ReadFile(w.path)
	if os.IsNotExist(err) {
		return &PresetFile{Presets: make(map[string]backtest.Config)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var pf PresetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	if pf.Presets == nil {
		pf.Presets = make(map[string]backtest.Config)
	}
	return &pf, nil
}

// Get returns one named preset.
func (w *PresetWriter) Get(name string) (backtest.Config, error) {
	pf, err := w.Read()
	if err != nil {
		return backtest.Config{}, err
	}
	cfg, ok := pf.Presets[name]
	if !ok {
		return backtest.Config{}, fmt.Errorf("preset %q not found", name)
	}
	return cfg, nil
}

// Names lists the preset names in stable order.
func (w *PresetWriter) Names() ([]string, error) {
	pf, err := w.Read()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(pf.Presets))
	for name := range pf.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Put stores or replaces one named preset.
func (w *PresetWriter) Put(name string, cfg backtest.Config) error {
	if name == "" {
		return fmt.Errorf("preset name must not be empty")
	}
	pf, err := w.Read()
	if err != nil {
		return err
	}
	pf.Presets[name] = cfg
	return w.Write(pf)
}

// Write replaces the whole preset file with backup.
func (w *PresetWriter) Write(pf *PresetFile) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.backup(); err != nil {
		return fmt.Errorf("backup presets: %w", err)
	}

	data, err := yaml.Marshal(pf)
	if err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}

	tmpPath := w.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp presets: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace presets: %w", err)
	}
	return nil
}

func (w *PresetWriter) backup() error {
	src, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	backupDir := filepath.Join(filepath.Dir(w.path), "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return err
	}

	timestamp := time.Now().Format("20060102_150405")
	backupPath := filepath.Join(backupDir, fmt.Sprintf("presets_%s.yaml", timestamp))

	dst, err := os.Create(backupPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	w.cleanOldBackups(backupDir, 10)
	return nil
}

func (w *PresetWriter) cleanOldBackups(dir string, keep int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	var backups []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "presets_") && strings.HasSuffix(e.Name(), ".yaml") {
			backups = append(backups, filepath.Join(dir, e.Name()))
		}
	}
	if len(backups) <= keep {
		return
	}
	sort.Strings(backups)
	for i := 0; i < len(backups)-keep; i++ {
		os.Remove(backups[i])
	}
}
