// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/teradata-labs/argonaut/pkg/types"
)

// Vocabulary defines the regions and parameters the intent parser
// recognizes. Deployments extend it with a YAML file; the built-in
// vocabulary covers the Indian Ocean Argo deployment.
type Vocabulary struct {
	Regions    []RegionEntry    `yaml:"regions"`
	Parameters []ParameterEntry `yaml:"parameters"`
}

// RegionEntry names one region and its bounding box.
type RegionEntry struct {
	Name    string   `yaml:"name"`
	MinLat  float64  `yaml:"min_lat"`
	MaxLat  float64  `yaml:"max_lat"`
	MinLon  float64  `yaml:"min_lon"`
	MaxLon  float64  `yaml:"max_lon"`
	Aliases []string `yaml:"aliases"`
}

// Bounds returns the region's bounding box.
func (r RegionEntry) Bounds() types.BoundingBox {
	return types.BoundingBox{MinLat: r.MinLat, MaxLat: r.MaxLat, MinLon: r.MinLon, MaxLon: r.MaxLon}
}

// ParameterEntry maps a measurement column to the words users call it.
type ParameterEntry struct {
	// Name is the measurement column, e.g. temp_adjusted
	Name string `yaml:"name"`

	// Label is the canonical display word, e.g. temperature
	Label string `yaml:"label"`

	Aliases []string `yaml:"aliases"`
}

// DefaultVocabulary returns the built-in Indian Ocean vocabulary.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Regions: []RegionEntry{
			{Name: "Arabian Sea", MinLat: 10, MaxLat: 25, MinLon: 55, MaxLon: 75, Aliases: []string{"arabian sea"}},
			{Name: "Bay Of Bengal", MinLat: 10, MaxLat: 25, MinLon: 80, MaxLon: 95, Aliases: []string{"bay of bengal"}},
			{Name: "Equatorial Indian Ocean", MinLat: -5, MaxLat: 5, MinLon: 40, MaxLon: 80, Aliases: []string{"equatorial indian ocean", "equatorial region"}},
			{Name: "Southern Indian Ocean", MinLat: -40, MaxLat: -20, MinLon: 20, MaxLon: 80, Aliases: []string{"southern indian ocean", "southern ocean"}},
		},
		Parameters: []ParameterEntry{
			{Name: "temp_adjusted", Label: "temperature", Aliases: []string{"temperature", "temp", "thermal"}},
			{Name: "psal_adjusted", Label: "salinity", Aliases: []string{"salinity", "psal", "salt"}},
			{Name: "pres_adjusted", Label: "pressure", Aliases: []string{"pressure", "pres", "depth"}},
		},
	}
}

// LoadVocabulary loads a vocabulary YAML file. An empty path returns the
// built-in vocabulary.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file %s: %w", path, err)
	}

	var vocab Vocabulary
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &vocab); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary YAML: %w", err)
	}

	if err := vocab.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vocabulary: %w", err)
	}
	return &vocab, nil
}

// Validate checks region and parameter entries for sane values.
func (v *Vocabulary) Validate() error {
	seen := make(map[string]bool)
	for i, r := range v.Regions {
		if r.Name == "" {
			return fmt.Errorf("regions[%d].name is required", i)
		}
		key := strings.ToLower(r.Name)
		if seen[key] {
			return fmt.Errorf("duplicate region name: %s", r.Name)
		}
		seen[key] = true
		if r.MinLat < -90 || r.MaxLat > 90 || r.MinLat >= r.MaxLat {
			return fmt.Errorf("region %s: invalid latitude bounds [%v, %v]", r.Name, r.MinLat, r.MaxLat)
		}
		if r.MinLon < -180 || r.MaxLon > 180 || r.MinLon >= r.MaxLon {
			return fmt.Errorf("region %s: invalid longitude bounds [%v, %v]", r.Name, r.MinLon, r.MaxLon)
		}
	}
	for i, p := range v.Parameters {
		if p.Name == "" {
			return fmt.Errorf("parameters[%d].name is required", i)
		}
		if p.Label == "" {
			return fmt.Errorf("parameter %s: label is required", p.Name)
		}
	}
	return nil
}

// RegionNamed looks up a region by name or alias, case-insensitive.
func (v *Vocabulary) RegionNamed(name string) (RegionEntry, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, r := range v.Regions {
		if strings.ToLower(r.Name) == needle {
			return r, true
		}
		for _, a := range r.Aliases {
			if strings.ToLower(a) == needle {
				return r, true
			}
		}
	}
	return RegionEntry{}, false
}

// RegionForBounds maps a bounding box to the region whose box contains its
// center. Boxes outside every known region report "Other".
func (v *Vocabulary) RegionForBounds(b types.BoundingBox) string {
	lat, lon := b.Center()
	for _, r := range v.Regions {
		if r.Bounds().Contains(lat, lon) {
			return r.Name
		}
	}
	return "Other"
}

// RegionNames returns all canonical region names in declaration order.
func (v *Vocabulary) RegionNames() []string {
	names := make([]string, len(v.Regions))
	for i, r := range v.Regions {
		names[i] = r.Name
	}
	return names
}

// ParameterForWord resolves a user word to the measurement column it names.
func (v *Vocabulary) ParameterForWord(word string) (ParameterEntry, bool) {
	needle := strings.ToLower(strings.TrimSpace(word))
	for _, p := range v.Parameters {
		if needle == p.Name || needle == strings.ToLower(p.Label) {
			return p, true
		}
		for _, a := range p.Aliases {
			if needle == strings.ToLower(a) {
				return p, true
			}
		}
	}
	return ParameterEntry{}, false
}

// ============================================================================
// Hot Reload
// ============================================================================

// VocabularyRegistry serves the current vocabulary and optionally reloads it
// when the backing file changes.
type VocabularyRegistry struct {
	path   string
	logger *zap.Logger

	mu    sync.RWMutex
	vocab *Vocabulary

	watcher *fsnotify.Watcher

	debounceMu    sync.Mutex
	debounceTimer *time.Timer

	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped bool
	stopMu  sync.Mutex
}

// NewVocabularyRegistry loads the vocabulary once and prepares the registry.
func NewVocabularyRegistry(cfg VocabularyConfig, logger *zap.Logger) (*VocabularyRegistry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	vocab, err := LoadVocabulary(cfg.Path)
	if err != nil {
		return nil, err
	}
	return &VocabularyRegistry{
		path:   cfg.Path,
		logger: logger,
		vocab:  vocab,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Current returns the vocabulary in use. The returned value is shared; do
// not mutate it.
func (vr *VocabularyRegistry) Current() *Vocabulary {
	vr.mu.RLock()
	defer vr.mu.RUnlock()
	return vr.vocab
}

// Watch begins reloading the vocabulary on file changes. It is a no-op when
// the registry serves the built-in vocabulary.
func (vr *VocabularyRegistry) Watch(ctx context.Context) error {
	if vr.path == "" {
		close(vr.doneCh)
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(vr.path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch vocabulary file: %w", err)
	}
	vr.watcher = watcher

	vr.logger.Info("Started vocabulary watcher", zap.String("path", vr.path))
	go vr.watchLoop(ctx)
	return nil
}

func (vr *VocabularyRegistry) watchLoop(ctx context.Context) {
	defer close(vr.doneCh)

	for {
		select {
		case event, ok := <-vr.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			vr.debounce(vr.reload)

		case err, ok := <-vr.watcher.Errors:
			if !ok {
				return
			}
			vr.logger.Error("Vocabulary watcher error", zap.Error(err))

		case <-vr.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

// debounce delays the reload until rapid editor writes settle.
func (vr *VocabularyRegistry) debounce(callback func()) {
	vr.debounceMu.Lock()
	defer vr.debounceMu.Unlock()

	if vr.debounceTimer != nil {
		vr.debounceTimer.Stop()
	}
	vr.debounceTimer = time.AfterFunc(500*time.Millisecond, callback)
}

func (vr *VocabularyRegistry) reload() {
	vocab, err := LoadVocabulary(vr.path)
	if err != nil {
		vr.logger.Error("Vocabulary reload failed, keeping previous vocabulary",
			zap.String("path", vr.path),
			zap.Error(err))
		return
	}

	vr.mu.Lock()
	vr.vocab = vocab
	vr.mu.Unlock()

	vr.logger.Info("Vocabulary reloaded",
		zap.String("path", vr.path),
		zap.Int("regions", len(vocab.Regions)),
		zap.Int("parameters", len(vocab.Parameters)))
}

// Stop stops the watcher. Safe to call multiple times.
func (vr *VocabularyRegistry) Stop() error {
	vr.stopMu.Lock()
	defer vr.stopMu.Unlock()

	if vr.stopped {
		return nil
	}
	vr.stopped = true

	if vr.watcher == nil {
		return nil
	}

	close(vr.stopCh)
	select {
	case <-vr.doneCh:
	case <-time.After(5 * time.Second):
		vr.logger.Warn("Vocabulary watcher stop timed out")
	}
	return vr.watcher.Close()
}
