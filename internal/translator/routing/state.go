// Package routing selects the provider for each translation request
// and tracks the shared health and quality state the selection feeds
// on. State is passed explicitly into the optimizer and coordinator
// rather than living in package-level singletons.
package routing

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/voxlate/voxlate/internal/translator/provider"
	"github.com/voxlate/voxlate/pkg/core/logging"
)

// emaAlpha is the smoothing factor for quality and error-rate updates
const emaAlpha = 0.1

// ServiceHealth reflects the most recent observation of one provider
type ServiceHealth struct {
	Available      bool      `json:"available"`
	ResponseTimeMs float64   `json:"responseTimeMs"`
	ErrorRateEMA   float64   `json:"errorRateEMA"`
	LastChecked    time.Time `json:"lastChecked"`
	LastError      string    `json:"lastError,omitempty"`
}

// HealthUpdate is a partial health observation. Nil fields leave the
// existing value untouched.
type HealthUpdate struct {
	Available      *bool
	ResponseTimeMs *float64
	Error          string
}

// QualityRecord is the smoothed quality history for one provider and
// language pair
type QualityRecord struct {
	Score   float64 `json:"score"`
	Samples int     `json:"samples"`
}

// State holds the mutable routing inputs: per-provider health and the
// per-pair quality table. Safe for concurrent use.
type State struct {
	health  map[string]*ServiceHealth
	quality map[string]map[string]*QualityRecord

	snapshotPath string
	saveCh       chan struct{}
	logger       *logging.Logger
	mu           sync.RWMutex
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewState creates routing state. When snapshotPath is non-empty the
// quality table is loaded from it (a missing file is not an error) and
// subsequent quality updates are persisted back asynchronously.
func NewState(snapshotPath string) *State {
	s := &State{
		health:       make(map[string]*ServiceHealth),
		quality:      make(map[string]map[string]*QualityRecord),
		snapshotPath: snapshotPath,
		saveCh:       make(chan struct{}, 1),
		logger:       logging.New("routing-state"),
		stopCh:       make(chan struct{}),
	}

	if snapshotPath != "" {
		s.loadSnapshot()
		s.wg.Add(1)
		go s.saveLoop()
	}
	return s
}

// UpdateServiceHealth merges a partial observation into a provider's
// health record, creating it as available on first sight. A non-empty
// Error marks the provider unavailable; an explicit Available=true
// restores it regardless of history. Returns the merged record and
// whether availability flipped.
func (s *State) UpdateServiceHealth(name string, update HealthUpdate) (ServiceHealth, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.health[name]
	if !ok {
		h = &ServiceHealth{Available: true}
		s.health[name] = h
	}
	was := h.Available

	if update.ResponseTimeMs != nil {
		if h.ResponseTimeMs == 0 {
			h.ResponseTimeMs = *update.ResponseTimeMs
		} else {
			h.ResponseTimeMs = (1-emaAlpha)*h.ResponseTimeMs + emaAlpha*(*update.ResponseTimeMs)
		}
	}

	if update.Error != "" {
		h.Available = false
		h.LastError = update.Error
		h.ErrorRateEMA = (1-emaAlpha)*h.ErrorRateEMA + emaAlpha
	} else {
		h.ErrorRateEMA = (1 - emaAlpha) * h.ErrorRateEMA
	}

	if update.Available != nil {
		h.Available = *update.Available
		if *update.Available {
			h.LastError = ""
		}
	}
	h.LastChecked = time.Now()

	return *h, h.Available != was
}

// Health returns a copy of one provider's record
func (s *State) Health(name string) (ServiceHealth, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.health[name]
	if !ok {
		return ServiceHealth{}, false
	}
	return *h, true
}

// IsAvailable reports whether a provider is currently usable.
// Providers never observed are optimistically available.
func (s *State) IsAvailable(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.health[name]
	if !ok {
		return true
	}
	return h.Available
}

// HealthSnapshot returns a copy of every provider's health record
func (s *State) HealthSnapshot() map[string]ServiceHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]ServiceHealth, len(s.health))
	for name, h := range s.health {
		out[name] = *h
	}
	return out
}

// UpdateQualityScore folds an observed score into the smoothed
// per-pair record. The first observation seeds the record with the
// raw score. Persistence of the updated table is queued and never
// blocks the caller.
func (s *State) UpdateQualityScore(name, from, to string, score float64) {
	pair := pairKey(from, to)

	s.mu.Lock()
	byPair, ok := s.quality[name]
	if !ok {
		byPair = make(map[string]*QualityRecord)
		s.quality[name] = byPair
	}
	rec, ok := byPair[pair]
	if !ok {
		byPair[pair] = &QualityRecord{Score: score, Samples: 1}
	} else {
		rec.Score = (1-emaAlpha)*rec.Score + emaAlpha*score
		rec.Samples++
	}
	s.mu.Unlock()

	s.requestSave()
}

// QualityScore returns the smoothed record for one provider and pair
func (s *State) QualityScore(name, from, to string) (QualityRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPair, ok := s.quality[name]
	if !ok {
		return QualityRecord{}, false
	}
	rec, ok := byPair[pairKey(from, to)]
	if !ok {
		return QualityRecord{}, false
	}
	return *rec, true
}

// PairProviders returns every provider holding a quality record for
// the exact language pair
func (s *State) PairProviders(from, to string) []string {
	pair := pairKey(from, to)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for name, byPair := range s.quality {
		if _, ok := byPair[pair]; ok {
			names = append(names, name)
		}
	}
	return names
}

// QualityMatrix returns a copy of the full quality table as plain
// scores, keyed provider then "from-to"
func (s *State) QualityMatrix() map[string]map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]float64, len(s.quality))
	for name, byPair := range s.quality {
		pairs := make(map[string]float64, len(byPair))
		for pair, rec := range byPair {
			pairs[pair] = rec.Score
		}
		out[name] = pairs
	}
	return out
}

// ResetQuality drops the entire quality table. Admin action only.
func (s *State) ResetQuality() {
	s.mu.Lock()
	s.quality = make(map[string]map[string]*QualityRecord)
	s.mu.Unlock()
	s.requestSave()
}

// Stop flushes a final snapshot and halts the persistence worker.
// Idempotent.
func (s *State) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
	})
}

func (s *State) requestSave() {
	if s.snapshotPath == "" {
		return
	}
	select {
	case s.saveCh <- struct{}{}:
	default:
	}
}

func (s *State) saveLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.saveCh:
			s.writeSnapshot()
		case <-s.stopCh:
			s.writeSnapshot()
			return
		}
	}
}

// loadSnapshot reads the persisted quality matrix. A missing or
// malformed file leaves the table empty.
func (s *State) loadSnapshot() {
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read quality snapshot", "path", s.snapshotPath, "error", err)
		}
		return
	}

	var matrix map[string]map[string]float64
	if err := json.Unmarshal(data, &matrix); err != nil {
		s.logger.Warn("Failed to parse quality snapshot", "path", s.snapshotPath, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, pairs := range matrix {
		byPair := make(map[string]*QualityRecord, len(pairs))
		for pair, score := range pairs {
			byPair[pair] = &QualityRecord{Score: score, Samples: 1}
		}
		s.quality[name] = byPair
	}
	s.logger.Info("Loaded quality snapshot", "path", s.snapshotPath, "providers", len(matrix))
}

// writeSnapshot persists the quality matrix. Failures are logged and
// swallowed.
func (s *State) writeSnapshot() {
	matrix := s.QualityMatrix()

	data, err := json.MarshalIndent(matrix, "", "  ")
	if err != nil {
		s.logger.Warn("Failed to marshal quality snapshot", "error", err)
		return
	}
	if err := os.WriteFile(s.snapshotPath, data, 0o644); err != nil {
		s.logger.Warn("Failed to write quality snapshot", "path", s.snapshotPath, "error", err)
	}
}

func pairKey(from, to string) string {
	return fmt.Sprintf("%s-%s", provider.NormalizeLang(from), provider.NormalizeLang(to))
}
