package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/gary-zero/hierplan/models"
	"github.com/gofrs/flock"
	yaml "gopkg.in/yaml.v3"
)

const (
	defaultDataFile = "plans.json"
	checksumSuffix  = ".checksum"
	formatJSON      = "json"
	formatYAML      = "yaml"
	formatTOML      = "toml"
)

// planFile is the on-disk document: plans in creation order.
type planFile struct {
	Plans      []*models.HierarchicalPlan `json:"plans" yaml:"plans" toml:"plans"`
	TotalCount int                        `json:"totalCount" yaml:"totalCount" toml:"totalCount"`
}

// FilePlanStore implements PlanStore on a single data file. It supports
// JSON, YAML, and TOML formats, uses file-level locking so concurrent CLI
// invocations do not clobber each other, and keeps a sidecar checksum to
// detect corruption.
type FilePlanStore struct {
	mu       sync.Mutex
	filePath string
	format   string
	flk      *flock.Flock
	plans    map[string]*models.HierarchicalPlan
	order    []string
}

// NewFilePlanStore creates an uninitialized file store; Initialize must be
// called before use.
func NewFilePlanStore() *FilePlanStore {
	return &FilePlanStore{plans: make(map[string]*models.HierarchicalPlan)}
}

// Initialize configures the store with a data file path and format and loads
// existing plans.
func (s *FilePlanStore) Initialize(filePath, format string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if filePath == "" {
		filePath = defaultDataFile
	}
	s.filePath = filePath

	format = strings.ToLower(format)
	switch format {
	case "":
		s.format = formatJSON
	case formatJSON, formatYAML, formatTOML:
		s.format = format
	default:
		return fmt.Errorf("unsupported plan file format %q (supported: json, yaml, toml)", format)
	}

	if dir := filepath.Dir(s.filePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create plan directory %s: %w", dir, err)
		}
	}

	s.flk = flock.New(s.filePath)
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("acquire lock on %s: %w", s.filePath, err)
	}
	defer func() { _ = s.flk.Unlock() }()

	return s.loadLocked()
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// loadLocked reads the data file, verifies the checksum, and unmarshals.
// The file lock must be held.
func (s *FilePlanStore) loadLocked() error {
	s.plans = make(map[string]*models.HierarchicalPlan)
	s.order = nil

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read plan file %s: %w", s.filePath, err)
	}
	if len(data) == 0 {
		return nil
	}

	checksumPath := s.filePath + checksumSuffix
	if expected, err := os.ReadFile(checksumPath); err == nil {
		if got := checksum(data); got != strings.TrimSpace(string(expected)) {
			return fmt.Errorf("checksum mismatch for %s: file is corrupt or was modified outside the store", s.filePath)
		}
	}

	var doc planFile
	switch s.format {
	case formatJSON:
		err = json.Unmarshal(data, &doc)
	case formatYAML:
		err = yaml.Unmarshal(data, &doc)
	case formatTOML:
		err = toml.Unmarshal(data, &doc)
	}
	if err != nil {
		return fmt.Errorf("unmarshal %s plan file %s: %w", s.format, s.filePath, err)
	}

	for _, plan := range doc.Plans {
		s.plans[plan.ID] = plan
		s.order = append(s.order, plan.ID)
	}
	return nil
}

// saveLocked marshals the plans and writes data + checksum atomically via
// temp-file rename. The file lock must be held.
func (s *FilePlanStore) saveLocked() error {
	doc := planFile{TotalCount: len(s.order)}
	for _, id := range s.order {
		doc.Plans = append(doc.Plans, s.plans[id])
	}

	var (
		data []byte
		err  error
	)
	switch s.format {
	case formatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
	case formatYAML:
		data, err = yaml.Marshal(doc)
	case formatTOML:
		buf := new(bytes.Buffer)
		err = toml.NewEncoder(buf).Encode(doc)
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("marshal plans to %s: %w", s.format, err)
	}

	tmpPath := s.filePath + ".tmp"
	checksumPath := s.filePath + checksumSuffix
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp plan file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace plan file %s: %w", s.filePath, err)
	}
	if err := os.WriteFile(checksumPath, []byte(checksum(data)), 0o644); err != nil {
		return fmt.Errorf("write checksum file %s: %w", checksumPath, err)
	}
	return nil
}

// withLock runs fn with the flock and internal mutex held.
func (s *FilePlanStore) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flk == nil {
		return fmt.Errorf("file plan store not initialized")
	}
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("acquire lock on %s: %w", s.filePath, err)
	}
	defer func() { _ = s.flk.Unlock() }()
	return fn()
}

// CreatePlan adds a plan and persists the file.
func (s *FilePlanStore) CreatePlan(plan *models.HierarchicalPlan) error {
	return s.withLock(func() error {
		if err := s.loadLocked(); err != nil {
			return err
		}
		if _, exists := s.plans[plan.ID]; exists {
			return fmt.Errorf("plan %s already exists", plan.ID)
		}
		s.plans[plan.ID] = plan
		s.order = append(s.order, plan.ID)
		return s.saveLocked()
	})
}

// GetPlan retrieves a plan by id.
func (s *FilePlanStore) GetPlan(id string) (*models.HierarchicalPlan, error) {
	var plan *models.HierarchicalPlan
	err := s.withLock(func() error {
		if err := s.loadLocked(); err != nil {
			return err
		}
		var ok bool
		plan, ok = s.plans[id]
		if !ok {
			return fmt.Errorf("plan %s: %w", id, ErrPlanNotFound)
		}
		return nil
	})
	return plan, err
}

// UpdatePlan persists the current state of an existing plan.
func (s *FilePlanStore) UpdatePlan(plan *models.HierarchicalPlan) error {
	return s.withLock(func() error {
		if err := s.loadLocked(); err != nil {
			return err
		}
		if _, ok := s.plans[plan.ID]; !ok {
			return fmt.Errorf("plan %s: %w", plan.ID, ErrPlanNotFound)
		}
		s.plans[plan.ID] = plan
		return s.saveLocked()
	})
}

// DeletePlan removes a plan by id.
func (s *FilePlanStore) DeletePlan(id string) error {
	return s.withLock(func() error {
		if err := s.loadLocked(); err != nil {
			return err
		}
		if _, ok := s.plans[id]; !ok {
			return fmt.Errorf("plan %s: %w", id, ErrPlanNotFound)
		}
		delete(s.plans, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return s.saveLocked()
	})
}

// ListPlans returns plans in creation order, optionally filtered.
func (s *FilePlanStore) ListPlans(filterFn func(*models.HierarchicalPlan) bool) ([]*models.HierarchicalPlan, error) {
	var result []*models.HierarchicalPlan
	err := s.withLock(func() error {
		if err := s.loadLocked(); err != nil {
			return err
		}
		for _, id := range s.order {
			plan := s.plans[id]
			if filterFn == nil || filterFn(plan) {
				result = append(result, plan)
			}
		}
		return nil
	})
	return result, err
}

// Close releases the file lock.
func (s *FilePlanStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flk != nil {
		return s.flk.Close()
	}
	return nil
}
