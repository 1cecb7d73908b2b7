package memory

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory in their text form, the way they
// arrive from environment variables, and parses them on read.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewConfigStore creates an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]string)}
}

// Get returns the stored text.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString returns the stored text or "".
func (s *ConfigStore) GetString(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// GetInt parses the stored text as an integer.
func (s *ConfigStore) GetInt(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s.GetString(key)))
	if err != nil {
		return 0
	}
	return n
}

// GetFloat parses the stored text as a float.
func (s *ConfigStore) GetFloat(key string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s.GetString(key)), 64)
	if err != nil {
		return 0
	}
	return f
}

// Set records the text form of value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = fmt.Sprint(value)
	return nil
}
