package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// EnvPrefix is prepended to environment overrides. The key llm.base_url is
// overridden by SAGE_LLM_BASE_URL.
const EnvPrefix = "SAGE_"

const configFile = "config.toml"

// ConfigStore reads settings from three layers, highest first: the process
// environment, a .env file (config directory, then working directory) and
// config.toml. Writes only ever touch config.toml, which is kept as nested
// tables so it stays pleasant to edit by hand.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
	dotenv   map[string]string
	getenv   func(string) (string, bool)
}

// NewConfigStore opens the store in configDir, creating the directory.
// An empty configDir means ~/.sage.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".sage")
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, configFile),
		data:     map[string]any{},
		dotenv:   readDotenv(configDir),
		getenv:   os.LookupEnv,
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func readDotenv(configDir string) map[string]string {
	for _, path := range []string{filepath.Join(configDir, ".env"), ".env"} {
		if vals, err := godotenv.Read(path); err == nil {
			return vals
		}
	}
	return map[string]string{}
}

// EnvKey returns the environment variable that overrides key.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// Get returns the effective value. Environment layers yield strings, the
// file yields TOML types (string, int64, float64, bool).
func (s *ConfigStore) Get(key string) (any, bool) {
	env := EnvKey(key)
	if v, ok := s.getenv(env); ok {
		return v, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.dotenv[env]; ok {
		return v, true
	}
	v, ok := s.data[key]
	return v, ok
}

// GetString returns a string value; other types give "".
func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt returns an integer value, parsing strings from the environment.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	}
	return 0
}

// GetFloat returns a float value. Integers are widened.
func (s *ConfigStore) GetFloat(key string) float64 {
	v, _ := s.Get(key)
	switch f := v.(type) {
	case float64:
		return f
	case int64:
		return float64(f)
	case int:
		return float64(f)
	case string:
		x, _ := strconv.ParseFloat(strings.TrimSpace(f), 64)
		return x
	}
	return 0
}

// Set stores value in config.toml.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Save writes config.toml.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save replaces the file through a temporary sibling. Caller holds mu.
func (s *ConfigStore) save() error {
	out, err := toml.Marshal(nest(s.data))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load rereads config.toml. A missing file is an empty configuration.
func (s *ConfigStore) Load() error {
	raw, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		s.data = map[string]any{}
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string]any{}
	flatten(tree, "", s.data)
	return nil
}

// Path returns the config.toml location.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// flatten turns [llm] model = "x" into "llm.model": "x".
func flatten(tree map[string]any, prefix string, into map[string]any) {
	for k, v := range tree {
		if prefix != "" {
			k = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(sub, k, into)
			continue
		}
		into[k] = v
	}
}

// nest is the inverse of flatten. A key that is both a value and a table
// prefix keeps the value under its full dotted name.
func nest(flat map[string]any) map[string]any {
	root := map[string]any{}
	for key, v := range flat {
		parts := strings.Split(key, ".")
		node := root
		ok := true
		for _, p := range parts[:len(parts)-1] {
			child, exists := node[p]
			if !exists {
				m := map[string]any{}
				node[p] = m
				node = m
				continue
			}
			if m, isMap := child.(map[string]any); isMap {
				node = m
				continue
			}
			ok = false
			break
		}
		if ok {
			if _, clash := node[parts[len(parts)-1]].(map[string]any); !clash {
				node[parts[len(parts)-1]] = v
				continue
			}
		}
		root[key] = v
	}
	return root
}
