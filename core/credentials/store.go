// Package credentials persists the backend API key and the last used
// interview mode in a dotenv file, with the process environment taking
// precedence for the key.
package credentials

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

const (
	// EnvKeyName is the environment variable and dotenv key holding the
	// Anthropic API key.
	EnvKeyName = "ANTHROPIC_API_KEY"
	// lastModeKey stores the most recently used evaluation mode.
	lastModeKey = "LAST_EVALUATION_MODE"
)

type StoreOptions struct {
	KeyName string
}

type StoreOption func(*StoreOptions)

// WithKeyName overrides the environment variable and dotenv key the store
// reads the API key from.
func WithKeyName(name string) StoreOption {
	return func(o *StoreOptions) {
		o.KeyName = name
	}
}

// Store reads and writes a dotenv file at a fixed path. All methods are
// safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	path    string
	keyName string
}

func NewStore(path string, opts ...StoreOption) *Store {
	options := StoreOptions{KeyName: EnvKeyName}
	for _, opt := range opts {
		opt(&options)
	}

	return &Store{path: path, keyName: options.KeyName}
}

// APIKey returns the stored key. The process environment wins; a key found
// only in the dotenv file is promoted into the environment so later reads
// are consistent. Returns "" when no key is stored.
func (s *Store) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key := os.Getenv(s.keyName); key != "" {
		return key
	}

	values, err := s.readFile()
	if err != nil {
		return ""
	}
	key := values[s.keyName]
	if key != "" {
		_ = os.Setenv(s.keyName, key)
	}
	return key
}

// HasKey reports whether a key is available without exposing it.
func (s *Store) HasKey() bool {
	return s.APIKey() != ""
}

// SaveAPIKey persists the key to the dotenv file and the process
// environment, preserving unrelated entries in the file.
func (s *Store) SaveAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("api key is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readFile()
	if err != nil {
		return err
	}
	values[s.keyName] = key
	if err := s.writeFile(values); err != nil {
		return err
	}
	return os.Setenv(s.keyName, key)
}

// LastMode returns the most recently saved evaluation mode, or fallback
// when none is stored.
func (s *Store) LastMode(fallback string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readFile()
	if err != nil {
		return fallback
	}
	if mode := values[lastModeKey]; mode != "" {
		return mode
	}
	return fallback
}

func (s *Store) SaveLastMode(mode string) error {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		return fmt.Errorf("mode is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readFile()
	if err != nil {
		return err
	}
	values[lastModeKey] = mode
	return s.writeFile(values)
}

func (s *Store) readFile() (map[string]string, error) {
	values := map[string]string{}

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	return values, nil
}

func (s *Store) writeFile(values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(key)
		builder.WriteString("=")
		builder.WriteString(values[key])
		builder.WriteString("\n")
	}

	if err := os.WriteFile(s.path, []byte(builder.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}
