// Package modes loads and exposes interview mode configurations: the
// interviewer persona, question bank, evaluation rubric, and the scale
// shown to the candidate. Four modes ship embedded; additional modes can
// be loaded from a configuration directory and picked up live.
package modes

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

//go:embed configs/*.json
var embeddedConfigs embed.FS

// Config is one interview mode as declared in its JSON document.
type Config struct {
	Mode             string        `json:"mode"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	SystemPrompt     string        `json:"system_prompt"`
	EvaluationPrompt string        `json:"evaluation_prompt"`
	Questions        []QuestionSet `json:"questions"`
	Criteria         []Criterion   `json:"criteria"`
	Scale            Scale         `json:"scale"`
	// Evaluation overrides the built-in rubric when present, which lets a
	// dropped-in mode carry its own scoring instructions.
	Evaluation *Rubric `json:"evaluation,omitempty"`
}

type QuestionSet struct {
	Part    string   `json:"part"`
	Prompts []string `json:"prompts"`
}

type Criterion struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight,omitempty"`
}

type Scale struct {
	Label  string       `json:"label"`
	Levels []ScaleLevel `json:"levels"`
}

type ScaleLevel struct {
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// Rubric carries everything the evaluation prompt builder needs for one
// mode.
type Rubric struct {
	SystemPrompt       string  `json:"system_prompt"`
	OverallScale       string  `json:"overall_scale"`
	CriterionTemplate  string  `json:"criterion_template"`
	EquivalentTemplate string  `json:"equivalent_template"`
	QuestionMax        float64 `json:"question_max"`
	ExtraFields        string  `json:"extra_fields"`
	Examples           string  `json:"examples"`
	Guidance           string  `json:"guidance"`
}

// Question is one prompt drawn from a mode's question bank.
type Question struct {
	Part   string
	Prompt string
}

type CatalogOptions struct {
	ConfigDir      string
	ChangeCallback func(modes []string)
}

type CatalogOption func(*CatalogOptions)

// WithConfigDir loads *.json mode documents from dir on top of the
// embedded ones. A file's stem is its mode key; a file named like an
// embedded mode replaces it.
func WithConfigDir(dir string) CatalogOption {
	return func(o *CatalogOptions) {
		o.ConfigDir = dir
	}
}

// WithChangeCallback registers a callback fired with the new mode list
// whenever [Catalog.Watch] reloads the configuration directory.
func WithChangeCallback(callback func(modes []string)) CatalogOption {
	return func(o *CatalogOptions) {
		o.ChangeCallback = callback
	}
}

type Catalog struct {
	mu      sync.RWMutex
	configs map[string]*Config

	dir      string
	onChange func(modes []string)
}

func NewCatalog(opts ...CatalogOption) (*Catalog, error) {
	options := CatalogOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	c := &Catalog{
		dir:      options.ConfigDir,
		onChange: options.ChangeCallback,
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload rebuilds the catalog from the embedded documents and, when one is
// configured, the configuration directory. On any error the previous
// catalog stays in effect.
func (c *Catalog) Reload() error {
	configs, err := loadEmbedded()
	if err != nil {
		return err
	}

	if c.dir != "" {
		if err := loadDir(c.dir, configs); err != nil {
			return err
		}
	}

	if len(configs) == 0 {
		return fmt.Errorf("no interview mode configurations found")
	}

	c.mu.Lock()
	c.configs = configs
	c.mu.Unlock()
	return nil
}

func loadEmbedded() (map[string]*Config, error) {
	configs := map[string]*Config{}
	entries, err := fs.Glob(embeddedConfigs, "configs/*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded configs: %w", err)
	}
	for _, name := range entries {
		raw, err := embeddedConfigs.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded config %s: %w", name, err)
		}
		config, err := parseConfig(modeKey(name), raw)
		if err != nil {
			return nil, err
		}
		configs[config.Mode] = config
	}
	return configs, nil
}

func loadDir(dir string, configs map[string]*Config) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read config directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read config %s: %w", entry.Name(), err)
		}
		config, err := parseConfig(modeKey(entry.Name()), raw)
		if err != nil {
			return err
		}
		configs[config.Mode] = config
	}
	return nil
}

func modeKey(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

func parseConfig(mode string, raw []byte) (*Config, error) {
	config := Config{}
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("invalid config for mode %q: %w", mode, err)
	}
	config.Mode = mode

	if strings.TrimSpace(config.Description) == "" {
		return nil, fmt.Errorf("mode %q does not define a description", mode)
	}
	if strings.TrimSpace(config.SystemPrompt) == "" {
		return nil, fmt.Errorf("mode %q does not define a system prompt", mode)
	}
	if strings.TrimSpace(config.EvaluationPrompt) == "" {
		return nil, fmt.Errorf("mode %q does not define an evaluation prompt", mode)
	}
	if len(config.Questions) == 0 {
		return nil, fmt.Errorf("mode %q does not provide any questions", mode)
	}
	for _, set := range config.Questions {
		if len(set.Prompts) == 0 {
			return nil, fmt.Errorf("mode %q contains a question part without prompts", mode)
		}
	}
	if config.Evaluation == nil {
		if _, ok := builtinRubrics[mode]; !ok {
			return nil, fmt.Errorf("mode %q does not define an evaluation rubric", mode)
		}
	}

	return &config, nil
}

// Modes returns the available mode keys, sorted.
func (c *Catalog) Modes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	modes := make([]string, 0, len(c.configs))
	for mode := range c.configs {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

// DefaultMode prefers toefl when available, otherwise the first mode in
// sorted order.
func (c *Catalog) DefaultMode() string {
	c.mu.RLock()
	_, hasTOEFL := c.configs["toefl"]
	c.mu.RUnlock()

	if hasTOEFL {
		return "toefl"
	}
	modes := c.Modes()
	if len(modes) == 0 {
		return ""
	}
	return modes[0]
}

func (c *Catalog) Has(mode string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.configs[strings.ToLower(mode)]
	return ok
}

// Get returns a copy of the configuration for mode, case-insensitively.
func (c *Catalog) Get(mode string) (*Config, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	config, ok := c.configs[strings.ToLower(mode)]
	if !ok {
		return nil, fmt.Errorf("unknown interview mode %q, available modes: %s",
			mode, strings.Join(c.modesLocked(), ", "))
	}
	snapshot := *config
	return &snapshot, nil
}

func (c *Catalog) modesLocked() []string {
	modes := make([]string, 0, len(c.configs))
	for mode := range c.configs {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

// Rubric returns the evaluation rubric for mode: the one declared in its
// document if present, otherwise the built-in one.
func (c *Catalog) Rubric(mode string) (*Rubric, error) {
	config, err := c.Get(mode)
	if err != nil {
		return nil, err
	}
	if config.Evaluation != nil {
		rubric := *config.Evaluation
		return &rubric, nil
	}
	rubric := builtinRubrics[config.Mode]
	return &rubric, nil
}

// RandomQuestion draws a random prompt from a random part of the mode's
// question bank.
func (c *Catalog) RandomQuestion(mode string) (*Question, error) {
	config, err := c.Get(mode)
	if err != nil {
		return nil, err
	}

	set := config.Questions[rand.Intn(len(config.Questions))]
	return &Question{
		Part:   set.Part,
		Prompt: set.Prompts[rand.Intn(len(set.Prompts))],
	}, nil
}
