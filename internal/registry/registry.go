// Package registry loads and holds the static catalog of agent descriptors.
//
// A Registry is immutable once built. When the catalog cannot be loaded the
// caller is expected to continue with Empty(), which makes the pipeline run
// in always-fallback mode.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/backpack455/hack-mit-sub000/internal/pipeerr"
	"github.com/backpack455/hack-mit-sub000/pkg/models"
)

//go:embed default_agents.yaml
var defaultYAML []byte

// LoadError is returned when the catalog source is missing or malformed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load agent registry: %v", e.Err)
	}
	return fmt.Sprintf("load agent registry %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, pipeerr.ErrRegistryLoad) match a LoadError.
func (e *LoadError) Is(target error) bool {
	return target == pipeerr.ErrRegistryLoad
}

// catalogFile is the on-disk registry format.
type catalogFile struct {
	Agents []models.AgentDescriptor `yaml:"agents"`
	Rules  RuleTable                `yaml:"rules"`
}

// Registry is a read-only catalog of agent descriptors.
type Registry struct {
	agents []models.AgentDescriptor
	byTag  map[string]int
	rules  RuleTable
}

// New builds a registry from descriptors using the default rule table.
// Tags and descriptions must be non-empty and tags unique.
func New(agents []models.AgentDescriptor) (*Registry, error) {
	return build(agents, DefaultRules())
}

// NewWithRules builds a registry with an explicit rule table.
func NewWithRules(agents []models.AgentDescriptor, rules RuleTable) (*Registry, error) {
	return build(agents, rules)
}

// Empty returns a registry with no agents.
func Empty() *Registry {
	return &Registry{byTag: map[string]int{}, rules: RuleTable{}}
}

// Load reads a YAML catalog from path. Rules present in the file replace the
// built-in rules for the same tag.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	reg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	return reg, nil
}

// Parse builds a registry from YAML bytes.
func Parse(data []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &LoadError{Err: fmt.Errorf("parse yaml: %w", err)}
	}
	return build(file.Agents, DefaultRules().Merge(file.Rules))
}

// Default returns the embedded sample catalog.
func Default() *Registry {
	reg, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded agent catalog is invalid: %v", err))
	}
	return reg
}

// DefaultYAML returns the embedded sample catalog file.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultYAML...)
}

func build(agents []models.AgentDescriptor, rules RuleTable) (*Registry, error) {
	if len(agents) == 0 {
		return nil, &LoadError{Err: errors.New("catalog contains no agents")}
	}

	reg := &Registry{
		agents: make([]models.AgentDescriptor, 0, len(agents)),
		byTag:  make(map[string]int, len(agents)),
		rules:  rules,
	}
	if reg.rules == nil {
		reg.rules = RuleTable{}
	}

	for i, a := range agents {
		a.Tag = strings.TrimSpace(a.Tag)
		a.Description = strings.TrimSpace(a.Description)
		if a.Tag == "" {
			return nil, &LoadError{Err: fmt.Errorf("agent %d has an empty tag", i)}
		}
		if a.Description == "" {
			return nil, &LoadError{Err: fmt.Errorf("agent %q has an empty description", a.Tag)}
		}
		if _, dup := reg.byTag[a.Tag]; dup {
			return nil, &LoadError{Err: fmt.Errorf("duplicate agent tag %q", a.Tag)}
		}
		reg.byTag[a.Tag] = len(reg.agents)
		reg.agents = append(reg.agents, a)
	}

	return reg, nil
}

// All returns a copy of the descriptors in catalog order.
func (r *Registry) All() []models.AgentDescriptor {
	if r == nil {
		return nil
	}
	out := make([]models.AgentDescriptor, len(r.agents))
	copy(out, r.agents)
	return out
}

// Lookup returns the descriptor for tag.
func (r *Registry) Lookup(tag string) (models.AgentDescriptor, bool) {
	if r == nil {
		return models.AgentDescriptor{}, false
	}
	i, ok := r.byTag[tag]
	if !ok {
		return models.AgentDescriptor{}, false
	}
	return r.agents[i], true
}

// Len returns the number of agents.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.agents)
}

// Tags returns the agent tags in catalog order.
func (r *Registry) Tags() []string {
	if r == nil {
		return nil
	}
	tags := make([]string, len(r.agents))
	for i, a := range r.agents {
		tags[i] = a.Tag
	}
	return tags
}

// Rules returns a copy of the bonus rule table used for this catalog.
func (r *Registry) Rules() RuleTable {
	if r == nil {
		return RuleTable{}
	}
	return r.rules.Merge(nil)
}
