package prompt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/internal/util"
)

var (
	// ErrMissingVariables is returned when a declared variable is not supplied.
	ErrMissingVariables = errors.New("missing template variables")
	// ErrExtraVariables is returned when an undeclared variable is supplied.
	ErrExtraVariables = errors.New("unexpected template variables")
	// ErrTemplateNotFound is returned by Registry.Get for unknown templates.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrDuplicateTemplate is returned when a name/version pair is registered twice.
	ErrDuplicateTemplate = errors.New("template already registered")
)

// Template is an immutable, versioned prompt with an explicit variable list.
// Rendering is deterministic and strict: every declared variable must be
// supplied and nothing else may be.
type Template struct {
	name      string
	version   string
	text      string
	variables []string
	tmpl      *template.Template
}

// Rendered is the outcome of rendering a Template.
type Rendered struct {
	Text            string         `json:"text"`
	TemplateName    string         `json:"template_name"`
	TemplateVersion string         `json:"template_version"`
	Variables       map[string]any `json:"variables"`
	// Hash is the hex encoded SHA-256 of Text.
	Hash string `json:"hash"`
}

// New parses text (Go template syntax) into a Template declaring variables.
func New(name, version, text string, variables ...string) (*Template, error) {
	if name == "" || version == "" {
		return nil, fmt.Errorf("prompt: template name and version are required")
	}

	tmpl, err := util.ParseTemplate(name, text)
	if err != nil {
		return nil, fmt.Errorf("prompt: parse %s@%s: %w", name, version, err)
	}

	vars := slices.Clone(variables)
	sort.Strings(vars)

	return &Template{
		name:      name,
		version:   version,
		text:      text,
		variables: slices.Compact(vars),
		tmpl:      tmpl,
	}, nil
}

// Must is like New but panics on error.
func Must(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Version returns the template version.
func (t *Template) Version() string { return t.version }

// Variables returns the declared variables in sorted order.
func (t *Template) Variables() []string { return slices.Clone(t.variables) }

// Render substitutes values into the template.
func (t *Template) Render(values map[string]any) (Rendered, error) {
	var missing, extra []string

	for _, v := range t.variables {
		if _, ok := values[v]; !ok {
			missing = append(missing, v)
		}
	}

	for k := range values {
		if !slices.Contains(t.variables, k) {
			extra = append(extra, k)
		}
	}

	if len(missing) > 0 {
		return Rendered{}, fmt.Errorf("%w for %q: %s", ErrMissingVariables, t.name, strings.Join(missing, ", "))
	}

	if len(extra) > 0 {
		sort.Strings(extra)
		return Rendered{}, fmt.Errorf("%w for %q: %s", ErrExtraVariables, t.name, strings.Join(extra, ", "))
	}

	text, err := util.ExecuteTemplate(t.tmpl, values)
	if err != nil {
		return Rendered{}, fmt.Errorf("prompt: render %s@%s: %w", t.name, t.version, err)
	}

	sum := sha256.Sum256([]byte(text))

	return Rendered{
		Text:            text,
		TemplateName:    t.name,
		TemplateVersion: t.version,
		Variables:       maps.Clone(values),
		Hash:            hex.EncodeToString(sum[:]),
	}, nil
}

// Registry stores templates by name and version.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

func registryKey(name, version string) string { return name + "@" + version }

// Register adds t. A template with the same name and version must not exist.
func (r *Registry) Register(t *Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey(t.name, t.version)
	if _, exists := r.templates[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTemplate, key)
	}

	r.templates[key] = t

	return nil
}

// Get returns the template registered under name and version.
func (r *Registry) Get(name, version string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[registryKey(name, version)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, registryKey(name, version))
	}

	return t, nil
}

// Record adds a "prompt_rendered" span for r to tracer. Only metadata is
// recorded: template identity, hash and the variable names, never values.
func Record(ctx context.Context, tracer core.Tracer, r Rendered) {
	keys := slices.Sorted(maps.Keys(r.Variables))

	_, span := tracer.Begin(ctx, "prompt_rendered", map[string]any{
		"template_name":    r.TemplateName,
		"template_version": r.TemplateVersion,
		"hash":             r.Hash,
		"variable_keys":    keys,
	})
	span.End(nil)
}
