package tabextract

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tyler-sommer/stick"
)

// Built-in preset names.
const (
	PresetBasicInfo      = "basic-info"
	PresetContactDetails = "contact-details"
	PresetFullAnalysis   = "full-analysis"
)

// DefaultFields are the output fields offered when generating a prompt.
var DefaultFields = []string{"Email", "Address", "Phone", "Website", "Description"}

// DefaultSelectedFields are preselected from DefaultFields.
var DefaultSelectedFields = []string{"Email", "Phone"}

var builtinPresets = map[string]string{
	PresetBasicInfo:      "Extract basic information about {company}",
	PresetContactDetails: "Get the email and address for {company}",
	PresetFullAnalysis:   "Provide a detailed analysis of {company} including contact info, main business areas, and key personnel",
}

// GeneratePrompt builds the default extraction prompt, e.g.
// "Get me the {Email}, {Phone} for {Company}.". It returns "" unless both
// fields and entity columns are given.
func GeneratePrompt(fields, entityColumns []string) string {
	if len(fields) == 0 || len(entityColumns) == 0 {
		return ""
	}
	return fmt.Sprintf("Get me the %s for %s.", braced(fields), braced(entityColumns))
}

func braced(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = "{" + n + "}"
	}
	return strings.Join(parts, ", ")
}

// FormatExtractionPrompt asks for fields about a single named entity.
func FormatExtractionPrompt(entity string, fields []string) string {
	return fmt.Sprintf("For %s, please extract the following information: %s", entity, strings.Join(fields, ", "))
}

// Enhance prefixes tpl with a context paragraph and appends numbered
// examples. Empty context and no examples return tpl unchanged.
func Enhance(tpl, context string, examples []string) string {
	out := tpl
	if context != "" {
		out = "Context: " + context + "\n\n" + out
	}
	if len(examples) > 0 {
		lines := make([]string, len(examples))
		for i, ex := range examples {
			lines[i] = fmt.Sprintf("Example %d: %s", i+1, ex)
		}
		out = out + "\n\nHere are some examples:\n" + strings.Join(lines, "\n")
	}
	return out
}

// → PromptLibrary holds named prompt presets as Twig templates
type PromptLibrary struct {
	env       *stick.Env
	templates map[string]string
	vars      map[string]any
}

// Option configures a PromptLibrary.
type Option func(*PromptLibrary) error

// WithFS loads every *.twig file found under dir in the supplied FS. The
// preset name is the file name without extension.
func WithFS[F fs.FS](fsys F, dir string) Option {
	return func(p *PromptLibrary) error {
		return fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".twig") {
				return nil
			}
			content, readErr := fs.ReadFile(fsys, path)
			if readErr != nil {
				return fmt.Errorf("read %s: %w", path, readErr)
			}
			name := strings.TrimSuffix(filepath.Base(path), ".twig")
			p.templates[name] = string(content)
			return nil
		})
	}
}

// WithTemplates lets you inject an in-memory map.
func WithTemplates(m map[string]string) Option {
	return func(p *PromptLibrary) error {
		for k, v := range m {
			p.templates[k] = v
		}
		return nil
	}
}

// WithVar adds a variable that will be available in all templates.
func WithVar(key string, value any) Option {
	return func(p *PromptLibrary) error {
		p.vars[key] = value
		return nil
	}
}

// NewPromptLibrary returns a library seeded with the built-in presets.
func NewPromptLibrary(opts ...Option) (*PromptLibrary, error) {
	p := &PromptLibrary{
		env:       stick.New(nil),
		templates: make(map[string]string, len(builtinPresets)),
		vars:      make(map[string]any),
	}
	for k, v := range builtinPresets {
		p.templates[k] = v
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// AddTemplate updates or inserts one preset.
func (p *PromptLibrary) AddTemplate(name, tpl string) { p.templates[name] = tpl }

// Names lists preset names in sorted order.
func (p *PromptLibrary) Names() []string {
	out := make([]string, 0, len(p.templates))
	for k := range p.templates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Source returns the unrendered preset text.
func (p *PromptLibrary) Source(name string) (string, bool) {
	s, ok := p.templates[name]
	return s, ok
}

// Get renders preset name into a placeholder template. Twig expressions see
// the library variables, the preset name as "name", and extra; {column}
// placeholders pass through untouched for Render.
func (p *PromptLibrary) Get(name string, extra map[string]any) (string, error) {
	tpl, ok := p.templates[name]
	if !ok {
		return "", fmt.Errorf("preset %q not found", name)
	}

	ctx := make(map[string]stick.Value, len(p.vars)+len(extra)+1)
	ctx["name"] = name
	for k, v := range p.vars {
		ctx[k] = v
	}
	for k, v := range extra {
		ctx[k] = v
	}

	var out strings.Builder
	if err := p.env.Execute(tpl, &out, ctx); err != nil {
		return "", fmt.Errorf("execute %q: %w", name, err)
	}
	return out.String(), nil
}

// SelectionVars exposes a field/entity selection to preset templates as
// fields, entities, fieldList and entityList.
func SelectionVars(fields, entityColumns []string) map[string]any {
	return map[string]any{
		"fields":     fields,
		"entities":   entityColumns,
		"fieldList":  strings.Join(fields, ", "),
		"entityList": braced(entityColumns),
	}
}
