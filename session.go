package tabextract

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PromptMode selects where a session's prompt comes from.
type PromptMode string

const (
	PromptGenerated PromptMode = "generate"
	PromptCustom    PromptMode = "custom"
)

// DefaultCustomPrompt seeds the custom prompt editor.
const DefaultCustomPrompt = "Extract information about company {company_name} located in {location}."

var (
	ErrNoEntityColumns = errors.New("select at least one entity column")
	ErrNoFields        = errors.New("select at least one field to extract")
	ErrNoPrompt        = errors.New("prompt is empty")
)

// RunSummary is what a session remembers about one finished batch.
type RunSummary struct {
	ID       string    `json:"id"`
	Template string    `json:"template"`
	Rows     int       `json:"rows"`
	Failed   int       `json:"failed"`
	At       time.Time `json:"at"`
}

// Session carries one user's choices between interactions: which columns
// identify entities, which fields to extract, the prompt, and past runs.
// It is created with NewSession, changed only through its methods and
// dropped by its owner. A Session is not safe for concurrent use.
type Session struct {
	ID            string       `json:"id"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	EntityColumns []string     `json:"entityColumns"`
	Fields        []string     `json:"fields"`
	CustomFields  []string     `json:"customFields"`
	Mode          PromptMode   `json:"mode"`
	CustomPrompt  string       `json:"customPrompt"`
	History       []RunSummary `json:"history"`
}

// NewSession starts a session with the default field selection and the
// generated-prompt mode.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Fields:       slices.Clone(DefaultSelectedFields),
		Mode:         PromptGenerated,
		CustomPrompt: DefaultCustomPrompt,
	}
}

func (s *Session) touch() { s.UpdatedAt = time.Now() }

// SelectEntities replaces the entity column selection.
func (s *Session) SelectEntities(cols ...string) {
	s.EntityColumns = dedupe(cols)
	s.touch()
}

// SelectFields replaces the field selection.
func (s *Session) SelectFields(fields ...string) {
	s.Fields = dedupe(fields)
	s.touch()
}

// AddCustomField remembers a user-defined field and selects it. Blank or
// already selected names are ignored.
func (s *Session) AddCustomField(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if !slices.Contains(s.CustomFields, name) {
		s.CustomFields = append(s.CustomFields, name)
	}
	if !slices.Contains(s.Fields, name) {
		s.Fields = append(s.Fields, name)
	}
	s.touch()
}

// UseCustomPrompt switches to a user-written prompt.
func (s *Session) UseCustomPrompt(tpl string) {
	s.Mode = PromptCustom
	s.CustomPrompt = tpl
	s.touch()
}

// UseGeneratedPrompt switches back to the prompt built from the selection.
func (s *Session) UseGeneratedPrompt() {
	s.Mode = PromptGenerated
	s.touch()
}

// Prompt returns the template the next run would use.
func (s *Session) Prompt() string {
	if s.Mode == PromptCustom {
		return s.CustomPrompt
	}
	return GeneratePrompt(s.Fields, s.EntityColumns)
}

// Validate checks the session is ready to run.
func (s *Session) Validate() error {
	if len(s.EntityColumns) == 0 {
		return ErrNoEntityColumns
	}
	if s.Mode != PromptCustom && len(s.Fields) == 0 {
		return ErrNoFields
	}
	if strings.TrimSpace(s.Prompt()) == "" {
		return ErrNoPrompt
	}
	return nil
}

// PrimaryColumn is the entity column used to label results.
func (s *Session) PrimaryColumn() string {
	if len(s.EntityColumns) == 0 {
		return ""
	}
	return s.EntityColumns[0]
}

// Record appends a finished run to the session history.
func (s *Session) Record(id, tpl string, results []Result) RunSummary {
	sum := Summarize(results)
	rs := RunSummary{
		ID:       id,
		Template: tpl,
		Rows:     sum.Total,
		Failed:   sum.Failed,
		At:       time.Now(),
	}
	s.History = append(s.History, rs)
	s.touch()
	return rs
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}
