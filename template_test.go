package tabextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	row := NewRow([]string{"Company", "Email"}, []any{"Acme", "?"})

	t.Run("scenario", func(t *testing.T) {
		got := Render("Get me the {Email} for {Company}.", row)
		assert.Equal(t, "Get me the ? for Acme.", got)
	})

	t.Run("unknown placeholders stay", func(t *testing.T) {
		got := Render("{Company} in {City} {}", row)
		assert.Equal(t, "Acme in {City} {}", got)
	})

	t.Run("case sensitive", func(t *testing.T) {
		got := Render("{company} / {Company}", row)
		assert.Equal(t, "{company} / Acme", got)
	})

	t.Run("every occurrence", func(t *testing.T) {
		got := Render("{Company}{Company}-{Company}", row)
		assert.Equal(t, "AcmeAcme-Acme", got)
	})

	t.Run("no re-substitution", func(t *testing.T) {
		r := NewRow([]string{"A", "B"}, []any{"{B}", "x"})
		assert.Equal(t, "{B} x", Render("{A} {B}", r))

		r = NewRow([]string{"B", "A"}, []any{"x", "{B}"})
		assert.Equal(t, "{B} x", Render("{A} {B}", r))
	})

	t.Run("scalar values", func(t *testing.T) {
		r := NewRow([]string{"n", "f", "b", "null"}, []any{42, 2.5, true, nil})
		assert.Equal(t, "42 2.5 true []", Render("{n} {f} {b} [{null}]", r))
	})

	t.Run("empty row", func(t *testing.T) {
		assert.Equal(t, "{A}", Render("{A}", Row{}))
	})

	t.Run("deterministic", func(t *testing.T) {
		r := NewRow([]string{"x", "y", "z"}, []any{1, 2, 3})
		first := Render("{z}{y}{x}{w}", r)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, Render("{z}{y}{x}{w}", r))
		}
	})
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		tpl  string
		want []string
	}{
		{"none", "plain text", nil},
		{"ordered distinct", "{B} {A} {B}", []string{"B", "A"}},
		{"nested brace restarts", "{{A}", []string{"A"}},
		{"unterminated", "{A", nil},
		{"empty braces", "{} {X}", []string{"X"}},
		{"spaces kept", "{Company Name}", []string{"Company Name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Placeholders(tt.tpl))
		})
	}
}

func TestMissing(t *testing.T) {
	got := Missing("Get {Email} for {Company} in {City}", []string{"Company", "City"})
	assert.Equal(t, []string{"Email"}, got)
	assert.Empty(t, Missing("{A}", []string{"A"}))
}
