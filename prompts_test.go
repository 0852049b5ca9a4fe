package tabextract

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePrompt(t *testing.T) {
	assert.Equal(t, "Get me the {Email}, {Phone} for {Company}.",
		GeneratePrompt([]string{"Email", "Phone"}, []string{"Company"}))
	assert.Equal(t, "Get me the {Email} for {Company}, {City}.",
		GeneratePrompt([]string{"Email"}, []string{"Company", "City"}))
	assert.Empty(t, GeneratePrompt(nil, []string{"Company"}))
	assert.Empty(t, GeneratePrompt([]string{"Email"}, nil))
}

func TestFormatExtractionPrompt(t *testing.T) {
	assert.Equal(t, "For Acme, please extract the following information: Email, Phone",
		FormatExtractionPrompt("Acme", []string{"Email", "Phone"}))
}

func TestEnhance(t *testing.T) {
	assert.Equal(t, "base", Enhance("base", "", nil))
	assert.Equal(t, "Context: B2B vendors\n\nbase", Enhance("base", "B2B vendors", nil))
	assert.Equal(t, "base\n\nHere are some examples:\nExample 1: one\nExample 2: two",
		Enhance("base", "", []string{"one", "two"}))
}

func TestPromptLibrary(t *testing.T) {
	t.Run("built-in presets", func(t *testing.T) {
		lib, err := NewPromptLibrary()
		require.NoError(t, err)
		assert.Equal(t, []string{PresetBasicInfo, PresetContactDetails, PresetFullAnalysis}, lib.Names())

		got, err := lib.Get(PresetContactDetails, nil)
		require.NoError(t, err)
		assert.Equal(t, "Get the email and address for {company}", got)
	})

	t.Run("placeholders survive twig", func(t *testing.T) {
		lib, err := NewPromptLibrary(WithTemplates(map[string]string{
			"fields": "Find {{ fieldList }} for {Company}",
		}))
		require.NoError(t, err)

		got, err := lib.Get("fields", SelectionVars([]string{"Email", "Phone"}, []string{"Company"}))
		require.NoError(t, err)
		assert.Equal(t, "Find Email, Phone for {Company}", got)
	})

	t.Run("library vars", func(t *testing.T) {
		lib, err := NewPromptLibrary(
			WithTemplates(map[string]string{"tone": "Answer {{tone}}: {Company}"}),
			WithVar("tone", "briefly"),
		)
		require.NoError(t, err)
		got, err := lib.Get("tone", nil)
		require.NoError(t, err)
		assert.Equal(t, "Answer briefly: {Company}", got)
	})

	t.Run("from fs", func(t *testing.T) {
		fsys := fstest.MapFS{
			"presets/people.twig": {Data: []byte("List key personnel at {Company}")},
			"presets/readme.md":   {Data: []byte("ignored")},
		}
		lib, err := NewPromptLibrary(WithFS(fsys, "presets"))
		require.NoError(t, err)
		src, ok := lib.Source("people")
		require.True(t, ok)
		assert.Equal(t, "List key personnel at {Company}", src)
		_, ok = lib.Source("readme")
		assert.False(t, ok)
	})

	t.Run("missing preset", func(t *testing.T) {
		lib, err := NewPromptLibrary()
		require.NoError(t, err)
		_, err = lib.Get("nope", nil)
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("add template", func(t *testing.T) {
		lib, err := NewPromptLibrary()
		require.NoError(t, err)
		lib.AddTemplate("x", "X {A}")
		got, err := lib.Get("x", nil)
		require.NoError(t, err)
		assert.Equal(t, "X {A}", got)
	})
}
