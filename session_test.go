package tabextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := NewSession()
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, PromptGenerated, s.Mode)
		assert.Equal(t, []string{"Email", "Phone"}, s.Fields)
		assert.ErrorIs(t, s.Validate(), ErrNoEntityColumns)
	})

	t.Run("defaults are not shared", func(t *testing.T) {
		a, b := NewSession(), NewSession()
		a.Fields[0] = "Changed"
		assert.Equal(t, "Email", b.Fields[0])
		assert.Equal(t, "Email", DefaultSelectedFields[0])
	})

	t.Run("generated prompt", func(t *testing.T) {
		s := NewSession()
		s.SelectEntities("Company", "Company", " ")
		s.AddCustomField("LinkedIn")
		s.AddCustomField("LinkedIn")
		require.NoError(t, s.Validate())
		assert.Equal(t, []string{"Company"}, s.EntityColumns)
		assert.Equal(t, []string{"LinkedIn"}, s.CustomFields)
		assert.Equal(t, "Get me the {Email}, {Phone}, {LinkedIn} for {Company}.", s.Prompt())
		assert.Equal(t, "Company", s.PrimaryColumn())
	})

	t.Run("no fields", func(t *testing.T) {
		s := NewSession()
		s.SelectEntities("Company")
		s.SelectFields()
		assert.ErrorIs(t, s.Validate(), ErrNoFields)
	})

	t.Run("custom prompt", func(t *testing.T) {
		s := NewSession()
		s.SelectEntities("Company")
		s.UseCustomPrompt("Summarize {Company}")
		assert.Equal(t, "Summarize {Company}", s.Prompt())
		s.SelectFields()
		require.NoError(t, s.Validate())

		s.UseCustomPrompt("  ")
		assert.ErrorIs(t, s.Validate(), ErrNoPrompt)

		s.UseGeneratedPrompt()
		s.SelectFields("Website")
		assert.Equal(t, "Get me the {Website} for {Company}.", s.Prompt())
	})

	t.Run("history", func(t *testing.T) {
		s := NewSession()
		rs := s.Record("run-1", "{Company}", []Result{PlainText{Text: "x"}, Failure{Message: "e"}})
		assert.Equal(t, 2, rs.Rows)
		assert.Equal(t, 1, rs.Failed)
		require.Len(t, s.History, 1)
		assert.Equal(t, "run-1", s.History[0].ID)
	})
}

func TestRecords(t *testing.T) {
	rows := []Row{
		NewRow([]string{"Company", "City"}, []any{"Acme", "Berlin"}),
		NewRow([]string{"Company", "City"}, []any{"Globex", "Paris"}),
	}
	results := []Result{PlainText{Text: "a"}, Failure{Message: "b"}}

	recs := Records(rows, "Company", results)
	require.Len(t, recs, 2)
	assert.Equal(t, "Acme", recs[0].Entity)
	assert.Equal(t, `{"extracted_text":"a"}`, recs[0].InfoJSON())
	assert.Equal(t, `{"error":"b"}`, recs[1].InfoJSON())

	recs = Records(rows, "", results)
	assert.Equal(t, "2", recs[1].Entity)
}
