package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTemplatesCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pricing.twig", "What does {company} charge?")

	out, err := execute(t, "templates", "--templates-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "basic-info")
	assert.Contains(t, out, "pricing")
	assert.Contains(t, out, "What does {company} charge?")
	assert.Contains(t, out, "fields: Email, Address, Phone, Website, Description (default: Email, Phone)")
}

func TestPreviewCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "companies.csv", "Company,City\nAcme,Berlin\nGlobex,Paris\nInitech,Austin\n")

	out, err := execute(t, "preview", "-i", in, "-e", "Company", "-f", "Email,Phone", "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"template: Get me the {Email}, {Phone} for {Company}.",
		"unresolved: [Email Phone]",
		"1. Get me the {Email}, {Phone} for Acme.",
		"2. Get me the {Email}, {Phone} for Globex.",
		"",
	}, "\n"), out)

	out, err = execute(t, "preview", "-i", in, "-e", "Company,City", "-p", "Where is {Company} in {City}?", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Where is Acme in Berlin?")

	out, err = execute(t, "preview", "-i", in, "-p", "Where is {Company} in {City}?", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Where is Acme in {City}?", "only entity columns are substituted")

	_, err = execute(t, "preview", "-i", in, "-e", "Nope")
	assert.Error(t, err)

	_, err = execute(t, "preview")
	assert.Error(t, err)
}

func TestPreviewCommand_FieldNamedLikeColumn(t *testing.T) {
	in := writeFile(t, t.TempDir(), "c.csv", "Company,Email,City\nAcme,,Berlin\nGlobex,old@globex.com,Paris\n")

	out, err := execute(t, "preview", "-i", in, "-e", "Company", "-f", "Email,Phone")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Get me the {Email}, {Phone} for Acme.\n")
	assert.Contains(t, out, "2. Get me the {Email}, {Phone} for Globex.\n")
	assert.NotContains(t, out, "old@globex.com")
}

func TestPreviewCommand_ContextAndExamples(t *testing.T) {
	in := writeFile(t, t.TempDir(), "c.csv", "Company\nAcme\n")

	out, err := execute(t, "preview", "-i", in, "-f", "Email", "-n", "1",
		"--context", "Companies are German SMEs.",
		"--example", `{"Email":"info@example.de"}`,
		"--example", `{"Email":"kontakt@example.de"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "1. Context: Companies are German SMEs.\n\nGet me the {Email} for Acme."+
		"\n\nHere are some examples:\nExample 1: {\"Email\":\"info@example.de\"}\nExample 2: {\"Email\":\"kontakt@example.de\"}\n")
}

func TestRunCommand(t *testing.T) {
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		answer := `{"Email":"info@acme.test"}`
		if strings.Contains(req.Messages[0].Content, "Globex") {
			answer = "I could not find it."
		}
		b, _ := json.Marshal(answer)
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%s}}]}`, b)
	}))
	defer llmSrv.Close()

	dir := t.TempDir()
	in := writeFile(t, dir, "companies.csv", "Company\nAcme\nGlobex\n")
	cfgPath := writeFile(t, dir, "config.yaml", fmt.Sprintf(`
llm:
  provider: groq
  apiKey: test-key
  baseURL: %s
history:
  driver: duckdb
  dsn: %s
`, llmSrv.URL, filepath.Join(dir, "history.duckdb")))
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "run", "-c", cfgPath, "-i", in, "-f", "Email", "--format", "json,csv", "-o", outDir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"Entity":"Acme","Extracted_Information":{"Email":"info@acme.test"}}`, lines[0])
	assert.JSONEq(t, `{"Entity":"Globex","Extracted_Information":{"extracted_text":"I could not find it."}}`, lines[1])

	assert.FileExists(t, filepath.Join(outDir, "extracted_data.json"))
	assert.FileExists(t, filepath.Join(outDir, "extracted_data.csv"))

	out, err = execute(t, "history", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "rows=2 failed=0  Get me the {Email} for {Company}.")
}
