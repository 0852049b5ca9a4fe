package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/vivaneiona/tabextract"
	"github.com/vivaneiona/tabextract/config"
	"github.com/vivaneiona/tabextract/gsheets"
	"github.com/vivaneiona/tabextract/internal/logging"
	"github.com/vivaneiona/tabextract/llm"
	"github.com/vivaneiona/tabextract/search"
	"github.com/vivaneiona/tabextract/source"
)

// loadConfig reads and validates the configuration and installs the
// process logger. The returned func flushes and restores logging.
func loadConfig(path string) (*config.GlobalConfig, func(), error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, nil, fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	l, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	restore := logging.Install(l)
	return cfg, func() {
		_ = l.Sync()
		restore()
	}, nil
}

func newInvoker(ctx context.Context, cfg *config.LLMConfig) (tabextract.Invoker, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return llm.NewGemini(ctx, llm.GeminiConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL}, slog.Default())
	default:
		if cfg.APIKey == "" {
			return nil, llm.ErrMissingAPIKey
		}
		opts := []llm.GroqOption{llm.WithGroqLogger(slog.Default())}
		if cfg.BaseURL != "" {
			opts = append(opts, llm.WithBaseURL(cfg.BaseURL))
		}
		return llm.NewGroq(cfg.APIKey, opts...), nil
	}
}

type extractorFlags struct {
	search      bool
	searchQuery string
	intensity   int
}

func newExtractor(ctx context.Context, cfg *config.GlobalConfig, ef extractorFlags, onRow func(int, tabextract.Result)) (*tabextract.Extractor, error) {
	inv, err := newInvoker(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}
	opts := []func(*tabextract.Options){
		tabextract.WithModel(cfg.LLM.Model),
		tabextract.WithTimeout(cfg.LLM.Timeout),
		tabextract.WithRetry(tabextract.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			MinWait:     cfg.Retry.MinWait,
			MaxWait:     cfg.Retry.MaxWait,
			Multiplier:  cfg.Retry.Multiplier,
		}),
		tabextract.WithLogger(slog.Default()),
	}
	if onRow != nil {
		opts = append(opts, tabextract.WithProgress(onRow))
	}

	enabled := cfg.Search.Enabled || ef.search
	if enabled {
		if cfg.Search.APIKey == "" {
			return nil, search.ErrMissingAPIKey
		}
		query := cfg.Search.Query
		if ef.searchQuery != "" {
			query = ef.searchQuery
		}
		intensity := cfg.Search.Intensity
		if ef.intensity > 0 {
			intensity = ef.intensity
		}
		s := search.NewSerpAPI(cfg.Search.APIKey, cfg.Search.BaseURL, nil, slog.Default())
		opts = append(opts, tabextract.WithEnricher(tabextract.NewSearchEnricher(s, query, intensity, slog.Default())))
	}
	return tabextract.New(inv, opts...), nil
}

func newSheets(ctx context.Context, cfg *config.SheetsConfig) (*gsheets.Client, error) {
	opts := []option.ClientOption{option.WithScopes(gsheets.Scopes...)}
	if cfg != nil && cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	return gsheets.NewClient(ctx, slog.Default(), opts...)
}

func newPrompts(dir string) (*tabextract.PromptLibrary, error) {
	var opts []tabextract.Option
	if dir != "" {
		opts = append(opts, tabextract.WithFS(os.DirFS(dir), "."))
	}
	lib, err := tabextract.NewPromptLibrary(opts...)
	if err != nil {
		return nil, fmt.Errorf("load prompt presets: %w", err)
	}
	return lib, nil
}

type inputFlags struct {
	input     string
	sheet     string
	sheetName string
}

func (f inputFlags) load(ctx context.Context, cfg *config.GlobalConfig) (*source.Table, error) {
	switch {
	case f.input != "" && f.sheet != "":
		return nil, errors.New("use either --input or --sheet")
	case f.input != "":
		if strings.EqualFold(filepath.Ext(f.input), ".xlsx") && f.sheetName != "" {
			fh, err := os.Open(f.input)
			if err != nil {
				return nil, err
			}
			defer fh.Close()
			return source.ReadXLSX(fh, f.sheetName)
		}
		return source.Open(f.input)
	case f.sheet != "":
		if !gsheets.ValidateSheetURL(f.sheet) {
			return nil, gsheets.ErrInvalidURL
		}
		c, err := newSheets(ctx, cfg.Sheets)
		if err != nil {
			return nil, err
		}
		return c.Read(ctx, f.sheet)
	}
	return nil, errors.New("one of --input or --sheet is required")
}

type promptFlags struct {
	entities     []string
	fields       []string
	customFields []string
	prompt       string
	preset       string
	templatesDir string
	context      string
	examples     []string
}

// session turns prompt flags into a validated session for table t.
func (f promptFlags) session(t *source.Table) (*tabextract.Session, error) {
	sess := tabextract.NewSession()
	entities := f.entities
	if len(entities) == 0 && len(t.Columns) > 0 {
		entities = t.Columns[:1]
	}
	for _, e := range entities {
		if !slices.Contains(t.Columns, e) {
			return nil, fmt.Errorf("entity column %q not in table %v", e, t.Columns)
		}
	}
	sess.SelectEntities(entities...)
	if len(f.fields) > 0 {
		sess.SelectFields(f.fields...)
	}
	for _, cf := range f.customFields {
		sess.AddCustomField(cf)
	}

	switch {
	case f.preset != "":
		lib, err := newPrompts(f.templatesDir)
		if err != nil {
			return nil, err
		}
		tpl, err := lib.Get(f.preset, tabextract.SelectionVars(sess.Fields, sess.EntityColumns))
		if err != nil {
			return nil, err
		}
		sess.UseCustomPrompt(tpl)
	case f.prompt != "":
		sess.UseCustomPrompt(f.prompt)
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if f.context != "" || len(f.examples) > 0 {
		sess.UseCustomPrompt(tabextract.Enhance(sess.Prompt(), f.context, f.examples))
	}
	if missing := tabextract.Missing(sess.Prompt(), slices.Concat(sess.EntityColumns, []string{tabextract.SearchContextColumn})); len(missing) > 0 {
		zap.S().Warnf("prompt placeholders without an entity column are sent as-is: %v", missing)
	}
	return sess, nil
}
