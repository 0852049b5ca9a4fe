package command

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vivaneiona/tabextract"
	"github.com/vivaneiona/tabextract/export"
	"github.com/vivaneiona/tabextract/history"
	"github.com/vivaneiona/tabextract/internal/signals"
)

func NewRunCommand() *cobra.Command {
	var (
		configFilePath string
		in             inputFlags
		pf             promptFlags
		ef             extractorFlags
		limit          int
		formats        []string
		outDir         string
		writeBack      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract information for every row of a table",
		Long: "Loads a CSV/XLSX file or a Google Sheet, sends one prompt per row to the " +
			"configured model and prints the results as JSON. Results can also be exported " +
			"to files, written back to the sheet and recorded in the run history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := loadConfig(configFilePath)
			if err != nil {
				return err
			}
			defer done()

			parsed := make([]export.Format, 0, len(formats))
			for _, f := range formats {
				ft, err := export.ParseFormat(f)
				if err != nil {
					return err
				}
				parsed = append(parsed, ft)
			}
			if writeBack && in.sheet == "" {
				return fmt.Errorf("--write-back needs --sheet")
			}

			ctx := signals.SetupSignalHandler()

			tbl, err := in.load(ctx, cfg)
			if err != nil {
				return err
			}
			sess, err := pf.session(tbl)
			if err != nil {
				return err
			}
			// prompts see only the entity columns, so field placeholders that
			// share a name with a table column stay literal
			rows := tbl.Select(sess.EntityColumns...).Head(limit)

			store, err := history.Open(ctx, cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()

			x, err := newExtractor(ctx, cfg, ef, func(i int, res tabextract.Result) {
				zap.S().Infof("row %d/%d: %s", i+1, len(rows), res.Kind())
			})
			if err != nil {
				return err
			}

			tpl := sess.Prompt()
			started := time.Now()
			results := x.RunBatch(ctx, rows, tpl)
			records := tabextract.Records(rows, sess.PrimaryColumn(), results)

			run := history.NewRun(sess.ID, tpl, started, records)
			if err := store.SaveRun(ctx, run); err != nil {
				zap.S().Warnf("save run history: %v", err)
			}
			sum := tabextract.Summarize(results)
			zap.S().Infof("run %s finished: %d rows, %d structured, %d text, %d failed",
				run.ID, sum.Total, sum.Structured, sum.Text, sum.Failed)

			if err := printRecords(cmd.OutOrStdout(), records); err != nil {
				return err
			}
			if len(parsed) > 0 {
				paths, err := export.WriteFiles(ctx, outDir, parsed, records)
				if err != nil {
					return err
				}
				for _, p := range paths {
					zap.S().Infof("wrote %s", p)
				}
			}
			if writeBack {
				c, err := newSheets(ctx, cfg.Sheets)
				if err != nil {
					return err
				}
				if err := c.Write(ctx, in.sheet, records); err != nil {
					return err
				}
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configFilePath)
	addInputFlags(cmd, &in)
	addPromptFlags(cmd, &pf)
	cmd.Flags().BoolVar(&ef.search, "search", false, "enrich rows with web search results")
	cmd.Flags().StringVar(&ef.searchQuery, "search-query", "", "search query template (default: the row's values)")
	cmd.Flags().IntVar(&ef.intensity, "intensity", 0, "search results per row, 1-10")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "process only the first n rows")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "export formats: csv, json, excel")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "export directory")
	cmd.Flags().BoolVar(&writeBack, "write-back", false, "write results back to --sheet")
	return cmd
}

func printRecords(w io.Writer, records []tabextract.Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
