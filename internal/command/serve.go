package command

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vivaneiona/tabextract/history"
	"github.com/vivaneiona/tabextract/internal/server"
	"github.com/vivaneiona/tabextract/internal/signals"
)

func NewServeCommand() *cobra.Command {
	var (
		configFilePath string
		addr           string
		templatesDir   string
		ef             extractorFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := loadConfig(configFilePath)
			if err != nil {
				return err
			}
			defer done()
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx := signals.SetupSignalHandler()

			x, err := newExtractor(ctx, cfg, ef, nil)
			if err != nil {
				return err
			}
			lib, err := newPrompts(templatesDir)
			if err != nil {
				return err
			}
			store, err := history.Open(ctx, cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()

			opts := server.Options{Extractor: x, Prompts: lib, History: store}
			if cfg.Sheets.CredentialsFile != "" {
				sheets, err := newSheets(context.Background(), cfg.Sheets)
				if err != nil {
					return err
				}
				opts.Sheets = sheets
			} else {
				zap.S().Warn("sheets.credentialsFile not set, Google Sheets endpoints are disabled")
			}

			return server.New(opts).Run(ctx, cfg.Server.Addr)
		},
	}

	addConfigFlag(cmd, &configFilePath)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&templatesDir, "templates-dir", "", "directory of additional *.twig presets")
	cmd.Flags().BoolVar(&ef.search, "search", false, "enrich rows with web search results")
	return cmd
}
