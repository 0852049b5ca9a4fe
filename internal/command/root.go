// Package command holds the tabextract cobra commands.
package command

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vivaneiona/tabextract/internal/version"
)

const defaultConfigPath = ""

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tabextract",
		Short: "Fill a table with information extracted by a language model",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableNoDescFlag:   true,
			DisableDescriptions: true,
			HiddenDefaultCmd:    true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		NewRunCommand(),
		NewPreviewCommand(),
		NewTemplatesCommand(),
		NewHistoryCommand(),
		NewServeCommand(),
	)

	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		zap.S().Info("use 'run' to extract, 'serve' to start the HTTP API")
		_ = cmd.Help()
	}
	rootCmd.Version = version.GetVersion().String()
	return rootCmd
}

func addConfigFlag(cmd *cobra.Command, p *string) {
	cmd.Flags().StringVarP(p, "config", "c", defaultConfigPath, "config file path (yaml)")
}

func addInputFlags(cmd *cobra.Command, f *inputFlags) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "CSV or XLSX file to read")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Google Sheets URL to read")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "worksheet to read from an XLSX file")
}

func addPromptFlags(cmd *cobra.Command, f *promptFlags) {
	cmd.Flags().StringSliceVarP(&f.entities, "entity", "e", nil, "entity columns (default: first column)")
	cmd.Flags().StringSliceVarP(&f.fields, "field", "f", nil, "fields to extract (default: Email, Phone)")
	cmd.Flags().StringSliceVar(&f.customFields, "custom-field", nil, "additional user-defined fields")
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "custom prompt template with {column} placeholders")
	cmd.Flags().StringVar(&f.preset, "preset", "", "named prompt preset")
	cmd.Flags().StringVar(&f.templatesDir, "templates-dir", "", "directory of additional *.twig presets")
	cmd.Flags().StringVar(&f.context, "context", "", "context paragraph placed before the prompt")
	cmd.Flags().StringArrayVar(&f.examples, "example", nil, "example answer appended to the prompt (repeatable)")
}
