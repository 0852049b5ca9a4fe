package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vivaneiona/tabextract"
)

func NewTemplatesCommand() *cobra.Command {
	var templatesDir string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List prompt presets and default fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := newPrompts(templatesDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range lib.Names() {
				src, _ := lib.Source(name)
				fmt.Fprintf(out, "%-18s %s\n", name, src)
			}
			fmt.Fprintf(out, "\nfields: %s (default: %s)\n",
				strings.Join(tabextract.DefaultFields, ", "),
				strings.Join(tabextract.DefaultSelectedFields, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&templatesDir, "templates-dir", "", "directory of additional *.twig presets")
	return cmd
}
