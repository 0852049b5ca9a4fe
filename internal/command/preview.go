package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vivaneiona/tabextract"
)

func NewPreviewCommand() *cobra.Command {
	var (
		configFilePath string
		in             inputFlags
		pf             promptFlags
		n              int
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the prompts the first rows would send, without calling the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := loadConfig(configFilePath)
			if err != nil {
				return err
			}
			defer done()

			tbl, err := in.load(context.Background(), cfg)
			if err != nil {
				return err
			}
			sess, err := pf.session(tbl)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tpl := sess.Prompt()
			fmt.Fprintf(out, "template: %s\n", tpl)
			if missing := tabextract.Missing(tpl, sess.EntityColumns); len(missing) > 0 {
				fmt.Fprintf(out, "unresolved: %v\n", missing)
			}
			for i, p := range tabextract.Preview(tbl.Select(sess.EntityColumns...).Head(n), tpl) {
				fmt.Fprintf(out, "%d. %s\n", i+1, p)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configFilePath)
	addInputFlags(cmd, &in)
	addPromptFlags(cmd, &pf)
	cmd.Flags().IntVarP(&n, "rows", "n", 3, "rows to preview")
	return cmd
}
