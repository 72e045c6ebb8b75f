package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var specialistsCmd = &cobra.Command{
	Use:   "specialists",
	Short: "List the configured specialists",
	RunE: func(cmd *cobra.Command, args []string) error {
		cr, _, _, err := newChatRouter(cmd.Context())
		if err != nil {
			return err
		}
		defer cr.Close(cmd.Context())

		styles := newStyles()
		out := cmd.OutOrStdout()
		reg := cr.Registry()
		for _, d := range append(reg.Descriptors(), reg.Fallback()) {
			fmt.Fprintf(out, "%s %s\n", styles.Label.Render(d.Tag), styles.Dim.Render(fmt.Sprintf("(priority %d)", d.Priority)))
			if d.Description != "" {
				fmt.Fprintf(out, "  %s\n", d.Description)
			}
			if len(d.Keywords) > 0 {
				fmt.Fprintf(out, "  %s\n", styles.Dim.Render("keywords: "+strings.Join(d.Keywords, ", ")))
			}
		}
		return nil
	},
}
