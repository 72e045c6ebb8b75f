package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	routeSession string
	routeJSON    bool
)

var routeCmd = &cobra.Command{
	Use:   "route <message>",
	Short: "Print the routing decision for a message",
	Long: `Classify a message into a specialist domain without generating an answer.

Examples:
  chatrouter route "What programming languages do you know?"
  CHATROUTER_ROUTER_MODE=keyword chatrouter route --json "Tell me about your education"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cr, _, _, err := newChatRouter(cmd.Context())
		if err != nil {
			return err
		}
		defer cr.Close(cmd.Context())

		d, err := cr.Route(cmd.Context(), routeSession, strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if routeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Agent      string  `json:"agent"`
				Confidence float64 `json:"confidence"`
				Rationale  string  `json:"rationale,omitempty"`
				Degraded   string  `json:"degraded,omitempty"`
			}{d.Tag, d.Confidence, d.Rationale, errString(d.Degraded)})
		}
		styles := newStyles()
		fmt.Fprintln(out, styles.agent(d.Tag, d.Confidence))
		if d.Rationale != "" {
			fmt.Fprintln(out, styles.Dim.Render(d.Rationale))
		}
		if d.Degraded != nil {
			fmt.Fprintln(out, styles.Warn.Render("classification degraded: "+d.Degraded.Error()))
		}
		return nil
	},
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func init() {
	routeCmd.Flags().StringVarP(&routeSession, "session", "s", "", "session id whose history is used")
	routeCmd.Flags().BoolVar(&routeJSON, "json", false, "print JSON")
}
