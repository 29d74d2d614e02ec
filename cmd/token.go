package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mittwald/authprobe/internal/helper"
	"github.com/mittwald/authprobe/pkg/token"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

var tokenTarget targetFlags

func init() {
	tokenCmd.AddCommand(tokenInspectCmd)
	tokenInspectCmd.Flags().StringVar(&tokenTarget.token, "token", "", "token to inspect (ENV:NAME reads an environment variable)")
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Work with bearer tokens",
}

var tokenInspectCmd = &cobra.Command{
	Use:        "inspect [target]",
	Args:       cobra.MaximumNArgs(1),
	ArgAliases: []string{"target"},
	Short:      "Decode the bearer token of a target",
	Long:       "This command decodes the claims of a JWT bearer token. The signature is not verified.",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := helper.ResolveEnv(tokenTarget.token)
		if raw == "" {
			target, err := selectTarget(args, &targetFlags{})
			if err != nil {
				return err
			}
			raw = target.Token
		}
		if raw == "" {
			return errors.New("no token configured; use --token")
		}

		info, err := token.Inspect(raw)
		if err != nil {
			return err
		}

		out, err := json.Marshal(info)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "    "); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(pretty.Color(buf.Bytes(), nil)))

		switch {
		case info.ExpiresAt == nil:
			fmt.Fprintln(cmd.OutOrStdout(), styleHighlight.Render("token has no expiry"))
		case info.Expired(time.Now()):
			fmt.Fprintln(cmd.OutOrStdout(), styleFailed.Render("token expired at "+info.ExpiresAt.Format(time.RFC3339)))
		default:
			fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render("token valid until "+info.ExpiresAt.Format(time.RFC3339)))
		}

		return nil
	},
}
