package cmd

import (
	"errors"
	"fmt"

	"github.com/mittwald/authprobe/pkg/cli"
	"github.com/mittwald/authprobe/pkg/report"
	"github.com/spf13/cobra"
)

var (
	apiAddress      string
	remoteAnonymous bool
)

func init() {
	for _, c := range []*cobra.Command{statusCmd, targetsCmd, watchCmd} {
		c.Flags().StringVar(&apiAddress, "api-address", cli.DefaultAPIAddress, "address of a running 'authprobe serve'")
		rootCmd.AddCommand(c)
	}
	watchCmd.Flags().BoolVar(&remoteAnonymous, "anonymous", false, "probe with an empty token")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of all targets of a running status server",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp := cli.NewAPIClient(apiAddress).Status()

		var failing *cli.FailingTargetsError
		if resp.Err() != nil && !errors.As(resp.Err(), &failing) {
			return fmt.Errorf("failed to get status: %w", resp.Err())
		}

		out := cmd.OutOrStdout()
		for _, name := range resp.Body.Names() {
			fmt.Fprintln(out, summaryLine(name, resp.Body.Targets[name].OK))
		}

		if err := resp.PrintTo(out, report.UseColor(out, report.ColorAuto)); err != nil {
			return err
		}

		if failing != nil {
			return ErrProbeFailed
		}
		return nil
	},
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the targets of a running status server",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp := cli.NewAPIClient(apiAddress).Targets()
		if resp.Err() != nil {
			return fmt.Errorf("failed to list targets: %w", resp.Err())
		}

		for _, name := range resp.Body {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:        "watch <target>",
	Args:       cobra.ExactArgs(1),
	ArgAliases: []string{"target"},
	Short:      "Probe a target through a running status server and print results as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.NewAPIClient(apiAddress).Stream(args[0], remoteAnonymous).Print()
	},
}
