package cmd

import (
	"fmt"
	"time"

	"github.com/mittwald/authprobe/pkg/report"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const demoSeparator = "Deleting the cookie..."

var demoTarget targetFlags
var demoPause time.Duration

func init() {
	addTargetFlags(demoCmd, &demoTarget)
	demoCmd.Flags().DurationVar(&demoPause, "pause", time.Second, "pause before and after the separator")
	_ = demoCmd.Flags().MarkHidden("pause")
	_ = demoCmd.Flags().MarkHidden("anonymous")

	rootCmd.AddCommand(demoCmd)
}

var demoCmd = &cobra.Command{
	Use:        "demo [target]",
	Args:       cobra.MaximumNArgs(1),
	ArgAliases: []string{"target"},
	Short:      "Probe a target with its token and again without any token",
	Long:       "This command probes every resource of a target with the configured bearer token, then deletes the token and probes again to show how the API treats unauthenticated requests.",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := selectTarget(args, &demoTarget)
		if err != nil {
			return err
		}

		p, err := target.Prober()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		log.WithFields(log.Fields{"kind": "demo", "target": target.Name}).Debug("probing with token")
		if err := report.Lines(out, p.Probe(target.Token)); err != nil {
			return err
		}

		time.Sleep(demoPause)
		fmt.Fprintf(out, "\n\n%s\n\n\n", styleSeparator.Render(demoSeparator))
		time.Sleep(demoPause)

		log.WithFields(log.Fields{"kind": "demo", "target": target.Name}).Debug("probing without token")
		return report.Lines(out, p.Probe(""))
	},
}
