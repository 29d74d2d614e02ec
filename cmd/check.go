package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mittwald/authprobe/internal/config"
	"github.com/mittwald/authprobe/internal/helper"
	"github.com/mittwald/authprobe/pkg/cli"
	"github.com/mittwald/authprobe/pkg/probe"
	"github.com/mittwald/authprobe/pkg/report"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var ErrProbeFailed = errors.New("not every resource could be fetched successfully")

type targetFlags struct {
	token     string
	anonymous bool
	baseURL   string
	resources string
	timeout   string
}

var checkTarget targetFlags

var checkOutput struct {
	format         string
	template       string
	color          string
	exitWithStatus bool
	apiAddress     string
}

func init() {
	addTargetFlags(checkCmd, &checkTarget)
	checkCmd.Flags().StringVarP(&checkOutput.format, "output", "o", report.FormatLines, "output format: lines, json or template")
	checkCmd.Flags().StringVar(&checkOutput.template, "template", "", "template file used with --output=template")
	checkCmd.Flags().StringVar(&checkOutput.color, "color", report.ColorAuto, "color JSON output: auto, always or never")
	checkCmd.Flags().BoolVar(&checkOutput.exitWithStatus, "exit-with-status", false, "exit with status code 1 unless every resource succeeded")
	checkCmd.Flags().StringVar(&checkOutput.apiAddress, "api-address", "", "probe through a running 'authprobe serve' instead of directly")

	rootCmd.AddCommand(checkCmd)
}

func addTargetFlags(cmd *cobra.Command, f *targetFlags) {
	cmd.Flags().StringVar(&f.token, "token", "", "bearer token; overrides the configured token (ENV:NAME reads an environment variable)")
	cmd.Flags().BoolVar(&f.anonymous, "anonymous", false, "probe with an empty token")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "override the base URL of the target")
	cmd.Flags().StringVar(&f.resources, "resources", "", "comma separated list of resources; overrides the configured resources")
	cmd.Flags().StringVar(&f.timeout, "timeout", "", "per request timeout, e.g. 5s (default: no timeout)")
}

var checkCmd = &cobra.Command{
	Use:        "check [target]",
	Args:       cobra.MaximumNArgs(1),
	ArgAliases: []string{"target"},
	Short:      "Probe all resources of a target",
	Long:       "This command fetches every resource of a target with its bearer token and prints the outcome per resource.\n\nWhen only one target is configured, the target name can be omitted. With --api-address the target is probed by a running status server, using the token configured there.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := report.ValidateFormat(checkOutput.format, checkOutput.template, checkOutput.color); err != nil {
			return err
		}

		var (
			target  *config.Target
			results *probe.Results
			err     error
		)
		if checkOutput.apiAddress != "" {
			target, results, err = checkRemote(cmd, args)
		} else {
			target, results, err = checkLocal(args)
		}
		if err != nil {
			return err
		}

		if err := render(cmd.OutOrStdout(), target, checkTarget.anonymous, results); err != nil {
			return err
		}

		if checkOutput.format == report.FormatLines {
			fmt.Fprintln(cmd.ErrOrStderr(), summaryLine(target.Name, results.AllOK()))
		}

		if checkOutput.exitWithStatus && !results.AllOK() {
			return ErrProbeFailed
		}
		return nil
	},
}

func checkLocal(args []string) (*config.Target, *probe.Results, error) {
	target, err := selectTarget(args, &checkTarget)
	if err != nil {
		return nil, nil, err
	}

	p, err := target.Prober()
	if err != nil {
		return nil, nil, err
	}

	token := target.Token
	if checkTarget.anonymous {
		token = ""
	}

	return target, p.Probe(token), nil
}

// checkRemote lets the status server probe the target. Only the target
// name and --anonymous are forwarded; everything else is configured there.
func checkRemote(cmd *cobra.Command, args []string) (*config.Target, *probe.Results, error) {
	for _, name := range []string{"token", "base-url", "resources", "timeout"} {
		if cmd.Flags().Changed(name) {
			return nil, nil, fmt.Errorf("--%s cannot be combined with --api-address", name)
		}
	}

	api := cli.NewAPIClient(checkOutput.apiAddress)

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		targets := api.Targets()
		if targets.Err() != nil {
			return nil, nil, fmt.Errorf("failed to list targets: %w", targets.Err())
		}
		if len(targets.Body) == 0 {
			return nil, nil, errors.New("the status server has no targets configured")
		}
		name = targets.Body[0]
	}

	resp := api.Probe(name, checkTarget.anonymous)
	if resp.Err() != nil {
		return nil, nil, fmt.Errorf("failed to probe target %q: %w", name, resp.Err())
	}

	return &config.Target{Name: name, Resources: resp.Body.Names()}, resp.Body, nil
}

// selectTarget picks the named target (or the only/first one) from the
// configuration and applies command line overrides.
func selectTarget(args []string, f *targetFlags) (*config.Target, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var target config.Target
	switch {
	case len(args) > 0:
		t, ok := cfg.Target(args[0])
		if !ok {
			return nil, fmt.Errorf("target %q not found; known targets: %s", args[0], strings.Join(cfg.TargetNames(), ", "))
		}
		target = *t
	case len(cfg.Targets) > 0:
		target = cfg.Targets[0]
	default:
		return nil, errors.New("no targets configured")
	}

	if f.token != "" {
		target.Token = helper.ResolveEnv(f.token)
	}
	if f.baseURL != "" {
		target.BaseURL = f.baseURL
	}
	if f.resources != "" {
		target.Resources = splitResources(f.resources)
	}
	if f.timeout != "" {
		target.Timeout = f.timeout
	}

	return &target, target.Validate()
}

func splitResources(in string) []string {
	var out []string
	for _, r := range strings.Split(in, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func render(w io.Writer, target *config.Target, anonymous bool, results *probe.Results) error {
	switch checkOutput.format {
	case report.FormatLines:
		return report.Lines(w, results)
	case report.FormatJSON:
		return report.JSON(w, results, report.UseColor(w, checkOutput.color))
	case report.FormatTemplate:
		data := report.NewTemplateData(target.Name, target.BaseURL, anonymous, results, target.Token)
		return report.Template(w, checkOutput.template, data)
	default:
		return errors.Wrapf(report.ErrUnknownFormat, "%q", checkOutput.format)
	}
}
