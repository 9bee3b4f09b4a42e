package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/hostproxy/pkg/agent/tools"
	"github.com/entrhq/hostproxy/pkg/hostapi"
	"github.com/entrhq/hostproxy/pkg/hostapi/profile"
	"github.com/entrhq/hostproxy/pkg/tools/hostcall"
)

// errProfileProblems is returned by profile check when the profile has
// dead or ambiguous keys.
var errProfileProblems = errors.New("profile has problems")

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "hostctl",
		Short: "Inspect and call the intercepted host API",
		Long: `hostctl drives the browser host API through the interception layer.

Operations are addressed by dotted path (tabs.query) and overridden by
flattened key (tabs_query). An override profile from --profile, or from
host.override_profile in the config file, is applied to every call.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to the config file (default ~/.hostproxy/config.json)")
	flags.StringVar(&a.profilePath, "profile", "", "override profile to apply (YAML)")
	flags.BoolVar(&a.noProfile, "no-profile", false, "ignore the configured override profile")
	flags.StringVar(&a.logLevel, "log-level", "info", "debug/info/warn/error")

	root.AddCommand(
		newKeysCommand(a),
		newProfileCommand(a),
		newCallCommand(a),
		newToolCommand(a),
	)
	return root
}

func newKeysCommand(a *app) *cobra.Command {
	var match string
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List host operations and their override keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.openHost(cmd.Context()); err != nil {
				return err
			}
			entries, err := hostcall.ListLeaves(hostapi.CurrentRoot(), hostapi.DefaultRegistry(), match)
			if err != nil {
				return err
			}
			printKeys(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "glob over flattened keys, e.g. tabs_*")
	return cmd
}

func printKeys(w io.Writer, entries []hostcall.LeafEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no matching host operations"))
		return
	}
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Key))
	}
	for _, e := range entries {
		line := keyStyle.Render(e.Key) + strings.Repeat(" ", width-len(e.Key)+2) + mutedStyle.Render(e.Path)
		if e.Overridden {
			line += "  " + overrideStyle.Render("[override]")
		}
		if e.Ambiguous {
			line += "  " + warnStyle.Render("[ambiguous]")
		}
		fmt.Fprintln(w, line)
	}
}

func newProfileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Work with override profiles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Report dead, ambiguous and shadowed rules in a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := profile.Load(args[0])
			if err != nil {
				return err
			}
			// check against the bare host, without applying any profile
			a.noProfile = true
			host, err := a.openHost(cmd.Context())
			if err != nil {
				return err
			}
			report, err := profile.Check(p, host)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), p, report)
			if len(report.Dead) > 0 || len(report.Ambiguous) > 0 {
				return errProfileProblems
			}
			return nil
		},
	})
	return cmd
}

func printReport(w io.Writer, p *profile.Profile, report *profile.Report) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s: %d rule(s), %d override key(s)", p.Name, len(p.Rules), len(report.Keys))))
	section := func(title string, style func(...string) string, findings []profile.Finding) {
		if len(findings) == 0 {
			return
		}
		fmt.Fprintln(w, style(title))
		for _, f := range findings {
			fmt.Fprintln(w, "  "+f.String())
		}
	}
	section("Dead rules:", errorStyle.Render, report.Dead)
	section("Ambiguous keys:", warnStyle.Render, report.Ambiguous)
	section("Shadowed rules:", mutedStyle.Render, report.Shadowed)
	if report.OK() {
		fmt.Fprintln(w, okStyle.Render("OK"))
	}
}

func newCallCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "call <dotted.path> [yaml-args]",
		Short: "Call a host operation through the active overrides",
		Example: `  hostctl call windows.create "{url: https://example.com}"
  hostctl call tabs.query "[{url: 'https://*.example.com/*'}]"
  hostctl call runtime.id`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.openHost(cmd.Context()); err != nil {
				return err
			}
			var raw string
			if len(args) == 2 {
				raw = args[1]
			}
			callArgs, err := hostcall.DecodeArgs(raw)
			if err != nil {
				return err
			}
			result, err := hostcall.Call(cmd.Context(), hostapi.CurrentRoot(), args[0], callArgs...)
			if err != nil {
				return err
			}
			out, err := hostcall.Render(result)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newToolCommand(a *app) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "tool [file]",
		Short: "Run an XML tool call (host_api_call, host_api_keys) read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.openHost(cmd.Context()); err != nil {
				return err
			}

			var text []byte
			var err error
			if len(args) == 1 {
				text, err = os.ReadFile(args[0])
			} else {
				if confirm {
					return errors.New("--confirm needs the tool call in a file; stdin is used for the answer")
				}
				text, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read tool call: %w", err)
			}

			var approver tools.Approver
			if confirm {
				approver = promptApprover(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			toolbox := tools.NewToolbox(approver,
				hostcall.NewCallTool(hostapi.CurrentRoot),
				hostcall.NewKeysTool(hostapi.CurrentRoot, hostapi.DefaultRegistry()),
			)
			result, _, err := toolbox.Dispatch(cmd.Context(), string(text))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "show a preview and ask before calling")
	return cmd
}

// promptApprover shows the preview on out and reads y/N from in.
func promptApprover(in io.Reader, out io.Writer) tools.Approver {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, call *tools.ToolCall, preview *tools.ToolPreview) (bool, error) {
		fmt.Fprintln(out, previewStyle.Render(headerStyle.Render(preview.Title)+"\n"+preview.Content))
		fmt.Fprint(out, "Proceed? [y/N] ")
		answer, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes", nil
	}
}
