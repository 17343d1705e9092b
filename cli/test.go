package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"llmkeyring/ui"
)

// ErrChecksFailed is returned by test when at least one provider failed.
var ErrChecksFailed = errors.New("some providers failed their check")

func (r *runner) testCmd() *cobra.Command {
	var (
		all   bool
		plain bool
	)
	cmd := &cobra.Command{
		Use:   "test [provider...]",
		Short: "Check that providers are reachable and accept their key",
		Long: `Run a health check against each named provider, or every enabled provider
with --all, concurrently. Results are recorded as each provider's last test.
At most [http] concurrency checks run at once when it is set in config.toml.

On a terminal the checks run on a live board; press q to cancel.`,
		Example: `  llmkeyring test deepseek kimi
  llmkeyring test --all --plain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return fmt.Errorf("name providers or pass --all")
			}
			app, err := r.loadUnlocked(cmd)
			if err != nil {
				return err
			}

			var rows []ui.BoardRow
			if all {
				for _, p := range app.Registry.Providers() {
					if p.Enabled {
						rows = append(rows, ui.BoardRow{ID: p.ID, Name: p.Name})
					}
				}
			} else {
				seen := map[string]bool{}
				for _, q := range args {
					p, err := app.Registry.Resolve(q)
					if err != nil {
						return err
					}
					if !seen[p.ID] {
						seen[p.ID] = true
						rows = append(rows, ui.BoardRow{ID: p.ID, Name: p.Name})
					}
				}
			}
			if len(rows) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No enabled providers")
				return err
			}

			check := func(ctx context.Context, ids []string, report ui.ReportFunc) {
				app.Registry.TestMany(ctx, ids, report)
			}
			if all {
				check = func(ctx context.Context, _ []string, report ui.ReportFunc) {
					if _, err := app.Registry.TestAll(ctx, report); err != nil {
						app.Logger.Debug("test all finished with errors", "error", err)
					}
				}
			}

			var results []ui.BoardResult
			if r.opts.Interactive() && !plain {
				results, err = ui.RunTestBoard(cmd.Context(), rows, check, cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
			} else {
				results = ui.RunChecks(cmd.Context(), rows, check)
				if err := ui.RenderResults(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			}

			for _, res := range results {
				if res.Err != nil || !res.Result.OK() {
					return ErrChecksFailed
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "test every enabled provider")
	cmd.Flags().BoolVar(&plain, "plain", false, "print results when done instead of showing the live board")
	return cmd
}

func (r *runner) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models <provider>",
		Short: "List the models a provider serves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.loadUnlocked(cmd)
			if err != nil {
				return err
			}
			p, err := app.Registry.Resolve(args[0])
			if err != nil {
				return err
			}
			res, err := app.Registry.ListModels(cmd.Context(), p.ID)
			if err != nil {
				return err
			}
			if len(res.Models) == 0 {
				return fmt.Errorf("%s: %s", p.Name, res.Message)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(res.Models, "\n"))
			return err
		},
	}
}
