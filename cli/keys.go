package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"llmkeyring/ui"
)

func (r *runner) keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage provider API keys",
		Long: `Manage provider API keys. Keys live in the credential store configured in
config.toml ([security] method), never in the provider list.`,
	}
	cmd.AddCommand(r.keySetCmd(), r.keyRemoveCmd(), r.keyClearAllCmd(), r.keyCopyCmd())
	return cmd
}

func (r *runner) keySetCmd() *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "set <provider>",
		Short: "Store an API key for a provider",
		Long: `Store an API key for a provider and switch it to bearer auth. The key is
read from a masked prompt, or from the first line of stdin with --stdin.`,
		Example: `  llmkeyring key set deepseek
  pass show llm/deepseek | llmkeyring key set deepseek --stdin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.loadUnlocked(cmd)
			if err != nil {
				return err
			}
			p, err := app.Registry.ResolveStrict(args[0])
			if err != nil {
				return err
			}

			var key string
			switch {
			case fromStdin:
				key, err = readLine(cmd.InOrStdin())
			case r.opts.Interactive():
				key, err = r.opts.Prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "API key", p.Name)
			default:
				err = fmt.Errorf("not a terminal: pass the key with --stdin")
			}
			if err != nil {
				return err
			}

			p, err = app.Registry.SaveAPIKey(cmd.Context(), p.ID, key)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved API key for %s\n", p.Name)
			return err
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the key from stdin")
	return cmd
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("no key on stdin")
	}
	return line, nil
}

func (r *runner) keyRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <provider>",
		Aliases: []string{"rm"},
		Short:   "Delete a provider's stored API key",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.loadUnlocked(cmd)
			if err != nil {
				return err
			}
			p, err := app.Registry.ResolveStrict(args[0])
			if err != nil {
				return err
			}
			if _, err := app.Registry.RemoveAPIKey(cmd.Context(), p.ID); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed API key for %s\n", p.Name)
			return err
		},
	}
}

func (r *runner) keyClearAllCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-all",
		Short: "Delete every stored API key",
		Long: `Delete every stored API key, including keys left in the legacy namespace.
Every provider is switched to no auth and its last test is reset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete every API key without --yes")
			}
			app, err := r.loadUnlocked(cmd)
			if err != nil {
				return err
			}
			if err := app.Registry.ClearAllAPIKeys(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Cleared all API keys")
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting every key")
	return cmd
}

func (r *runner) keyCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy <provider>",
		Short: "Copy a provider's API key to the clipboard",
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
			if !p.Auth.IsBearer() {
				return fmt.Errorf("%s has no API key", p.Name)
			}

			key, found, err := app.Secrets.ReadSecret(p.Auth.KeyRef)
			if err != nil {
				return fmt.Errorf("failed to read API key: %w", err)
			}
			if !found {
				return fmt.Errorf("API key for %s is missing from the credential store", p.Name)
			}
			if err := ui.CopyToClipboard(key); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Copied API key for %s\n", p.Name)
			return err
		},
	}
}
