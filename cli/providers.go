package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"llmkeyring/provider"
	"llmkeyring/registry"
	"llmkeyring/ui"
)

func (r *runner) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List providers in display order",
		Long: `List providers in display order. The default provider is marked with *,
disabled providers are dimmed and the last test shows as a colored dot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.load(cmd)
			if err != nil {
				return err
			}
			return ui.RenderProviderTable(cmd.OutOrStdout(), app.Registry.Providers(), app.Registry.DefaultID(), app.Messages)
		},
	}
}

func (r *runner) showCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <provider>",
		Short: "Show one provider in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.load(cmd)
			if err != nil {
				return err
			}
			p, err := app.Registry.Resolve(args[0])
			if err != nil {
				return err
			}

			md := ui.ProviderMarkdown(p, p.ID == app.Registry.DefaultID(), app.Messages)
			if raw || !r.opts.Interactive() {
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), ui.RenderMarkdown(md, 80))
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown source instead of rendering it")
	return cmd
}

// providerFlags are the editable fields shared by add and edit.
type providerFlags struct {
	name          string
	kind          string
	baseURL       string
	model         string
	headers       []string
	removeHeaders []string
	disabled      bool
	normalize     bool
}

func (f *providerFlags) register(cmd *cobra.Command, edit bool) {
	cmd.Flags().StringVar(&f.name, "name", "", "display name")
	cmd.Flags().StringVar(&f.kind, "kind", "", "provider kind ("+kindList()+")")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "API base URL")
	cmd.Flags().StringVar(&f.model, "model", "", "default model id")
	cmd.Flags().StringArrayVar(&f.headers, "header", nil, "extra request header as Name=Value (repeatable)")
	cmd.Flags().BoolVar(&f.normalize, "normalize", false, "rewrite the base URL to the kind's canonical form")
	if edit {
		cmd.Flags().StringArrayVar(&f.removeHeaders, "remove-header", nil, "remove an extra header by name (repeatable)")
		cmd.Flags().Bool("enable", false, "enable the provider")
		cmd.Flags().Bool("disable", false, "disable the provider")
		cmd.MarkFlagsMutuallyExclusive("enable", "disable")
	} else {
		cmd.Flags().BoolVar(&f.disabled, "disabled", false, "add the provider disabled")
	}
}

// apply copies every flag the user set onto p.
func (f *providerFlags) apply(cmd *cobra.Command, p *provider.Provider) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = f.name
	}
	if flags.Changed("kind") {
		k, err := provider.ParseKind(f.kind)
		if err != nil {
			return err
		}
		p.Kind = k
	}
	if flags.Changed("base-url") {
		p.BaseURL = strings.TrimSpace(f.baseURL)
	}
	if flags.Changed("model") {
		p.DefaultModel = strings.TrimSpace(f.model)
	}

	if p.ExtraHeaders == nil {
		p.ExtraHeaders = map[string]string{}
	}
	for _, h := range f.headers {
		k, v, ok := strings.Cut(h, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return fmt.Errorf("invalid --header %q: want Name=Value", h)
		}
		p.ExtraHeaders[k] = strings.TrimSpace(v)
	}
	for _, k := range f.removeHeaders {
		delete(p.ExtraHeaders, strings.TrimSpace(k))
	}

	if flags.Changed("disabled") {
		p.Enabled = !f.disabled
	}
	if on, _ := flags.GetBool("enable"); on {
		p.Enabled = true
	}
	if off, _ := flags.GetBool("disable"); off {
		p.Enabled = false
	}

	if f.normalize {
		p.BaseURL = provider.Normalize(p.Kind, p.BaseURL)
	}
	return nil
}

func (r *runner) addCmd() *cobra.Command {
	var (
		f        providerFlags
		template string
		detect   bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a provider from a template or from flags",
		Long: `Add a provider. With --template the built-in preset is used and any other
flag overrides it; see "llmkeyring templates". Without a template the
provider starts as a blank OpenAI-compatible entry.

With --detect the kind and canonical base URL are inferred from --base-url.`,
		Example: `  llmkeyring add --template deepseek
  llmkeyring add --name "My Proxy" --base-url https://llm.example.com/v1
  llmkeyring add --detect --base-url https://api.anthropic.com/v1/messages`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.load(cmd)
			if err != nil {
				return err
			}

			name := template
			if name == "" {
				name = registry.BlankTemplate
			}
			tmpl, err := registry.LookupTemplate(name)
			if err != nil {
				return err
			}

			// A bare template goes through the registry as is.
			if template != "" && cmd.Flags().NFlag() == 1 {
				p, err := app.Registry.AddTemplate(cmd.Context(), template)
				if err != nil {
					return err
				}
				return printAdded(cmd, p)
			}

			p := tmpl.Instantiate(app.Messages)
			if err := f.apply(cmd, &p); err != nil {
				return err
			}
			if detect {
				if p.BaseURL == "" {
					return fmt.Errorf("--detect needs --base-url")
				}
				s, ok := provider.SuggestKindAndBase(p.BaseURL)
				if !ok {
					return fmt.Errorf("no known vendor for %s", p.BaseURL)
				}
				p.Kind, p.BaseURL = s.Kind, s.BaseURL
			}

			p, err = app.Registry.Add(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printAdded(cmd, p)
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "built-in preset name")
	cmd.Flags().BoolVar(&detect, "detect", false, "infer kind and base URL from --base-url")
	f.register(cmd, false)
	return cmd
}

func printAdded(cmd *cobra.Command, p provider.Provider) error {
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Added %s (%s)\n", p.Name, p.ID); err != nil {
		return err
	}
	if !provider.RequiresCredential(p.Kind) {
		return nil
	}
	_, err := fmt.Fprintf(out, "%s needs an API key before it can be tested: llmkeyring key set %s\n", p.Name, p.ID)
	return err
}

func (r *runner) editCmd() *cobra.Command {
	var f providerFlags
	cmd := &cobra.Command{
		Use:   "edit <provider>",
		Short: "Change a provider's fields",
		Example: `  llmkeyring edit kimi --model moonshot-v1-8k
  llmkeyring edit openrouter --header X-Title=MyApp --remove-header HTTP-Referer
  llmkeyring edit ollama --base-url http://gpu-box:11434 --disable`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.load(cmd)
			if err != nil {
				return err
			}
			p, err := app.Registry.ResolveStrict(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().NFlag() == 0 {
				return fmt.Errorf("nothing to change")
			}
			if err := f.apply(cmd, &p); err != nil {
				return err
			}
			if err := app.Registry.Update(cmd.Context(), p); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", p.Name)
			return err
		},
	}
	f.register(cmd, true)
	return cmd
}

func (r *runner) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <provider>",
		Aliases: []string{"rm"},
		Short:   "Delete a provider and its stored API key",
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
			if err := app.Registry.Delete(cmd.Context(), p.ID); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", p.Name)
			return err
		},
	}
}

func (r *runner) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <provider> <index>",
		Short: "Move a provider to a position in the list (0 is first)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			app, err := r.load(cmd)
			if err != nil {
				return err
			}
			p, err := app.Registry.ResolveStrict(args[0])
			if err != nil {
				return err
			}
			if err := app.Registry.Move(cmd.Context(), p.ID, index); err != nil {
				return err
			}
			return ui.RenderProviderTable(cmd.OutOrStdout(), app.Registry.Providers(), app.Registry.DefaultID(), app.Messages)
		},
	}
}

func (r *runner) defaultCmd() *cobra.Command {
	var clearDefault bool
	cmd := &cobra.Command{
		Use:   "default [provider]",
		Short: "Show or set the default provider",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch {
			case clearDefault && len(args) > 0:
				return fmt.Errorf("--clear takes no provider")
			case clearDefault:
				if err := app.Registry.SetDefault(cmd.Context(), ""); err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, "Default provider cleared")
				return err
			case len(args) == 0:
				p, ok := app.Registry.Default()
				if !ok {
					_, err = fmt.Fprintln(out, "No default provider")
					return err
				}
				_, err = fmt.Fprintf(out, "%s (%s)\n", p.Name, p.ID)
				return err
			}

			p, err := app.Registry.ResolveStrict(args[0])
			if err != nil {
				return err
			}
			if err := app.Registry.SetDefault(cmd.Context(), p.ID); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "Default provider is now %s\n", p.Name)
			return err
		},
	}
	cmd.Flags().BoolVar(&clearDefault, "clear", false, "unset the default provider")
	return cmd
}

func (r *runner) templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List built-in provider presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.load(cmd)
			if err != nil {
				return err
			}
			var rows [][3]string
			for _, t := range registry.Templates() {
				rows = append(rows, [3]string{t.Name, app.Messages.Text(t.Label), t.BaseURL})
			}
			return ui.RenderTemplateTable(cmd.OutOrStdout(), rows)
		},
	}
}

func (r *runner) detectCmd() *cobra.Command {
	var apply string
	cmd := &cobra.Command{
		Use:   "detect <url>",
		Short: "Suggest a kind and base URL for a vendor URL",
		Long: `Suggest a provider kind and canonical base URL from the host of any URL on
a vendor's API. With --apply the suggestion is written to that provider.`,
		Example: `  llmkeyring detect https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions
  llmkeyring detect https://api.anthropic.com --apply "My Claude"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if apply == "" {
				s, ok := provider.SuggestKindAndBase(args[0])
				if !ok {
					return fmt.Errorf("no known vendor for %s", args[0])
				}
				_, err = fmt.Fprintf(out, "kind:     %s (%s)\nbase URL: %s\n", app.Messages.Text(s.Kind.DisplayKey()), s.Kind, s.BaseURL)
				return err
			}

			target, err := app.Registry.ResolveStrict(apply)
			if err != nil {
				return err
			}
			p, ok, err := app.Registry.ApplySuggestion(cmd.Context(), target.ID, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no known vendor for %s", args[0])
			}
			_, err = fmt.Fprintf(out, "%s is now %s at %s\n", p.Name, app.Messages.Text(p.Kind.DisplayKey()), p.BaseURL)
			return err
		},
	}
	cmd.Flags().StringVar(&apply, "apply", "", "provider to update with the suggestion")
	return cmd
}

func (r *runner) switchModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch-mode <provider>",
		Short: "Toggle Aliyun between native and OpenAI-compatible mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.load(cmd)
			if err != nil {
				return err
			}
			target, err := app.Registry.ResolveStrict(args[0])
			if err != nil {
				return err
			}
			p, ok, err := app.Registry.SwitchMode(cmd.Context(), target.ID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s has no alternate mode", target.Name)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s at %s\n", p.Name, app.Messages.Text(p.Kind.DisplayKey()), p.BaseURL)
			return err
		},
	}
}

func (r *runner) copyURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy-url <provider>",
		Short: "Copy a provider's base URL to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.load(cmd)
			if err != nil {
				return err
			}
			p, err := app.Registry.Resolve(args[0])
			if err != nil {
				return err
			}
			if err := ui.CopyToClipboard(p.BaseURL); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Copied %s\n", p.BaseURL)
			return err
		},
	}
}

func kindList() string {
	names := make([]string, len(provider.Kinds))
	for i, k := range provider.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
