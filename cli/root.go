// Package cli is the llmkeyring command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"llmkeyring/config"
	"llmkeyring/ui"
)

const (
	groupProviders = "providers"
	groupKeys      = "keys"
)

// Options customizes the command tree. Zero values select the real
// implementations.
type Options struct {
	Version string

	// Open wires the application. Defaults to OpenApp.
	Open func(ctx context.Context) (*App, error)

	// Interactive reports whether the board and prompts may take over the
	// terminal. Defaults to checking stdin and stdout.
	Interactive func() bool

	// Prompt reads one masked value. Defaults to ui.PromptSecret.
	Prompt func(in io.Reader, out io.Writer, title, detail string) (string, error)
}

type runner struct {
	opts     Options
	app      *App
	unlocked bool
}

// NewRootCommand builds the llmkeyring command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Open == nil {
		opts.Open = OpenApp
	}
	if opts.Interactive == nil {
		opts.Interactive = isTerminal
	}
	if opts.Prompt == nil {
		opts.Prompt = ui.PromptSecret
	}
	r := &runner{opts: opts}

	root := &cobra.Command{
		Use:   "llmkeyring",
		Short: "Manage LLM provider endpoints and their API keys",
		Long: `llmkeyring keeps a list of LLM API providers (OpenAI-compatible vendors,
Ollama, Aliyun, Anthropic, Gemini, Azure OpenAI, Zhipu, Baidu Qianfan and
Vertex AI), stores their API keys outside the provider list, and checks that
each endpoint is reachable and accepts its key.

Providers can be referred to by id, id prefix, name or a fuzzy name match.
Commands that change or delete a provider do not accept fuzzy matches.`,
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return r.close()
		},
	}
	root.SetVersionTemplate(versionString(opts.Version) + "\n")
	root.AddGroup(
		&cobra.Group{ID: groupProviders, Title: "Provider Commands:"},
		&cobra.Group{ID: groupKeys, Title: "API Key Commands:"},
	)

	for _, cmd := range []*cobra.Command{
		r.listCmd(),
		r.showCmd(),
		r.addCmd(),
		r.editCmd(),
		r.deleteCmd(),
		r.moveCmd(),
		r.defaultCmd(),
		r.templatesCmd(),
		r.detectCmd(),
		r.switchModeCmd(),
		r.testCmd(),
		r.modelsCmd(),
		r.copyURLCmd(),
	} {
		cmd.GroupID = groupProviders
		root.AddCommand(cmd)
	}

	keys := r.keyCmd()
	keys.GroupID = groupKeys
	root.AddCommand(keys, r.mcpCmd())

	return root
}

// Execute runs the command tree against the process arguments.
func Execute(version string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opened *App
	root := NewRootCommand(Options{
		Version: version,
		Open: func(ctx context.Context) (*App, error) {
			app, err := OpenApp(ctx)
			opened = app
			return app, err
		},
	})

	err := root.ExecuteContext(ctx)
	if opened != nil {
		opened.Close()
	}
	if err != nil {
		if errors.Is(err, ui.ErrPromptCancelled) || errors.Is(err, context.Canceled) {
			stop()
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Error:"), err)
		stop()
		os.Exit(1)
	}
}

// load opens the application once per invocation.
func (r *runner) load(cmd *cobra.Command) (*App, error) {
	if r.app != nil {
		return r.app, nil
	}
	app, err := r.opts.Open(cmd.Context())
	if err != nil {
		return nil, err
	}
	r.app = app
	return app, nil
}

// loadUnlocked is load for commands that read or write secrets. An SSH key
// with a passphrase is unlocked through a prompt.
func (r *runner) loadUnlocked(cmd *cobra.Command) (*App, error) {
	app, err := r.load(cmd)
	if err != nil || r.unlocked {
		return app, err
	}

	if l, ok := app.Secrets.(locker); ok {
		err := l.Unlock()
		if errors.Is(err, config.ErrPassphraseRequired) {
			if !r.opts.Interactive() {
				return nil, fmt.Errorf("%w: run in a terminal to enter it", err)
			}
			pass, perr := r.opts.Prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "SSH key passphrase", "The credential file is encrypted with a protected SSH key.")
			if perr != nil {
				return nil, perr
			}
			l.SetPassphrase(pass)
			err = l.Unlock()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to unlock credentials: %w", err)
		}
	}
	r.unlocked = true
	return app, nil
}

func (r *runner) close() error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	r.unlocked = false
	return err
}

func isTerminal() bool {
	for _, f := range []*os.File{os.Stdin, os.Stdout} {
		fd := f.Fd()
		if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
			return false
		}
	}
	return true
}

// versionString is printed by --version.
func versionString(version string) string {
	return fmt.Sprintf("llmkeyring %s (%s, %s/%s)", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
