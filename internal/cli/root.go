// Package cli implements the zapctl command tree. Every resource command is
// built through a constructor taking the shared Factory, so tests can drive
// the whole tree against an httptest gateway.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zapkit/zapctl/internal/cli/render"
	"github.com/zapkit/zapctl/internal/config"
	"github.com/zapkit/zapctl/pkg/gateway"
	"github.com/zapkit/zapctl/pkg/log"
)

// Factory resolves the gateway client and renderer for one command run,
// after flags and the profile file have both loaded. Flags win over profile
// values, profile values over defaults.
type Factory struct {
	ConfigFile string
	BaseURL    string
	APIKey     string
	Token      string
	Session    string
	Output     string
	Debug      bool
	Verbose    bool
	Quiet      bool
}

func (f *Factory) baseURL() string {
	if f.BaseURL != "" {
		return f.BaseURL
	}
	return config.BaseURL()
}

func (f *Factory) apiKey() string {
	if f.APIKey != "" {
		return f.APIKey
	}
	return config.APIKey()
}

func (f *Factory) token() string {
	if f.Token != "" {
		return f.Token
	}
	return config.Token()
}

// Client builds the gateway client from the effective profile.
func (f *Factory) Client() (*gateway.Client, error) {
	opts := []gateway.Option{gateway.WithDebug(f.Debug)}
	if key := f.apiKey(); key != "" {
		opts = append(opts, gateway.WithAPIKey(key))
	}
	if token := f.token(); token != "" {
		opts = append(opts, gateway.WithToken(token))
	}
	return gateway.New(f.baseURL(), opts...)
}

// SessionID resolves the target session from --session or the profile.
func (f *Factory) SessionID() (string, error) {
	if f.Session != "" {
		return f.Session, nil
	}
	if s := config.Session(); s != "" {
		return s, nil
	}
	return "", errors.New("no session selected; pass --session or run `zapctl config set session <name>`")
}

// Renderer builds the output renderer on the command's streams.
func (f *Factory) Renderer(cmd *cobra.Command) *render.Renderer {
	format := f.Output
	if format == "" {
		format = config.Output()
	}
	return render.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), format)
}

// sessionArg picks the session from a positional argument when given,
// otherwise from --session/profile.
func sessionArg(f *Factory, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	return f.SessionID()
}

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	f := &Factory{}

	root := &cobra.Command{
		Use:   "zapctl",
		Short: "Operator console for the ZapKit WhatsApp gateway",
		Long: `zapctl manages ZapKit gateway sessions from the terminal: pairing devices,
sending messages and media, and configuring webhooks and API keys.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cobra.OnInitialize(func() {
		config.InitConfig(f.ConfigFile)
		switch {
		case f.Verbose:
			log.SetLevel("debug")
		case f.Quiet:
			log.SetLevel("error")
		}
	})

	root.PersistentFlags().StringVar(&f.ConfigFile, "config", "", "config file (default is $HOME/.zapctl.yaml)")
	root.PersistentFlags().StringVar(&f.BaseURL, "base-url", "", "gateway base URL (default from profile)")
	root.PersistentFlags().StringVar(&f.APIKey, "api-key", "", "API key for programmatic calls")
	root.PersistentFlags().StringVar(&f.Token, "token", "", "dashboard bearer token")
	root.PersistentFlags().StringVarP(&f.Session, "session", "s", "", "session the command targets")
	root.PersistentFlags().StringVarP(&f.Output, "output", "o", "", "output format: table|json")
	root.PersistentFlags().BoolVar(&f.Debug, "debug", false, "log request and response traffic")
	root.PersistentFlags().BoolVarP(&f.Verbose, "verbose", "v", false, "debug-level log output")
	root.PersistentFlags().BoolVarP(&f.Quiet, "quiet", "q", false, "errors only")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(
		newSessionsCmd(f),
		newSendCmd(f),
		newChatsCmd(f),
		newContactsCmd(f),
		newGroupsCmd(f),
		newLabelsCmd(f),
		newStatusCmd(f),
		newPresenceCmd(f),
		newWebhooksCmd(f),
		newAPIKeysCmd(f),
		newConfigCmd(f),
		newWatchCmd(f),
		newListenCmd(f),
		newVersionCmd(),
	)

	return root
}

// Execute runs the CLI. Interrupts cancel the command context so watch and
// listen shut down cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}

// describeError keeps the failure classes apart on the way out: local
// validation, backend-shaped API errors and everything else.
func describeError(err error) string {
	var vErr *gateway.ValidationError
	if errors.As(err, &vErr) {
		return "✗ invalid input: " + vErr.Error()
	}
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("✗ gateway refused the request: %s (status %d)", apiErr.Message, apiErr.StatusCode)
	}
	return "✗ " + err.Error()
}
