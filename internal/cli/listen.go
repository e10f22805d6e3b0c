package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/zapkit/zapctl/internal/sink"
)

func newListenCmd(f *Factory) *cobra.Command {
	var (
		addr      string
		secret    string
		keep      int
		retention time.Duration
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Run a local webhook sink that captures gateway deliveries",
		Long: `Run a local HTTP endpoint that records every webhook POST it receives.
Point a webhook at it (zapctl webhooks create --url http://<host>:8900/hook)
and inspect captured deliveries on GET /deliveries. With --secret set, the
X-Webhook-Signature header is verified and bad signatures are rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := sink.New(sink.Options{
				Addr:      addr,
				Secret:    secret,
				Keep:      keep,
				Retention: retention,
			})
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default 0.0.0.0:8900)")
	cmd.Flags().StringVar(&secret, "secret", "", "verify delivery signatures with this secret")
	cmd.Flags().IntVar(&keep, "keep", 0, "retain at most this many deliveries (default 200)")
	cmd.Flags().DurationVar(&retention, "retention", 0, "drop deliveries older than this (default keep all)")
	return cmd
}
