package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapkit/zapctl/internal/cli/render"
	"github.com/zapkit/zapctl/pkg/gateway/realtime"
	"github.com/zapkit/zapctl/pkg/gateway/reconcile"
)

func newWatchCmd(f *Factory) *cobra.Command {
	var pollEvery time.Duration

	cmd := &cobra.Command{
		Use:   "watch [session]",
		Short: "Follow a session's pairing and connection state live",
		Long: `Follow a session live. Pushed socket events drive the view when the
realtime channel is up; otherwise the QR code is polled while the session
waits for a scan. Press Ctrl-C to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sessionArg(f, args)
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			r := f.Renderer(cmd)
			ctx := cmd.Context()

			var events <-chan realtime.Event
			sub, err := realtime.Subscribe(ctx, f.baseURL(), id, realtime.Options{APIKey: f.apiKey()})
			if err != nil {
				r.Warn("realtime channel unavailable (%v), falling back to polling", err)
			} else {
				defer sub.Close()
				events = sub.Events()
			}

			var opts []reconcile.Option
			if pollEvery > 0 {
				opts = append(opts, reconcile.WithPollInterval(pollEvery))
			}
			rec := reconcile.New(client, id, opts...)
			defer rec.Close()
			go rec.Run(ctx, events)

			for snap := range rec.Updates() {
				if r.JSONOutput() {
					if err := r.JSON(snap); err != nil {
						return err
					}
					continue
				}
				drawSnapshot(r, snap)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&pollEvery, "poll", 0, "QR poll interval while waiting for a scan (default 10s)")
	return cmd
}

func drawSnapshot(r *render.Renderer, snap reconcile.Snapshot) {
	d := reconcile.Describe(snap.Status)

	r.Print("\n")
	r.Title("%s %s", d.Icon, d.Title)
	if d.Description != "" {
		r.Muted("%s", d.Description)
	}
	if snap.Restarting {
		r.Warn("restart in progress")
	}
	if snap.PhoneNumber != "" {
		if snap.PushName != "" {
			r.Muted("account: %s (%s)", snap.PhoneNumber, snap.PushName)
		} else {
			r.Muted("account: %s", snap.PhoneNumber)
		}
	}
	if snap.LastError != "" {
		r.Warn("%s", snap.LastError)
	}

	if snap.QR != "" {
		if err := render.QRTerminal(r.Out(), snap.QR); err != nil {
			if errors.Is(err, render.ErrImageQR) {
				r.Warn("QR arrived as an image; run `zapctl sessions qr %s --out qr.png` to save it", snap.SessionID)
			} else {
				r.Warn("cannot draw QR: %v", err)
			}
		} else {
			r.Muted("qr source: %s", snap.QRSource)
		}
	}
	if d.Action != "" {
		r.Info("%s", d.Action)
	}
}
