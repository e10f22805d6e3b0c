package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapkit/zapctl/internal/cli/render"
	"github.com/zapkit/zapctl/pkg/gateway"
)

func newSessionsCmd(f *Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "Manage gateway sessions (device links)",
	}

	cmd.AddCommand(
		newSessionsListCmd(f),
		newSessionsCreateCmd(f),
		newSessionsGetCmd(f),
		newSessionsUpdateCmd(f),
		newSessionsDeleteCmd(f),
		newSessionsStartCmd(f),
		newSessionsStopCmd(f),
		newSessionsRestartCmd(f),
		newSessionsLogoutCmd(f),
		newSessionsQRCmd(f),
		newSessionsPairCmd(f),
	)

	return cmd
}

// sessionFormFlags maps the flat form fields onto CLI flags. Unset flags
// stay at their defaults, so the builder prunes the whole section.
type sessionFormFlags struct {
	description   string
	deviceName    string
	browserName   string
	proxyEnabled  bool
	proxyServer   string
	proxyUsername string
	proxyPassword string

	ignoreStatus    bool
	ignoreGroups    bool
	ignoreChannels  bool
	ignoreBroadcast bool

	nowebStore    bool
	nowebFullSync bool
	markOnline    bool

	engineDebug  bool
	metadataJSON string

	webhookURL    string
	webhookEvents []string
	webhookSecret string
}

func (s *sessionFormFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&s.description, "description", "", "session description")
	fl.StringVar(&s.deviceName, "device-name", "", "device name reported to WhatsApp")
	fl.StringVar(&s.browserName, "browser-name", "", "browser name reported to WhatsApp")
	fl.BoolVar(&s.proxyEnabled, "proxy", false, "route the session through a proxy")
	fl.StringVar(&s.proxyServer, "proxy-server", "", "proxy server URL")
	fl.StringVar(&s.proxyUsername, "proxy-username", "", "proxy username")
	fl.StringVar(&s.proxyPassword, "proxy-password", "", "proxy password")
	fl.BoolVar(&s.ignoreStatus, "ignore-status", false, "ignore status updates")
	fl.BoolVar(&s.ignoreGroups, "ignore-groups", false, "ignore group messages")
	fl.BoolVar(&s.ignoreChannels, "ignore-channels", false, "ignore channel messages")
	fl.BoolVar(&s.ignoreBroadcast, "ignore-broadcast", false, "ignore broadcast messages")
	fl.BoolVar(&s.nowebStore, "store", false, "enable the engine message store")
	fl.BoolVar(&s.nowebFullSync, "full-sync", false, "request a full history sync")
	fl.BoolVar(&s.markOnline, "mark-online", false, "mark the account online while connected")
	fl.BoolVar(&s.engineDebug, "engine-debug", false, "enable engine debug logging for this session")
	fl.StringVar(&s.metadataJSON, "metadata", "", "metadata as a JSON object")
	fl.StringVar(&s.webhookURL, "webhook-url", "", "inline webhook URL")
	fl.StringSliceVar(&s.webhookEvents, "webhook-events", nil, "inline webhook events (comma separated, * for all)")
	fl.StringVar(&s.webhookSecret, "webhook-secret", "", "inline webhook HMAC secret")
}

func (s *sessionFormFlags) form(name string) gateway.SessionForm {
	form := gateway.SessionForm{
		Name:              name,
		Description:       s.description,
		ClientDeviceName:  s.deviceName,
		ClientBrowserName: s.browserName,
		ProxyEnabled:      s.proxyEnabled,
		ProxyServer:       s.proxyServer,
		ProxyUsername:     s.proxyUsername,
		ProxyPassword:     s.proxyPassword,
		IgnoreStatus:      s.ignoreStatus,
		IgnoreGroups:      s.ignoreGroups,
		IgnoreChannels:    s.ignoreChannels,
		IgnoreBroadcast:   s.ignoreBroadcast,
		NowebStoreEnabled: s.nowebStore,
		NowebFullSync:     s.nowebFullSync,
		MarkOnline:        s.markOnline,
		Debug:             s.engineDebug,
		MetadataJSON:      s.metadataJSON,
	}
	if s.webhookURL != "" || len(s.webhookEvents) > 0 || s.webhookSecret != "" {
		form.Webhooks = []gateway.WebhookForm{{
			URL:    s.webhookURL,
			Events: s.webhookEvents,
			Secret: s.webhookSecret,
		}}
	}
	return form
}

func newSessionsListCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := f.Client()
			if err != nil {
				return err
			}
			sessions, err := client.ListSessions(cmd.Context())
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(sessions)
			}

			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				messages := ""
				if s.Counts != nil {
					messages = strconv.Itoa(s.Counts.Messages)
				}
				rows = append(rows, []string{
					s.Name,
					render.StatusBadge(s.Status),
					s.PhoneNumber,
					messages,
					formatTime(s.CreatedAt),
				})
			}
			r.Table([]string{"NAME", "STATUS", "PHONE", "MESSAGES", "CREATED"}, rows)
			return nil
		},
	}
}

func newSessionsCreateCmd(f *Factory) *cobra.Command {
	var ff sessionFormFlags

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a session",
		Long: `Create a session. Configuration sections are sent only when at least one
of their flags is set; a bare create produces an empty config.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := ff.form(args[0]).Build()
			if err != nil {
				return err
			}

			client, err := f.Client()
			if err != nil {
				return err
			}
			sess, err := client.CreateSession(cmd.Context(), req)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(sess)
			}
			r.Success("session %q created", sess.Name)
			r.Info("run `zapctl sessions start %s` to begin pairing", sess.Name)
			return nil
		},
	}

	ff.register(cmd)
	return cmd
}

func newSessionsGetCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "get [session]",
		Short: "Show one session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sessionArg(f, args)
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			sess, err := client.GetSession(cmd.Context(), id)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(sess)
			}

			pairs := [][2]string{
				{"Name", sess.Name},
				{"Status", render.StatusBadge(sess.Status)},
			}
			if sess.Description != "" {
				pairs = append(pairs, [2]string{"Description", sess.Description})
			}
			if sess.PhoneNumber != "" {
				pairs = append(pairs, [2]string{"Phone", sess.PhoneNumber})
			}
			if sess.PushName != "" {
				pairs = append(pairs, [2]string{"Push name", sess.PushName})
			}
			if sess.ConnectedAt != nil {
				pairs = append(pairs, [2]string{"Connected at", formatTime(*sess.ConnectedAt)})
			}
			if sess.Counts != nil {
				pairs = append(pairs,
					[2]string{"Messages", strconv.Itoa(sess.Counts.Messages)},
					[2]string{"Chats", strconv.Itoa(sess.Counts.Chats)},
					[2]string{"Webhooks", strconv.Itoa(sess.Counts.Webhooks)},
				)
			}
			pairs = append(pairs, [2]string{"Created", formatTime(sess.CreatedAt)})
			r.KV(pairs)

			if !sess.Config.IsEmpty() {
				r.Muted("config:")
				if err := r.JSON(sess.Config); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newSessionsUpdateCmd(f *Factory) *cobra.Command {
	var ff sessionFormFlags

	cmd := &cobra.Command{
		Use:   "update <session>",
		Short: "Update a session's configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := ff.form(args[0]).BuildUpdate()
			if err != nil {
				return err
			}

			client, err := f.Client()
			if err != nil {
				return err
			}
			sess, err := client.UpdateSession(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(sess)
			}
			r.Success("session %q updated", sess.Name)
			return nil
		},
	}

	ff.register(cmd)
	return cmd
}

func newSessionsDeleteCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session>",
		Short: "Delete a session and its device link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := f.Client()
			if err != nil {
				return err
			}
			if err := client.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			f.Renderer(cmd).Success("session %q deleted", args[0])
			return nil
		},
	}
}

func newSessionsStartCmd(f *Factory) *cobra.Command {
	var (
		all         bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "start [session]",
		Short: "Start a session, or every stopped session with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := f.Client()
			if err != nil {
				return err
			}
			r := f.Renderer(cmd)

			if all {
				report, err := client.StartAllSessions(cmd.Context(), concurrency)
				if err != nil {
					return err
				}
				if r.JSONOutput() {
					return r.JSON(report)
				}
				r.Success("started %d, already linked %d, failed %d", report.Started, report.Skipped, report.Failed)
				if report.Failed > 0 {
					return fmt.Errorf("%d session(s) failed to start", report.Failed)
				}
				return nil
			}

			id, err := sessionArg(f, args)
			if err != nil {
				return err
			}
			if err := client.StartSession(cmd.Context(), id); err != nil {
				return err
			}
			r.Success("session %q starting", id)
			r.Info("run `zapctl watch %s` to follow the pairing flow", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "start every session that is not linked yet")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "parallel starts with --all")
	return cmd
}

func newSessionsStopCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "stop [session]",
		Short: "Stop a running session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sessionArg(f, args)
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			if err := client.StopSession(cmd.Context(), id); err != nil {
				return err
			}
			f.Renderer(cmd).Success("session %q stopped", id)
			return nil
		},
	}
}

func newSessionsRestartCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "restart [session]",
		Short: "Restart a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sessionArg(f, args)
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			if err := client.RestartSession(cmd.Context(), id); err != nil {
				return err
			}
			f.Renderer(cmd).Success("session %q restarting", id)
			return nil
		},
	}
}

func newSessionsLogoutCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "logout [session]",
		Short: "Log the session out, removing the device link",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sessionArg(f, args)
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			if err := client.LogoutSession(cmd.Context(), id); err != nil {
				return err
			}
			f.Renderer(cmd).Success("session %q logged out", id)
			return nil
		},
	}
}

func newSessionsQRCmd(f *Factory) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "qr [session]",
		Short: "Show the current login QR code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sessionArg(f, args)
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			code, err := client.SessionQR(cmd.Context(), id)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(code)
			}
			if code.QR == "" {
				r.Warn("no QR code available; is the session waiting for a scan?")
				return nil
			}

			if outFile != "" {
				if err := render.WriteQRPNG(outFile, code.QR); err != nil {
					return err
				}
				r.Success("QR image saved to %s", outFile)
				return nil
			}

			if err := render.QRTerminal(r.Out(), code.QR); err != nil {
				if errors.Is(err, render.ErrImageQR) {
					r.Warn("the gateway returned a rendered image; rerun with --out qr.png")
					return nil
				}
				return err
			}
			if code.ExpiresAt != nil {
				r.Muted("expires %s", formatTime(*code.ExpiresAt))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "save the QR code as a PNG instead of drawing it")
	return cmd
}

func newSessionsPairCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "pair <phone>",
		Short: "Request a phone-number pairing code instead of scanning a QR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			code, err := client.RequestPairingCode(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(map[string]string{"code": code})
			}
			r.Title("pairing code: %s", code)
			r.Info("on your phone: Linked devices → Link a device → Link with phone number")
			return nil
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
