package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zapkit/zapctl/pkg/gateway"
)

func newWebhooksCmd(f *Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "Manage webhook subscriptions and inspect deliveries",
	}

	cmd.AddCommand(
		newWebhooksListCmd(f),
		newWebhooksCreateCmd(f),
		newWebhooksGetCmd(f),
		newWebhooksUpdateCmd(f),
		newWebhooksDeleteCmd(f),
		newWebhooksLogsCmd(f),
		newWebhooksTestCmd(f),
	)

	return cmd
}

// webhookFlags carries the new-style webhook shape; the CLI never writes the
// deprecated retryCount/headers fields.
type webhookFlags struct {
	name        string
	url         string
	events      []string
	secret      string
	attempts    int
	delay       int
	policy      string
	headers     []string
	timeout     int
	active      bool
	setInactive bool
}

func (w *webhookFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&w.name, "name", "", "webhook name")
	fl.StringVar(&w.url, "url", "", "delivery URL (http or https)")
	fl.StringArrayVar(&w.events, "event", nil, "subscribed event (repeatable, * for all)")
	fl.StringVar(&w.secret, "secret", "", "HMAC signing secret")
	fl.IntVar(&w.attempts, "retries", 3, "delivery attempts")
	fl.IntVar(&w.delay, "retry-delay", 5, "seconds between attempts")
	fl.StringVar(&w.policy, "retry-policy", "exponential", "retry policy: linear|exponential")
	fl.StringArrayVar(&w.headers, "header", nil, `custom header as "Name: Value" (repeatable)`)
	fl.IntVar(&w.timeout, "timeout", 0, "delivery timeout in seconds")
	fl.BoolVar(&w.setInactive, "inactive", false, "create the webhook disabled")
}

func (w *webhookFlags) request(cmd *cobra.Command) (gateway.WebhookRequest, error) {
	req := gateway.WebhookRequest{
		Name:    w.name,
		URL:     w.url,
		Events:  w.events,
		Secret:  w.secret,
		Timeout: w.timeout,
	}

	fl := cmd.Flags()
	if fl.Changed("retries") || fl.Changed("retry-delay") || fl.Changed("retry-policy") {
		req.Retries = &gateway.WebhookRetries{
			Attempts:     w.attempts,
			DelaySeconds: w.delay,
			Policy:       gateway.RetryPolicy(w.policy),
		}
	}
	if w.setInactive {
		inactive := false
		req.IsActive = &inactive
	}

	for _, raw := range w.headers {
		name, value, ok := strings.Cut(raw, ":")
		if !ok {
			return req, fmt.Errorf(`header %q must look like "Name: Value"`, raw)
		}
		req.CustomHeaders = append(req.CustomHeaders, gateway.WebhookHeader{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}

	return req, nil
}

func webhookRows(webhooks []gateway.Webhook) [][]string {
	rows := make([][]string, 0, len(webhooks))
	for _, w := range webhooks {
		state := "active"
		if !w.IsActive {
			state = "disabled"
		}
		retries := ""
		if w.Retries != nil {
			retries = fmt.Sprintf("%dx %ds %s", w.Retries.Attempts, w.Retries.DelaySeconds, w.Retries.Policy)
		}
		rows = append(rows, []string{
			w.ID,
			w.Name,
			w.URL,
			strings.Join(w.Events, ","),
			state,
			retries,
		})
	}
	return rows
}

func newWebhooksListCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List webhooks on the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			webhooks, err := client.ListWebhooks(cmd.Context(), id)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(webhooks)
			}
			r.Table([]string{"ID", "NAME", "URL", "EVENTS", "STATE", "RETRIES"}, webhookRows(webhooks))
			return nil
		},
	}
}

func newWebhooksCreateCmd(f *Factory) *cobra.Command {
	var wf webhookFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}
			req, err := wf.request(cmd)
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			webhook, err := client.CreateWebhook(cmd.Context(), id, req)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(webhook)
			}
			r.Success("webhook %s created", webhook.ID)
			return nil
		},
	}

	wf.register(cmd)
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

func newWebhooksGetCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "get <webhook>",
		Short: "Show one webhook",
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
			webhook, err := client.GetWebhook(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(webhook)
			}

			state := "active"
			if !webhook.IsActive {
				state = "disabled"
			}
			pairs := [][2]string{
				{"ID", webhook.ID},
				{"Name", webhook.Name},
				{"URL", webhook.URL},
				{"Events", strings.Join(webhook.Events, ", ")},
				{"State", state},
			}
			if webhook.Secret != "" {
				pairs = append(pairs, [2]string{"Secret", webhook.Secret})
			}
			if webhook.Retries != nil {
				pairs = append(pairs, [2]string{
					"Retries",
					fmt.Sprintf("%d attempts, %ds apart, %s", webhook.Retries.Attempts, webhook.Retries.DelaySeconds, webhook.Retries.Policy),
				})
			}
			for _, h := range webhook.CustomHeaders {
				pairs = append(pairs, [2]string{"Header", h.Name + ": " + h.Value})
			}
			if webhook.Timeout > 0 {
				pairs = append(pairs, [2]string{"Timeout", strconv.Itoa(webhook.Timeout) + "s"})
			}
			r.KV(pairs)
			return nil
		},
	}
}

func newWebhooksUpdateCmd(f *Factory) *cobra.Command {
	var wf webhookFlags

	cmd := &cobra.Command{
		Use:   "update <webhook>",
		Short: "Replace a webhook's definition",
		Long: `Replace a webhook's definition. The gateway treats updates as a full
replace, so pass the complete target state including --url and --event.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}
			req, err := wf.request(cmd)
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			webhook, err := client.UpdateWebhook(cmd.Context(), id, args[0], req)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(webhook)
			}
			r.Success("webhook %s updated", webhook.ID)
			return nil
		},
	}

	wf.register(cmd)
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

func newWebhooksDeleteCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <webhook>",
		Short: "Delete a webhook",
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
			if err := client.DeleteWebhook(cmd.Context(), id, args[0]); err != nil {
				return err
			}
			f.Renderer(cmd).Success("webhook deleted")
			return nil
		},
	}
}

func newWebhooksLogsCmd(f *Factory) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logs <webhook>",
		Short: "Show recent delivery attempts",
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
			logs, err := client.GetWebhookLogs(cmd.Context(), id, args[0], limit)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(logs)
			}

			rows := make([][]string, 0, len(logs))
			for _, l := range logs {
				status := strconv.Itoa(l.StatusCode)
				if l.Error != "" {
					status = l.Error
				}
				rows = append(rows, []string{
					formatTime(l.CreatedAt),
					l.Event,
					status,
					strconv.Itoa(l.ResponseTimeMS) + "ms",
					strconv.Itoa(l.Attempt),
				})
			}
			r.Table([]string{"TIME", "EVENT", "RESULT", "LATENCY", "ATTEMPT"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum log entries to fetch")
	return cmd
}

func newWebhooksTestCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "test <webhook>",
		Short: "Fire a test delivery and show the outcome",
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
			result, err := client.TestWebhook(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(result)
			}
			if result.Error != "" {
				r.Error("delivery failed: %s", result.Error)
				return nil
			}
			if result.StatusCode >= 200 && result.StatusCode < 300 {
				r.Success("delivered: status %d in %dms", result.StatusCode, result.ResponseTimeMS)
			} else {
				r.Warn("target answered status %d in %dms", result.StatusCode, result.ResponseTimeMS)
			}
			return nil
		},
	}
}
