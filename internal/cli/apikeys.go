package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapkit/zapctl/internal/cli/render"
	"github.com/zapkit/zapctl/pkg/gateway"
)

func newAPIKeysCmd(f *Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikeys",
		Short: "Manage programmatic API keys (requires a dashboard token)",
	}

	cmd.AddCommand(
		newAPIKeysListCmd(f),
		newAPIKeysCreateCmd(f),
		newAPIKeysGetCmd(f),
		newAPIKeysUpdateCmd(f),
		newAPIKeysDeleteCmd(f),
		newAPIKeysRegenerateCmd(f),
		newAPIKeysScopesCmd(f),
	)

	return cmd
}

// warnTokenExpiry flags a stale bearer token before the backend rejects it.
func warnTokenExpiry(f *Factory, r *render.Renderer) {
	token := f.token()
	if token != "" && gateway.TokenExpired(token, time.Now()) {
		r.Warn("bearer token looks expired; log in to the dashboard again")
	}
}

// revealKey prints the one response that ever carries the full key value.
func revealKey(r *render.Renderer, key *gateway.APIKey) error {
	if r.JSONOutput() {
		return r.JSON(key)
	}
	r.KV([][2]string{
		{"ID", key.ID},
		{"Name", key.Name},
		{"Scopes", strings.Join(key.Scopes, ", ")},
	})
	r.Title("%s", key.Key)
	r.Warn("copy the key now, it will not be shown again")
	return nil
}

func newAPIKeysListCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := f.Renderer(cmd)
			warnTokenExpiry(f, r)

			client, err := f.Client()
			if err != nil {
				return err
			}
			keys, err := client.ListAPIKeys(cmd.Context())
			if err != nil {
				return err
			}

			if r.JSONOutput() {
				return r.JSON(keys)
			}
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				state := "active"
				if !k.IsActive {
					state = "disabled"
				}
				lastUsed := "never"
				if k.LastUsedAt != nil {
					lastUsed = formatTime(*k.LastUsedAt)
				}
				rows = append(rows, []string{
					k.ID,
					k.Name,
					k.KeyPreview,
					strings.Join(k.Scopes, ","),
					state,
					lastUsed,
				})
			}
			r.Table([]string{"ID", "NAME", "KEY", "SCOPES", "STATE", "LAST USED"}, rows)
			return nil
		},
	}
}

func newAPIKeysCreateCmd(f *Factory) *cobra.Command {
	var (
		scopes []string
		env    string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an API key and print it once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := f.Renderer(cmd)
			warnTokenExpiry(f, r)

			client, err := f.Client()
			if err != nil {
				return err
			}
			key, err := client.CreateAPIKey(cmd.Context(), gateway.CreateAPIKeyRequest{
				Name:        args[0],
				Scopes:      scopes,
				Environment: env,
			})
			if err != nil {
				return err
			}
			return revealKey(r, key)
		},
	}

	cmd.Flags().StringArrayVar(&scopes, "scope", nil, "granted scope as resource:action (repeatable)")
	cmd.Flags().StringVar(&env, "env", "", "key environment: live|test")
	_ = cmd.MarkFlagRequired("scope")
	return cmd
}

func newAPIKeysGetCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := f.Renderer(cmd)
			warnTokenExpiry(f, r)

			client, err := f.Client()
			if err != nil {
				return err
			}
			key, err := client.GetAPIKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if r.JSONOutput() {
				return r.JSON(key)
			}
			state := "active"
			if !key.IsActive {
				state = "disabled"
			}
			pairs := [][2]string{
				{"ID", key.ID},
				{"Name", key.Name},
				{"Key", key.KeyPreview},
				{"Scopes", strings.Join(key.Scopes, ", ")},
				{"State", state},
				{"Created", formatTime(key.CreatedAt)},
			}
			if key.LastUsedAt != nil {
				pairs = append(pairs, [2]string{"Last used", formatTime(*key.LastUsedAt)})
			}
			r.KV(pairs)
			return nil
		},
	}
}

func newAPIKeysUpdateCmd(f *Factory) *cobra.Command {
	var (
		name       string
		scopes     []string
		activate   bool
		deactivate bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename, rescope, or toggle an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if activate && deactivate {
				return &gateway.ValidationError{Field: "isActive", Message: "pass --activate or --deactivate, not both"}
			}

			req := gateway.UpdateAPIKeyRequest{Scopes: scopes}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if activate {
				v := true
				req.IsActive = &v
			}
			if deactivate {
				v := false
				req.IsActive = &v
			}

			r := f.Renderer(cmd)
			warnTokenExpiry(f, r)

			client, err := f.Client()
			if err != nil {
				return err
			}
			key, err := client.UpdateAPIKey(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}

			if r.JSONOutput() {
				return r.JSON(key)
			}
			r.Success("key %s updated", key.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new key name")
	cmd.Flags().StringArrayVar(&scopes, "scope", nil, "replace granted scopes (repeatable)")
	cmd.Flags().BoolVar(&activate, "activate", false, "enable the key")
	cmd.Flags().BoolVar(&deactivate, "deactivate", false, "disable the key")
	return cmd
}

func newAPIKeysDeleteCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := f.Renderer(cmd)
			warnTokenExpiry(f, r)

			client, err := f.Client()
			if err != nil {
				return err
			}
			if err := client.DeleteAPIKey(cmd.Context(), args[0]); err != nil {
				return err
			}
			r.Success("key deleted")
			return nil
		},
	}
}

func newAPIKeysRegenerateCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <id>",
		Short: "Rotate an API key's secret and print the new key once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := f.Renderer(cmd)
			warnTokenExpiry(f, r)

			client, err := f.Client()
			if err != nil {
				return err
			}
			key, err := client.RegenerateAPIKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return revealKey(r, key)
		},
	}
}

func newAPIKeysScopesCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "scopes",
		Short: "List the grantable scopes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := f.Client()
			if err != nil {
				return err
			}
			scopes, err := client.ListScopes(cmd.Context())
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(scopes)
			}
			rows := make([][]string, 0, len(scopes))
			for _, s := range scopes {
				rows = append(rows, []string{s.Name, s.Description})
			}
			r.Table([]string{"SCOPE", "DESCRIPTION"}, rows)
			return nil
		},
	}
}
