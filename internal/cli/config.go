package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zapkit/zapctl/internal/config"
)

func newConfigCmd(f *Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write the zapctl profile",
	}

	cmd.AddCommand(
		newConfigInitCmd(f),
		newConfigViewCmd(f),
		newConfigGetCmd(f),
		newConfigSetCmd(f),
	)

	return cmd
}

func newConfigInitCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter profile with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := f.Renderer(cmd)
			path, created, err := config.Init()
			if err != nil {
				return err
			}
			if !created {
				r.Muted("profile already exists: %s", path)
				return nil
			}
			r.Success("profile written: %s", path)
			return nil
		},
	}
}

func newConfigViewCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the resolved profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := f.Renderer(cmd)

			if r.JSONOutput() {
				resolved := map[string]string{}
				for _, key := range config.Keys() {
					resolved[key] = config.Redact(key, config.Get(key))
				}
				return r.JSON(resolved)
			}

			rows := make([][]string, 0, len(config.Keys()))
			for _, key := range config.Keys() {
				rows = append(rows, []string{key, config.Redact(key, config.Get(key))})
			}
			r.Table([]string{"KEY", "VALUE"}, rows)
			if path := config.Path(); path != "" {
				r.Muted("profile: %s", path)
			}
			return nil
		},
	}
}

func newConfigGetCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one profile value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !config.IsKnownKey(key) {
				return fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(config.Keys(), ", "))
			}
			f.Renderer(cmd).Print("%s\n", config.Get(key))
			return nil
		},
	}
}

func newConfigSetCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist one profile value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if !config.IsKnownKey(key) {
				return fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(config.Keys(), ", "))
			}
			if err := config.Set(key, value); err != nil {
				return err
			}
			f.Renderer(cmd).Success("%s = %s", key, config.Redact(key, value))
			return nil
		},
	}
}
