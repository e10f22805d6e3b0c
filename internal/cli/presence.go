package cli

import (
	"github.com/spf13/cobra"

	"github.com/zapkit/zapctl/pkg/gateway"
)

func newPresenceCmd(f *Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presence",
		Short: "Control and inspect presence indicators",
	}

	cmd.AddCommand(
		newPresenceSetCmd(f),
		newPresenceChatCmd(f),
		newPresenceGetCmd(f),
	)

	return cmd
}

func newPresenceSetCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:       "set <available|unavailable>",
		Short:     "Set the account-level availability",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"available", "unavailable"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			if err := client.SetPresence(cmd.Context(), id, gateway.Presence(args[0])); err != nil {
				return err
			}
			f.Renderer(cmd).Success("presence set to %s", args[0])
			return nil
		},
	}
}

func newPresenceChatCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:       "chat <chat> <typing|recording|paused>",
		Short:     "Show a typing or recording indicator in a chat",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"typing", "recording", "paused"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			if err := client.SetChatPresence(cmd.Context(), id, args[0], gateway.ChatPresence(args[1])); err != nil {
				return err
			}
			f.Renderer(cmd).Success("chat presence set to %s", args[1])
			return nil
		},
	}
}

func newPresenceGetCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "get <chat>",
		Short: "Show the last observed presence of a chat peer",
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
			info, err := client.GetChatPresence(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(info)
			}

			pairs := [][2]string{
				{"Chat", info.ChatID},
				{"Presence", info.Presence},
			}
			if info.LastSeen != nil {
				pairs = append(pairs, [2]string{"Last seen", formatTime(*info.LastSeen)})
			}
			r.KV(pairs)
			return nil
		},
	}
}
