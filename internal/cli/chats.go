package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newChatsCmd(f *Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Browse and manage conversations",
	}

	cmd.AddCommand(
		newChatsListCmd(f),
		newChatsMessagesCmd(f),
		newChatsEditCmd(f),
		newChatsDeleteMessageCmd(f),
		newChatsDeleteCmd(f),
		newChatsArchiveCmd(f, true),
		newChatsArchiveCmd(f, false),
		newChatsPictureCmd(f),
		newChatsLabelCmd(f),
	)

	return cmd
}

func newChatsListCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List conversations",
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
			chats, err := client.ListChats(cmd.Context(), id)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(chats)
			}

			rows := make([][]string, 0, len(chats))
			for _, c := range chats {
				kind := "chat"
				if c.IsGroup {
					kind = "group"
				}
				flags := make([]string, 0, 2)
				if c.Archived {
					flags = append(flags, "archived")
				}
				if c.Pinned {
					flags = append(flags, "pinned")
				}
				rows = append(rows, []string{
					c.ID,
					c.Name,
					kind,
					strconv.Itoa(c.UnreadCount),
					strings.Join(flags, ","),
				})
			}
			r.Table([]string{"ID", "NAME", "KIND", "UNREAD", "FLAGS"}, rows)
			return nil
		},
	}
}

func newChatsMessagesCmd(f *Factory) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "messages <chat>",
		Short: "Show recent messages in a chat",
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
			messages, err := client.GetChatMessages(cmd.Context(), id, args[0], limit)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(messages)
			}

			rows := make([][]string, 0, len(messages))
			for _, m := range messages {
				from := "them"
				if m.FromMe {
					from = "me"
				}
				body := m.Body
				if len(body) > 60 {
					body = body[:57] + "..."
				}
				rows = append(rows, []string{
					formatTime(m.Timestamp),
					from,
					m.Type,
					body,
				})
			}
			r.Table([]string{"TIME", "FROM", "TYPE", "BODY"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum messages to fetch")
	return cmd
}

func newChatsEditCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <chat> <message-id> <text>",
		Short: "Edit a previously sent message",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			msg, err := client.EditMessage(cmd.Context(), id, args[0], args[1], strings.Join(args[2:], " "))
			return reportSent(f, cmd, msg, err)
		},
	}
}

func newChatsDeleteMessageCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-message <chat> <message-id>",
		Short: "Delete a message for everyone",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			if err := client.DeleteMessage(cmd.Context(), id, args[0], args[1]); err != nil {
				return err
			}
			f.Renderer(cmd).Success("message deleted")
			return nil
		},
	}
}

func newChatsDeleteCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <chat>",
		Short: "Delete a whole conversation",
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
			if err := client.DeleteChat(cmd.Context(), id, args[0]); err != nil {
				return err
			}
			f.Renderer(cmd).Success("chat deleted")
			return nil
		},
	}
}

func newChatsArchiveCmd(f *Factory, archive bool) *cobra.Command {
	use, short := "archive <chat>", "Archive a conversation"
	if !archive {
		use, short = "unarchive <chat>", "Unarchive a conversation"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
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
			if archive {
				err = client.ArchiveChat(cmd.Context(), id, args[0])
			} else {
				err = client.UnarchiveChat(cmd.Context(), id, args[0])
			}
			if err != nil {
				return err
			}
			if archive {
				f.Renderer(cmd).Success("chat archived")
			} else {
				f.Renderer(cmd).Success("chat unarchived")
			}
			return nil
		},
	}
}

func newChatsPictureCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "picture <chat>",
		Short: "Show the chat avatar URL",
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
			url, err := client.GetChatPicture(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(map[string]string{"url": url})
			}
			if url == "" {
				r.Warn("no picture set")
				return nil
			}
			r.Print("%s\n", url)
			return nil
		},
	}
}

func newChatsLabelCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "label <chat> [label-id...]",
		Short: "Replace the labels on a chat (no ids clears them)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			if err := client.SetChatLabels(cmd.Context(), id, args[0], args[1:]); err != nil {
				return err
			}
			f.Renderer(cmd).Success("labels updated")
			return nil
		},
	}
}
