package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zapkit/zapctl/pkg/gateway"
)

func newLabelsCmd(f *Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Manage WhatsApp Business chat labels",
	}

	cmd.AddCommand(
		newLabelsListCmd(f),
		newLabelsCreateCmd(f),
		newLabelsUpdateCmd(f),
		newLabelsDeleteCmd(f),
		newLabelsChatsCmd(f),
	)

	return cmd
}

func newLabelsListCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List labels",
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
			labels, err := client.ListLabels(cmd.Context(), id)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(labels)
			}

			rows := make([][]string, 0, len(labels))
			for _, l := range labels {
				rows = append(rows, []string{l.ID, l.Name, strconv.Itoa(l.Color)})
			}
			r.Table([]string{"ID", "NAME", "COLOR"}, rows)
			return nil
		},
	}
}

func newLabelsCreateCmd(f *Factory) *cobra.Command {
	var color int

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a label",
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
			label, err := client.CreateLabel(cmd.Context(), id, gateway.LabelRequest{
				Name:  args[0],
				Color: color,
			})
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(label)
			}
			r.Success("label %q created (%s)", label.Name, label.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&color, "color", 0, "label color index")
	return cmd
}

func newLabelsUpdateCmd(f *Factory) *cobra.Command {
	var color int

	cmd := &cobra.Command{
		Use:   "update <label> <name>",
		Short: "Rename or recolor a label",
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
			label, err := client.UpdateLabel(cmd.Context(), id, args[0], gateway.LabelRequest{
				Name:  args[1],
				Color: color,
			})
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(label)
			}
			r.Success("label updated")
			return nil
		},
	}

	cmd.Flags().IntVar(&color, "color", 0, "label color index")
	return cmd
}

func newLabelsDeleteCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <label>",
		Short: "Delete a label",
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
			if err := client.DeleteLabel(cmd.Context(), id, args[0]); err != nil {
				return err
			}
			f.Renderer(cmd).Success("label deleted")
			return nil
		},
	}
}

func newLabelsChatsCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "chats <label>",
		Short: "List the chats carrying a label",
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
			chats, err := client.GetLabelChats(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(chats)
			}

			rows := make([][]string, 0, len(chats))
			for _, c := range chats {
				rows = append(rows, []string{c.ID, c.Name})
			}
			r.Table([]string{"ID", "NAME"}, rows)
			return nil
		},
	}
}
