package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zapkit/zapctl/pkg/gateway"
)

func newStatusCmd(f *Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Publish stories to the session's status feed",
	}

	cmd.AddCommand(
		newStatusTextCmd(f),
		newStatusImageCmd(f),
		newStatusVideoCmd(f),
		newStatusDeleteCmd(f),
	)

	return cmd
}

func newStatusTextCmd(f *Factory) *cobra.Command {
	var (
		background string
		font       int
	)

	cmd := &cobra.Command{
		Use:   "text <message>",
		Short: "Publish a text status",
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
			sent, err := client.SendTextStatus(cmd.Context(), id, gateway.TextStatus{
				Text:            strings.Join(args, " "),
				BackgroundColor: background,
				Font:            font,
			})
			return reportSent(f, cmd, sent, err)
		},
	}

	cmd.Flags().StringVar(&background, "bg", "", "background color, e.g. #38b42f")
	cmd.Flags().IntVar(&font, "font", 0, "font index")
	return cmd
}

func newStatusImageCmd(f *Factory) *cobra.Command {
	var (
		caption  string
		mediaURL string
	)

	cmd := &cobra.Command{
		Use:   "image [file]",
		Short: "Publish an image status from a file or URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}

			status := gateway.ImageStatus{Caption: caption, URL: mediaURL}
			if len(args) == 1 {
				file, err := loadAttachment(args[0])
				if err != nil {
					return err
				}
				status.File = file
			}
			if status.File == nil && status.URL == "" {
				return fmt.Errorf("provide a file argument or --url")
			}

			client, err := f.Client()
			if err != nil {
				return err
			}
			sent, err := client.SendImageStatus(cmd.Context(), id, status)
			return reportSent(f, cmd, sent, err)
		},
	}

	cmd.Flags().StringVar(&caption, "caption", "", "status caption")
	cmd.Flags().StringVar(&mediaURL, "url", "", "image URL the gateway should fetch")
	return cmd
}

func newStatusVideoCmd(f *Factory) *cobra.Command {
	var (
		caption  string
		mediaURL string
	)

	cmd := &cobra.Command{
		Use:   "video [file]",
		Short: "Publish a video status from a file or URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}

			status := gateway.VideoStatus{Caption: caption, URL: mediaURL}
			if len(args) == 1 {
				file, err := loadAttachment(args[0])
				if err != nil {
					return err
				}
				status.File = file
			}
			if status.File == nil && status.URL == "" {
				return fmt.Errorf("provide a file argument or --url")
			}

			client, err := f.Client()
			if err != nil {
				return err
			}
			sent, err := client.SendVideoStatus(cmd.Context(), id, status)
			return reportSent(f, cmd, sent, err)
		},
	}

	cmd.Flags().StringVar(&caption, "caption", "", "status caption")
	cmd.Flags().StringVar(&mediaURL, "url", "", "video URL the gateway should fetch")
	return cmd
}

func newStatusDeleteCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <status-id>",
		Short: "Delete a published status",
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
			if err := client.DeleteStatus(cmd.Context(), id, args[0]); err != nil {
				return err
			}
			f.Renderer(cmd).Success("status deleted")
			return nil
		},
	}
}
