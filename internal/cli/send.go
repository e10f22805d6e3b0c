package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zapkit/zapctl/pkg/gateway"
)

func newSendCmd(f *Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send messages and media through a session",
	}

	cmd.AddCommand(
		newSendTextCmd(f),
		newSendImageCmd(f),
		newSendVideoCmd(f),
		newSendAudioCmd(f),
		newSendDocumentCmd(f),
		newSendLocationCmd(f),
		newSendContactCmd(f),
		newSendPollCmd(f),
		newSendReactionCmd(f),
		newSendSeenCmd(f),
	)

	return cmd
}

// loadAttachment reads a local file into an inline attachment, sniffing the
// mimetype from the extension first and the content as a fallback.
func loadAttachment(path string) (*gateway.MediaAttachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}

	mimetype := mime.TypeByExtension(filepath.Ext(path))
	if mimetype == "" {
		mimetype = http.DetectContentType(data)
	}

	return &gateway.MediaAttachment{
		Mimetype: mimetype,
		Filename: filepath.Base(path),
		Data:     data,
	}, nil
}

func reportSent(f *Factory, cmd *cobra.Command, msg *gateway.Message, err error) error {
	if err != nil {
		return err
	}
	r := f.Renderer(cmd)
	if r.JSONOutput() {
		return r.JSON(msg)
	}
	if msg != nil && msg.ID != "" {
		r.Success("sent (id %s)", msg.ID)
	} else {
		r.Success("sent")
	}
	return nil
}

func newSendTextCmd(f *Factory) *cobra.Command {
	var replyTo string

	cmd := &cobra.Command{
		Use:   "text <chat> <message>",
		Short: "Send a text message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			msg, err := client.SendText(cmd.Context(), id, gateway.TextMessage{
				ChatID:  args[0],
				Text:    strings.Join(args[1:], " "),
				ReplyTo: replyTo,
			})
			return reportSent(f, cmd, msg, err)
		},
	}

	cmd.Flags().StringVar(&replyTo, "reply-to", "", "message id to quote")
	return cmd
}

func newSendImageCmd(f *Factory) *cobra.Command {
	var (
		caption  string
		mediaURL string
	)

	cmd := &cobra.Command{
		Use:   "image <chat> [file]",
		Short: "Send an image from a file or URL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}

			msg := gateway.ImageMessage{ChatID: args[0], Caption: caption, URL: mediaURL}
			if len(args) == 2 {
				file, err := loadAttachment(args[1])
				if err != nil {
					return err
				}
				msg.File = file
			}
			if msg.File == nil && msg.URL == "" {
				return fmt.Errorf("provide a file argument or --url")
			}

			client, err := f.Client()
			if err != nil {
				return err
			}
			sent, err := client.SendImage(cmd.Context(), id, msg)
			return reportSent(f, cmd, sent, err)
		},
	}

	cmd.Flags().StringVar(&caption, "caption", "", "image caption")
	cmd.Flags().StringVar(&mediaURL, "url", "", "image URL the gateway should fetch")
	return cmd
}

func newSendVideoCmd(f *Factory) *cobra.Command {
	var (
		caption  string
		mediaURL string
	)

	cmd := &cobra.Command{
		Use:   "video <chat> [file]",
		Short: "Send a video from a file or URL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}

			msg := gateway.VideoMessage{ChatID: args[0], Caption: caption, URL: mediaURL}
			if len(args) == 2 {
				file, err := loadAttachment(args[1])
				if err != nil {
					return err
				}
				msg.File = file
			}
			if msg.File == nil && msg.URL == "" {
				return fmt.Errorf("provide a file argument or --url")
			}

			client, err := f.Client()
			if err != nil {
				return err
			}
			sent, err := client.SendVideo(cmd.Context(), id, msg)
			return reportSent(f, cmd, sent, err)
		},
	}

	cmd.Flags().StringVar(&caption, "caption", "", "video caption")
	cmd.Flags().StringVar(&mediaURL, "url", "", "video URL the gateway should fetch")
	return cmd
}

func newSendAudioCmd(f *Factory) *cobra.Command {
	var mediaURL string

	cmd := &cobra.Command{
		Use:   "audio <chat> [file]",
		Short: "Send an audio clip from a file or URL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}

			msg := gateway.AudioMessage{ChatID: args[0], URL: mediaURL}
			if len(args) == 2 {
				file, err := loadAttachment(args[1])
				if err != nil {
					return err
				}
				msg.File = file
			}
			if msg.File == nil && msg.URL == "" {
				return fmt.Errorf("provide a file argument or --url")
			}

			client, err := f.Client()
			if err != nil {
				return err
			}
			sent, err := client.SendAudio(cmd.Context(), id, msg)
			return reportSent(f, cmd, sent, err)
		},
	}

	cmd.Flags().StringVar(&mediaURL, "url", "", "audio URL the gateway should fetch")
	return cmd
}

func newSendDocumentCmd(f *Factory) *cobra.Command {
	var (
		caption  string
		mediaURL string
	)

	cmd := &cobra.Command{
		Use:   "document <chat> [file]",
		Short: "Send a document from a file or URL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}

			msg := gateway.DocumentMessage{ChatID: args[0], Caption: caption, URL: mediaURL}
			if len(args) == 2 {
				file, err := loadAttachment(args[1])
				if err != nil {
					return err
				}
				msg.File = file
			}
			if msg.File == nil && msg.URL == "" {
				return fmt.Errorf("provide a file argument or --url")
			}

			client, err := f.Client()
			if err != nil {
				return err
			}
			sent, err := client.SendDocument(cmd.Context(), id, msg)
			return reportSent(f, cmd, sent, err)
		},
	}

	cmd.Flags().StringVar(&caption, "caption", "", "document caption")
	cmd.Flags().StringVar(&mediaURL, "url", "", "document URL the gateway should fetch")
	return cmd
}

func newSendLocationCmd(f *Factory) *cobra.Command {
	var (
		title   string
		address string
	)

	cmd := &cobra.Command{
		Use:   "location <chat> <latitude> <longitude>",
		Short: "Send a location pin",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}

			lat, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("latitude must be a number: %w", err)
			}
			long, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("longitude must be a number: %w", err)
			}

			client, err := f.Client()
			if err != nil {
				return err
			}
			sent, err := client.SendLocation(cmd.Context(), id, gateway.LocationMessage{
				ChatID:    args[0],
				Latitude:  lat,
				Longitude: long,
				Title:     title,
				Address:   address,
			})
			return reportSent(f, cmd, sent, err)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "place name")
	cmd.Flags().StringVar(&address, "address", "", "street address")
	return cmd
}

func newSendContactCmd(f *Factory) *cobra.Command {
	var (
		fullName     string
		phone        string
		organization string
	)

	cmd := &cobra.Command{
		Use:   "contact <chat>",
		Short: "Send a contact card",
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
			sent, err := client.SendContact(cmd.Context(), id, gateway.ContactMessage{
				ChatID: args[0],
				Contacts: []gateway.ContactCard{{
					FullName:     fullName,
					PhoneNumber:  phone,
					Organization: organization,
				}},
			})
			return reportSent(f, cmd, sent, err)
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "", "contact full name")
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone number")
	cmd.Flags().StringVar(&organization, "org", "", "contact organization")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func newSendPollCmd(f *Factory) *cobra.Command {
	var multipleAnswers bool

	cmd := &cobra.Command{
		Use:   "poll <chat> <question> <option> <option> [option...]",
		Short: "Send a poll with two or more options",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := f.SessionID()
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			sent, err := client.SendPoll(cmd.Context(), id, gateway.PollMessage{
				ChatID:          args[0],
				Name:            args[1],
				Options:         args[2:],
				MultipleAnswers: multipleAnswers,
			})
			return reportSent(f, cmd, sent, err)
		},
	}

	cmd.Flags().BoolVar(&multipleAnswers, "multiple-answers", false, "allow voting for more than one option")
	return cmd
}

func newSendReactionCmd(f *Factory) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "reaction <chat> <message-id> [emoji]",
		Short: "React to a message, or remove a reaction with --remove",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			reaction := ""
			if len(args) == 3 {
				reaction = args[2]
			}
			if !remove && reaction == "" {
				return fmt.Errorf("provide an emoji or pass --remove")
			}
			if remove {
				reaction = ""
			}

			id, err := f.SessionID()
			if err != nil {
				return err
			}
			client, err := f.Client()
			if err != nil {
				return err
			}
			sent, err := client.SendReaction(cmd.Context(), id, gateway.ReactionMessage{
				ChatID:    args[0],
				MessageID: args[1],
				Reaction:  reaction,
			})
			return reportSent(f, cmd, sent, err)
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "remove the existing reaction")
	return cmd
}

func newSendSeenCmd(f *Factory) *cobra.Command {
	var messageID string

	cmd := &cobra.Command{
		Use:   "seen <chat>",
		Short: "Mark a chat (or one message) as read",
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
			if err := client.MarkSeen(cmd.Context(), id, gateway.SeenRequest{
				ChatID:    args[0],
				MessageID: messageID,
			}); err != nil {
				return err
			}
			f.Renderer(cmd).Success("marked as read")
			return nil
		},
	}

	cmd.Flags().StringVar(&messageID, "message", "", "mark only this message")
	return cmd
}
