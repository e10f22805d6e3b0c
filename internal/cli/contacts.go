package cli

import (
	"github.com/spf13/cobra"
)

func newContactsCmd(f *Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Look up and manage contacts",
	}

	cmd.AddCommand(
		newContactsListCmd(f),
		newContactsGetCmd(f),
		newContactsCheckCmd(f),
		newContactsPictureCmd(f),
		newContactsBlockCmd(f, true),
		newContactsBlockCmd(f, false),
	)

	return cmd
}

func newContactsListCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the session's contacts",
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
			contacts, err := client.ListContacts(cmd.Context(), id)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(contacts)
			}

			rows := make([][]string, 0, len(contacts))
			for _, c := range contacts {
				name := c.Name
				if name == "" {
					name = c.PushName
				}
				flags := ""
				if c.IsBusiness {
					flags = "business"
				}
				if c.IsBlocked {
					if flags != "" {
						flags += ","
					}
					flags += "blocked"
				}
				rows = append(rows, []string{c.ID, name, c.PhoneNumber, flags})
			}
			r.Table([]string{"ID", "NAME", "PHONE", "FLAGS"}, rows)
			return nil
		},
	}
}

func newContactsGetCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "get <contact>",
		Short: "Show one contact",
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
			contact, err := client.GetContact(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(contact)
			}
			r.KV([][2]string{
				{"ID", contact.ID},
				{"Name", contact.Name},
				{"Push name", contact.PushName},
				{"Phone", contact.PhoneNumber},
			})
			return nil
		},
	}
}

func newContactsCheckCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "check <phone>",
		Short: "Check whether a phone number is on WhatsApp",
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
			check, err := client.CheckContact(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(check)
			}
			if check.Exists {
				r.Success("%s is on WhatsApp (%s)", args[0], check.ID)
			} else {
				r.Warn("%s is not on WhatsApp", args[0])
			}
			return nil
		},
	}
}

func newContactsPictureCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "picture <contact>",
		Short: "Show the contact's profile picture URL",
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
			url, err := client.GetContactPicture(cmd.Context(), id, args[0])
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

func newContactsBlockCmd(f *Factory, block bool) *cobra.Command {
	use, short := "block <contact>", "Block a contact"
	if !block {
		use, short = "unblock <contact>", "Unblock a contact"
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
			if block {
				err = client.BlockContact(cmd.Context(), id, args[0])
			} else {
				err = client.UnblockContact(cmd.Context(), id, args[0])
			}
			if err != nil {
				return err
			}
			if block {
				f.Renderer(cmd).Success("contact blocked")
			} else {
				f.Renderer(cmd).Success("contact unblocked")
			}
			return nil
		},
	}
}
