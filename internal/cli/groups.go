package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zapkit/zapctl/pkg/gateway"
)

func newGroupsCmd(f *Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Manage WhatsApp groups",
	}

	cmd.AddCommand(
		newGroupsListCmd(f),
		newGroupsCountCmd(f),
		newGroupsCreateCmd(f),
		newGroupsGetCmd(f),
		newGroupsLeaveCmd(f),
		newGroupsRenameCmd(f),
		newGroupsSetDescriptionCmd(f),
		newGroupsParticipantsCmd(f, "add", "Add participants to a group"),
		newGroupsParticipantsCmd(f, "remove", "Remove participants from a group"),
		newGroupsParticipantsCmd(f, "promote", "Promote participants to admin"),
		newGroupsParticipantsCmd(f, "demote", "Demote participants from admin"),
		newGroupsInviteCodeCmd(f),
		newGroupsRevokeInviteCmd(f),
		newGroupsJoinCmd(f),
	)

	return cmd
}

func newGroupsListCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the session's groups",
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
			groups, err := client.ListGroups(cmd.Context(), id)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(groups)
			}

			rows := make([][]string, 0, len(groups))
			for _, g := range groups {
				rows = append(rows, []string{
					g.ID,
					g.Name,
					strconv.Itoa(len(g.Participants)),
				})
			}
			r.Table([]string{"ID", "NAME", "PARTICIPANTS"}, rows)
			return nil
		},
	}
}

func newGroupsCountCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show how many groups the session is in",
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
			count, err := client.GetGroupsCount(cmd.Context(), id)
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(map[string]int{"count": count})
			}
			r.Print("%d\n", count)
			return nil
		},
	}
}

func newGroupsCreateCmd(f *Factory) *cobra.Command {
	var participants []string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group with the given participants",
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
			group, err := client.CreateGroup(cmd.Context(), id, gateway.CreateGroupRequest{
				Name:         args[0],
				Participants: participants,
			})
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(group)
			}
			r.Success("group %q created (%s)", group.Name, group.ID)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&participants, "participant", nil, "participant phone or id (repeatable)")
	_ = cmd.MarkFlagRequired("participant")
	return cmd
}

func newGroupsGetCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "get <group>",
		Short: "Show one group",
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
			group, err := client.GetGroup(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(group)
			}

			pairs := [][2]string{
				{"ID", group.ID},
				{"Name", group.Name},
			}
			if group.Description != "" {
				pairs = append(pairs, [2]string{"Description", group.Description})
			}
			if group.OwnerID != "" {
				pairs = append(pairs, [2]string{"Owner", group.OwnerID})
			}
			pairs = append(pairs, [2]string{"Participants", strconv.Itoa(len(group.Participants))})
			r.KV(pairs)

			for _, p := range group.Participants {
				role := ""
				if p.IsSuperAdmin {
					role = " (owner)"
				} else if p.IsAdmin {
					role = " (admin)"
				}
				r.Muted("  %s%s", p.ID, role)
			}
			return nil
		},
	}
}

func newGroupsLeaveCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "leave <group>",
		Short: "Leave a group",
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
			if err := client.LeaveGroup(cmd.Context(), id, args[0]); err != nil {
				return err
			}
			f.Renderer(cmd).Success("left group %s", args[0])
			return nil
		},
	}
}

func newGroupsRenameCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <group> <name>",
		Short: "Rename a group",
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
			if err := client.SetGroupName(cmd.Context(), id, args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			f.Renderer(cmd).Success("group renamed")
			return nil
		},
	}
}

func newGroupsSetDescriptionCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "set-description <group> <text>",
		Short: "Set the group description",
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
			if err := client.SetGroupDescription(cmd.Context(), id, args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			f.Renderer(cmd).Success("description updated")
			return nil
		},
	}
}

func newGroupsParticipantsCmd(f *Factory, op, short string) *cobra.Command {
	return &cobra.Command{
		Use:   op + " <group> <participant> [participant...]",
		Short: short,
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

			group, participants := args[0], args[1:]
			done := ""
			switch op {
			case "add":
				err = client.AddGroupParticipants(cmd.Context(), id, group, participants)
				done = "added"
			case "remove":
				err = client.RemoveGroupParticipants(cmd.Context(), id, group, participants)
				done = "removed"
			case "promote":
				err = client.PromoteGroupParticipants(cmd.Context(), id, group, participants)
				done = "promoted"
			case "demote":
				err = client.DemoteGroupParticipants(cmd.Context(), id, group, participants)
				done = "demoted"
			}
			if err != nil {
				return err
			}
			f.Renderer(cmd).Success("%s %d participant(s)", done, len(participants))
			return nil
		},
	}
}

func newGroupsInviteCodeCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "invite-code <group>",
		Short: "Show the group invite code",
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
			code, err := client.GetGroupInviteCode(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(map[string]string{"code": code})
			}
			r.Print("%s\n", code)
			return nil
		},
	}
}

func newGroupsRevokeInviteCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-invite <group>",
		Short: "Revoke the invite code and mint a new one",
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
			code, err := client.RevokeGroupInviteCode(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(map[string]string{"code": code})
			}
			r.Success("invite revoked, new code: %s", code)
			return nil
		},
	}
}

func newGroupsJoinCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Join a group by invite code",
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
			group, err := client.JoinGroup(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}

			r := f.Renderer(cmd)
			if r.JSONOutput() {
				return r.JSON(group)
			}
			r.Success("joined %q (%s)", group.Name, group.ID)
			return nil
		},
	}
}
