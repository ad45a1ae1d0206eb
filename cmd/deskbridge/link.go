package main

import (
	"fmt"

	"deskbridge/internal/cmdutils"
	"deskbridge/internal/plugin"

	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link an issue group to an existing helpdesk ticket",
	Long: `Links an issue group to an existing helpdesk ticket. A group that is
already linked keeps its ticket; use --unlink first to replace it.`,
	RunE: runLink,
}

func init() {
	linkCmd.Flags().String("project", "", "Project id")
	linkCmd.Flags().String("group", "", "Issue group id")
	linkCmd.Flags().String("ticket", "", "Helpdesk ticket id")
	linkCmd.Flags().String("comment", "", "Optional comment")
	linkCmd.Flags().Bool("unlink", false, "Remove the group's ticket link instead")
	linkCmd.MarkFlagRequired("group")
	linkCmd.MarkFlagsMutuallyExclusive("ticket", "unlink")

	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	projectID, _ := cmd.Flags().GetString("project")
	groupID, _ := cmd.Flags().GetString("group")
	ticketID, _ := cmd.Flags().GetString("ticket")
	comment, _ := cmd.Flags().GetString("comment")
	unlink, _ := cmd.Flags().GetBool("unlink")
	if !unlink && ticketID == "" {
		return fmt.Errorf("--ticket is required unless --unlink is set")
	}

	p, store, err := cmdutils.GetPlugin(logger, nil, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	group := plugin.Group{ID: groupID, ProjectID: projectID}
	out := cmd.OutOrStdout()

	if unlink {
		if err := p.Unlink(cmd.Context(), group); err != nil {
			return err
		}
		fmt.Fprintf(out, "Unlinked group %s\n", groupID)
		return nil
	}

	result, err := p.LinkExisting(cmd.Context(), group, plugin.LinkForm{IssueID: ticketID, Comment: comment})
	if err != nil {
		return err
	}

	url, err := p.IssueURL(group, result["title"])
	if err != nil {
		return err
	}

	current, _, err := p.LinkedTicket(cmd.Context(), group)
	if err != nil {
		return err
	}
	if current != ticketID {
		fmt.Fprintf(out, "Group %s already linked to ticket %s; link unchanged.\n", groupID, current)
		return nil
	}
	fmt.Fprintf(out, "Linked group %s to ticket %s (%s)\n", groupID, ticketID, url)
	return nil
}
