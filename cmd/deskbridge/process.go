package main

import (
	"fmt"

	"deskbridge/internal/cmdutils"
	"deskbridge/internal/plugin"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Feed a single issue notification through the handler",
	Long: `Runs one post-process notification, as the monitoring platform would.
With --new a problem ticket is created (when enabled); otherwise an incident
linked to the group's problem is created (when enabled).`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().String("project", "", "Project id")
	processCmd.Flags().String("group", "", "Issue group id")
	processCmd.Flags().String("title", "", "Event title, used as ticket subject")
	processCmd.Flags().String("url", "", "Absolute URL of the issue group")
	processCmd.Flags().String("event", "", "Event id (random when empty)")
	processCmd.Flags().Bool("new", false, "Treat the event as the first of a new issue")
	processCmd.Flags().Bool("sample", false, "Mark the event as a sample")
	processCmd.MarkFlagRequired("group")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	projectID, _ := cmd.Flags().GetString("project")
	groupID, _ := cmd.Flags().GetString("group")
	title, _ := cmd.Flags().GetString("title")
	url, _ := cmd.Flags().GetString("url")
	eventID, _ := cmd.Flags().GetString("event")
	isNew, _ := cmd.Flags().GetBool("new")
	isSample, _ := cmd.Flags().GetBool("sample")

	p, store, err := cmdutils.GetPlugin(logger, nil, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	if eventID == "" {
		eventID = uuid.NewString()
	}

	group := plugin.Group{ID: groupID, ProjectID: projectID, Title: title, URL: url}
	event := plugin.Event{ID: eventID, Title: title}

	if err := p.PostProcess(cmd.Context(), group, event, isNew, isSample); err != nil {
		return err
	}

	link, found, err := p.LinkedTicket(cmd.Context(), group)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !found {
		fmt.Fprintf(out, "Group %s has no linked ticket.\n", groupID)
		return nil
	}
	fmt.Fprintf(out, "Group %s is linked to ticket %s\n", groupID, link)
	return nil
}
