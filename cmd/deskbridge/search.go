package main

import (
	"fmt"
	"io"

	"deskbridge/internal/cmdutils"
	"deskbridge/internal/zendesk"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	searchHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	searchIDStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Width(10)
	searchTypeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(10)
	searchDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search helpdesk tickets by subject prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().String("project", "", "Project whose helpdesk to search (default project when empty)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	projectID, _ := cmd.Flags().GetString("project")

	client, _, err := cmdutils.GetTicketClient(projectID, logger)
	if err != nil {
		return err
	}

	result, err := client.SearchTickets(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	renderTickets(cmd.OutOrStdout(), client, result)
	return nil
}

func renderTickets(w io.Writer, client *zendesk.Client, result *zendesk.SearchResponse) {
	if len(result.Results) == 0 {
		fmt.Fprintln(w, searchDimStyle.Render("No tickets found."))
		return
	}

	fmt.Fprintln(w, searchHeaderStyle.Render(fmt.Sprintf("%d ticket(s)", result.Count)))
	for _, t := range result.Results {
		fmt.Fprintf(w, "%s%s%s\n",
			searchIDStyle.Render("#"+t.IDString()),
			searchTypeStyle.Render(t.Type),
			t.Subject,
		)
		fmt.Fprintln(w, searchDimStyle.Render("  "+client.TicketURL(t.IDString())))
	}
}
