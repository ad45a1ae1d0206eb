package main

import (
	"fmt"
	"net/url"

	"deskbridge/internal/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Wrapper for survey functions to allow mocking in tests
var (
	askOneFunc = survey.AskOne
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactively configure a project's helpdesk settings",
	Long: `Prompts for the helpdesk URL, credentials and automation switches of a
project and writes them under projects.<id> in the configuration file.
An empty password keeps the stored one.`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func validateHelpdeskURL(ans interface{}) error {
	s, _ := ans.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an http(s) URL, e.g. https://mycompany.zendesk.com")
	}
	return nil
}

func runConfigure(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	projectID := config.DefaultProject
	if err := askOneFunc(&survey.Input{
		Message: "Project id:",
		Default: config.DefaultProject,
	}, &projectID); err != nil {
		return err
	}

	current, err := config.NewViperSource(nil).Project(projectID)
	if err != nil {
		return err
	}
	p := current

	if err := askOneFunc(&survey.Input{
		Message: "Zendesk URL:",
		Default: current.ZendeskURL,
		Help:    "It must be visible to the deskbridge server",
	}, &p.ZendeskURL, survey.WithValidator(validateHelpdeskURL)); err != nil {
		return err
	}

	if err := askOneFunc(&survey.Input{
		Message: "Username:",
		Default: current.Username,
	}, &p.Username, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	var password string
	if err := askOneFunc(&survey.Password{
		Message: "Password (leave empty to keep the current one):",
	}, &password); err != nil {
		return err
	}
	if password != "" {
		p.Password = password
	}

	if err := askOneFunc(&survey.Confirm{
		Message: "Automatically create problems for new issues?",
		Default: current.AutoCreateProblems,
	}, &p.AutoCreateProblems); err != nil {
		return err
	}

	if err := askOneFunc(&survey.Confirm{
		Message: "Automatically create incidents for repeated issues?",
		Default: current.AutoCreateIncidents,
	}, &p.AutoCreateIncidents); err != nil {
		return err
	}

	if err := askOneFunc(&survey.Confirm{
		Message: "Skip TLS certificate verification?",
		Default: current.InsecureSkipVerify,
	}, &p.InsecureSkipVerify); err != nil {
		return err
	}

	configFile := cfgFile
	if configFile == "" {
		configFile = viper.ConfigFileUsed()
	}
	if configFile == "" {
		configFile = "config.yaml"
	}

	if err := config.SaveProject(configFile, p); err != nil {
		return err
	}

	prefix := "projects." + p.ID + "."
	viper.Set(prefix+"zendesk_url", p.ZendeskURL)
	viper.Set(prefix+"username", p.Username)
	viper.Set(prefix+"password", p.Password)
	viper.Set(prefix+"auto_create_problems", p.AutoCreateProblems)
	viper.Set(prefix+"auto_create_incidents", p.AutoCreateIncidents)
	viper.Set(prefix+"insecure_skip_verify", p.InsecureSkipVerify)

	fmt.Fprintf(out, "Configuration for project %q saved to %s\n", p.ID, configFile)
	return nil
}
