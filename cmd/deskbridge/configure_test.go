package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func mockAskOneWith(answers map[string]interface{}) func(survey.Prompt, interface{}, ...survey.AskOpt) error {
	return func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
		var question string
		switch prompt := p.(type) {
		case *survey.Input:
			question = prompt.Message
		case *survey.Password:
			question = prompt.Message
		case *survey.Confirm:
			question = prompt.Message
		default:
			return fmt.Errorf("unknown prompt type")
		}

		val, ok := answers[question]
		if !ok {
			return fmt.Errorf("unexpected question: %s", question)
		}

		switch r := response.(type) {
		case *string:
			*r = val.(string)
		case *bool:
			*r = val.(bool)
		default:
			return fmt.Errorf("unsupported response type")
		}
		return nil
	}
}

func TestConfigureCmd(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	originalAskOne := askOneFunc
	originalCfgFile := cfgFile
	t.Cleanup(func() {
		askOneFunc = originalAskOne
		cfgFile = originalCfgFile
	})

	cfgFile = filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("listen_addr: \":9090\"\n"), 0600))

	askOneFunc = mockAskOneWith(map[string]interface{}{
		"Project id:":  "web",
		"Zendesk URL:": "https://acme.zendesk.com",
		"Username:":    "bob",
		"Password (leave empty to keep the current one):":     "bob123",
		"Automatically create problems for new issues?":       true,
		"Automatically create incidents for repeated issues?": false,
		"Skip TLS certificate verification?":                  false,
	})

	out, err := runCmd(t, runConfigure, nil)
	require.NoError(t, err)
	assert.Contains(t, out, `Configuration for project "web" saved to `+cfgFile)

	data, err := os.ReadFile(cfgFile)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &doc))

	assert.Equal(t, ":9090", doc["listen_addr"])
	web := doc["projects"].(map[string]interface{})["web"].(map[string]interface{})
	assert.Equal(t, "https://acme.zendesk.com", web["zendesk_url"])
	assert.Equal(t, "bob123", web["password"])
	assert.Equal(t, true, web["auto_create_problems"])

	assert.Equal(t, "bob", viper.GetString("projects.web.username"))
}

func TestValidateHelpdeskURL(t *testing.T) {
	assert.NoError(t, validateHelpdeskURL("https://acme.zendesk.com"))
	assert.Error(t, validateHelpdeskURL("acme.zendesk.com"))
	assert.Error(t, validateHelpdeskURL("ftp://acme"))
}
