package credentials

import (
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"golang.org/x/term"
)

// SurveyPrompter asks on the terminal. It refuses to prompt when stdin is
// not a terminal.
type SurveyPrompter struct{}

// NewSurveyPrompter creates a terminal prompter.
func NewSurveyPrompter() *SurveyPrompter {
	return &SurveyPrompter{}
}

func (p *SurveyPrompter) Prompt() (Credentials, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return Credentials{}, ErrUnavailable
	}

	var creds Credentials
	if err := survey.AskOne(&survey.Input{
		Message: "Spotify client ID:",
		Help:    "Create an app at https://developer.spotify.com/dashboard to get a client ID and secret.",
	}, &creds.ClientID, survey.WithValidator(survey.Required)); err != nil {
		return Credentials{}, err
	}

	if err := survey.AskOne(&survey.Password{
		Message: "Spotify client secret:",
	}, &creds.ClientSecret, survey.WithValidator(survey.Required)); err != nil {
		return Credentials{}, err
	}

	creds.ClientID = strings.TrimSpace(creds.ClientID)
	creds.ClientSecret = strings.TrimSpace(creds.ClientSecret)
	return creds, nil
}
