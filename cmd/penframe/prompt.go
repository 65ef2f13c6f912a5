package main

import (
	"github.com/dookofcrds/PenFramework/internal/core"
	"github.com/dookofcrds/PenFramework/internal/modules"

	"github.com/AlecAivazis/survey/v2"
)

func promptTarget() (string, error) {
	var answer string
	prompt := &survey.Input{Message: "Enter the target domain or IP:"}
	err := survey.AskOne(prompt, &answer, survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		_, err := core.ParseTarget(s)
		return err
	}))
	return answer, err
}

func promptTools() ([]string, error) {
	var answer []string
	prompt := &survey.MultiSelect{
		Message: "Select tools to run:",
		Options: modules.Names(),
	}
	err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.MinItems(1)))
	return answer, err
}
