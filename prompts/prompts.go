package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// Render loads the system and user prompt templates for a step and renders
// the user template with the step's inputs. Templates live at
// templates/<step>_system.md and templates/<step>_user.md.
func Render(stepName string, inputs map[string]string) (systemPrompt, userPrompt string, err error) {
	systemPrompt, err = loadPrompt(fmt.Sprintf("templates/%s_system.md", stepName), map[string]string{})
	if err != nil {
		return "", "", err
	}

	userPrompt, err = loadPrompt(fmt.Sprintf("templates/%s_user.md", stepName), inputs)
	if err != nil {
		return "", "", err
	}

	return systemPrompt, userPrompt, nil
}

func loadPrompt(templatePath string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(templatesFS, templatePath)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
