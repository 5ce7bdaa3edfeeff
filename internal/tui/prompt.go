// Package tui provides the interactive prompts and rendered views for the
// vibecoder workflow.
package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/target"
)

// IsInteractive reports whether stdout is attached to a terminal.
func IsInteractive() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt reports whether interactive prompts make sense in this
// environment. CI systems never get prompts.
func ShouldPrompt() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return false
		}
	}
	return IsInteractive()
}

// PromptForChangeRequest asks for the free-text description of the change.
func PromptForChangeRequest() (string, error) {
	var prompt string

	form := huh.NewForm(huh.NewGroup(
		huh.NewText().
			Title("Describe the change you want").
			Description("Plain language works best, e.g. \"add a health check endpoint\"").
			Value(&prompt).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("a description is required")
				}
				return nil
			}),
	))

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return strings.TrimSpace(prompt), nil
}

// PromptForAnswers collects an answer for every clarifying question. Each
// field requires a non-empty answer, matching the submit-side gate.
func PromptForAnswers(questions []api.ClarifyingQuestion) ([]api.ClarificationAnswer, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions to answer")
	}

	values := make([]string, len(questions))
	fields := make([]huh.Field, len(questions))
	for i, q := range questions {
		fields[i] = huh.NewInput().
			Title(q.Question).
			Description(q.Context).
			Value(&values[i]).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("an answer is required")
				}
				return nil
			})
	}

	form := huh.NewForm(huh.NewGroup(fields...))
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}

	answers := make([]api.ClarificationAnswer, len(questions))
	for i, q := range questions {
		answers[i] = api.ClarificationAnswer{
			Question: q.Question,
			Answer:   strings.TrimSpace(values[i]),
		}
	}
	return answers, nil
}

// ConfirmProceed displays a yes/no confirmation prompt.
func ConfirmProceed(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(message).Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

// PromptForTargetMode asks where the change should land.
func PromptForTargetMode() (target.Mode, error) {
	var mode target.Mode

	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[target.Mode]().
			Title("Where should the change go?").
			Options(
				huh.NewOption("An existing repository", target.ModeExisting),
				huh.NewOption("A new repository", target.ModeNew),
			).
			Value(&mode),
	))
	if err := form.Run(); err != nil {
		return 0, fmt.Errorf("prompt failed: %w", err)
	}
	return mode, nil
}

// PromptForExistingRepo collects the existing-repository selection.
func PromptForExistingRepo(defaultURL string) (target.ExistingSelection, error) {
	selection := target.ExistingSelection{RepoURL: defaultURL}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Repository URL").
			Placeholder("https://github.com/owner/repo").
			Value(&selection.RepoURL).
			Validate(func(s string) error {
				if _, _, err := target.ParseRepoURL(s); err != nil {
					return fmt.Errorf("enter a URL like https://github.com/owner/repo")
				}
				return nil
			}),
		huh.NewInput().
			Title("Base branch").
			Description("Leave empty for main").
			Value(&selection.DefaultBranch),
	))
	if err := form.Run(); err != nil {
		return target.ExistingSelection{}, fmt.Errorf("prompt failed: %w", err)
	}
	return selection, nil
}

// PromptForNewRepo collects the configuration for a repository to create.
func PromptForNewRepo() (target.NewRepoConfig, error) {
	var config target.NewRepoConfig

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Repository name").
			Value(&config.Name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("a name is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Description").
			Value(&config.Description),
		huh.NewConfirm().
			Title("Private repository?").
			Value(&config.Private),
	))
	if err := form.Run(); err != nil {
		return target.NewRepoConfig{}, fmt.Errorf("prompt failed: %w", err)
	}
	return config, nil
}
