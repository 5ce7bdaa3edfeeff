package tui

import (
	"testing"

	"github.com/felixgeelhaar/vibecoder/internal/api"
)

func TestIsInteractive(t *testing.T) {
	// The result depends on how tests are run; just ensure no panic.
	_ = IsInteractive()
}

func TestShouldPromptDisabledInCI(t *testing.T) {
	tests := []struct {
		name string
		env  string
	}{
		{"generic CI", "CI"},
		{"GitHub Actions", "GITHUB_ACTIONS"},
		{"GitLab CI", "GITLAB_CI"},
		{"Jenkins", "JENKINS_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, "true")
			if ShouldPrompt() {
				t.Errorf("ShouldPrompt() = true with %s set", tt.env)
			}
		})
	}
}

func TestPromptForAnswersRequiresQuestions(t *testing.T) {
	if _, err := PromptForAnswers(nil); err == nil {
		t.Error("expected error when no questions provided, got nil")
	}
	if _, err := PromptForAnswers([]api.ClarifyingQuestion{}); err == nil {
		t.Error("expected error for empty question list, got nil")
	}
}

// Note: the huh-based prompts (PromptForChangeRequest, ConfirmProceed, the
// repository forms) need a terminal and are exercised manually.
