package tui

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/errors"
	"github.com/felixgeelhaar/vibecoder/internal/job"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(2)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1)
)

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString(labelStyle.Render(label+": ") + valueStyle.Render(value))
	b.WriteString("\n")
}

// RenderChangeSpec renders the backend's interpretation of the prompt for
// the user to approve.
func RenderChangeSpec(crs *api.ChangeRequestSpec) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Change Request"))
	b.WriteString("\n\n")

	writeField(&b, "Goal", crs.Goal)
	writeField(&b, "Summary", crs.Summary)
	writeField(&b, "Scope", crs.Scope)
	writeField(&b, "Priority", crs.Priority)
	writeField(&b, "Complexity", crs.EstimatedComplexity)
	writeField(&b, "Blast radius", crs.BlastRadius)
	if crs.ConfidenceScore > 0 {
		writeField(&b, "Confidence", fmt.Sprintf("%.0f%%", crs.ConfidenceScore*100))
	}

	if len(crs.Constraints) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Constraints"))
		b.WriteString("\n")
		for _, c := range crs.Constraints {
			fmt.Fprintf(&b, "  • %s\n", valueStyle.Render(c.Description))
		}
	}

	if len(crs.AcceptanceCriteria) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Acceptance Criteria"))
		b.WriteString("\n")
		for _, ac := range crs.AcceptanceCriteria {
			fmt.Fprintf(&b, "  • %s\n", valueStyle.Render(ac.Criterion))
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderPlan renders the implementation plan with its ordered steps.
func RenderPlan(plan *api.ImplementationPlan) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Implementation Plan"))
	b.WriteString("\n\n")

	writeField(&b, "Title", plan.Title)
	writeField(&b, "Summary", plan.Summary)
	writeField(&b, "Estimated time", plan.EstimatedTotalTime)
	writeField(&b, "Blast radius", plan.BlastRadius)

	if len(plan.Steps) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Steps"))
		b.WriteString("\n")
		for _, step := range plan.Steps {
			marker := " "
			if !step.Reversible {
				marker = warningStyle.Render("!")
			}
			fmt.Fprintf(&b, "  %d. %s %s", step.StepNumber, valueStyle.Render(step.Title), marker)
			if len(step.Dependencies) > 0 {
				deps := make([]string, len(step.Dependencies))
				for i, d := range step.Dependencies {
					deps[i] = fmt.Sprintf("%d", d)
				}
				b.WriteString(labelStyle.Render(fmt.Sprintf("(after %s)", strings.Join(deps, ", "))))
			}
			b.WriteString("\n")
		}
	}

	if len(plan.FilesToChange) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Files"))
		b.WriteString("\n")
		for _, f := range plan.FilesToChange {
			fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render(f.Intent), valueStyle.Render(f.Path))
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderOutcome renders the final result of a run.
func RenderOutcome(outcome job.Outcome) string {
	var b strings.Builder

	b.WriteString(successStyle.Render("✓ Change completed"))
	b.WriteString("\n\n")

	result := outcome.Result
	writeField(&b, "Branch", result.BranchName)
	writeField(&b, "Files changed", fmt.Sprintf("%d", result.FilesChanged))
	writeField(&b, "Commits", fmt.Sprintf("%d", result.CommitsCreated))
	if result.ExecutionTimeSeconds > 0 {
		writeField(&b, "Execution time", fmt.Sprintf("%.1fs", result.ExecutionTimeSeconds))
	}

	if outcome.PullRequest != nil {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Pull Request"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "  #%d  %s\n", outcome.PullRequest.Number, valueStyle.Render(outcome.PullRequest.HTMLURL))
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderError renders an error with its suggestions when it carries any.
func RenderError(err error) string {
	if err == nil {
		return ""
	}

	var verr *errors.VibecoderError
	if !stderrors.As(err, &verr) {
		return errorStyle.Render("✗ " + err.Error())
	}

	// Error() already folds suggestions into its text; render from the
	// structured fields so each suggestion is shown once.
	message := fmt.Sprintf("[%s] %s", verr.Code, verr.Message)
	if verr.Cause != nil {
		message += ": " + verr.Cause.Error()
	}

	var b strings.Builder
	b.WriteString(errorStyle.Render("✗ " + message))
	for _, s := range verr.Suggestions {
		b.WriteString("\n")
		b.WriteString(suggestionStyle.Render("→ " + s))
	}
	return b.String()
}

// RenderQuestions renders the clarifying questions before prompting.
func RenderQuestions(questions []api.ClarifyingQuestion) string {
	var b strings.Builder
	b.WriteString(warningStyle.Render("The request needs clarification"))
	b.WriteString("\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, valueStyle.Render(q.Question))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderUser renders the authenticated GitHub identity.
func RenderUser(user api.User) string {
	name := user.Login
	if user.Name != "" {
		name = fmt.Sprintf("%s (%s)", user.Login, user.Name)
	}
	return successStyle.Render("✓ Authenticated as ") + valueStyle.Render(name)
}
