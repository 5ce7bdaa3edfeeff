package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vibecoder/internal/errors"
	"github.com/felixgeelhaar/vibecoder/internal/job"
	"github.com/felixgeelhaar/vibecoder/internal/progress"
	"github.com/felixgeelhaar/vibecoder/internal/target"
	"github.com/felixgeelhaar/vibecoder/internal/tui"
	"github.com/felixgeelhaar/vibecoder/internal/workflow"
)

var (
	runRepoURL     string
	runBaseBranch  string
	runNewRepoName string
	runNewRepoDesc string
	runPrivate     bool
	runYes         bool
)

var runCmd = &cobra.Command{
	Use:   "run [change request]",
	Short: "Describe a change and see it through to a pull request",
	Long: `Run the full change workflow: describe the change in plain language,
review the interpreted request, review the implementation plan, then let the
backend execute it. For existing repositories the finished change arrives as
a pull request; new repositories get the change on their default branch.

Examples:
  vibecoder run "add a health check endpoint" --repo https://github.com/acme/api
  vibecoder run "scaffold a REST service" --new-repo health-service --private
  vibecoder run --repo https://github.com/acme/api --yes "fix the flaky retry test"`,
	RunE: runWorkflow,
}

func init() {
	runCmd.Flags().StringVar(&runRepoURL, "repo", "", "existing repository URL to change")
	runCmd.Flags().StringVar(&runBaseBranch, "base-branch", "", "base branch for the pull request (default main)")
	runCmd.Flags().StringVar(&runNewRepoName, "new-repo", "", "create a new repository with this name instead")
	runCmd.Flags().StringVar(&runNewRepoDesc, "description", "", "description for the new repository")
	runCmd.Flags().BoolVar(&runPrivate, "private", false, "make the new repository private")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "skip confirmation prompts")

	rootCmd.AddCommand(runCmd)
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	interactive := tui.ShouldPrompt() && !runYes

	creds, err := credentialManager()
	if err != nil {
		return err
	}
	stored, ok, err := creds.Get()
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewTokenMissingError()
	}

	if runRepoURL != "" && runNewRepoName != "" {
		return errors.New(errors.KindValidation, errors.ErrCodeRepoNotSelected,
			"--repo and --new-repo are mutually exclusive")
	}

	jobTarget, err := resolveTarget(interactive)
	if err != nil {
		return err
	}

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		if !interactive {
			return errors.NewPromptEmptyError()
		}
		prompt, err = tui.PromptForChangeRequest()
		if err != nil {
			return err
		}
	}

	repoURL := ""
	if jobTarget.Kind == target.KindExistingRepo {
		repoURL = jobTarget.Existing.RepoURL
	}

	client := newAPIClient()
	machine := workflow.NewMachine(client)

	state, err := machine.SubmitPrompt(ctx, prompt, repoURL)
	if err != nil {
		return err
	}

	if state == workflow.StateClarify {
		questions := machine.Questions()
		if !interactive {
			return errors.New(errors.KindValidation, errors.ErrCodeAnswerRequired,
				fmt.Sprintf("the request needs clarification (%d questions); rerun interactively", len(questions)))
		}
		fmt.Fprintln(out, tui.RenderQuestions(questions))
		fmt.Fprintln(out)

		answers, err := tui.PromptForAnswers(questions)
		if err != nil {
			return err
		}
		if _, err := machine.SubmitAnswers(ctx, answers); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, tui.RenderChangeSpec(machine.CRS()))
	fmt.Fprintln(out)
	if interactive {
		accepted, err := tui.ConfirmProceed("Does this capture the change?", true)
		if err != nil {
			return err
		}
		if !accepted {
			machine.Reset()
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if _, err := machine.AcceptCRS(ctx); err != nil {
		return err
	}

	fmt.Fprintln(out, tui.RenderPlan(machine.Plan()))
	fmt.Fprintln(out)
	if interactive {
		approved, err := tui.ConfirmProceed("Execute this plan?", true)
		if err != nil {
			return err
		}
		if !approved {
			machine.DeclinePlan()
			fmt.Fprintln(out, "Plan declined.")
			return nil
		}
	}

	if _, err := machine.AcceptPlan(jobTarget); err != nil {
		return err
	}
	defer machine.FinishExecution()

	poller := job.NewPoller(client,
		job.WithInterval(cfg.PollInterval()),
		job.WithMaxAttempts(cfg.PollMaxAttempts))
	runner := job.NewRunner(client, poller)

	tracker := progress.NewTracker(out, tui.IsInteractive())
	tracker.Start()
	outcome, err := runner.Run(ctx, job.Request{
		Target:      jobTarget,
		Plan:        *machine.Plan(),
		Prompt:      prompt,
		GithubToken: stored.AccessToken,
	}, tracker.Update)
	tracker.Finish(err)

	if err != nil {
		if errors.IsDeliveryFailure(err) {
			// The change itself landed; say so before reporting the PR error.
			fmt.Fprintln(out, tui.RenderOutcome(outcome))
			fmt.Fprintln(out)
		}
		return err
	}

	fmt.Fprintln(out, tui.RenderOutcome(outcome))
	return nil
}

// resolveTarget builds the job target from flags, falling back to prompts
// when nothing was specified and a terminal is attached.
func resolveTarget(interactive bool) (target.JobTarget, error) {
	resolver := target.NewResolver()

	switch {
	case runRepoURL != "":
		return resolver.Resolve(target.ModeExisting, target.ExistingSelection{
			RepoURL:       runRepoURL,
			DefaultBranch: runBaseBranch,
		}, target.NewRepoConfig{})

	case runNewRepoName != "":
		return resolver.Resolve(target.ModeNew, target.ExistingSelection{}, target.NewRepoConfig{
			Name:        runNewRepoName,
			Description: runNewRepoDesc,
			Private:     runPrivate,
		})
	}

	if !interactive {
		return target.JobTarget{}, errors.New(errors.KindValidation, errors.ErrCodeRepoNotSelected,
			"select a repository with --repo or --new-repo").
			WithSuggestion("Pass --repo https://github.com/owner/repo for an existing repository").
			WithSuggestion("Pass --new-repo <name> to create one")
	}

	mode, err := tui.PromptForTargetMode()
	if err != nil {
		return target.JobTarget{}, err
	}
	if mode == target.ModeExisting {
		selection, err := tui.PromptForExistingRepo("")
		if err != nil {
			return target.JobTarget{}, err
		}
		return resolver.Resolve(target.ModeExisting, selection, target.NewRepoConfig{})
	}
	repoConfig, err := tui.PromptForNewRepo()
	if err != nil {
		return target.JobTarget{}, err
	}
	return resolver.Resolve(target.ModeNew, target.ExistingSelection{}, repoConfig)
}
