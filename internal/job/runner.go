package job

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/errors"
	"github.com/felixgeelhaar/vibecoder/internal/log"
	"github.com/felixgeelhaar/vibecoder/internal/target"
)

// Outcome is the final state of an executed job. PullRequest is set only
// when the target was an existing repository and delivery succeeded.
type Outcome struct {
	JobID       string
	Result      api.JobResult
	PullRequest *api.PullRequest
}

// Request carries everything needed to run an accepted plan.
type Request struct {
	Target      target.JobTarget
	Plan        api.ImplementationPlan
	Prompt      string
	GithubToken string
}

// Runner submits a job, polls it to completion, and reconciles the outcome
// into a pull request for existing repositories.
type Runner struct {
	client *api.Client
	poller *Poller
	logger *log.Logger
}

// NewRunner creates a runner sharing the poller's client and logger.
func NewRunner(client *api.Client, poller *Poller) *Runner {
	return &Runner{client: client, poller: poller, logger: poller.logger}
}

// Run executes the full job lifecycle. A job that reports failure returns a
// job-failure error; a job that succeeds but whose pull request cannot be
// created returns the outcome alongside a delivery-failure error, since the
// pushed branch still exists and the caller should say so.
func (r *Runner) Run(ctx context.Context, req Request, onProgress ProgressFunc) (Outcome, error) {
	jobReq := req.Target.JobRequest()
	jobReq.GithubToken = req.GithubToken
	jobReq.ImplementationPlan = &req.Plan
	jobReq.Prompt = req.Prompt

	created, err := r.client.CreateJob(ctx, jobReq)
	if err != nil {
		return Outcome{}, err
	}
	r.logger.Info("job created", "job_id", created.JobID)

	progress, err := r.poller.Poll(ctx, created.JobID, onProgress)
	if err != nil {
		return Outcome{JobID: created.JobID}, err
	}

	result, err := r.client.GetJobResult(ctx, created.JobID)
	if err != nil {
		return Outcome{JobID: created.JobID}, err
	}
	outcome := Outcome{JobID: created.JobID, Result: *result}

	if progress.Status == api.JobStatusFailed || !result.Success {
		message := result.ErrorMessage
		if message == "" {
			message = progress.Message
		}
		return outcome, errors.NewJobFailureError(message)
	}

	pr, err := r.deliver(ctx, req, *result)
	if err != nil {
		return outcome, err
	}
	outcome.PullRequest = pr
	return outcome, nil
}

// deliver opens the pull request for an existing-repository target. New
// repositories get their changes pushed to the default branch directly, so
// there is nothing to merge.
func (r *Runner) deliver(ctx context.Context, req Request, result api.JobResult) (*api.PullRequest, error) {
	if req.Target.Kind != target.KindExistingRepo {
		return nil, nil
	}

	owner, name, err := target.ParseRepoURL(req.Target.Existing.RepoURL)
	if err != nil {
		return nil, errors.NewDeliveryFailureError(err)
	}

	head := result.BranchName
	if head == "" {
		head = req.Target.Existing.NewBranchName
	}

	pr, err := r.client.CreatePullRequest(ctx, api.CreatePRRequest{
		RepoOwner:   owner,
		RepoName:    name,
		Title:       pullRequestTitle(req.Plan),
		Body:        pullRequestBody(req.Prompt, req.Plan, result),
		HeadBranch:  head,
		BaseBranch:  req.Target.BaseBranch(),
		GithubToken: req.GithubToken,
	})
	if err != nil {
		return nil, errors.NewDeliveryFailureError(err)
	}

	r.logger.Info("pull request created", "url", pr.HTMLURL, "number", pr.Number)
	return pr, nil
}

func pullRequestTitle(plan api.ImplementationPlan) string {
	if plan.Title != "" {
		return plan.Title
	}
	return "Automated code changes"
}

func pullRequestBody(prompt string, plan api.ImplementationPlan, result api.JobResult) string {
	var b strings.Builder

	b.WriteString("## Summary\n\n")
	if plan.Summary != "" {
		b.WriteString(plan.Summary)
		b.WriteString("\n\n")
	}
	if prompt != "" {
		fmt.Fprintf(&b, "**Request:** %s\n\n", prompt)
	}

	b.WriteString("## Changes\n\n")
	fmt.Fprintf(&b, "- Files changed: %d\n", result.FilesChanged)
	fmt.Fprintf(&b, "- Commits: %d\n", result.CommitsCreated)
	fmt.Fprintf(&b, "- Edits applied: %d\n", result.TotalEdits)
	if result.ExecutionTimeSeconds > 0 {
		fmt.Fprintf(&b, "- Execution time: %.1fs\n", result.ExecutionTimeSeconds)
	}

	b.WriteString("\n---\n*Created with vibecoder*\n")
	return b.String()
}
