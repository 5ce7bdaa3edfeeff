package job

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/errors"
	"github.com/felixgeelhaar/vibecoder/internal/target"
)

// jobBackend fakes the job lifecycle endpoints: create, progress, result,
// and pull request creation.
type jobBackend struct {
	result   api.JobResult
	prStatus int

	createdJob atomic.Pointer[api.JobRequest]
	prRequest  atomic.Pointer[api.CreatePRRequest]
	prCalls    atomic.Int32
}

func (b *jobBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/jobs/create", func(w http.ResponseWriter, r *http.Request) {
		var req api.JobRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.createdJob.Store(&req)
		json.NewEncoder(w).Encode(api.JobCreateResponse{JobID: "job-42"})
	})
	mux.HandleFunc("/api/jobs/job-42/progress", func(w http.ResponseWriter, r *http.Request) {
		status := api.JobStatusCompleted
		if !b.result.Success {
			status = api.JobStatusFailed
		}
		json.NewEncoder(w).Encode(api.JobProgress{Status: status, ProgressPercentage: 100, Message: b.result.ErrorMessage})
	})
	mux.HandleFunc("/api/jobs/job-42/result", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(b.result)
	})
	mux.HandleFunc("/api/github/create-pr", func(w http.ResponseWriter, r *http.Request) {
		b.prCalls.Add(1)
		var req api.CreatePRRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.prRequest.Store(&req)
		if b.prStatus != 0 {
			w.WriteHeader(b.prStatus)
			json.NewEncoder(w).Encode(map[string]string{"detail": "PR creation failed"})
			return
		}
		json.NewEncoder(w).Encode(api.PullRequest{HTMLURL: "https://github.com/acme/api/pull/7", Number: 7})
	})
	return mux
}

func newRunner(t *testing.T, backend *jobBackend) *Runner {
	t.Helper()
	server := newTestServer(t, backend.handler())
	client := api.NewClient(server.URL)
	poller := NewPoller(client, WithInterval(time.Millisecond), WithMaxAttempts(10))
	return NewRunner(client, poller)
}

func existingTarget(t *testing.T) target.JobTarget {
	t.Helper()
	resolver := target.NewResolverWithClock(func() time.Time {
		return time.Unix(1712340000, 0)
	})
	jt, err := resolver.Resolve(target.ModeExisting, target.ExistingSelection{
		RepoURL: "https://github.com/acme/api",
	}, target.NewRepoConfig{})
	require.NoError(t, err)
	return jt
}

func newRepoTarget(t *testing.T) target.JobTarget {
	t.Helper()
	jt, err := target.NewResolver().Resolve(target.ModeNew, target.ExistingSelection{}, target.NewRepoConfig{
		Name:    "health-service",
		Private: true,
	})
	require.NoError(t, err)
	return jt
}

func successfulResult() api.JobResult {
	return api.JobResult{
		JobID:                "job-42",
		Status:               api.JobStatusCompleted,
		Success:              true,
		BranchName:           "vibecoder-1712340000",
		FilesChanged:         3,
		CommitsCreated:       2,
		TotalEdits:           11,
		ExecutionTimeSeconds: 42.5,
	}
}

func TestRunExistingRepoCreatesPullRequest(t *testing.T) {
	backend := &jobBackend{result: successfulResult()}
	runner := newRunner(t, backend)

	outcome, err := runner.Run(context.Background(), Request{
		Target:      existingTarget(t),
		Plan:        api.ImplementationPlan{Title: "Add health check", Summary: "One handler"},
		Prompt:      "add a health check endpoint",
		GithubToken: "gho_secret",
	}, nil)
	require.NoError(t, err)

	require.NotNil(t, outcome.PullRequest)
	assert.Equal(t, 7, outcome.PullRequest.Number)
	assert.Equal(t, int32(1), backend.prCalls.Load(), "exactly one pull request per run")

	created := backend.createdJob.Load()
	require.NotNil(t, created)
	assert.Equal(t, "https://github.com/acme/api", created.RepoURL)
	assert.Equal(t, "gho_secret", created.GithubToken)
	assert.True(t, created.PushChanges)
	require.NotNil(t, created.ImplementationPlan)
	assert.Equal(t, "Add health check", created.ImplementationPlan.Title)

	pr := backend.prRequest.Load()
	require.NotNil(t, pr)
	assert.Equal(t, "acme", pr.RepoOwner)
	assert.Equal(t, "api", pr.RepoName)
	assert.Equal(t, "vibecoder-1712340000", pr.HeadBranch)
	assert.Equal(t, "main", pr.BaseBranch)
	assert.Equal(t, "Add health check", pr.Title)
	assert.Contains(t, pr.Body, "add a health check endpoint")
	assert.Contains(t, pr.Body, "Files changed: 3")
}

func TestRunNewRepoSkipsPullRequest(t *testing.T) {
	backend := &jobBackend{result: successfulResult()}
	runner := newRunner(t, backend)

	outcome, err := runner.Run(context.Background(), Request{
		Target:      newRepoTarget(t),
		Plan:        api.ImplementationPlan{Title: "Scaffold service"},
		GithubToken: "gho_secret",
	}, nil)
	require.NoError(t, err)

	assert.Nil(t, outcome.PullRequest)
	assert.Equal(t, int32(0), backend.prCalls.Load(), "new repositories push to the default branch directly")

	created := backend.createdJob.Load()
	require.NotNil(t, created)
	require.NotNil(t, created.NewRepo)
	assert.Equal(t, "health-service", created.NewRepo.Name)
	assert.True(t, created.NewRepo.Private)
	assert.Empty(t, created.RepoURL)
}

func TestRunReportsJobFailure(t *testing.T) {
	backend := &jobBackend{result: api.JobResult{
		JobID:        "job-42",
		Status:       api.JobStatusFailed,
		Success:      false,
		ErrorMessage: "tests failed after applying edits",
	}}
	runner := newRunner(t, backend)

	outcome, err := runner.Run(context.Background(), Request{
		Target:      existingTarget(t),
		Plan:        api.ImplementationPlan{Title: "Add health check"},
		GithubToken: "gho_secret",
	}, nil)
	require.Error(t, err)

	assert.True(t, errors.IsJobFailure(err))
	assert.Contains(t, err.Error(), "tests failed after applying edits")
	assert.Equal(t, int32(0), backend.prCalls.Load(), "failed jobs never open pull requests")
	assert.Equal(t, "job-42", outcome.JobID)
}

func TestRunPRFailureIsDeliveryFailure(t *testing.T) {
	backend := &jobBackend{result: successfulResult(), prStatus: http.StatusBadGateway}
	runner := newRunner(t, backend)

	outcome, err := runner.Run(context.Background(), Request{
		Target:      existingTarget(t),
		Plan:        api.ImplementationPlan{Title: "Add health check"},
		GithubToken: "gho_secret",
	}, nil)
	require.Error(t, err)

	assert.True(t, errors.IsDeliveryFailure(err), "job success with PR failure is a delivery failure")
	assert.False(t, errors.IsJobFailure(err))
	assert.True(t, outcome.Result.Success, "outcome still carries the successful job result")
	assert.Nil(t, outcome.PullRequest)
}

func TestRunHeadBranchFallsBackToRequestedBranch(t *testing.T) {
	result := successfulResult()
	result.BranchName = ""
	backend := &jobBackend{result: result}
	runner := newRunner(t, backend)

	_, err := runner.Run(context.Background(), Request{
		Target:      existingTarget(t),
		Plan:        api.ImplementationPlan{Title: "Add health check"},
		GithubToken: "gho_secret",
	}, nil)
	require.NoError(t, err)

	pr := backend.prRequest.Load()
	require.NotNil(t, pr)
	assert.Equal(t, "vibecoder-1712340000", pr.HeadBranch,
		"missing branch in the result falls back to the branch the job was asked to create")
}

func TestPullRequestBodyOmitsEmptySections(t *testing.T) {
	body := pullRequestBody("", api.ImplementationPlan{}, api.JobResult{FilesChanged: 1})
	assert.NotContains(t, body, "Request:")
	assert.Contains(t, body, "Files changed: 1")
	assert.True(t, strings.HasPrefix(body, "## Summary"))
}
