// Package target resolves the user's repository selection into the job
// payload describing where code changes should land.
package target

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/errors"
)

// Mode selects between working in an existing repository and creating a new one
type Mode int

const (
	// ModeExisting pushes a branch to a selected repository
	ModeExisting Mode = iota
	// ModeNew creates a repository and lands changes on its default branch
	ModeNew
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeExisting:
		return "existing"
	case ModeNew:
		return "new"
	default:
		return "unknown"
	}
}

// Kind tags the active variant of a JobTarget
type Kind int

const (
	// KindExistingRepo targets a branch in an existing repository
	KindExistingRepo Kind = iota
	// KindNewRepo targets a freshly created repository
	KindNewRepo
)

// ExistingSelection is the user's choice of an existing repository
type ExistingSelection struct {
	RepoURL       string
	DefaultBranch string
}

// NewRepoConfig is the user's configuration for a repository to create
type NewRepoConfig struct {
	Name              string
	Description       string
	Private           bool
	GitignoreTemplate string
	LicenseTemplate   string
}

// ExistingRepo is the resolved existing-repository variant
type ExistingRepo struct {
	RepoURL         string
	Branch          string
	CreateNewBranch bool
	NewBranchName   string
}

// NewRepo is the resolved new-repository variant. Changes land on the
// default branch; no branch is created.
type NewRepo struct {
	Name              string
	Description       string
	Private           bool
	GitignoreTemplate string
	LicenseTemplate   string
	PushChanges       bool
}

// JobTarget is a tagged union: exactly one variant is active per workflow
// run. Switching modes resolves a fresh target, so the other variant's state
// never leaks into the payload.
type JobTarget struct {
	Kind     Kind
	Existing *ExistingRepo
	New      *NewRepo
}

// BaseBranch returns the branch a pull request should target
func (t JobTarget) BaseBranch() string {
	if t.Kind == KindExistingRepo && t.Existing != nil && t.Existing.Branch != "" {
		return t.Existing.Branch
	}
	return "main"
}

// Repository names: start alphanumeric, then alphanumerics/dot/hyphen/
// underscore, at most 100 characters total.
const maxRepoNameLength = 100

var repoNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Resolver produces job targets. The clock is injectable so branch-name
// generation is deterministic in tests.
type Resolver struct {
	now func() time.Time
}

// NewResolver creates a resolver using the wall clock
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// NewResolverWithClock creates a resolver with a fixed clock for tests
func NewResolverWithClock(now func() time.Time) *Resolver {
	return &Resolver{now: now}
}

// Resolve normalizes the user's selection into a JobTarget, validating it
// before any network call is made.
func (r *Resolver) Resolve(mode Mode, existing ExistingSelection, newRepo NewRepoConfig) (JobTarget, error) {
	switch mode {
	case ModeExisting:
		return r.resolveExisting(existing)
	case ModeNew:
		return r.resolveNew(newRepo)
	default:
		return JobTarget{}, errors.New(errors.KindValidation, errors.ErrCodeTransitionDenied, fmt.Sprintf("unknown target mode %d", mode))
	}
}

func (r *Resolver) resolveExisting(selection ExistingSelection) (JobTarget, error) {
	if strings.TrimSpace(selection.RepoURL) == "" {
		return JobTarget{}, errors.New(errors.KindValidation, errors.ErrCodeRepoNotSelected, "select a repository to work in").
			WithSuggestion("Pass the repository URL, e.g. https://github.com/acme/api")
	}

	branch := selection.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	return JobTarget{
		Kind: KindExistingRepo,
		Existing: &ExistingRepo{
			RepoURL:         selection.RepoURL,
			Branch:          branch,
			CreateNewBranch: true,
			NewBranchName:   r.GenerateBranchName(),
		},
	}, nil
}

func (r *Resolver) resolveNew(config NewRepoConfig) (JobTarget, error) {
	name := strings.TrimSpace(config.Name)
	if name == "" {
		return JobTarget{}, errors.New(errors.KindValidation, errors.ErrCodeRepoNameEmpty, "repository name must not be empty")
	}
	if len(name) > maxRepoNameLength {
		return JobTarget{}, errors.New(errors.KindValidation, errors.ErrCodeRepoNameTooLong,
			fmt.Sprintf("repository name is %d characters; the limit is %d", len(name), maxRepoNameLength))
	}
	if !repoNamePattern.MatchString(name) {
		return JobTarget{}, errors.New(errors.KindValidation, errors.ErrCodeRepoNameInvalid,
			fmt.Sprintf("repository name %q must start with a letter or digit and contain only letters, digits, dots, hyphens, and underscores", name))
	}

	return JobTarget{
		Kind: KindNewRepo,
		New: &NewRepo{
			Name:              name,
			Description:       config.Description,
			Private:           config.Private,
			GitignoreTemplate: config.GitignoreTemplate,
			LicenseTemplate:   config.LicenseTemplate,
			PushChanges:       true,
		},
	}, nil
}

// GenerateBranchName derives a branch name unique per submission from the
// current time.
func (r *Resolver) GenerateBranchName() string {
	return fmt.Sprintf("vibecoder-%d", r.now().Unix())
}

// JobRequest converts the target into the job payload fields, leaving plan
// and token for the caller to fill in.
func (t JobTarget) JobRequest() api.JobRequest {
	switch t.Kind {
	case KindExistingRepo:
		return api.JobRequest{
			RepoURL:         t.Existing.RepoURL,
			Branch:          t.Existing.Branch,
			CreateNewBranch: t.Existing.CreateNewBranch,
			NewBranchName:   t.Existing.NewBranchName,
			PushChanges:     true,
		}
	case KindNewRepo:
		return api.JobRequest{
			PushChanges: t.New.PushChanges,
			NewRepo: &api.NewRepoConfig{
				Name:              t.New.Name,
				Description:       t.New.Description,
				Private:           t.New.Private,
				GitignoreTemplate: t.New.GitignoreTemplate,
				LicenseTemplate:   t.New.LicenseTemplate,
			},
		}
	default:
		return api.JobRequest{}
	}
}

// ParseRepoURL extracts owner and repository name from the URL forms GitHub
// uses: https://github.com/owner/repo, with optional .git suffix, and
// git@github.com:owner/repo.git.
func ParseRepoURL(repoURL string) (owner, name string, err error) {
	trimmed := strings.TrimSpace(repoURL)
	if trimmed == "" {
		return "", "", errors.New(errors.KindValidation, errors.ErrCodeRepoURLInvalid, "repository URL is empty")
	}

	path := trimmed
	switch {
	case strings.HasPrefix(trimmed, "git@"):
		_, after, found := strings.Cut(trimmed, ":")
		if !found {
			return "", "", invalidRepoURL(repoURL)
		}
		path = after
	case strings.Contains(trimmed, "://"):
		_, after, _ := strings.Cut(trimmed, "://")
		segments := strings.SplitN(after, "/", 2)
		if len(segments) != 2 {
			return "", "", invalidRepoURL(repoURL)
		}
		path = segments[1]
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	// Bare host-prefixed form: github.com/owner/repo.
	if len(parts) >= 3 && strings.Contains(parts[0], ".") {
		parts = parts[1:]
	}
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", invalidRepoURL(repoURL)
	}

	return parts[0], parts[1], nil
}

func invalidRepoURL(repoURL string) error {
	return errors.New(errors.KindValidation, errors.ErrCodeRepoURLInvalid,
		fmt.Sprintf("cannot parse owner and repository from %q", repoURL)).
		WithSuggestion("Use a URL like https://github.com/owner/repo")
}
