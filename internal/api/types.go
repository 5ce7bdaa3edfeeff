package api

// Priority levels used across CRS fields
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Constraint is a limitation the change must respect
type Constraint struct {
	ConstraintType string `json:"constraint_type"`
	Description    string `json:"description"`
	Severity       string `json:"severity"`
}

// AcceptanceCriterion is a condition that must hold for the change to be complete
type AcceptanceCriterion struct {
	Criterion string `json:"criterion"`
	Testable  bool   `json:"testable"`
	Priority  string `json:"priority"`
}

// ComponentHint points at a component likely affected by the change
type ComponentHint struct {
	Component  string  `json:"component"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// ClarifyingQuestion asks the user for missing critical information
type ClarifyingQuestion struct {
	Question string `json:"question"`
	Context  string `json:"context"`
	Critical bool   `json:"critical"`
}

// ChangeRequestSpec is the backend's structured interpretation of a free-text
// prompt. It is immutable once received; resubmitting clarification replaces
// it wholesale.
type ChangeRequestSpec struct {
	Goal                  string                `json:"goal"`
	Summary               string                `json:"summary"`
	Constraints           []Constraint          `json:"constraints"`
	AcceptanceCriteria    []AcceptanceCriterion `json:"acceptance_criteria"`
	Priority              string                `json:"priority"`
	Scope                 string                `json:"scope"`
	ComponentHints        []ComponentHint       `json:"component_hints"`
	ClarifyingQuestions   []ClarifyingQuestion  `json:"clarifying_questions"`
	EstimatedComplexity   string                `json:"estimated_complexity"`
	BlastRadius           string                `json:"blast_radius"`
	ConfidenceScore       float64               `json:"confidence_score"`
	RequiresClarification bool                  `json:"requires_clarification"`
}

// ClarificationAnswer pairs a clarifying question with the user's answer
type ClarificationAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CRSRequest is the request body for POST /api/crs
type CRSRequest struct {
	Prompt       string                `json:"prompt"`
	RepoURL      string                `json:"repo_url,omitempty"`
	Answers      []ClarificationAnswer `json:"answers,omitempty"`
	MaxQuestions *int                  `json:"max_questions,omitempty"`
}

// CRSResponse carries the generated CRS plus generation metadata
type CRSResponse struct {
	CRS              ChangeRequestSpec `json:"crs"`
	ProcessingTimeMS int64             `json:"processing_time_ms"`
	ModelUsed        string            `json:"model_used"`
	TokensUsed       int               `json:"tokens_used,omitempty"`
}

// Step types produced by plan synthesis
const (
	StepTypeAnalysis       = "analysis"
	StepTypeImplementation = "implementation"
	StepTypeTesting        = "testing"
	StepTypeDeployment     = "deployment"
	StepTypeValidation     = "validation"
)

// PlanStep is one ordered step of an implementation plan. Dependencies
// reference earlier step numbers only; the backend owns that invariant.
type PlanStep struct {
	StepNumber    int    `json:"step_number"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	StepType      string `json:"step_type"`
	EstimatedTime string `json:"estimated_time"`
	Dependencies  []int  `json:"dependencies"`
	Reversible    bool   `json:"reversible"`
}

// FileChange names a file the plan intends to touch
type FileChange struct {
	Path      string `json:"path"`
	Intent    string `json:"intent"`
	Rationale string `json:"rationale"`
	Priority  string `json:"priority"`
}

// ImplementationPlan is the ordered set of steps and file-level edits
// synthesized from a CRS
type ImplementationPlan struct {
	Title              string       `json:"title"`
	Summary            string       `json:"summary"`
	Steps              []PlanStep   `json:"steps"`
	FilesToChange      []FileChange `json:"files_to_change"`
	EstimatedTotalTime string       `json:"estimated_total_time"`
	ComplexityScore    float64      `json:"complexity_score"`
	ConfidenceScore    float64      `json:"confidence_score"`
	BlastRadius        string       `json:"blast_radius"`
}

// PlanRequest is the request body for POST /api/plan-synthesis
type PlanRequest struct {
	CRS              ChangeRequestSpec `json:"crs"`
	RepoURL          string            `json:"repo_url,omitempty"`
	ScopePreferences []string          `json:"scope_preferences"`
}

// PlanResponse carries the synthesized plan
type PlanResponse struct {
	Plan      ImplementationPlan `json:"plan"`
	ModelUsed string             `json:"model_used,omitempty"`
}

// NewRepoConfig describes a repository to be created for the change
type NewRepoConfig struct {
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Private           bool   `json:"private"`
	GitignoreTemplate string `json:"gitignore_template,omitempty"`
	LicenseTemplate   string `json:"license_template,omitempty"`
}

// JobRequest is the request body for POST /api/jobs/create. Exactly one of
// RepoURL or NewRepo is set, matching the active JobTarget variant.
type JobRequest struct {
	RepoURL            string              `json:"repo_url,omitempty"`
	Branch             string              `json:"branch,omitempty"`
	CreateNewBranch    bool                `json:"create_new_branch,omitempty"`
	NewBranchName      string              `json:"new_branch_name,omitempty"`
	PushChanges        bool                `json:"push_changes,omitempty"`
	NewRepo            *NewRepoConfig      `json:"new_repo,omitempty"`
	GithubToken        string              `json:"github_token"`
	ImplementationPlan *ImplementationPlan `json:"implementation_plan"`
	Prompt             string              `json:"prompt,omitempty"`
}

// JobCreateResponse identifies the job to poll
type JobCreateResponse struct {
	JobID string `json:"job_id"`
}

// Job progress statuses. The backend may emit intermediate statuses beyond
// these (cloning_repo, pushing_changes, ...); they are forwarded verbatim
// and only completed/failed are terminal.
const (
	JobStatusStarting    = "starting"
	JobStatusCreatingJob = "creating_job"
	JobStatusExecuting   = "executing"
	JobStatusCompleted   = "completed"
	JobStatusFailed      = "failed"
)

// JobProgress is a point-in-time snapshot of a running job
type JobProgress struct {
	Status             string `json:"status"`
	CurrentStep        string `json:"current_step,omitempty"`
	ProgressPercentage int    `json:"progress_percentage"`
	Message            string `json:"message,omitempty"`
}

// Terminal reports whether the progress status ends the poll loop
func (p JobProgress) Terminal() bool {
	return p.Status == JobStatusCompleted || p.Status == JobStatusFailed
}

// JobResult is the final outcome of a job. ErrorMessage is present iff
// Success is false.
type JobResult struct {
	JobID                string  `json:"job_id"`
	Status               string  `json:"status"`
	Success              bool    `json:"success"`
	BranchName           string  `json:"branch_name,omitempty"`
	FilesChanged         int     `json:"files_changed"`
	CommitsCreated       int     `json:"commits_created"`
	TotalEdits           int     `json:"total_edits"`
	TokensUsed           int     `json:"tokens_used"`
	ExecutionTimeSeconds float64 `json:"execution_time_seconds"`
	ErrorMessage         string  `json:"error_message,omitempty"`
}

// CreatePRRequest is the request body for POST /api/github/create-pr
type CreatePRRequest struct {
	RepoOwner   string `json:"repo_owner"`
	RepoName    string `json:"repo_name"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	HeadBranch  string `json:"head_branch"`
	BaseBranch  string `json:"base_branch"`
	GithubToken string `json:"github_token"`
}

// PullRequest is the created pull request
type PullRequest struct {
	HTMLURL string `json:"html_url"`
	Number  int    `json:"number"`
}

// User is the GitHub identity associated with an access token
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ExchangeRequest is the request body for POST /api/auth/github/exchange
type ExchangeRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// ExchangeResponse carries the token and identity from a code exchange
type ExchangeResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	User        User   `json:"user"`
}
