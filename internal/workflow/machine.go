// Package workflow drives the change-request sequence
// prompt → CRS → (clarify) → plan → execute against the backend.
package workflow

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"

	"github.com/felixgeelhaar/vibecoder/internal/api"
	"github.com/felixgeelhaar/vibecoder/internal/errors"
	"github.com/felixgeelhaar/vibecoder/internal/log"
	"github.com/felixgeelhaar/vibecoder/internal/target"
)

// State is the machine's position in the workflow
type State int

const (
	// StateInput awaits a prompt
	StateInput State = iota
	// StateClarify awaits answers to clarifying questions
	StateClarify
	// StateCRS holds a received change request specification
	StateCRS
	// StatePlan holds a synthesized implementation plan
	StatePlan
	// StateExecuting means a job is in flight
	StateExecuting
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateInput:
		return "input"
	case StateClarify:
		return "clarify"
	case StateCRS:
		return "crs"
	case StatePlan:
		return "plan"
	case StateExecuting:
		return "executing"
	default:
		return "unknown"
	}
}

// ErrSuperseded signals that a response arrived for a generation that Reset
// already discarded. The caller drops it; no state was changed.
var ErrSuperseded = stderrors.New("workflow: response superseded by reset")

// At most this many clarifying questions are kept; the backend may return more.
const maxClarifyingQuestions = 3

// Scope preferences sent with every plan-synthesis request. Fixed at this
// layer, not user-configurable.
var defaultScopePreferences = []string{"minimal_changes", "prefer_existing_patterns"}

// Machine is the workflow state machine. Transitions are strictly
// sequential; every in-flight request is tagged with the generation it was
// issued from so late responses from before a Reset are discarded.
type Machine struct {
	client *api.Client
	logger *log.Logger

	mu         sync.Mutex
	state      State
	generation uint64

	prompt    string
	repoURL   string
	questions []api.ClarifyingQuestion
	crs       *api.ChangeRequestSpec
	plan      *api.ImplementationPlan
	jobTarget *target.JobTarget
}

// Option configures a Machine
type Option func(*Machine)

// WithLogger overrides the machine's logger
func WithLogger(logger *log.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// NewMachine creates a machine in the input state
func NewMachine(client *api.Client, opts ...Option) *Machine {
	m := &Machine{
		client: client,
		logger: log.DefaultLogger(),
		state:  StateInput,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CRS returns the current change request specification, or nil
func (m *Machine) CRS() *api.ChangeRequestSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.crs
}

// Plan returns the current implementation plan, or nil
func (m *Machine) Plan() *api.ImplementationPlan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plan
}

// Questions returns the retained clarifying questions
func (m *Machine) Questions() []api.ClarifyingQuestion {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questions
}

// Prompt returns the prompt this run was started with
func (m *Machine) Prompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompt
}

// Target returns the resolved job target once the plan is accepted, or nil
func (m *Machine) Target() *target.JobTarget {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobTarget
}

// Reset returns to the input state from anywhere and discards the CRS, plan,
// and clarification state. In-flight responses from before the reset are
// discarded when they land.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.state = StateInput
	m.prompt = ""
	m.repoURL = ""
	m.questions = nil
	m.crs = nil
	m.plan = nil
	m.jobTarget = nil
}

// SubmitPrompt drives input → crs (or input → clarify when the backend asks
// questions). The machine stays in its pre-transition state on any failure.
func (m *Machine) SubmitPrompt(ctx context.Context, prompt, repoURL string) (State, error) {
	m.mu.Lock()
	if m.state != StateInput {
		m.mu.Unlock()
		return m.State(), errors.New(errors.KindValidation, errors.ErrCodeTransitionDenied,
			"a change request is already in progress; reset first")
	}
	if strings.TrimSpace(prompt) == "" {
		m.mu.Unlock()
		return StateInput, errors.NewPromptEmptyError()
	}
	gen := m.generation
	m.mu.Unlock()

	maxQuestions := maxClarifyingQuestions
	resp, err := m.client.GenerateCRS(ctx, api.CRSRequest{
		Prompt:       prompt,
		RepoURL:      repoURL,
		MaxQuestions: &maxQuestions,
	})
	if err != nil {
		return m.State(), err
	}

	return m.applyCRS(gen, prompt, repoURL, resp.CRS)
}

// applyCRS installs a CRS response issued at generation gen. Responses from
// a superseded generation leave the machine untouched.
func (m *Machine) applyCRS(gen uint64, prompt, repoURL string, crs api.ChangeRequestSpec) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		m.logger.Debug("discarding CRS response from superseded generation",
			"response_generation", gen, "current_generation", m.generation)
		return m.state, ErrSuperseded
	}

	m.prompt = prompt
	m.repoURL = repoURL
	m.crs = &crs

	if crs.RequiresClarification && len(crs.ClarifyingQuestions) > 0 {
		questions := crs.ClarifyingQuestions
		if len(questions) > maxClarifyingQuestions {
			questions = questions[:maxClarifyingQuestions]
		}
		m.questions = questions
		m.state = StateClarify
		return m.state, nil
	}

	m.questions = nil
	m.state = StateCRS
	return m.state, nil
}

// SubmitAnswers drives clarify → crs. Every question must have a non-empty
// answer; the gate is purely client-side and rejects before any network
// call. The resubmitted request carries the original prompt, the answers,
// and a no-further-questions directive. The returned CRS is accepted as-is:
// clarification runs a single round.
func (m *Machine) SubmitAnswers(ctx context.Context, answers []api.ClarificationAnswer) (State, error) {
	m.mu.Lock()
	if m.state != StateClarify {
		m.mu.Unlock()
		return m.State(), errors.New(errors.KindValidation, errors.ErrCodeTransitionDenied,
			"no clarification is pending")
	}
	if len(answers) != len(m.questions) {
		m.mu.Unlock()
		return StateClarify, errors.New(errors.KindValidation, errors.ErrCodeAnswerRequired,
			"every clarifying question needs an answer")
	}
	for _, answer := range answers {
		if strings.TrimSpace(answer.Answer) == "" {
			m.mu.Unlock()
			return StateClarify, errors.NewAnswerRequiredError(answer.Question)
		}
	}
	gen := m.generation
	prompt := m.prompt
	repoURL := m.repoURL
	m.mu.Unlock()

	noFurtherQuestions := 0
	resp, err := m.client.GenerateCRS(ctx, api.CRSRequest{
		Prompt:       prompt,
		RepoURL:      repoURL,
		Answers:      answers,
		MaxQuestions: &noFurtherQuestions,
	})
	if err != nil {
		return m.State(), err
	}

	return m.applyClarifiedCRS(gen, resp.CRS)
}

func (m *Machine) applyClarifiedCRS(gen uint64, crs api.ChangeRequestSpec) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		m.logger.Debug("discarding clarified CRS from superseded generation",
			"response_generation", gen, "current_generation", m.generation)
		return m.state, ErrSuperseded
	}

	if crs.RequiresClarification {
		// Single clarification round: accept the CRS as returned rather
		// than looping back into clarify.
		m.logger.Warn("backend requested clarification again; accepting CRS after one round")
	}

	m.crs = &crs
	m.questions = nil
	m.state = StateCRS
	return m.state, nil
}

// AcceptCRS drives crs → plan by synthesizing an implementation plan
func (m *Machine) AcceptCRS(ctx context.Context) (State, error) {
	m.mu.Lock()
	if m.state != StateCRS || m.crs == nil {
		m.mu.Unlock()
		return m.State(), errors.New(errors.KindValidation, errors.ErrCodeTransitionDenied,
			"no change request specification to accept")
	}
	gen := m.generation
	crs := *m.crs
	repoURL := m.repoURL
	m.mu.Unlock()

	resp, err := m.client.SynthesizePlan(ctx, api.PlanRequest{
		CRS:              crs,
		RepoURL:          repoURL,
		ScopePreferences: defaultScopePreferences,
	})
	if err != nil {
		return m.State(), err
	}

	return m.applyPlan(gen, resp.Plan)
}

func (m *Machine) applyPlan(gen uint64, plan api.ImplementationPlan) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		m.logger.Debug("discarding plan response from superseded generation",
			"response_generation", gen, "current_generation", m.generation)
		return m.state, ErrSuperseded
	}

	m.plan = &plan
	m.state = StatePlan
	return m.state, nil
}

// AcceptPlan drives plan → executing. Accepting requires a resolved job
// target alongside the synthesized plan.
func (m *Machine) AcceptPlan(jobTarget target.JobTarget) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePlan || m.plan == nil {
		return m.state, errors.New(errors.KindValidation, errors.ErrCodeTransitionDenied,
			"no implementation plan to accept")
	}

	m.jobTarget = &jobTarget
	m.state = StateExecuting
	return m.state, nil
}

// DeclinePlan discards the plan and returns to the input state
func (m *Machine) DeclinePlan() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePlan {
		return m.state
	}

	m.generation++
	m.state = StateInput
	m.prompt = ""
	m.repoURL = ""
	m.questions = nil
	m.crs = nil
	m.plan = nil
	m.jobTarget = nil
	return m.state
}

// FinishExecution records the terminal outcome of a job and returns the
// machine to the input state for the next run.
func (m *Machine) FinishExecution() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateExecuting {
		return m.state
	}

	m.generation++
	m.state = StateInput
	m.prompt = ""
	m.repoURL = ""
	m.questions = nil
	m.crs = nil
	m.plan = nil
	m.jobTarget = nil
	return m.state
}
