// Package navigator implements the survey runtime's branching/navigation
// engine: a per-session state machine that walks a respondent through a
// question list, evaluates branching rules to pick the next question, keeps a
// navigation history for back-navigation, and hands answers to a
// fire-and-forget sink.
package navigator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pulsecheck-labs/survey-runtime/internal/models"
)

type Stage string

const (
	StageLoading    Stage = "loading"
	StageConsent    Stage = "consent"
	StageInProgress Stage = "in_progress"
	StageComplete   Stage = "complete"
	StageError      Stage = "error"
)

var (
	ErrNoQuestions        = errors.New("survey has no questions")
	ErrNotActive          = errors.New("session is not in progress")
	ErrAlreadyStarted     = errors.New("session already started")
	ErrNotCurrentQuestion = errors.New("answer submitted for a question other than the current one")
	ErrNoSubmission       = errors.New("advance called without a prior valid submission")
)

// Sink receives answers and the completion signal as one-way sends. Methods
// return nothing: a sink failure must never block or revert navigation.
type Sink interface {
	RecordAnswer(ctx context.Context, responseID, questionID string, value models.AnswerValue)
	RecordCompletion(ctx context.Context, responseID string)
}

// SubmitResult is the structured outcome of SubmitAnswer.
type SubmitResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// ReasonRequired marks a rejected submission for a required question with an
// empty value.
const ReasonRequired = "required"

// Progress reports visited-question count against the survey total.
// CurrentIndex is the number of questions on the respondent's path, not the
// raw array position, so a branched skip still shows honest progress.
type Progress struct {
	CurrentIndex int `json:"current_index"`
	Total        int `json:"total"`
}

// Navigator owns one respondent's traversal. It is not safe for concurrent
// use; callers serialize access per session.
type Navigator struct {
	questions []models.Question
	sink      Sink
	logger    *slog.Logger

	responseID string
	stage      Stage
	history    []int
	answers    map[string]models.AnswerValue

	// set by a valid SubmitAnswer for the current question, cleared on any
	// navigation; Advance refuses to run without it
	submitted bool
}

// New builds a navigator over a question list pre-sorted by position. The
// session starts in the consent stage; Begin moves it to in_progress.
func New(questions []models.Question, sink Sink, logger *slog.Logger) *Navigator {
	return &Navigator{
		questions: questions,
		sink:      sink,
		logger:    logger,
		stage:     StageConsent,
		answers:   make(map[string]models.AnswerValue),
	}
}

// Begin transitions consent -> in_progress once a session identifier has been
// obtained, positioning the respondent on the first question.
func (n *Navigator) Begin(responseID string) error {
	if n.stage != StageConsent {
		return ErrAlreadyStarted
	}
	if len(n.questions) == 0 {
		n.stage = StageError
		return ErrNoQuestions
	}
	n.responseID = responseID
	n.history = []int{0}
	n.stage = StageInProgress
	return nil
}

// Fail moves the session to the terminal error stage. No navigation is
// permitted afterwards.
func (n *Navigator) Fail() {
	n.stage = StageError
}

func (n *Navigator) Stage() Stage {
	return n.stage
}

// CurrentQuestion returns the question at the top of the history stack.
func (n *Navigator) CurrentQuestion() (models.Question, error) {
	if n.stage != StageInProgress {
		return models.Question{}, ErrNotActive
	}
	return n.questions[n.history[len(n.history)-1]], nil
}

// CurrentAnswer returns the previously recorded answer for the current
// question, if any. Used to restore the displayed value after goBack.
func (n *Navigator) CurrentAnswer() (models.AnswerValue, bool) {
	if n.stage != StageInProgress {
		return models.AnswerValue{}, false
	}
	q := n.questions[n.history[len(n.history)-1]]
	v, ok := n.answers[q.ID]
	return v, ok
}

// SubmitAnswer records a value for the currently displayed question.
// Submitting for any other question id is a contract violation and is
// rejected. A required question with an empty value blocks progression
// without mutating any state. Valid non-empty values overwrite the prior
// answer and are sent to the sink; empty values on optional questions are
// accepted but nothing is recorded.
func (n *Navigator) SubmitAnswer(ctx context.Context, questionID string, value models.AnswerValue) (SubmitResult, error) {
	if n.stage != StageInProgress {
		return SubmitResult{}, ErrNotActive
	}
	current := n.questions[n.history[len(n.history)-1]]
	if questionID != current.ID {
		return SubmitResult{}, ErrNotCurrentQuestion
	}

	if value.IsEmpty() {
		if current.Required {
			return SubmitResult{OK: false, Reason: ReasonRequired}, nil
		}
		// optional question skipped: valid, nothing to store or persist
		n.submitted = true
		return SubmitResult{OK: true}, nil
	}

	n.answers[current.ID] = value
	n.submitted = true
	n.sink.RecordAnswer(ctx, n.responseID, current.ID, value)
	return SubmitResult{OK: true}, nil
}

// Advance resolves the next question after a valid submission: the first
// matching branching rule wins, the end sentinel terminates immediately, a
// dangling rule target falls back to default ordering, and running off the
// end of the list completes the survey.
func (n *Navigator) Advance(ctx context.Context) error {
	if n.stage != StageInProgress {
		return ErrNotActive
	}
	if !n.submitted {
		return ErrNoSubmission
	}

	currentPos := n.history[len(n.history)-1]
	current := n.questions[currentPos]
	answer := n.answers[current.ID]

	if target, matched := matchRule(current.BranchingRules, answer); matched {
		if target == models.RuleTargetEnd {
			n.complete(ctx)
			return nil
		}
		if pos, found := questionPosition(n.questions, target); found {
			n.push(pos)
			return nil
		}
		n.logger.Warn("branching rule targets unknown question, using default order",
			"question_id", current.ID,
			"target", target)
	}

	if currentPos == len(n.questions)-1 {
		n.complete(ctx)
		return nil
	}
	n.push(currentPos + 1)
	return nil
}

// GoBack pops the history stack, exposing the question the respondent
// actually came from (which may differ from position-1 when branching skipped
// questions). A no-op on the first question. The answer recorded for the
// question being left is kept.
func (n *Navigator) GoBack() {
	if n.stage != StageInProgress || len(n.history) <= 1 {
		return
	}
	n.history = n.history[:len(n.history)-1]
	n.submitted = false
}

func (n *Navigator) Progress() Progress {
	return Progress{
		CurrentIndex: len(n.history),
		Total:        len(n.questions),
	}
}

// AnswerCount returns how many questions have recorded answers.
func (n *Navigator) AnswerCount() int {
	return len(n.answers)
}

func (n *Navigator) push(pos int) {
	n.history = append(n.history, pos)
	n.submitted = false
}

func (n *Navigator) complete(ctx context.Context) {
	n.stage = StageComplete
	n.submitted = false
	n.sink.RecordCompletion(ctx, n.responseID)
	n.logger.Info("survey session completed",
		"response_id", n.responseID,
		"answers", len(n.answers))
}
