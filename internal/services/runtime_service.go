package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulsecheck-labs/survey-runtime/internal/cache"
	"github.com/pulsecheck-labs/survey-runtime/internal/events"
	"github.com/pulsecheck-labs/survey-runtime/internal/models"
	"github.com/pulsecheck-labs/survey-runtime/internal/navigator"
	"github.com/pulsecheck-labs/survey-runtime/internal/repositories"
	"github.com/pulsecheck-labs/survey-runtime/internal/utils"
)

const surveyCacheKeyPrefix = "survey:def:"

// ===== REQUEST / RESPONSE TYPES =====

type StartResponseRequest struct {
	SurveyID     string  `json:"survey_id" validate:"required"`
	Email        *string `json:"email" validate:"omitempty,email"`
	ConsentGiven bool    `json:"consent_given" validate:"required"`
}

// AnswerRequest carries one answer for the current question. Exactly one
// value field is read, chosen by the question's kind.
type AnswerRequest struct {
	QuestionID  string   `json:"question_id" validate:"required"`
	ValueNumber *float64 `json:"value_number"`
	ValueText   *string  `json:"value_text"`
	ValueList   []string `json:"value_list"`
}

type SurveyView struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description *string           `json:"description,omitempty"`
	Questions   []models.Question `json:"questions"`
}

type QuestionView struct {
	Question models.Question     `json:"question"`
	Answer   *models.AnswerValue `json:"answer,omitempty"`
	Progress navigator.Progress  `json:"progress"`
	Stage    navigator.Stage     `json:"stage"`
}

// StepView is what advance/back return: the new stage, and the now-current
// question unless the survey completed.
type StepView struct {
	Stage    navigator.Stage     `json:"stage"`
	Question *models.Question    `json:"question,omitempty"`
	Answer   *models.AnswerValue `json:"answer,omitempty"`
	Progress navigator.Progress  `json:"progress"`
}

type StartResponseResult struct {
	ResponseID string             `json:"response_id"`
	Question   models.Question    `json:"question"`
	Progress   navigator.Progress `json:"progress"`
	Stage      navigator.Stage    `json:"stage"`
}

// ===== SERVICE =====

// RuntimeService drives respondent sessions: definition fetch, consent/start,
// and per-step delegation to each session's navigator.
type RuntimeService interface {
	GetSurvey(ctx context.Context, surveyID string) (*SurveyView, error)
	StartResponse(ctx context.Context, req *StartResponseRequest) (*StartResponseResult, error)
	CurrentQuestion(ctx context.Context, responseID string) (*QuestionView, error)
	SubmitAnswer(ctx context.Context, responseID string, req *AnswerRequest) (navigator.SubmitResult, error)
	Advance(ctx context.Context, responseID string) (*StepView, error)
	GoBack(ctx context.Context, responseID string) (*StepView, error)
	Progress(ctx context.Context, responseID string) (*QuestionView, error)
}

// runtimeSession pairs a navigator with the lock that serializes access to
// it; the navigator itself is not safe for concurrent use.
type runtimeSession struct {
	mu       sync.Mutex
	surveyID string
	nav      *navigator.Navigator
}

type runtimeService struct {
	repo            repositories.Repository
	cache           cache.CacheService
	sink            navigator.Sink
	publisher       events.EventPublisher
	validator       *utils.Validator
	surveyValidator *utils.SurveyValidator
	logger          *slog.Logger
	cacheTTL        time.Duration

	mu       sync.RWMutex
	sessions map[string]*runtimeSession
}

func NewRuntimeService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	sink navigator.Sink,
	publisher events.EventPublisher,
	validator *utils.Validator,
	logger *slog.Logger,
	cacheTTL time.Duration,
) RuntimeService {
	return &runtimeService{
		repo:            repo,
		cache:           cacheService,
		sink:            sink,
		publisher:       publisher,
		validator:       validator,
		surveyValidator: utils.NewSurveyValidator(),
		logger:          logger,
		cacheTTL:        cacheTTL,
		sessions:        make(map[string]*runtimeSession),
	}
}

// GetSurvey returns the definition for rendering; only active surveys are
// served to respondents.
func (s *runtimeService) GetSurvey(ctx context.Context, surveyID string) (*SurveyView, error) {
	survey, err := s.fetchSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	return &SurveyView{
		ID:          survey.ID,
		Title:       survey.Title,
		Description: survey.Description,
		Questions:   survey.Questions,
	}, nil
}

// StartResponse handles consent: it creates the response row (fatal if the
// store is unreachable at session start) and begins navigation on the first
// question.
func (s *runtimeService) StartResponse(ctx context.Context, req *StartResponseRequest) (*StartResponseResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if !req.ConsentGiven {
		return nil, ErrConsentRequired
	}

	survey, err := s.fetchSurvey(ctx, req.SurveyID)
	if err != nil {
		return nil, err
	}

	response := &models.SurveyResponse{
		ID:           uuid.NewString(),
		SurveyID:     survey.ID,
		Email:        req.Email,
		ConsentGiven: true,
		Status:       models.ResponseInProgress,
		StartedAt:    time.Now(),
	}
	if err := s.repo.Response().Create(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to create response: %w", err)
	}

	nav := navigator.New(survey.Questions, s.sink, s.logger)
	if err := nav.Begin(response.ID); err != nil {
		return nil, fmt.Errorf("failed to begin session: %w", err)
	}

	s.mu.Lock()
	s.sessions[response.ID] = &runtimeSession{surveyID: survey.ID, nav: nav}
	s.mu.Unlock()

	event := events.NewResponseEvent(events.EventResponseStarted, events.ResponseStartedEvent{
		ResponseID: response.ID,
		SurveyID:   survey.ID,
		Email:      req.Email,
		StartedAt:  response.StartedAt,
	})
	if err := s.publisher.PublishResponseEvent(ctx, event); err != nil {
		s.logger.Error("failed to publish response started event",
			"response_id", response.ID, "error", err)
	}

	s.logger.Info("survey session started",
		"response_id", response.ID,
		"survey_id", survey.ID,
		"questions", len(survey.Questions))

	first, err := nav.CurrentQuestion()
	if err != nil {
		return nil, err
	}
	return &StartResponseResult{
		ResponseID: response.ID,
		Question:   first,
		Progress:   nav.Progress(),
		Stage:      nav.Stage(),
	}, nil
}

func (s *runtimeService) CurrentQuestion(ctx context.Context, responseID string) (*QuestionView, error) {
	session, err := s.session(responseID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	question, err := session.nav.CurrentQuestion()
	if err != nil {
		return nil, ErrSessionNotActive
	}
	view := &QuestionView{
		Question: question,
		Progress: session.nav.Progress(),
		Stage:    session.nav.Stage(),
	}
	if answer, ok := session.nav.CurrentAnswer(); ok {
		view.Answer = &answer
	}
	return view, nil
}

func (s *runtimeService) SubmitAnswer(ctx context.Context, responseID string, req *AnswerRequest) (navigator.SubmitResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return navigator.SubmitResult{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	session, err := s.session(responseID)
	if err != nil {
		return navigator.SubmitResult{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	question, err := session.nav.CurrentQuestion()
	if err != nil {
		return navigator.SubmitResult{}, ErrSessionNotActive
	}
	if req.QuestionID != question.ID {
		return navigator.SubmitResult{}, navigator.ErrNotCurrentQuestion
	}

	return session.nav.SubmitAnswer(ctx, question.ID, answerValue(question, req))
}

func (s *runtimeService) Advance(ctx context.Context, responseID string) (*StepView, error) {
	session, err := s.session(responseID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.nav.Advance(ctx); err != nil {
		return nil, err
	}
	if session.nav.Stage() == navigator.StageComplete {
		s.evict(responseID)
	}
	return s.stepView(session.nav), nil
}

func (s *runtimeService) GoBack(ctx context.Context, responseID string) (*StepView, error) {
	session, err := s.session(responseID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.nav.Stage() != navigator.StageInProgress {
		return nil, ErrSessionNotActive
	}
	session.nav.GoBack()
	return s.stepView(session.nav), nil
}

func (s *runtimeService) Progress(ctx context.Context, responseID string) (*QuestionView, error) {
	return s.CurrentQuestion(ctx, responseID)
}

// ===== HELPERS =====

// fetchSurvey loads a definition through the cache; cache failures degrade to
// the database. Definitions are validated before first use.
func (s *runtimeService) fetchSurvey(ctx context.Context, surveyID string) (*models.Survey, error) {
	key := surveyCacheKeyPrefix + surveyID

	var cached models.Survey
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if err != cache.ErrCacheMiss {
		s.logger.Warn("survey cache read failed, falling back to database",
			"survey_id", surveyID, "error", err)
	}

	survey, err := s.repo.Survey().GetByIDWithQuestions(ctx, surveyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}
	if survey.Status != models.SurveyActive {
		return nil, ErrSurveyNotActive
	}

	warnings, err := s.surveyValidator.ValidateSurvey(survey)
	if err != nil {
		s.logger.Error("survey definition is invalid", "survey_id", surveyID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSurveyInvalid, err)
	}
	for _, warning := range warnings {
		s.logger.Warn("survey definition warning", "survey_id", surveyID, "warning", warning)
	}

	if err := s.cache.Set(ctx, key, survey, s.cacheTTL); err != nil {
		s.logger.Warn("survey cache write failed", "survey_id", surveyID, "error", err)
	}
	return survey, nil
}

func (s *runtimeService) session(responseID string) (*runtimeSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[responseID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *runtimeService) evict(responseID string) {
	s.mu.Lock()
	delete(s.sessions, responseID)
	s.mu.Unlock()
}

func (s *runtimeService) stepView(nav *navigator.Navigator) *StepView {
	view := &StepView{
		Stage:    nav.Stage(),
		Progress: nav.Progress(),
	}
	if question, err := nav.CurrentQuestion(); err == nil {
		view.Question = &question
		if answer, ok := nav.CurrentAnswer(); ok {
			view.Answer = &answer
		}
	}
	return view
}

// answerValue picks the value field matching the question's kind; anything
// else in the request is ignored. A missing field reads as "no answer".
func answerValue(question models.Question, req *AnswerRequest) models.AnswerValue {
	switch question.Kind {
	case models.KindScale, models.KindRating:
		if req.ValueNumber == nil {
			return models.AnswerValue{}
		}
		return models.NumberValue(*req.ValueNumber)
	case models.KindText, models.KindChoice:
		if req.ValueText == nil {
			return models.AnswerValue{}
		}
		return models.TextValue(*req.ValueText)
	case models.KindMultiSelect:
		if req.ValueList == nil {
			return models.AnswerValue{}
		}
		return models.ListValue(req.ValueList)
	default:
		return models.AnswerValue{}
	}
}
