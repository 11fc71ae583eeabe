package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pulsecheck-labs/survey-runtime/internal/cache"
	"github.com/pulsecheck-labs/survey-runtime/internal/events"
	"github.com/pulsecheck-labs/survey-runtime/internal/models"
	"github.com/pulsecheck-labs/survey-runtime/internal/navigator"
	"github.com/pulsecheck-labs/survey-runtime/internal/repositories"
	"github.com/pulsecheck-labs/survey-runtime/internal/utils"
)

// ===== IN-MEMORY FAKES =====

type fakeSurveyRepository struct {
	surveys map[string]*models.Survey
}

func (f *fakeSurveyRepository) GetByIDWithQuestions(_ context.Context, id string) (*models.Survey, error) {
	survey, ok := f.surveys[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return survey, nil
}

type fakeResponseRepository struct {
	mu        sync.Mutex
	responses map[string]*models.SurveyResponse
	items     []*models.ResponseItem
}

func (f *fakeResponseRepository) Create(_ context.Context, response *models.SurveyResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[response.ID] = response
	return nil
}

func (f *fakeResponseRepository) GetByID(_ context.Context, id string) (*models.SurveyResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	response, ok := f.responses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return response, nil
}

func (f *fakeResponseRepository) SaveItem(_ context.Context, item *models.ResponseItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.items {
		if existing.ResponseID == item.ResponseID && existing.QuestionID == item.QuestionID {
			f.items[i] = item
			return nil
		}
	}
	f.items = append(f.items, item)
	return nil
}

func (f *fakeResponseRepository) MarkCompleted(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if response, ok := f.responses[id]; ok {
		response.Status = models.ResponseCompleted
		response.CompletedAt = &at
	}
	return nil
}

func (f *fakeResponseRepository) ListBySurvey(_ context.Context, surveyID string) ([]*models.SurveyResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.SurveyResponse
	for _, response := range f.responses {
		if response.SurveyID == surveyID {
			out = append(out, response)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (f *fakeResponseRepository) ListItemsBySurvey(_ context.Context, surveyID string) ([]*models.ResponseItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ResponseItem
	for _, item := range f.items {
		if response, ok := f.responses[item.ResponseID]; ok && response.SurveyID == surveyID {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeRepository struct {
	survey   *fakeSurveyRepository
	response *fakeResponseRepository
}

func (f *fakeRepository) Survey() repositories.SurveyRepository     { return f.survey }
func (f *fakeRepository) Response() repositories.ResponseRepository { return f.response }

// memoryCache keeps the CacheService contract without Redis.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = payload
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryCache) DeletePattern(context.Context, string) error { return nil }

// nullSink drops everything; navigator behavior is tested in its own package.
type nullSink struct{}

func (nullSink) RecordAnswer(context.Context, string, string, models.AnswerValue) {}
func (nullSink) RecordCompletion(context.Context, string)                         {}

// ===== SETUP =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func activeSurvey() *models.Survey {
	min, max := 1, 5
	return &models.Survey{
		ID:     "s1",
		Title:  "Visit follow-up",
		Status: models.SurveyActive,
		Questions: []models.Question{
			{
				ID: "q1", SurveyID: "s1", Text: "How was your visit?", Kind: models.KindScale,
				Required: true, ScaleMin: &min, ScaleMax: &max, Position: 0,
				BranchingRules: []models.Rule{
					{Condition: models.ConditionGreaterThan, ComparisonValue: "3", Target: models.RuleTargetEnd},
				},
			},
			{ID: "q2", SurveyID: "s1", Text: "What went wrong?", Kind: models.KindText, Required: true, Position: 1},
		},
	}
}

func newTestService(t *testing.T, surveys ...*models.Survey) (RuntimeService, *fakeRepository, *events.MockEventPublisher) {
	t.Helper()
	repo := &fakeRepository{
		survey:   &fakeSurveyRepository{surveys: make(map[string]*models.Survey)},
		response: &fakeResponseRepository{responses: make(map[string]*models.SurveyResponse)},
	}
	for _, survey := range surveys {
		repo.survey.surveys[survey.ID] = survey
	}
	publisher := events.NewMockEventPublisher(testLogger())
	service := NewRuntimeService(
		repo, newMemoryCache(), nullSink{}, publisher,
		utils.NewValidator(), testLogger(), time.Minute)
	return service, repo, publisher
}

func startSession(t *testing.T, service RuntimeService) *StartResponseResult {
	t.Helper()
	result, err := service.StartResponse(context.Background(), &StartResponseRequest{
		SurveyID:     "s1",
		ConsentGiven: true,
	})
	require.NoError(t, err)
	return result
}

// ===== TESTS =====

func TestGetSurvey(t *testing.T) {
	ctx := context.Background()

	t.Run("returns active survey", func(t *testing.T) {
		service, _, _ := newTestService(t, activeSurvey())
		view, err := service.GetSurvey(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "Visit follow-up", view.Title)
		assert.Len(t, view.Questions, 2)
	})

	t.Run("unknown survey", func(t *testing.T) {
		service, _, _ := newTestService(t)
		_, err := service.GetSurvey(ctx, "nope")
		assert.ErrorIs(t, err, ErrSurveyNotFound)
	})

	t.Run("inactive survey is refused", func(t *testing.T) {
		survey := activeSurvey()
		survey.Status = models.SurveyPaused
		service, _, _ := newTestService(t, survey)
		_, err := service.GetSurvey(ctx, "s1")
		assert.ErrorIs(t, err, ErrSurveyNotActive)
	})

	t.Run("invalid definition is refused", func(t *testing.T) {
		survey := activeSurvey()
		survey.Questions[0].ScaleMin = nil
		service, _, _ := newTestService(t, survey)
		_, err := service.GetSurvey(ctx, "s1")
		assert.ErrorIs(t, err, ErrSurveyInvalid)
	})

	t.Run("second fetch is served from cache", func(t *testing.T) {
		service, repo, _ := newTestService(t, activeSurvey())
		_, err := service.GetSurvey(ctx, "s1")
		require.NoError(t, err)

		// drop the backing row; the cached copy must still serve
		delete(repo.survey.surveys, "s1")
		view, err := service.GetSurvey(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", view.ID)
	})
}

func TestStartResponse(t *testing.T) {
	ctx := context.Background()

	t.Run("creates response and lands on first question", func(t *testing.T) {
		service, repo, publisher := newTestService(t, activeSurvey())
		result := startSession(t, service)

		assert.NotEmpty(t, result.ResponseID)
		assert.Equal(t, "q1", result.Question.ID)
		assert.Equal(t, navigator.StageInProgress, result.Stage)
		assert.Equal(t, navigator.Progress{CurrentIndex: 1, Total: 2}, result.Progress)

		stored, err := repo.response.GetByID(ctx, result.ResponseID)
		require.NoError(t, err)
		assert.True(t, stored.ConsentGiven)
		assert.Equal(t, models.ResponseInProgress, stored.Status)

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventResponseStarted, published[0].Type)
	})

	t.Run("consent is mandatory", func(t *testing.T) {
		service, _, _ := newTestService(t, activeSurvey())
		_, err := service.StartResponse(ctx, &StartResponseRequest{SurveyID: "s1"})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("invalid email is rejected", func(t *testing.T) {
		service, _, _ := newTestService(t, activeSurvey())
		bad := "not-an-email"
		_, err := service.StartResponse(ctx, &StartResponseRequest{
			SurveyID: "s1", Email: &bad, ConsentGiven: true,
		})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("unknown survey", func(t *testing.T) {
		service, _, _ := newTestService(t)
		_, err := service.StartResponse(ctx, &StartResponseRequest{SurveyID: "nope", ConsentGiven: true})
		assert.ErrorIs(t, err, ErrSurveyNotFound)
	})
}

func TestSessionFlow(t *testing.T) {
	ctx := context.Background()
	n := func(v float64) *float64 { return &v }
	s := func(v string) *string { return &v }

	t.Run("branch to end completes and evicts the session", func(t *testing.T) {
		service, _, _ := newTestService(t, activeSurvey())
		result := startSession(t, service)

		submit, err := service.SubmitAnswer(ctx, result.ResponseID, &AnswerRequest{
			QuestionID: "q1", ValueNumber: n(5),
		})
		require.NoError(t, err)
		require.True(t, submit.OK)

		step, err := service.Advance(ctx, result.ResponseID)
		require.NoError(t, err)
		assert.Equal(t, navigator.StageComplete, step.Stage)
		assert.Nil(t, step.Question)

		// session is gone once complete
		_, err = service.CurrentQuestion(ctx, result.ResponseID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("low score continues to the probe question", func(t *testing.T) {
		service, _, _ := newTestService(t, activeSurvey())
		result := startSession(t, service)

		submit, err := service.SubmitAnswer(ctx, result.ResponseID, &AnswerRequest{
			QuestionID: "q1", ValueNumber: n(2),
		})
		require.NoError(t, err)
		require.True(t, submit.OK)

		step, err := service.Advance(ctx, result.ResponseID)
		require.NoError(t, err)
		require.NotNil(t, step.Question)
		assert.Equal(t, "q2", step.Question.ID)

		// back restores the scale answer
		back, err := service.GoBack(ctx, result.ResponseID)
		require.NoError(t, err)
		require.NotNil(t, back.Question)
		assert.Equal(t, "q1", back.Question.ID)
		require.NotNil(t, back.Answer)
		assert.Equal(t, float64(2), back.Answer.Number)
	})

	t.Run("required empty answer is reported, not an error", func(t *testing.T) {
		service, _, _ := newTestService(t, activeSurvey())
		result := startSession(t, service)

		submit, err := service.SubmitAnswer(ctx, result.ResponseID, &AnswerRequest{QuestionID: "q1"})
		require.NoError(t, err)
		assert.False(t, submit.OK)
		assert.Equal(t, navigator.ReasonRequired, submit.Reason)
	})

	t.Run("submitting for a non-current question is a contract violation", func(t *testing.T) {
		service, _, _ := newTestService(t, activeSurvey())
		result := startSession(t, service)

		_, err := service.SubmitAnswer(ctx, result.ResponseID, &AnswerRequest{
			QuestionID: "q2", ValueText: s("early"),
		})
		assert.ErrorIs(t, err, navigator.ErrNotCurrentQuestion)
	})

	t.Run("unknown session", func(t *testing.T) {
		service, _, _ := newTestService(t, activeSurvey())
		_, err := service.Advance(ctx, "missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}
