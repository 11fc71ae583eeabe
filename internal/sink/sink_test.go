package sink

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsecheck-labs/survey-runtime/internal/events"
	"github.com/pulsecheck-labs/survey-runtime/internal/models"
)

// stubResponseRepository records writes and can be told to fail.
type stubResponseRepository struct {
	mu        sync.Mutex
	items     []*models.ResponseItem
	completed []string
	failWith  error
}

func (s *stubResponseRepository) Create(context.Context, *models.SurveyResponse) error { return nil }

func (s *stubResponseRepository) GetByID(context.Context, string) (*models.SurveyResponse, error) {
	return nil, errors.New("not implemented")
}

func (s *stubResponseRepository) SaveItem(_ context.Context, item *models.ResponseItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.items = append(s.items, item)
	return nil
}

func (s *stubResponseRepository) MarkCompleted(_ context.Context, responseID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.completed = append(s.completed, responseID)
	return nil
}

func (s *stubResponseRepository) ListBySurvey(context.Context, string) ([]*models.SurveyResponse, error) {
	return nil, nil
}

func (s *stubResponseRepository) ListItemsBySurvey(context.Context, string) ([]*models.ResponseItem, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAsyncSink_RecordAnswer(t *testing.T) {
	repo := &stubResponseRepository{}
	publisher := events.NewMockEventPublisher(testLogger())
	s := New(repo, publisher, testLogger())

	s.RecordAnswer(context.Background(), "resp-1", "q1", models.NumberValue(4))
	s.Flush()

	require.Len(t, repo.items, 1)
	item := repo.items[0]
	assert.Equal(t, "resp-1", item.ResponseID)
	assert.Equal(t, "q1", item.QuestionID)
	require.NotNil(t, item.ValueNumber)
	assert.Equal(t, float64(4), *item.ValueNumber)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAnswerRecorded, published[0].Type)
	assert.Equal(t, "survey-runtime", published[0].Source)
	assert.NotEmpty(t, published[0].ID)
}

func TestAsyncSink_RecordCompletion(t *testing.T) {
	repo := &stubResponseRepository{}
	publisher := events.NewMockEventPublisher(testLogger())
	s := New(repo, publisher, testLogger())

	s.RecordCompletion(context.Background(), "resp-1")
	s.Flush()

	assert.Equal(t, []string{"resp-1"}, repo.completed)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventResponseCompleted, published[0].Type)
}

// A failing repository must not surface anywhere: the calls return
// immediately and the event is still published.
func TestAsyncSink_SwallowsPersistenceFailures(t *testing.T) {
	repo := &stubResponseRepository{failWith: errors.New("connection refused")}
	publisher := events.NewMockEventPublisher(testLogger())
	s := New(repo, publisher, testLogger())

	s.RecordAnswer(context.Background(), "resp-1", "q1", models.TextValue("hello"))
	s.RecordCompletion(context.Background(), "resp-1")
	s.Flush()

	assert.Empty(t, repo.items)
	assert.Empty(t, repo.completed)
	assert.Len(t, publisher.GetPublishedEvents(), 2)
}

// Dispatch detaches from the caller's context: a cancelled request context
// does not abort the write.
func TestAsyncSink_DetachedFromCallerContext(t *testing.T) {
	repo := &stubResponseRepository{}
	publisher := events.NewMockEventPublisher(testLogger())
	s := New(repo, publisher, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.RecordAnswer(ctx, "resp-1", "q1", models.ListValue([]string{"A", "B"}))
	s.Flush()

	require.Len(t, repo.items, 1)
	assert.Equal(t, []string{"A", "B"}, []string(repo.items[0].ValueList))
}
