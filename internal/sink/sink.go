// Package sink delivers answers and completion signals to storage and the
// event stream as one-way sends. The navigator never waits on a sink call and
// never observes its failures; persistence here is best-effort by design.
package sink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pulsecheck-labs/survey-runtime/internal/events"
	"github.com/pulsecheck-labs/survey-runtime/internal/models"
	"github.com/pulsecheck-labs/survey-runtime/internal/repositories"
)

const defaultDispatchTimeout = 10 * time.Second

// AsyncSink persists answer cells via the response repository and publishes
// lifecycle events, each call on a detached goroutine with its own deadline.
// Errors are logged and swallowed.
type AsyncSink struct {
	responses repositories.ResponseRepository
	publisher events.EventPublisher
	logger    *slog.Logger
	timeout   time.Duration

	wg sync.WaitGroup
}

func New(responses repositories.ResponseRepository, publisher events.EventPublisher, logger *slog.Logger) *AsyncSink {
	return &AsyncSink{
		responses: responses,
		publisher: publisher,
		logger:    logger,
		timeout:   defaultDispatchTimeout,
	}
}

// RecordAnswer stores one answer cell and emits response.answer_recorded.
func (s *AsyncSink) RecordAnswer(_ context.Context, responseID, questionID string, value models.AnswerValue) {
	answeredAt := time.Now()
	s.dispatch(func(ctx context.Context) {
		item := models.NewResponseItem(responseID, questionID, value, answeredAt)
		if err := s.responses.SaveItem(ctx, item); err != nil {
			s.logger.Error("failed to persist answer, navigation unaffected",
				"response_id", responseID,
				"question_id", questionID,
				"error", err)
		}

		event := events.NewResponseEvent(events.EventAnswerRecorded,
			events.NewAnswerRecordedEvent(responseID, questionID, value, answeredAt))
		if err := s.publisher.PublishResponseEvent(ctx, event); err != nil {
			s.logger.Error("failed to publish answer event",
				"response_id", responseID,
				"question_id", questionID,
				"error", err)
		}
	})
}

// RecordCompletion marks the response completed and emits response.completed.
func (s *AsyncSink) RecordCompletion(_ context.Context, responseID string) {
	completedAt := time.Now()
	s.dispatch(func(ctx context.Context) {
		if err := s.responses.MarkCompleted(ctx, responseID, completedAt); err != nil {
			s.logger.Error("failed to persist completion, navigation unaffected",
				"response_id", responseID,
				"error", err)
		}

		event := events.NewResponseEvent(events.EventResponseCompleted, events.ResponseCompletedEvent{
			ResponseID:  responseID,
			CompletedAt: completedAt,
		})
		if err := s.publisher.PublishResponseEvent(ctx, event); err != nil {
			s.logger.Error("failed to publish completion event",
				"response_id", responseID,
				"error", err)
		}
	})
}

// dispatch runs fn detached from the caller's context so a cancelled request
// cannot abort an in-flight write.
func (s *AsyncSink) dispatch(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		fn(ctx)
	}()
}

// Flush waits for in-flight dispatches; used at shutdown and in tests.
func (s *AsyncSink) Flush() {
	s.wg.Wait()
}
