package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// sagaStep is one named step of a multi-step workflow. A step with
// attempts > 1 must be idempotent; it is retried after a short backoff.
type sagaStep struct {
	name     string
	attempts int
	run      func(ctx context.Context) error
}

// stepError reports which step stopped the saga.
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return fmt.Sprintf("step %s: %v", e.step, e.err) }
func (e *stepError) Unwrap() error { return e.err }

// saga runs steps in order and stops at the first step that still fails
// after its attempts. Completed steps are not compensated; the workflow
// favours keeping what succeeded.
type saga struct {
	name    string
	steps   []sagaStep
	logger  *zap.Logger
	backoff time.Duration
	done    []string
}

func newSaga(name string, logger *zap.Logger, backoff time.Duration) *saga {
	return &saga{name: name, logger: logger, backoff: backoff}
}

func (s *saga) step(name string, attempts int, run func(ctx context.Context) error) *saga {
	if attempts < 1 {
		attempts = 1
	}
	s.steps = append(s.steps, sagaStep{name: name, attempts: attempts, run: run})
	return s
}

func (s *saga) execute(ctx context.Context) error {
	for _, st := range s.steps {
		var err error
		for attempt := 1; attempt <= st.attempts; attempt++ {
			if err = st.run(ctx); err == nil {
				break
			}
			s.logger.Warn("Saga step failed",
				zap.String("saga", s.name),
				zap.String("step", st.name),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", st.attempts),
				zap.Error(err),
			)
			if attempt < st.attempts {
				select {
				case <-ctx.Done():
					return &stepError{step: st.name, err: ctx.Err()}
				case <-time.After(s.backoff * time.Duration(attempt)):
				}
			}
		}
		if err != nil {
			return &stepError{step: st.name, err: err}
		}
		s.done = append(s.done, st.name)
	}
	return nil
}

// completed lists the steps that finished, in order.
func (s *saga) completed() []string { return s.done }
