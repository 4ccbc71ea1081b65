package usecase

import (
	"context"
	"fmt"

	"dongnezip/pkg/errors"
)

// SagaStep is one step of a multi-call operation. Compensate, when set, undoes
// a completed Run.
type SagaStep struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// RunSaga runs steps in order. When a step fails, completed steps are
// compensated newest first. If every completed step was undone the original
// error is returned; otherwise the result is a Partial error and completed
// reports how many steps stayed applied.
func RunSaga(ctx context.Context, steps ...SagaStep) (completed int, err error) {
	for i, step := range steps {
		if err := step.Run(ctx); err != nil {
			applied := compensate(ctx, steps[:i])
			if applied == 0 {
				return 0, err
			}
			return applied, errors.Partial(
				fmt.Sprintf("%s failed after %s succeeded", step.Name, steps[applied-1].Name),
				err,
			)
		}
	}
	return len(steps), nil
}

// compensate undoes done in reverse and returns how many leading steps remain
// applied.
func compensate(ctx context.Context, done []SagaStep) int {
	for i := len(done) - 1; i >= 0; i-- {
		if done[i].Compensate == nil {
			return i + 1
		}
		if err := done[i].Compensate(ctx); err != nil {
			return i + 1
		}
	}
	return 0
}
