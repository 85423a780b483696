package validation

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

var _ logRepo = &logRepoMock{}

type logRepoMock struct {
	AppendFunc func(ctx context.Context, contentID uuid.UUID, res domain.ValidationResult) (domain.ValidationLog, error)

	calls struct {
		Append []struct {
			ContentID uuid.UUID
			Res       domain.ValidationResult
		}
	}
	lockAppend sync.RWMutex
}

func (mock *logRepoMock) Append(ctx context.Context, contentID uuid.UUID, res domain.ValidationResult) (domain.ValidationLog, error) {
	mock.lockAppend.Lock()
	mock.calls.Append = append(mock.calls.Append, struct {
		ContentID uuid.UUID
		Res       domain.ValidationResult
	}{contentID, res})
	mock.lockAppend.Unlock()
	if mock.AppendFunc == nil {
		return domain.ValidationLog{ID: uuid.New(), ContentID: contentID, Passed: res.Passed}, nil
	}
	return mock.AppendFunc(ctx, contentID, res)
}

func (mock *logRepoMock) AppendCalls() []struct {
	ContentID uuid.UUID
	Res       domain.ValidationResult
} {
	mock.lockAppend.RLock()
	defer mock.lockAppend.RUnlock()
	return mock.calls.Append
}
