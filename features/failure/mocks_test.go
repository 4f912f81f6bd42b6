package failure_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"esgrag/features/failure"
	"esgrag/internal/content"
	"esgrag/internal/ingest"
)

const failureID = "0b6c1e9a-3f2d-4c8e-9a71-5d2f8e4b7c10"

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Save(ctx context.Context, f *failure.Failure) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockRepo) List(ctx context.Context) ([]failure.Failure, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]failure.Failure), args.Error(1)
}

func (m *MockRepo) Get(ctx context.Context, id string) (*failure.Failure, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*failure.Failure), args.Error(1)
}

func (m *MockRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepo) MarkRetried(ctx context.Context, id, errMsg string) error {
	return m.Called(ctx, id, errMsg).Error(0)
}

func (m *MockRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockIngester struct {
	mock.Mock
}

func (m *MockIngester) Ingest(ctx context.Context, items []content.Item) (ingest.Report, error) {
	args := m.Called(ctx, items)
	return args.Get(0).(ingest.Report), args.Error(1)
}
