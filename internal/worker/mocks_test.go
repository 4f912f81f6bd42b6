package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"esgrag/internal/content"
	"esgrag/internal/ingest"
)

type MockIngester struct{ mock.Mock }

func (m *MockIngester) Ingest(ctx context.Context, items []content.Item) (ingest.Report, error) {
	args := m.Called(ctx, items)
	return args.Get(0).(ingest.Report), args.Error(1)
}

type MockRecorder struct{ mock.Mock }

func (m *MockRecorder) Record(ctx context.Context, failures []ingest.Failure) error {
	return m.Called(ctx, failures).Error(0)
}

type MockTaskPublisher struct{ mock.Mock }

func (m *MockTaskPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}
