package app

import "context"

// MockVectorStore fails the first FailFirst calls with Err; FailFirst < 0 fails every call.
type MockVectorStore struct {
	Err       error
	FailFirst int
	Calls     int
}

func (m *MockVectorStore) EnsureSchema(ctx context.Context) error {
	m.Calls++
	if m.FailFirst < 0 || m.Calls <= m.FailFirst {
		return m.Err
	}
	return nil
}
