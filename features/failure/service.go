package failure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"esgrag/internal/content"
	"esgrag/internal/ingest"
)

type Ingester interface {
	Ingest(ctx context.Context, items []content.Item) (ingest.Report, error)
}

// ErrNotRetryable is returned for ledger entries whose payload does not
// describe a complete item, such as unreachable audio sources.
var ErrNotRetryable = errors.New("failure is not retryable")

// ErrInvalidID is returned for ids that cannot name a ledger row.
var ErrInvalidID = errors.New("invalid failure id")

type Service struct {
	repo     Repository
	ingester Ingester
	logger   *slog.Logger
}

func NewService(repo Repository, ing Ingester, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ingester: ing, logger: logger}
}

// Record stores every failure. It keeps going past individual save errors and
// returns them joined.
func (s *Service) Record(ctx context.Context, failures []ingest.Failure) error {
	var errs []error
	for _, f := range failures {
		payload, err := json.Marshal(f.Payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode payload of %s: %w", f.ID, err))
			continue
		}
		entry := &Failure{
			ItemID:      f.ID,
			ContentType: string(f.ContentType),
			Key:         f.Key,
			Kind:        string(f.Kind),
			Payload:     payload,
			Error:       f.Error,
		}
		if err := s.repo.Save(ctx, entry); err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.InfoContext(ctx, "failure recorded", "failure_id", entry.ID, "id", f.ID, "kind", f.Kind)
	}
	return errors.Join(errs...)
}

func (s *Service) List(ctx context.Context) ([]Failure, error) {
	return s.repo.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Retry re-normalizes the stored payload and ingests it. The entry is removed
// once the item is stored or found to exist; otherwise its retry counter is
// bumped. The returned bool reports whether the entry was resolved.
func (s *Service) Retry(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}

	var props map[string]any
	if err := json.Unmarshal(f.Payload, &props); err != nil {
		return false, fmt.Errorf("decode payload: %w", err)
	}
	item, err := content.FromProperties(props)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrNotRetryable, err)
	}

	report, err := s.ingester.Ingest(ctx, []content.Item{item})
	if err != nil {
		return false, err
	}

	if len(report.Failed) > 0 {
		msg := report.Failed[0].Error
		s.logger.WarnContext(ctx, "retry failed", "failure_id", id, "kind", report.Failed[0].Kind, "error", msg)
		if err := s.repo.MarkRetried(ctx, id, msg); err != nil {
			return false, err
		}
		return false, nil
	}

	s.logger.InfoContext(ctx, "failure resolved", "failure_id", id, "written", report.Written, "skipped", report.Skipped)
	return true, s.repo.Delete(ctx, id)
}
