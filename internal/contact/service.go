package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/folio/internal/apperr"
)

// ErrRateLimited is returned when a sender exceeds the submission limit.
var ErrRateLimited = errors.New("contact: rate limited")

// SuccessMessage is returned to the client after a stored submission.
const SuccessMessage = "Thank you for your message."

// Options configures a Service.
type Options struct {
	// Limit is the number of messages one remote address may send per Window. Zero disables the limit.
	Limit  int
	Window time.Duration
	Now    func() time.Time
	Logger *slog.Logger
}

// Service accepts contact form submissions.
type Service struct {
	store  *Store
	limit  int
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a Service backed by store.
func NewService(store *Store, opts Options) *Service {
	s := &Service{store: store, limit: opts.Limit, window: opts.Window, now: opts.Now, logger: opts.Logger}
	if s.window <= 0 {
		s.window = time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Submit validates and stores a form. Validation failures wrap
// apperr.ErrInvalid; an exceeded limit returns ErrRateLimited.
func (s *Service) Submit(ctx context.Context, f Form, remote string) (*Message, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}

	now := s.now()
	if s.limit > 0 {
		n, err := s.store.CountSince(ctx, remote, now.Add(-s.window))
		if err != nil {
			return nil, err
		}
		if n >= s.limit {
			s.logger.Warn("contact: rate limited", slog.String("remote", remote), slog.Int("count", n))
			return nil, ErrRateLimited
		}
	}

	m := &Message{
		ID:         uuid.NewString(),
		Form:       f,
		RemoteAddr: remote,
		CreatedAt:  now.UTC(),
	}
	if err := s.store.Save(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("contact: received",
		slog.String("id", m.ID),
		slog.String("email", m.Email),
		slog.String("subject", m.Subject))
	return m, nil
}

// Recent returns the latest stored messages.
func (s *Service) Recent(ctx context.Context, limit int) ([]Message, error) {
	return s.store.List(ctx, limit)
}
