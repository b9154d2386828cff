package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"streamwatch/internal/models"
	"streamwatch/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidSession is returned for summaries that cannot be stored.
var ErrInvalidSession = errors.New("invalid session summary")

// SessionService serves one-shot session queries.
//
// Failures are returned to the caller and also kept as the last error until
// ClearError is called. Nothing is retried automatically.
type SessionService struct {
	store store.SessionStore
	log   *zap.Logger

	mu      sync.Mutex
	lastErr string
}

// NewSessionService creates a service over st.
func NewSessionService(st store.SessionStore, logger *zap.Logger) *SessionService {
	return &SessionService{store: st, log: logger}
}

// List returns every stored session, newest first.
func (s *SessionService) List(ctx context.Context) ([]models.SessionSummary, error) {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		return nil, s.fail("list sessions", err)
	}
	return sessions, nil
}

// Get returns one session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.SessionSummary, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, s.fail("get session", err)
	}
	return session, nil
}

// Save stores a finished session. A missing ID is generated.
func (s *SessionService) Save(ctx context.Context, summary models.SessionSummary) (models.SessionSummary, error) {
	if summary.ID == "" {
		summary.ID = uuid.NewString()
	}
	if summary.StartTime <= 0 || summary.EndTime < summary.StartTime {
		return summary, fmt.Errorf("%w: start %d, end %d", ErrInvalidSession, summary.StartTime, summary.EndTime)
	}
	if err := s.store.SaveSession(ctx, summary); err != nil {
		if errors.Is(err, models.ErrSessionExists) {
			return summary, fmt.Errorf("save session: %w", err)
		}
		return summary, s.fail("save session", err)
	}
	s.log.Info("session stored", zap.String("session_id", summary.ID))
	return summary, nil
}

// MetricsRange returns samples recorded during session id within [from, to].
func (s *SessionService) MetricsRange(ctx context.Context, id string, from, to int64) ([]models.HistoricalMetrics, error) {
	samples, err := s.store.MetricsRange(ctx, id, from, to)
	if err != nil {
		return nil, s.fail("fetch metrics range", err)
	}
	return samples, nil
}

// Compare loads both sessions concurrently and diffs them, treating afterID
// as the later session.
func (s *SessionService) Compare(ctx context.Context, beforeID, afterID string) (models.ComparisonResult, error) {
	var before, after *models.SessionSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		before, err = s.store.GetSession(gctx, beforeID)
		return err
	})
	g.Go(func() error {
		var err error
		after, err = s.store.GetSession(gctx, afterID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.ComparisonResult{}, s.fail("compare sessions", err)
	}

	return Compare(*before, *after), nil
}

// LastError returns the message of the most recent failure, or "".
func (s *SessionService) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError dismisses the last failure.
func (s *SessionService) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

// fail records err and classifies it. Unknown sessions stay
// models.ErrSessionNotFound; anything else is a transport failure.
func (s *SessionService) fail(op string, err error) error {
	if !errors.Is(err, models.ErrSessionNotFound) && !errors.Is(err, models.ErrTransport) {
		err = fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	err = fmt.Errorf("%s: %w", op, err)

	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()

	s.log.Warn("session request failed", zap.String("op", op), zap.Error(err))
	return err
}
