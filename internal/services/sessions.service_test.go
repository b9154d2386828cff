package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"streamwatch/internal/models"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

// memStore is an in-memory SessionStore.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]models.SessionSummary
	samples  []models.HistoricalMetrics
	err      error
}

func newMemStore(sessions ...models.SessionSummary) *memStore {
	m := &memStore{sessions: make(map[string]models.SessionSummary)}
	for _, s := range sessions {
		m.sessions[s.ID] = s
	}
	return m
}

func (m *memStore) SaveSession(_ context.Context, s models.SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("%w: %s", models.ErrSessionExists, s.ID)
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *memStore) GetSession(_ context.Context, id string) (*models.SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	return &s, nil
}

func (m *memStore) ListSessions(context.Context) ([]models.SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []models.SessionSummary{}
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) MetricsRange(ctx context.Context, id string, from, to int64) ([]models.HistoricalMetrics, error) {
	s, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	out := []models.HistoricalMetrics{}
	for _, sample := range m.samples {
		if sample.Timestamp >= max(from, s.StartTime) && sample.Timestamp <= min(to, s.EndTime) {
			out = append(out, sample)
		}
	}
	return out, nil
}

func TestSessionServiceCompare(t *testing.T) {
	st := newMemStore(session("a", 80, 50, 40, 10, 0), session("b", 85, 50, 40, 10, 0))
	svc := NewSessionService(st, zap.NewNop())

	got, err := svc.Compare(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	want := Compare(session("a", 80, 50, 40, 10, 0), session("b", 85, 50, 40, 10, 0))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Compare mismatch (-want +got):\n%s", diff)
	}
	if got := svc.LastError(); got != "" {
		t.Errorf("LastError = %q after success", got)
	}
}

func TestSessionServiceCompareUnknownSession(t *testing.T) {
	svc := NewSessionService(newMemStore(session("a", 80, 50, 40, 10, 0)), zap.NewNop())

	_, err := svc.Compare(context.Background(), "a", "missing")
	if !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if errors.Is(err, models.ErrTransport) {
		t.Errorf("not-found error also reported as transport failure: %v", err)
	}
}

func TestSessionServiceWrapsStoreFailures(t *testing.T) {
	st := newMemStore()
	st.err = errors.New("database is locked")
	svc := NewSessionService(st, zap.NewNop())

	_, err := svc.List(context.Background())
	if !errors.Is(err, models.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if !strings.Contains(err.Error(), "database is locked") {
		t.Errorf("err = %q, want cause included", err)
	}
}

func TestSessionServiceErrorStaysUntilCleared(t *testing.T) {
	st := newMemStore()
	st.err = errors.New("disk I/O error")
	svc := NewSessionService(st, zap.NewNop())

	if _, err := svc.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	msg := svc.LastError()
	if msg == "" {
		t.Fatal("LastError empty after failure")
	}

	// A later success does not dismiss the error.
	st.mu.Lock()
	st.err = nil
	st.mu.Unlock()
	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := svc.LastError(); got != msg {
		t.Errorf("LastError = %q, want %q", got, msg)
	}

	svc.ClearError()
	if got := svc.LastError(); got != "" {
		t.Errorf("LastError after ClearError = %q", got)
	}
}

func TestSessionServiceSave(t *testing.T) {
	svc := NewSessionService(newMemStore(), zap.NewNop())

	saved, err := svc.Save(context.Background(), models.SessionSummary{StartTime: 1000, EndTime: 2000, QualityScore: 90})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" {
		t.Error("Save did not assign an ID")
	}

	got, err := svc.Get(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(saved, *got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionServiceSaveDuplicateNotRecorded(t *testing.T) {
	st := newMemStore(models.SessionSummary{ID: "dup", StartTime: 1000, EndTime: 2000})
	svc := NewSessionService(st, zap.NewNop())

	_, err := svc.Save(context.Background(), models.SessionSummary{ID: "dup", StartTime: 1000, EndTime: 2000})
	if !errors.Is(err, models.ErrSessionExists) {
		t.Fatalf("err = %v, want ErrSessionExists", err)
	}
	if errors.Is(err, models.ErrTransport) {
		t.Errorf("duplicate reported as transport failure: %v", err)
	}
	if got := svc.LastError(); got != "" {
		t.Errorf("LastError = %q, want empty", got)
	}
}

func TestSessionServiceGet(t *testing.T) {
	svc := NewSessionService(newMemStore(session("a", 80, 50, 40, 10, 0)), zap.NewNop())

	got, err := svc.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "a" || got.QualityScore != 80 {
		t.Errorf("Get = %+v", got)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionServiceSaveRejectsInvalid(t *testing.T) {
	svc := NewSessionService(newMemStore(), zap.NewNop())

	for _, s := range []models.SessionSummary{
		{ID: "zero-start", StartTime: 0, EndTime: 10},
		{ID: "reversed", StartTime: 2000, EndTime: 1000},
	} {
		if _, err := svc.Save(context.Background(), s); !errors.Is(err, ErrInvalidSession) {
			t.Errorf("%s: err = %v, want ErrInvalidSession", s.ID, err)
		}
	}
	if got := svc.LastError(); got != "" {
		t.Errorf("validation failure recorded as LastError %q", got)
	}
}

func TestSessionServiceMetricsRange(t *testing.T) {
	st := newMemStore(models.SessionSummary{ID: "s", StartTime: 100, EndTime: 200})
	st.samples = []models.HistoricalMetrics{
		{Timestamp: 50, CPUPercent: 1},
		{Timestamp: 150, CPUPercent: 2},
		{Timestamp: 250, CPUPercent: 3},
	}
	svc := NewSessionService(st, zap.NewNop())

	got, err := svc.MetricsRange(context.Background(), "s", 0, 1000)
	if err != nil {
		t.Fatalf("MetricsRange: %v", err)
	}
	if diff := cmp.Diff([]models.HistoricalMetrics{{Timestamp: 150, CPUPercent: 2}}, got); diff != "" {
		t.Errorf("MetricsRange mismatch (-want +got):\n%s", diff)
	}
}
