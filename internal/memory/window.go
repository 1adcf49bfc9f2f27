package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/brainquest/internal/domain"
)

// window is one session's bounded turn list.
type window struct {
	mu    sync.Mutex
	turns []domain.Turn
}

// WindowStore is an in-process Store. Each session has its own lock so
// traffic on one session never blocks another.
type WindowStore struct {
	mu       sync.RWMutex
	sessions map[string]*window
	size     int
	now      func() time.Time
}

// NewWindowStore creates a store retaining at most size turns per session.
// A non-positive size falls back to DefaultWindow.
func NewWindowStore(size int) *WindowStore {
	if size <= 0 {
		size = DefaultWindow
	}
	return &WindowStore{
		sessions: make(map[string]*window),
		size:     size,
		now:      time.Now,
	}
}

// Size returns the per-session window bound.
func (s *WindowStore) Size() int { return s.size }

// session returns the container for id, creating it on first use.
func (s *WindowStore) session(id string) *window {
	s.mu.RLock()
	w, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return w
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.sessions[id]; ok {
		return w
	}
	w = &window{}
	s.sessions[id] = w
	return w
}

func (s *WindowStore) Get(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := s.session(sessionID)
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.turns), nil
}

func (s *WindowStore) Append(ctx context.Context, sessionID string, turn domain.Turn) (domain.Turn, error) {
	if err := ctx.Err(); err != nil {
		return domain.Turn{}, err
	}
	if !turn.Role.Valid() {
		return domain.Turn{}, fmt.Errorf("%w: %q", ErrInvalidRole, turn.Role)
	}
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = s.now()
	}

	w := s.session(sessionID)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = append(w.turns, turn)
	if over := len(w.turns) - s.size; over > 0 {
		// Copy so the evicted prefix is released.
		w.turns = slices.Clone(w.turns[over:])
	}
	return turn, nil
}

func (s *WindowStore) Remove(ctx context.Context, sessionID, turnID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	w := s.session(sessionID)
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.IndexFunc(w.turns, func(t domain.Turn) bool { return t.ID == turnID })
	if i < 0 {
		return false, nil
	}
	w.turns = slices.Delete(w.turns, i, i+1)
	return true, nil
}

func (s *WindowStore) Sessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
