package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/soyeahso/brainquest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendN(t *testing.T, s Store, session string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := s.Append(context.Background(), session, domain.NewTurn(domain.RoleUser, fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
	}
}

func contents(turns []domain.Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Content
	}
	return out
}

func TestWindowStore_UnknownSessionEmpty(t *testing.T) {
	s := NewWindowStore(20)
	turns, err := s.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestWindowStore_AppendAssignsIDAndTimestamp(t *testing.T) {
	s := NewWindowStore(20)
	turn, err := s.Append(context.Background(), "s1", domain.NewTurn(domain.RoleUser, "hi"))
	require.NoError(t, err)
	assert.NotEmpty(t, turn.ID)
	assert.False(t, turn.Timestamp.IsZero())

	turns, err := s.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, turn, turns[0])
}

func TestWindowStore_FIFOEviction(t *testing.T) {
	s := NewWindowStore(20)
	appendN(t, s, "s1", 21)

	turns, err := s.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, turns, 20)
	assert.Equal(t, "m2", turns[0].Content)
	assert.Equal(t, "m21", turns[19].Content)
}

func TestWindowStore_OrderPreserved(t *testing.T) {
	s := NewWindowStore(3)
	appendN(t, s, "s1", 5)
	turns, err := s.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m3", "m4", "m5"}, contents(turns))
}

func TestWindowStore_SessionsIsolated(t *testing.T) {
	s := NewWindowStore(20)
	appendN(t, s, "a", 2)
	appendN(t, s, "b", 1)

	a, _ := s.Get(context.Background(), "a")
	b, _ := s.Get(context.Background(), "b")
	assert.Len(t, a, 2)
	assert.Len(t, b, 1)

	ids, err := s.Sessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestWindowStore_RejectsUnknownRole(t *testing.T) {
	s := NewWindowStore(20)
	_, err := s.Append(context.Background(), "s1", domain.NewTurn("", "no role"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	turns, err := s.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestWindowStore_GetReturnsCopy(t *testing.T) {
	s := NewWindowStore(20)
	appendN(t, s, "s1", 1)
	turns, _ := s.Get(context.Background(), "s1")
	turns[0].Content = "mutated"

	again, _ := s.Get(context.Background(), "s1")
	assert.Equal(t, "m1", again[0].Content)
}

func TestWindowStore_Remove(t *testing.T) {
	s := NewWindowStore(20)
	first, err := s.Append(context.Background(), "s1", domain.NewTurn(domain.RoleUser, "keep"))
	require.NoError(t, err)
	second, err := s.Append(context.Background(), "s1", domain.NewTurn(domain.RoleUser, "drop"))
	require.NoError(t, err)

	ok, err := s.Remove(context.Background(), "s1", second.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Remove(context.Background(), "s1", second.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	turns, _ := s.Get(context.Background(), "s1")
	require.Len(t, turns, 1)
	assert.Equal(t, first.ID, turns[0].ID)
}

func TestWindowStore_DefaultSize(t *testing.T) {
	assert.Equal(t, DefaultWindow, NewWindowStore(0).Size())
	assert.Equal(t, DefaultWindow, NewWindowStore(-1).Size())
	assert.Equal(t, 5, NewWindowStore(5).Size())
}

func TestWindowStore_CanceledContext(t *testing.T) {
	s := NewWindowStore(20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Append(ctx, "s1", domain.NewTurn(domain.RoleUser, "x"))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Get(ctx, "s1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWindowStore_ConcurrentAppendsSameSession(t *testing.T) {
	s := NewWindowStore(200)
	const workers, each = 10, 15

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				_, err := s.Append(context.Background(), "shared", domain.NewTurn(domain.RoleUser, fmt.Sprintf("w%d-%d", w, i)))
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	turns, err := s.Get(context.Background(), "shared")
	require.NoError(t, err)
	assert.Len(t, turns, workers*each)

	seen := make(map[string]bool)
	for _, turn := range turns {
		assert.False(t, seen[turn.ID], "duplicate turn id")
		seen[turn.ID] = true
	}
}

func TestWindowStore_ConcurrentAppendsRespectWindow(t *testing.T) {
	s := NewWindowStore(20)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_, _ = s.Append(context.Background(), "hot", domain.NewTurn(domain.RoleUser, "x"))
				turns, _ := s.Get(context.Background(), "hot")
				assert.LessOrEqual(t, len(turns), 20)
			}
		}()
	}
	wg.Wait()

	turns, _ := s.Get(context.Background(), "hot")
	assert.Len(t, turns, 20)
}
