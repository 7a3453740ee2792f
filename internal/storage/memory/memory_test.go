package memory

import (
	"sync"
	"testing"

	"github.com/felipedec/airport/internal/model"
	"github.com/felipedec/airport/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.Backend      = (*Backend)(nil)
	_ storage.FlightLister = (*Backend)(nil)
)

func TestRecordBeforeSession(t *testing.T) {
	b := New()
	require.NoError(t, b.Init())
	defer b.Close()

	assert.ErrorIs(t, b.RecordTransition(&model.Transition{}), storage.ErrNoSession)
	assert.ErrorIs(t, b.RecordFlight(&model.Flight{}), storage.ErrNoSession)
	assert.ErrorIs(t, b.EndSession(), storage.ErrNoSession)
}

func TestSessionLifecycle(t *testing.T) {
	b := New()
	first := &model.Session{Name: "a"}
	require.NoError(t, b.StartSession(first))
	require.NoError(t, b.RecordTransition(&model.Transition{Transponder: "0001"}))

	second := &model.Session{Name: "b"}
	require.NoError(t, b.StartSession(second))
	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, uint(2), second.ID)

	recent, err := b.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, recent, "a new session starts with an empty journal")

	require.NoError(t, b.EndSession())
	assert.NotNil(t, b.Session().EndedAt)
}

func TestRecentReturnsTail(t *testing.T) {
	b := New()
	require.NoError(t, b.StartSession(&model.Session{}))
	for _, code := range []string{"0001", "0002", "0003"} {
		require.NoError(t, b.RecordTransition(&model.Transition{Transponder: code}))
	}

	tests := []struct {
		n    int
		want []string
	}{
		{2, []string{"0002", "0003"}},
		{10, []string{"0001", "0002", "0003"}},
		{0, []string{"0001", "0002", "0003"}},
	}
	for _, tt := range tests {
		got, err := b.Recent(tt.n)
		require.NoError(t, err)
		var codes []string
		for _, tr := range got {
			assert.Equal(t, uint(1), tr.SessionID)
			codes = append(codes, tr.Transponder)
		}
		assert.Equal(t, tt.want, codes, "n=%d", tt.n)
	}
}

func TestFlights(t *testing.T) {
	b := New()
	require.NoError(t, b.StartSession(&model.Session{}))
	require.NoError(t, b.RecordFlight(&model.Flight{Transponder: "0001", Outcome: "crashed"}))

	flights, err := b.Flights(5)
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, "crashed", flights[0].Outcome)
}

func TestConcurrentRecords(t *testing.T) {
	b := New()
	require.NoError(t, b.StartSession(&model.Session{}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = b.RecordTransition(&model.Transition{})
				_, _ = b.Recent(3)
			}
		}()
	}
	wg.Wait()

	all, err := b.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 400)
}
