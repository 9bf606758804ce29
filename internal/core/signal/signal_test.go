package signal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubscribeOrderAndEmit(t *testing.T) {
	s := New[int]()
	var calls []string
	s.Subscribe(func(v int) error {
		calls = append(calls, "first")
		return nil
	})
	s.Subscribe(func(v int) error {
		calls = append(calls, "second")
		return nil
	})

	require.NoError(t, s.Emit(1))
	require.Equal(t, []string{"first", "second"}, calls)
	require.Equal(t, 2, s.Len())
}

func TestUnsubscribe(t *testing.T) {
	s := New[string]()
	count := 0
	unsub := s.Subscribe(func(string) error {
		count++
		return nil
	})

	require.NoError(t, s.Emit("a"))
	unsub()
	require.NoError(t, s.Emit("b"))
	require.Equal(t, 1, count)

	// Cancelling twice is a no-op.
	unsub()
	require.Equal(t, 0, s.Len())
}

func TestEmitDeliversPastFailures(t *testing.T) {
	s := New[int]()
	boom := errors.New("boom")
	reached := false
	s.Subscribe(func(int) error { return boom })
	s.Subscribe(func(int) error {
		reached = true
		return nil
	})

	err := s.Emit(0)
	require.ErrorIs(t, err, boom)
	require.True(t, reached, "later handlers must still run")
}

func TestSubscribeDuringEmitDoesNotAffectCurrentDelivery(t *testing.T) {
	s := New[int]()
	nested := 0
	s.Subscribe(func(int) error {
		s.Subscribe(func(int) error {
			nested++
			return nil
		})
		return nil
	})

	require.NoError(t, s.Emit(1))
	require.Equal(t, 0, nested)
	require.NoError(t, s.Emit(2))
	require.Equal(t, 1, nested)
}

func TestEmitAsyncSettlesAllHandlers(t *testing.T) {
	s := New[int]()
	boom := errors.New("boom")
	done := make(chan struct{})
	s.Subscribe(func(int) error { return boom })
	s.Subscribe(func(int) error {
		close(done)
		return nil
	})

	select {
	case err := <-s.EmitAsync(7):
		require.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("EmitAsync did not settle")
	}
	select {
	case <-done:
	default:
		t.Fatal("all handlers must have run before the result settles")
	}
}

func TestClear(t *testing.T) {
	s := New[int]()
	count := 0
	s.Subscribe(func(int) error {
		count++
		return nil
	})
	s.Clear()
	require.NoError(t, s.Emit(1))
	require.Equal(t, 0, count)
	require.Equal(t, 0, s.Len())
}

func TestMetaSignals(t *testing.T) {
	s := New[int]()

	var subCounts, unsubCounts []int
	s.OnSubscribe().Subscribe(func(n int) error {
		subCounts = append(subCounts, n)
		return nil
	})
	s.OnUnsubscribe().Subscribe(func(n int) error {
		unsubCounts = append(unsubCounts, n)
		return nil
	})

	u1 := s.Subscribe(func(int) error { return nil })
	s.Subscribe(func(int) error { return nil })
	u1()
	s.Clear()

	require.Equal(t, []int{1, 2}, subCounts)
	require.Equal(t, []int{1, 0}, unsubCounts)
}
