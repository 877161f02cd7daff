package refcount

import (
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	acquired []string
	released []string
}

func newLoggingCounter() (*Counter[string], *callLog) {
	log := &callLog{}
	counter := NewCounter(
		func(key string) errorsx.Error {
			log.acquired = append(log.acquired, key)
			return nil
		},
		func(key string) errorsx.Error {
			log.released = append(log.released, key)
			return nil
		},
	)
	return counter, log
}

func TestCounter_acquireAndReleaseOnce(t *testing.T) {
	counter, log := newLoggingCounter()

	require.NoError(t, counter.Increment("a"))
	require.NoError(t, counter.Increment("a"))
	require.NoError(t, counter.Increment("a"))
	assert.Equal(t, 3, counter.Count("a"))
	assert.Equal(t, []string{"a"}, log.acquired)

	require.NoError(t, counter.Decrement("a"))
	require.NoError(t, counter.Decrement("a"))
	assert.Empty(t, log.released)
	assert.Equal(t, 1, counter.Count("a"))

	require.NoError(t, counter.Decrement("a"))
	assert.Equal(t, []string{"a"}, log.released)
	assert.Equal(t, 0, counter.Count("a"))
	assert.Equal(t, 0, counter.Len())
}

func TestCounter_conservation(t *testing.T) {
	type op struct {
		increment bool
		key       string
	}
	tests := []struct {
		name             string
		ops              []op
		expectedAcquired []string
		expectedReleased []string
	}{
		{
			"interleaved keys",
			[]op{{true, "a"}, {true, "b"}, {true, "a"}, {false, "b"}, {false, "a"}, {true, "b"}, {false, "a"}},
			[]string{"a", "b", "b"},
			[]string{"b", "a"},
		}, {
			"reacquire after release",
			[]op{{true, "a"}, {false, "a"}, {true, "a"}},
			[]string{"a", "a"},
			[]string{"a"},
		}, {
			"many intermediate references",
			[]op{{true, "a"}, {true, "a"}, {false, "a"}, {true, "a"}, {true, "a"}, {false, "a"}, {false, "a"}},
			[]string{"a"},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter, log := newLoggingCounter()
			for _, o := range tt.ops {
				var err errorsx.Error
				if o.increment {
					err = counter.Increment(o.key)
				} else {
					err = counter.Decrement(o.key)
				}
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expectedAcquired, log.acquired)
			assert.Equal(t, tt.expectedReleased, log.released)
		})
	}
}

func TestCounter_decrementWithoutReferencePanics(t *testing.T) {
	counter, _ := newLoggingCounter()

	assert.Panics(t, func() {
		counter.Decrement("never-added")
	})

	require.NoError(t, counter.Increment("a"))
	require.NoError(t, counter.Decrement("a"))
	assert.Panics(t, func() {
		counter.Decrement("a")
	})
}

func TestCounter_failedCallbacksRollBack(t *testing.T) {
	failAcquire := true
	failRelease := true
	counter := NewCounter(
		func(key int) errorsx.Error {
			if failAcquire {
				return errorsx.Errorf("acquire failed")
			}
			return nil
		},
		func(key int) errorsx.Error {
			if failRelease {
				return errorsx.Errorf("release failed")
			}
			return nil
		},
	)

	err := counter.Increment(1)
	require.Error(t, err)
	assert.Equal(t, 0, counter.Count(1))

	failAcquire = false
	require.NoError(t, counter.Increment(1))

	err = counter.Decrement(1)
	require.Error(t, err)
	assert.Equal(t, 1, counter.Count(1))

	failRelease = false
	require.NoError(t, counter.Decrement(1))
	assert.Equal(t, 0, counter.Len())
}

func TestCounter_Keys(t *testing.T) {
	counter := NewCounter[string](nil, nil)
	require.NoError(t, counter.Increment("x"))
	require.NoError(t, counter.Increment("y"))
	require.NoError(t, counter.Increment("y"))

	assert.ElementsMatch(t, []string{"x", "y"}, counter.Keys())
}
