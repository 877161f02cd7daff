package refcount

import (
	"errors"

	"github.com/jamesrr39/goutil/errorsx"
)

// ErrPreconditionViolation is raised (as a panic) when the counter is asked to do something
// a correct caller never asks for, such as releasing a key it never acquired.
var ErrPreconditionViolation = errors.New("precondition violation")

// Counter is a keyed reference counter. onAcquire is called on the 0->1 transition of a key,
// onRelease on the 1->0 transition.
// A key is present in the counter if and only if its count is greater than 0.
// Counter is not safe for concurrent use.
type Counter[K comparable] struct {
	counts    map[K]int
	onAcquire func(key K) errorsx.Error
	onRelease func(key K) errorsx.Error
}

func NewCounter[K comparable](onAcquire, onRelease func(key K) errorsx.Error) *Counter[K] {
	return &Counter[K]{
		counts:    make(map[K]int),
		onAcquire: onAcquire,
		onRelease: onRelease,
	}
}

// Increment adds a reference to key. If the acquire callback fails, the counter is left as it was.
func (c *Counter[K]) Increment(key K) errorsx.Error {
	count, ok := c.counts[key]
	if ok {
		c.counts[key] = count + 1
		return nil
	}

	c.counts[key] = 1
	if c.onAcquire == nil {
		return nil
	}

	err := c.onAcquire(key)
	if err != nil {
		delete(c.counts, key)
		return errorsx.Wrap(err)
	}

	return nil
}

// Decrement removes a reference to key. It panics if key holds no references.
// If the release callback fails, the counter is left as it was.
func (c *Counter[K]) Decrement(key K) errorsx.Error {
	count, ok := c.counts[key]
	if !ok || count <= 0 {
		panic(errorsx.Wrap(ErrPreconditionViolation, "reason", "decrement of a key with no references", "key", key))
	}

	if count > 1 {
		c.counts[key] = count - 1
		return nil
	}

	delete(c.counts, key)
	if c.onRelease == nil {
		return nil
	}

	err := c.onRelease(key)
	if err != nil {
		c.counts[key] = count
		return errorsx.Wrap(err)
	}

	return nil
}

// Count returns the amount of references currently held for key (0 if none).
func (c *Counter[K]) Count(key K) int {
	return c.counts[key]
}

func (c *Counter[K]) Len() int {
	return len(c.counts)
}

// Keys returns all keys currently holding at least one reference, in no particular order.
func (c *Counter[K]) Keys() []K {
	keys := make([]K, 0, len(c.counts))
	for key := range c.counts {
		keys = append(keys, key)
	}
	return keys
}
