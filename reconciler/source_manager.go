package reconciler

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-stylesync/livestyle"
	"github.com/jamesrr39/ownmap-stylesync/refcount"
)

// SourceManager decides when declared sources are added to and removed from the live style.
// A declared source is added (on the next ApplyChanges) when its first reference is taken,
// and removed straight away when its last reference is released.
// Sources that were in the style when it was loaded (base sources) are never added or removed.
type SourceManager struct {
	logger      *logpkg.Logger
	style       livestyle.Style
	baseSources map[string]livestyle.Source
	declared    map[string]livestyle.Source
	counter     *refcount.Counter[string]
	pending     []livestyle.Source
}

func NewSourceManager(logger *logpkg.Logger, style livestyle.Style, baseSources []livestyle.Source) *SourceManager {
	m := &SourceManager{
		logger:      logger,
		style:       style,
		baseSources: make(map[string]livestyle.Source),
		declared:    make(map[string]livestyle.Source),
	}

	for _, source := range baseSources {
		m.baseSources[source.SourceID()] = source
	}

	m.counter = refcount.NewCounter(m.onAcquire, m.onRelease)

	return m
}

func (m *SourceManager) GetBaseSource(id string) (livestyle.Source, errorsx.Error) {
	source, ok := m.baseSources[id]
	if !ok {
		return nil, errorsx.Wrap(ErrNotFound, "sourceID", id)
	}

	return source, nil
}

func (m *SourceManager) IsBaseSource(id string) bool {
	_, ok := m.baseSources[id]
	return ok
}

// AddReference takes a reference to a declared source.
// Two different source values may not be referenced under the same ID at the same time.
func (m *SourceManager) AddReference(source livestyle.Source) errorsx.Error {
	id := source.SourceID()
	if m.IsBaseSource(id) {
		return errorsx.Wrap(ErrIDCollision, "sourceID", id, "reason", "id belongs to a base source")
	}

	existing, ok := m.declared[id]
	if ok && existing != source {
		return errorsx.Wrap(ErrIDCollision, "sourceID", id, "reason", "a different source is already declared with this id")
	}

	if !ok {
		m.declared[id] = source
	}

	err := m.counter.Increment(id)
	if err != nil {
		if !ok {
			delete(m.declared, id)
		}
		return errorsx.Wrap(err)
	}

	return nil
}

func (m *SourceManager) RemoveReference(source livestyle.Source) errorsx.Error {
	id := source.SourceID()
	if m.IsBaseSource(id) {
		return errorsx.Wrap(ErrInvalidOperation, "sourceID", id, "reason", "base sources can't be removed")
	}

	existing, ok := m.declared[id]
	if ok && existing != source {
		return errorsx.Wrap(ErrIDCollision, "sourceID", id, "reason", "a different source is declared with this id")
	}

	err := m.counter.Decrement(id)
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}

func (m *SourceManager) ReferenceCount(id string) int {
	return m.counter.Count(id)
}

// ReferencedSourceCount is the amount of declared sources currently referenced by at least one layer
func (m *SourceManager) ReferencedSourceCount() int {
	return m.counter.Len()
}

// ApplyChanges adds every source that gained its first reference since the last call.
func (m *SourceManager) ApplyChanges() errorsx.Error {
	for len(m.pending) > 0 {
		source := m.pending[0]

		err := m.style.AddSource(source)
		if err != nil {
			return errorsx.Wrap(err, "sourceID", source.SourceID())
		}

		m.logger.Debug("added source %q", source.SourceID())
		m.pending = m.pending[1:]
	}

	m.pending = nil
	return nil
}

func (m *SourceManager) onAcquire(id string) errorsx.Error {
	m.pending = append(m.pending, m.declared[id])
	return nil
}

func (m *SourceManager) onRelease(id string) errorsx.Error {
	source := m.declared[id]

	for idx, pendingSource := range m.pending {
		if pendingSource.SourceID() == id {
			// never made it into the style
			m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
			delete(m.declared, id)
			return nil
		}
	}

	err := m.style.RemoveSource(source)
	if err != nil {
		return errorsx.Wrap(err)
	}

	m.logger.Debug("removed source %q", id)
	delete(m.declared, id)
	return nil
}
