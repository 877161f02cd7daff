package reconciler

import (
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-stylesync/livestyle"
	"github.com/jamesrr39/ownmap-stylesync/refcount"
)

// ImageManager registers declared images with the live style while at least one layer references them.
// It works the same way as SourceManager.
type ImageManager struct {
	logger     *logpkg.Logger
	style      livestyle.Style
	baseImages map[string]livestyle.Image
	declared   map[string]livestyle.Image
	counter    *refcount.Counter[string]
	pending    []livestyle.Image
}

func NewImageManager(logger *logpkg.Logger, style livestyle.Style, baseImages []livestyle.Image) *ImageManager {
	m := &ImageManager{
		logger:     logger,
		style:      style,
		baseImages: make(map[string]livestyle.Image),
		declared:   make(map[string]livestyle.Image),
	}

	for _, image := range baseImages {
		m.baseImages[image.ImageID()] = image
	}

	m.counter = refcount.NewCounter(m.onAcquire, m.onRelease)

	return m
}

func (m *ImageManager) IsBaseImage(id string) bool {
	_, ok := m.baseImages[id]
	return ok
}

func (m *ImageManager) AddReference(image livestyle.Image) errorsx.Error {
	id := image.ImageID()
	if m.IsBaseImage(id) {
		return errorsx.Wrap(ErrIDCollision, "imageID", id, "reason", "id belongs to a base image")
	}

	existing, ok := m.declared[id]
	if ok && existing != image {
		return errorsx.Wrap(ErrIDCollision, "imageID", id, "reason", "a different image is already declared with this id")
	}

	if !ok {
		m.declared[id] = image
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

func (m *ImageManager) RemoveReference(image livestyle.Image) errorsx.Error {
	id := image.ImageID()
	if m.IsBaseImage(id) {
		return errorsx.Wrap(ErrInvalidOperation, "imageID", id, "reason", "base images can't be removed")
	}

	existing, ok := m.declared[id]
	if ok && existing != image {
		return errorsx.Wrap(ErrIDCollision, "imageID", id, "reason", "a different image is declared with this id")
	}

	err := m.counter.Decrement(id)
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}

func (m *ImageManager) ReferenceCount(id string) int {
	return m.counter.Count(id)
}

// ReferencedImageIDs gives the declared images currently referenced by at least one layer, sorted
func (m *ImageManager) ReferencedImageIDs() []string {
	ids := m.counter.Keys()
	sort.Strings(ids)
	return ids
}

func (m *ImageManager) ApplyChanges() errorsx.Error {
	for len(m.pending) > 0 {
		image := m.pending[0]

		err := m.style.AddImage(image)
		if err != nil {
			return errorsx.Wrap(err, "imageID", image.ImageID())
		}

		m.logger.Debug("added image %q", image.ImageID())
		m.pending = m.pending[1:]
	}

	m.pending = nil
	return nil
}

func (m *ImageManager) onAcquire(id string) errorsx.Error {
	m.pending = append(m.pending, m.declared[id])
	return nil
}

func (m *ImageManager) onRelease(id string) errorsx.Error {
	image := m.declared[id]

	for idx, pendingImage := range m.pending {
		if pendingImage.ImageID() == id {
			m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
			delete(m.declared, id)
			return nil
		}
	}

	err := m.style.RemoveImage(image)
	if err != nil {
		return errorsx.Wrap(err)
	}

	m.logger.Debug("removed image %q", id)
	delete(m.declared, id)
	return nil
}
