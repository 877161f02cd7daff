package webservices

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-stylesync/compose"
	"github.com/jamesrr39/ownmap-stylesync/livestyle"
	"github.com/jamesrr39/ownmap-stylesync/reconciler"
	"github.com/jamesrr39/ownmap-stylesync/styling"
	"github.com/jamesrr39/semaphore"
)

// StyleSession is one live style, loaded from a base style, that scenes are applied to.
// Reconciliation passes and reads of the live style are serialized, one at a time.
type StyleSession struct {
	logger    *logpkg.Logger
	baseStyle *styling.Style
	style     *livestyle.MemoryStyle
	applier   *compose.Applier
	fs        gofs.Fs
	scenesDir string
	sema      *semaphore.Semaphore
}

func NewStyleSession(logger *logpkg.Logger, fs gofs.Fs, scenesDir string, baseStyle *styling.Style) *StyleSession {
	style := livestyle.NewMemoryStyle(logger, baseStyle.Document)
	applier := compose.NewApplier(logger, reconciler.NewStyleManager(logger, style))

	return &StyleSession{logger, baseStyle, style, applier, fs, scenesDir, semaphore.NewSemaphore(1)}
}

func (s *StyleSession) BaseStyleID() string {
	return s.baseStyle.ID
}

// ApplyScene loads the scene's image files from the scenes dir and runs a reconciliation pass.
// Image paths must stay inside the scenes dir.
func (s *StyleSession) ApplyScene(scene *compose.Scene) (compose.PassSummary, errorsx.Error) {
	s.sema.Add()
	defer s.sema.Done()

	err := scene.LoadImagesWithin(s.fs, s.scenesDir)
	if err != nil {
		return compose.PassSummary{}, errorsx.Wrap(err)
	}

	return s.applier.Apply(scene)
}

// View runs fn with the live style, while no pass is running
func (s *StyleSession) View(fn func(style *livestyle.MemoryStyle, manager *reconciler.StyleManager)) {
	s.sema.Add()
	defer s.sema.Done()

	fn(s.style, s.applier.StyleManager())
}
