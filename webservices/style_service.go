package webservices

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-stylesync/compose"
	"github.com/jamesrr39/ownmap-stylesync/livestyle"
	"github.com/jamesrr39/ownmap-stylesync/reconciler"
	"github.com/jamesrr39/ownmap-stylesync/styling/mapboxglstyle"
)

type StyleService struct {
	logger  *logpkg.Logger
	session *StyleSession
	chi.Router
}

func NewStyleService(logger *logpkg.Logger, session *StyleSession) *StyleService {
	ss := &StyleService{logger, session, chi.NewRouter()}

	ss.Get("/", ss.handleGetStyle)
	ss.Get("/layers", ss.handleGetLayers)
	ss.Put("/scene", ss.handlePutScene)

	return ss
}

func (ss *StyleService) handleGetStyle(w http.ResponseWriter, r *http.Request) {
	var doc *mapboxglstyle.StyleDocument
	ss.session.View(func(style *livestyle.MemoryStyle, manager *reconciler.StyleManager) {
		doc = style.Document()
	})

	render.JSON(w, r, doc)
}

func (ss *StyleService) handleGetLayers(w http.ResponseWriter, r *http.Request) {
	var layerIDs []string
	ss.session.View(func(style *livestyle.MemoryStyle, manager *reconciler.StyleManager) {
		layerIDs = style.LayerIDs()
	})

	render.JSON(w, r, layerIDs)
}

func (ss *StyleService) handlePutScene(w http.ResponseWriter, r *http.Request) {
	scene, err := compose.ParseScene(r.Body, sceneFormatFromRequest(r))
	if err != nil {
		errorsx.HTTPJSONError(w, ss.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	summary, err := ss.session.ApplyScene(scene)
	if err != nil {
		errorsx.HTTPJSONError(w, ss.logger, errorsx.Wrap(err), statusCodeForApplyError(err))
		return
	}

	render.JSON(w, r, summary)
}

// sceneFormatFromRequest reads the "format" query parameter, falling back to the Content-Type header. YAML is the default.
func sceneFormatFromRequest(r *http.Request) compose.SceneFormat {
	switch r.URL.Query().Get("format") {
	case string(compose.SceneFormatJSON):
		return compose.SceneFormatJSON
	case string(compose.SceneFormatYAML):
		return compose.SceneFormatYAML
	}

	if strings.Contains(r.Header.Get("Content-Type"), "json") {
		return compose.SceneFormatJSON
	}

	return compose.SceneFormatYAML
}

func statusCodeForApplyError(err errorsx.Error) int {
	if errorsx.Cause(err) == compose.ErrInvalidScene || reconciler.IsValidationError(err) {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}
