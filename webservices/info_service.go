package webservices

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-stylesync/livestyle"
	"github.com/jamesrr39/ownmap-stylesync/reconciler"
	"github.com/jamesrr39/ownmap-stylesync/styling"
	"github.com/jamesrr39/ownmap-stylesync/styling/mapboxglstyle"
	"github.com/paulmach/osm"
)

func NewInfoService(logger *logpkg.Logger, styleSet *styling.StyleSet, session *StyleSession) *InfoService {
	ws := &InfoService{logger, styleSet, session, chi.NewRouter()}
	ws.Get("/", ws.handleGet)

	return ws
}

type InfoService struct {
	logger   *logpkg.Logger
	styleSet *styling.StyleSet
	session  *StyleSession
	chi.Router
}

type stylesType struct {
	CurrentStyleID string   `json:"currentStyleId"`
	StyleIDs       []string `json:"styleIds"`
}

type sourceInfoType struct {
	ID        string                   `json:"id"`
	Type      mapboxglstyle.SourceType `json:"type,omitempty"`
	Base      bool                     `json:"base"`
	Bounds    osm.Bounds               `json:"bounds"`
	TileRange TileRange                `json:"tileRange"`
	TileCount int                      `json:"tileCount"`
	// References is the amount of declared layers using the source. Always 0 for base sources.
	References int `json:"references"`
}

type infoType struct {
	Style             stylesType `json:"style"`
	LayerCount        int        `json:"layerCount"`
	VisibleLayerCount int        `json:"visibleLayerCount"`
	DeclaredLayerIDs  []string   `json:"declaredLayerIds"`
	// DeclaredSourceCount is the amount of scene sources currently in the style
	DeclaredSourceCount int               `json:"declaredSourceCount"`
	DeclaredImageIDs    []string          `json:"declaredImageIds"`
	Sources             []*sourceInfoType `json:"sources"`
}

func (ws *InfoService) handleGet(w http.ResponseWriter, r *http.Request) {
	info := infoType{
		Style: stylesType{
			ws.session.BaseStyleID(),
			ws.styleSet.GetAllStyleIDs(),
		},
		DeclaredLayerIDs: []string{},
		DeclaredImageIDs: []string{},
		Sources:          []*sourceInfoType{},
	}

	var err errorsx.Error
	ws.session.View(func(style *livestyle.MemoryStyle, manager *reconciler.StyleManager) {
		layers := style.GetLayers()
		info.LayerCount = len(layers)
		for _, layer := range layers {
			glLayer, ok := layer.(*mapboxglstyle.Layer)
			if !ok || glLayer.IsVisible() {
				info.VisibleLayerCount++
			}
		}

		for _, node := range manager.DeclaredLayers() {
			info.DeclaredLayerIDs = append(info.DeclaredLayerIDs, node.ID())
		}

		info.DeclaredSourceCount = manager.ReferencedSourceCount()
		info.DeclaredImageIDs = append(info.DeclaredImageIDs, manager.ReferencedImageIDs()...)

		for _, source := range style.GetSources() {
			var sourceInfo *sourceInfoType
			sourceInfo, err = newSourceInfo(source, manager)
			if err != nil {
				return
			}
			info.Sources = append(info.Sources, sourceInfo)
		}
	})
	if err != nil {
		errorsx.HTTPError(w, ws.logger, err, http.StatusInternalServerError)
		return
	}

	// make deterministic
	sort.Slice(info.Sources, func(a, b int) bool {
		return info.Sources[a].ID < info.Sources[b].ID
	})

	render.JSON(w, r, info)
}

func newSourceInfo(source livestyle.Source, manager *reconciler.StyleManager) (*sourceInfoType, errorsx.Error) {
	sourceInfo := &sourceInfoType{
		ID:         source.SourceID(),
		Base:       manager.IsBaseSource(source.SourceID()),
		References: manager.SourceReferenceCount(source.SourceID()),
	}

	glSource, ok := source.(*mapboxglstyle.Source)
	if !ok {
		return sourceInfo, nil
	}

	bounds, err := glSource.OSMBounds()
	if err != nil {
		return nil, errorsx.Wrap(err, "sourceID", source.SourceID())
	}

	zoomLevel := 0
	if glSource.MinZoom != nil {
		zoomLevel = int(*glSource.MinZoom)
	}

	sourceInfo.Type = glSource.Type
	sourceInfo.Bounds = bounds
	sourceInfo.TileRange = TileRangeForBounds(bounds, zoomLevel)
	sourceInfo.TileCount = sourceInfo.TileRange.TileCount()

	return sourceInfo, nil
}
