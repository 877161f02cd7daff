// Package compose turns declarative scenes (sets of layers, sources and images) into reconciliation passes
// against a live style.
package compose

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/jamesrr39/goutil/dirtraversal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/ownmap-stylesync/reconciler"
	"github.com/jamesrr39/ownmap-stylesync/styling/mapboxglstyle"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScene = errors.New("invalid scene")

type SceneFormat string

const (
	SceneFormatYAML SceneFormat = "yaml"
	SceneFormatJSON SceneFormat = "json"
)

// SceneFormatFromPath picks the format from the file extension. Anything that isn't .json is read as YAML.
func SceneFormatFromPath(path string) SceneFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return SceneFormatJSON
	}
	return SceneFormatYAML
}

// LayerDeclaration is a layer the scene wants in the style, and where it should go
type LayerDeclaration struct {
	Anchor reconciler.Anchor
	Layer  *mapboxglstyle.Layer
	// Images are the IDs of images (scene or base) the layer draws
	Images []string
}

// Scene is the full declared state for one pass. Layers are in declared order.
type Scene struct {
	Sources map[string]*mapboxglstyle.Source
	Images  map[string]*mapboxglstyle.StyleImage
	Layers  []*LayerDeclaration

	// image ID -> file path, for images that have not been loaded yet
	imagePaths map[string]string
}

func NewScene() *Scene {
	return &Scene{
		Sources:    make(map[string]*mapboxglstyle.Source),
		Images:     make(map[string]*mapboxglstyle.StyleImage),
		imagePaths: make(map[string]string),
	}
}

type sceneFile struct {
	Sources map[string]*mapboxglstyle.Source `json:"sources" yaml:"sources"`
	Images  map[string]*imageEntry           `json:"images" yaml:"images"`
	Layers  []*layerEntry                    `json:"layers" yaml:"layers"`
}

type imageEntry struct {
	Path       string  `json:"path" yaml:"path"`
	PixelRatio float64 `json:"pixelRatio" yaml:"pixelRatio"`
	SDF        bool    `json:"sdf" yaml:"sdf"`
}

type layerEntry struct {
	mapboxglstyle.Layer `yaml:",inline"`
	Anchor              string   `json:"anchor" yaml:"anchor"`
	Images              []string `json:"images" yaml:"images"`
}

// ParseScene reads a scene document. Image files named by the scene are not read; see LoadImages.
func ParseScene(reader io.Reader, format SceneFormat) (*Scene, errorsx.Error) {
	file := new(sceneFile)

	var err error
	switch format {
	case SceneFormatJSON:
		err = json.NewDecoder(reader).Decode(file)
	case SceneFormatYAML:
		err = yaml.NewDecoder(reader).Decode(file)
		if err == io.EOF {
			// empty document: the empty scene
			err = nil
		}
	default:
		return nil, errorsx.Errorf("unknown scene format %q", format)
	}
	if err != nil {
		return nil, errorsx.Wrap(ErrInvalidScene, "format", format, "decodeError", err.Error())
	}

	scene := NewScene()

	for id, source := range file.Sources {
		if source == nil {
			return nil, errorsx.Wrap(ErrInvalidScene, "sourceID", id, "reason", "source is empty")
		}
		source.ID = id
		scene.Sources[id] = source
	}

	for id, entry := range file.Images {
		if entry == nil || entry.Path == "" {
			return nil, errorsx.Wrap(ErrInvalidScene, "imageID", id, "reason", "image has no path")
		}
		pixelRatio := entry.PixelRatio
		if pixelRatio == 0 {
			pixelRatio = 1
		}
		scene.Images[id] = &mapboxglstyle.StyleImage{ID: id, PixelRatio: pixelRatio, SDF: entry.SDF}
		scene.imagePaths[id] = entry.Path
	}

	for idx, entry := range file.Layers {
		if entry == nil {
			return nil, errorsx.Wrap(ErrInvalidScene, "layerIndex", idx, "reason", "layer is empty")
		}

		anchor, err := reconciler.ParseAnchor(entry.Anchor)
		if err != nil {
			return nil, errorsx.Wrap(ErrInvalidScene, "layerID", entry.ID, "reason", err.Error())
		}

		layer := entry.Layer
		scene.Layers = append(scene.Layers, &LayerDeclaration{
			Anchor: anchor,
			Layer:  &layer,
			Images: entry.Images,
		})
	}

	return scene, nil
}

// LoadScene reads a scene file, and the image files it names (relative to the scene file's directory).
func LoadScene(fs gofs.Fs, path string) (*Scene, errorsx.Error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	scene, err := ParseScene(bytes.NewReader(data), SceneFormatFromPath(path))
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	err = scene.LoadImages(fs, filepath.Dir(path))
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	return scene, nil
}

// LoadImages decodes the image files of the scene. Relative paths are resolved against dir.
// PNG, JPEG, WebP and BMP files are supported.
func (s *Scene) LoadImages(fs gofs.Fs, dir string) errorsx.Error {
	for id, path := range s.imagePaths {
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}

		file, err := fs.Open(path)
		if err != nil {
			return errorsx.Wrap(err, "imageID", id, "path", path)
		}

		img, _, err := image.Decode(file)
		file.Close()
		if err != nil {
			return errorsx.Wrap(ErrInvalidScene, "imageID", id, "path", path, "decodeError", err.Error())
		}

		s.Images[id].Image = img
		delete(s.imagePaths, id)
	}

	return nil
}

// LoadImagesWithin is LoadImages for scenes from untrusted callers: every image path must be relative,
// and may not go up out of dir.
func (s *Scene) LoadImagesWithin(fs gofs.Fs, dir string) errorsx.Error {
	for id, path := range s.imagePaths {
		if filepath.IsAbs(path) {
			return errorsx.Wrap(ErrInvalidScene, "imageID", id, "path", path, "reason", "absolute image paths are not allowed")
		}

		if dirtraversal.IsTryingToTraverseUp(path) {
			return errorsx.Wrap(ErrInvalidScene, "imageID", id, "path", path, "reason", "not allowed to traverse up with image path")
		}
	}

	return s.LoadImages(fs, dir)
}

// LayerIDs gives the IDs of the declared layers, in declared order
func (s *Scene) LayerIDs() []string {
	ids := make([]string, 0, len(s.Layers))
	for _, decl := range s.Layers {
		ids = append(ids, decl.Layer.ID)
	}
	return ids
}
