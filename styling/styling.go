package styling

import (
	"path/filepath"
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-stylesync/styling/mapboxglstyle"
)

const BUILTIN_STYLEID = "__ownmap_builtin"

const styleDocumentFileName = "style.json"

// Style is a base style: a style document the live style is loaded from, before any scene is applied
type Style struct {
	ID       string
	Document *mapboxglstyle.StyleDocument
}

type StyleSet struct {
	stylesMap      map[string]*Style // map[Style ID]Style
	defaultStyleID string
}

func NewStyleSet(styles []*Style, defaultStyleID string) (*StyleSet, errorsx.Error) {
	styleSet := &StyleSet{
		stylesMap:      make(map[string]*Style),
		defaultStyleID: defaultStyleID,
	}

	defaultIDFound := false

	for _, style := range styles {
		styleID := style.ID
		_, ok := styleSet.stylesMap[styleID]
		if ok {
			return nil, errorsx.Errorf("duplicate style ID found: %q", styleID)
		}

		styleSet.stylesMap[styleID] = style

		if defaultStyleID == styleID {
			defaultIDFound = true
		}
	}

	if !defaultIDFound {
		return nil, errorsx.Errorf("default ID %q not found in any supplied styles", defaultStyleID)
	}

	return styleSet, nil
}

func (s *StyleSet) GetStyleByID(id string) *Style {
	return s.stylesMap[id]
}

func (s *StyleSet) GetDefaultStyle() *Style {
	return s.stylesMap[s.defaultStyleID]
}

func (s *StyleSet) GetAllStyleIDs() []string {
	var styleIDs []string

	for id := range s.stylesMap {
		styleIDs = append(styleIDs, id)
	}

	sort.Strings(styleIDs)

	return styleIDs
}

// LoadStyle reads <dir>/style.json. The style ID is the name of the directory.
func LoadStyle(fs gofs.Fs, dir string) (*Style, errorsx.Error) {
	file, err := fs.Open(filepath.Join(dir, styleDocumentFileName))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	defer file.Close()

	doc, err := mapboxglstyle.Parse(file)
	if err != nil {
		return nil, errorsx.Wrap(err, "dir", dir)
	}

	return &Style{ID: filepath.Base(dir), Document: doc}, nil
}

// LoadStylesFromDir loads every style directory in dir, alongside the builtin style.
// Directories that don't hold a valid style are logged and skipped.
func LoadStylesFromDir(logger *logpkg.Logger, fs gofs.Fs, dir string, defaultStyleID string) (*StyleSet, errorsx.Error) {
	fileInfos, err := fs.ReadDir(dir)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	styles := []*Style{BuiltinStyle()}
	for _, fileInfo := range fileInfos {
		if !fileInfo.IsDir() {
			continue
		}

		style, err := LoadStyle(fs, filepath.Join(dir, fileInfo.Name()))
		if err != nil {
			logger.Warn("error loading style from %q. Error: %q", filepath.Join(dir, fileInfo.Name()), err.Error())
			continue
		}

		styles = append(styles, style)
	}

	styleSet, err := NewStyleSet(styles, defaultStyleID)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return styleSet, nil
}
