package mapboxglstyle

import (
	"image"

	"github.com/jamesrr39/goutil/errorsx"
)

// StyleImage is an image registered with a style at runtime, e.g. as an "icon-image" of a symbol layer.
type StyleImage struct {
	ID         string
	Image      image.Image
	PixelRatio float64
	SDF        bool
}

func (i *StyleImage) ImageID() string {
	return i.ID
}

func (i *StyleImage) Validate() errorsx.Error {
	if i.ID == "" {
		return errorsx.Errorf("image has no id")
	}

	if i.Image == nil {
		return errorsx.Errorf("image %q has no image data", i.ID)
	}

	if i.PixelRatio < 0 {
		return errorsx.Errorf("image %q has a negative pixel ratio (%f)", i.ID, i.PixelRatio)
	}

	return nil
}
