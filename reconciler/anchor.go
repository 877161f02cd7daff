package reconciler

import (
	"fmt"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
)

type AnchorType int

const (
	// AnchorTypeTop is the zero value, so a zero Anchor means "on top"
	AnchorTypeTop AnchorType = iota
	AnchorTypeBottom
	AnchorTypeAbove
	AnchorTypeBelow
	AnchorTypeReplace
)

var anchorTypeNames = []string{
	"top",
	"bottom",
	"above",
	"below",
	"replace",
}

func (t AnchorType) String() string {
	if int(t) < 0 || int(t) >= len(anchorTypeNames) {
		return fmt.Sprintf("AnchorType(%d)", int(t))
	}
	return anchorTypeNames[t]
}

// Anchor positions a group of declared layers relative to the rest of the style.
// All layers with an equal Anchor form one group, which is kept contiguous and in declared order.
// Anchor is comparable and is used as a map key.
type Anchor struct {
	Type AnchorType
	// LayerID is the base layer the anchor is relative to. Empty for top and bottom.
	LayerID string
}

func AnchorTop() Anchor {
	return Anchor{Type: AnchorTypeTop}
}

func AnchorBottom() Anchor {
	return Anchor{Type: AnchorTypeBottom}
}

func AnchorAbove(layerID string) Anchor {
	return Anchor{Type: AnchorTypeAbove, LayerID: layerID}
}

func AnchorBelow(layerID string) Anchor {
	return Anchor{Type: AnchorTypeBelow, LayerID: layerID}
}

// AnchorReplace takes the position of the base layer, and hides it while at least one layer occupies the anchor.
func AnchorReplace(layerID string) Anchor {
	return Anchor{Type: AnchorTypeReplace, LayerID: layerID}
}

func (a Anchor) ReferencesBaseLayer() bool {
	switch a.Type {
	case AnchorTypeAbove, AnchorTypeBelow, AnchorTypeReplace:
		return true
	default:
		return false
	}
}

// String gives the anchor in the form ParseAnchor accepts, e.g. "top" or "replace:water".
func (a Anchor) String() string {
	if !a.ReferencesBaseLayer() {
		return a.Type.String()
	}
	return fmt.Sprintf("%s:%s", a.Type, a.LayerID)
}

// ParseAnchor reads "top", "bottom", "above:<layer id>", "below:<layer id>" or "replace:<layer id>".
// An empty string is "top".
func ParseAnchor(str string) (Anchor, errorsx.Error) {
	if str == "" {
		return AnchorTop(), nil
	}

	typeName, layerID, hasLayerID := strings.Cut(str, ":")

	var anchorType AnchorType
	found := false
	for idx, name := range anchorTypeNames {
		if name == typeName {
			anchorType = AnchorType(idx)
			found = true
			break
		}
	}
	if !found {
		return Anchor{}, errorsx.Errorf("unknown anchor type %q in anchor %q", typeName, str)
	}

	anchor := Anchor{Type: anchorType, LayerID: layerID}
	if anchor.ReferencesBaseLayer() && (!hasLayerID || layerID == "") {
		return Anchor{}, errorsx.Errorf("anchor %q needs a layer id (e.g. %s:water)", str, typeName)
	}

	if !anchor.ReferencesBaseLayer() && hasLayerID {
		return Anchor{}, errorsx.Errorf("anchor %q doesn't take a layer id", str)
	}

	return anchor, nil
}
