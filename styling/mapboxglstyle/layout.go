package mapboxglstyle

// Properties holds layout or paint properties keyed by their style spec name, e.g. "line-width".
type Properties map[string]interface{}

const (
	LayoutVisibility            = "visibility"
	LayoutLineCap               = "line-cap"
	LayoutLineJoin              = "line-join"
	LayoutTextField             = "text-field"
	LayoutTextFont              = "text-font"
	LayoutTextSize              = "text-size" // float64 or {"base": 1.4, "stops": [[10, 8], [20, 14]]}
	LayoutSymbolPlacement       = "symbol-placement"
	LayoutTextRotationAlignment = "text-rotation-alignment"
	LayoutIconImage             = "icon-image"
)

const (
	VisibilityVisible = "visible"
	VisibilityNone    = "none"
)

// Visibility returns the "visibility" layout property, which defaults to "visible".
func (p Properties) Visibility() string {
	val, ok := p[LayoutVisibility]
	if !ok {
		return VisibilityVisible
	}

	s, ok := val.(string)
	if !ok {
		return VisibilityVisible
	}

	return s
}

// IconImage returns the icon-image layout property, if it is a plain image ID rather than an expression.
func (p Properties) IconImage() (string, bool) {
	val, ok := p[LayoutIconImage]
	if !ok {
		return "", false
	}

	s, ok := val.(string)
	return s, ok
}
