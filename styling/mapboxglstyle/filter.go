package mapboxglstyle

import (
	"github.com/jamesrr39/goutil/errorsx"
)

const (
	FilterOperatorEquals   = "=="
	FilterOperatorNotEqual = "!="
	FilterOperatorAny      = "any"
	FilterOperatorAll      = "all"
	FilterOperatorNone     = "none"
	FilterOperatorIn       = "in"
	FilterOperatorNotIn    = "!in"
	FilterOperatorHas      = "has"
	FilterOperatorNotHas   = "!has"
)

/*

    "filter": [
        "all",
        ["==", "$type", "Polygon"],
		["in", "class", "residential", "suburb", "neighbourhood"]
	]

	"filter": ["==", "$type", "Point"],
*/

// Filter is a legacy filter or an expression. It is not evaluated here, only checked for its shape.
type Filter interface{}

// ValidateFilter checks that a filter is nil or an array led by an operator name.
// Combining operators (any/all/none) have each of their operands checked.
func ValidateFilter(filter Filter) errorsx.Error {
	if filter == nil {
		return nil
	}

	base, ok := filter.([]interface{})
	if !ok {
		return errorsx.Errorf("filter must be an array, but was %T", filter)
	}

	if len(base) == 0 {
		return errorsx.Errorf("filter array is empty")
	}

	operator, ok := base[0].(string)
	if !ok {
		return errorsx.Errorf("filter operator must be a string, but was %T", base[0])
	}

	switch operator {
	case FilterOperatorAny, FilterOperatorAll, FilterOperatorNone:
		for _, subFilterComponent := range base[1:] {
			if _, isBool := subFilterComponent.(bool); isBool {
				continue
			}
			err := ValidateFilter(subFilterComponent)
			if err != nil {
				return errorsx.Wrap(err)
			}
		}
	case FilterOperatorEquals, FilterOperatorNotEqual:
		if len(base) != 3 {
			return errorsx.Errorf("filter operator %q expects 2 operands, but got %d", operator, len(base)-1)
		}
	case FilterOperatorHas, FilterOperatorNotHas:
		if len(base) != 2 {
			return errorsx.Errorf("filter operator %q expects 1 operand, but got %d", operator, len(base)-1)
		}
	}

	return nil
}
