package parser

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Optional is a feed value that may be absent. A value the feed sends as
// null, "", 0 or false counts as absent.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// Or returns the value when present and def otherwise.
func (o Optional[T]) Or(def T) T {
	if o.Valid {
		return o.Value
	}
	return def
}

func present(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	case gjson.True, gjson.JSON:
		return true
	}
	return false
}

// lookupString reads path as text. Numbers keep their shortest decimal form.
func lookupString(item gjson.Result, path string) Optional[string] {
	r := item.Get(path)
	if !present(r) {
		return Optional[string]{}
	}
	switch r.Type {
	case gjson.String:
		return Some(r.Str)
	case gjson.Number:
		return Some(formatNumber(r))
	default:
		return Some(r.Raw)
	}
}

func lookupBool(item gjson.Result, path string) Optional[bool] {
	r := item.Get(path)
	if !present(r) {
		return Optional[bool]{}
	}
	return Some(true)
}

// lookupContains reports whether path holds value, either as an array element
// or as a substring of a text value.
func lookupContains(item gjson.Result, path, value string) Optional[bool] {
	r := item.Get(path)
	switch {
	case r.IsArray():
		for _, el := range r.Array() {
			if el.Type == gjson.String && el.Str == value {
				return Some(true)
			}
		}
		return Some(false)
	case r.Type == gjson.String:
		return Some(strings.Contains(r.Str, value))
	}
	return Optional[bool]{}
}

func formatNumber(r gjson.Result) string {
	if !strings.ContainsAny(r.Raw, ".eE") {
		return r.Raw
	}
	return strconv.FormatFloat(r.Num, 'f', -1, 64)
}
