// Package inputval validates decoded request bodies using struct tags.
//
// A field is checked when it carries a `validate` tag with a comma separated
// list of rules. The `label` tag names the field in messages; the field name
// is used when it is absent.
//
//	type createCategory struct {
//		Name  string `json:"name"  validate:"required,max=60" label:"Name"`
//		Color string `json:"color" validate:"hexcolor"         label:"Color"`
//	}
//
// Rules: required, min=N, max=N (length for strings and slices, value for
// numbers), email, hexcolor, objectid, lat, lon, oneof=a|b|c.
// Rules other than required are skipped for zero values so optional fields
// only need to be valid when present.
package inputval

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FieldError is a single failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result collects the failures for one value.
type Result struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func (r *Result) add(field, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
}

// Validate checks v (a struct or pointer to struct). Pointer fields are
// validated through their element when non-nil and treated as zero when nil.
func Validate(v any) *Result {
	res := &Result{}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return res
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return res
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag := sf.Tag.Get("validate")
		if tag == "" || !sf.IsExported() {
			continue
		}
		label := sf.Tag.Get("label")
		if label == "" {
			label = sf.Name
		}
		field := jsonName(sf)

		fv := rv.Field(i)
		for fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				break
			}
			fv = fv.Elem()
		}
		zero := isZero(fv)

		for _, rule := range strings.Split(tag, ",") {
			name, arg, _ := strings.Cut(strings.TrimSpace(rule), "=")
			if name == "required" {
				if zero {
					res.add(field, label+" is required.")
					break
				}
				continue
			}
			if zero {
				continue
			}
			if msg := check(name, arg, label, fv); msg != "" {
				res.add(field, msg)
				break
			}
		}
	}
	return res
}

func check(name, arg, label string, fv reflect.Value) string {
	switch name {
	case "max", "min":
		n, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			panic(fmt.Sprintf("inputval: bad %s argument %q", name, arg))
		}
		return checkBound(name, n, label, fv)
	case "email":
		if !IsValidEmail(fv.String()) {
			return "A valid email address is required."
		}
	case "hexcolor":
		if !IsValidHexColor(fv.String()) {
			return label + " must be a color like #1E88E5."
		}
	case "objectid":
		if !IsValidObjectID(fv.String()) {
			return label + " is not a valid ID."
		}
	case "lat":
		if f := toFloat(fv); f < -90 || f > 90 {
			return label + " must be between -90 and 90."
		}
	case "lon":
		if f := toFloat(fv); f < -180 || f > 180 {
			return label + " must be between -180 and 180."
		}
	case "oneof":
		opts := strings.Split(arg, "|")
		s := fmt.Sprint(fv.Interface())
		for _, o := range opts {
			if s == o {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(opts, ", "))
	default:
		panic("inputval: unknown rule " + name)
	}
	return ""
}

func checkBound(name string, n float64, label string, fv reflect.Value) string {
	switch fv.Kind() {
	case reflect.String:
		l := float64(utf8.RuneCountInString(fv.String()))
		if name == "max" && l > n {
			return fmt.Sprintf("%s must be at most %d characters.", label, int(n))
		}
		if name == "min" && l < n {
			return fmt.Sprintf("%s must be at least %d characters.", label, int(n))
		}
	case reflect.Slice, reflect.Array, reflect.Map:
		l := float64(fv.Len())
		if name == "max" && l > n {
			return fmt.Sprintf("%s must have at most %d items.", label, int(n))
		}
		if name == "min" && l < n {
			return fmt.Sprintf("%s must have at least %d items.", label, int(n))
		}
	default:
		f := toFloat(fv)
		if name == "max" && f > n {
			return fmt.Sprintf("%s must be at most %s.", label, strconv.FormatFloat(n, 'f', -1, 64))
		}
		if name == "min" && f < n {
			return fmt.Sprintf("%s must be at least %s.", label, strconv.FormatFloat(n, 'f', -1, 64))
		}
	}
	return ""
}

func toFloat(fv reflect.Value) float64 {
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(fv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(fv.Uint())
	case reflect.Float32, reflect.Float64:
		return fv.Float()
	}
	return 0
}

func isZero(fv reflect.Value) bool {
	if fv.Kind() == reflect.Pointer {
		return fv.IsNil()
	}
	if fv.Kind() == reflect.String {
		return strings.TrimSpace(fv.String()) == ""
	}
	if fv.Kind() == reflect.Slice || fv.Kind() == reflect.Map {
		return fv.Len() == 0
	}
	return fv.IsZero()
}

func jsonName(sf reflect.StructField) string {
	if tag := sf.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return sf.Name
}
