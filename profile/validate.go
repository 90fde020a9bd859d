package profile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// FieldError is one violated constraint.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Reason, e.Value)
}

// ValidationError lists every field of a profile that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the violations.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Validate checks p and returns a *ValidationError naming every violation,
// or nil.
func Validate(p Profile) error {
	errs := checkFields(&p, schema, "")
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func checkFields(p *Profile, fields []field, prefix string) []FieldError {
	var errs []FieldError
	for _, f := range fields {
		path := prefix + f.key
		if f.fields != nil {
			errs = append(errs, checkFields(p, f.fields, path+".")...)
			continue
		}
		if f.check != nil {
			errs = append(errs, f.check(p, path, f.get(p))...)
		}
	}
	return errs
}

// check validates the value of one schema key. p is there for constraints
// that span keys.
type check func(p *Profile, key string, v any) []FieldError

func violation(key, value, reason string) []FieldError {
	return []FieldError{{Field: key, Value: value, Reason: reason}}
}

func notBlank(_ *Profile, key string, v any) []FieldError {
	if s := v.(string); strings.TrimSpace(s) == "" {
		return violation(key, s, "must not be empty")
	}
	return nil
}

func gpioLine(_ *Profile, key string, v any) []FieldError {
	s := v.(string)
	if _, err := ParseGPIO(s); err != nil {
		return violation(key, s, fmt.Sprintf("must be GP0-GP%d", MaxGPIO))
	}
	return nil
}

func ledIndex(_ *Profile, key string, v any) []FieldError {
	if n := v.(int64); n < 0 || n >= int64(NumLEDs) {
		return violation(key, strconv.FormatInt(n, 10), fmt.Sprintf("must be 0-%d", NumLEDs-1))
	}
	return nil
}

func unitInterval(_ *Profile, key string, v any) []FieldError {
	if f := v.(float64); !(f >= 0 && f <= 1) {
		return violation(key, strconv.FormatFloat(f, 'g', -1, 64), "must be between 0.0 and 1.0")
	}
	return nil
}

func belowWhammyMax(p *Profile, key string, v any) []FieldError {
	if n := v.(int64); n >= int64(p.WhammyMax) {
		return violation(key, strconv.FormatInt(n, 10), fmt.Sprintf("must be below whammy_max (%d)", p.WhammyMax))
	}
	return nil
}

func oneOf(reason string, allowed ...string) check {
	return func(_ *Profile, key string, v any) []FieldError {
		s := v.(string)
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return violation(key, s, reason)
	}
}

func hexColors(_ *Profile, key string, v any) []FieldError {
	var errs []FieldError
	for i, c := range v.([]string) {
		if !colorPattern.MatchString(c) {
			errs = append(errs, violation(fmt.Sprintf("%s[%d]", key, i), c, "must be #RRGGBB")...)
		}
	}
	return errs
}
