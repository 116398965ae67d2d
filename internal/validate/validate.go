// Package validate performs declarative validation of request structs.
package validate

import (
	"reflect"
	"sort"
	"strings"
)

// Request is implemented by all request structs that carry validation rules.
type Request interface {
	ValidationRules() []ValidationRule
}

// ValidationRule performs validation on one or more struct fields.
//
// Rules default to optional. If the field has a zero value the rule does
// nothing. Use Required to make a field mandatory.
type ValidationRule interface {
	// Validate returns nil if the validation passes. On failure the Failure
	// contains the name of the field and the list of problems.
	Validate() *Failure
}

// Failure describes a validation failure for a single field.
type Failure struct {
	// Name of the field as it appears in the request, usually the json field
	// name or query parameter, not the Go struct field name.
	Name string
	// Problems is a list of messages that describe the failure. They become
	// part of the API response.
	Problems []string
}

// Validate checks the values in req against its validation rules. If
// validation fails the returned error is of type Error.
func Validate(req Request) error {
	err := make(Error)
	for _, rule := range req.ValidationRules() {
		if failure := rule.Validate(); failure != nil {
			err[failure.Name] = append(err[failure.Name], failure.Problems...)
		}
	}
	if len(err) > 0 {
		return err
	}
	return nil
}

// Error is a map of field names to problems associated with those fields.
// Problems associated with the whole request use the key "".
type Error map[string][]string

func (e Error) Error() string {
	var buf strings.Builder
	buf.WriteString("validation failed: ")

	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		if i != 0 {
			buf.WriteString(", ")
		}
		if k == "" {
			buf.WriteString(strings.Join(e[k], ", "))
			continue
		}
		buf.WriteString(k + ": " + strings.Join(e[k], ", "))
	}
	return buf.String()
}

func fail(name string, problems ...string) *Failure {
	return &Failure{Name: name, Problems: problems}
}

type requiredRule struct {
	name  string
	value any
}

// Required checks that the value does not have a zero value. Zero values are
// nil, "", 0, false, an empty map or slice, or the zero value of a struct.
func Required(name string, value any) ValidationRule {
	return requiredRule{name: name, value: value}
}

func (r requiredRule) Validate() *Failure {
	if r.value != nil && !reflect.ValueOf(r.value).IsZero() {
		return nil
	}
	return fail(r.name, "is required")
}
