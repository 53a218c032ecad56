// Package validator checks submitted form values against ordered rule lists.
//
//	data := map[string]string{"email": r.FormValue("email")}
//	errs := validator.Validate(data, validator.Rules{
//		"email": {validator.Required("Enter an email address."), validator.Email("That email is not valid.")},
//	})
//
// Validate drops every key that has no rules, so the filtered map can be
// stored as submitted.
package validator

import (
	"net/mail"
	"strings"
	"unicode"
)

// Rule reports whether value passes, with the message shown when it does not.
type Rule struct {
	check   func(value string) bool
	Message string
}

// Rules maps field names to the rules applied in order.
type Rules map[string][]Rule

// ValidationError is one failed rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every failed rule.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed any rule.
func (e ValidationErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Map groups the messages by field, preserving rule order.
func (e ValidationErrors) Map() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, err := range e {
		out[err.Field] = append(out[err.Field], err.Message)
	}
	return out
}

// Validate removes keys without rules from data, fills missing ruled keys
// with "" and applies every rule. It returns nil when all rules pass.
func Validate(data map[string]string, rules Rules) ValidationErrors {
	for key := range data {
		if _, ok := rules[key]; !ok {
			delete(data, key)
		}
	}

	var errs ValidationErrors
	for field, fieldRules := range rules {
		value := data[field]
		data[field] = value
		for _, rule := range fieldRules {
			if !rule.check(value) {
				errs = append(errs, ValidationError{Field: field, Message: rule.Message})
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Required fails on empty values and on "0".
func Required(msg string) Rule {
	return Rule{Message: msg, check: func(v string) bool { return v != "" && v != "0" }}
}

// Email fails unless the value is a bare address such as "a@example.com".
func Email(msg string) Rule {
	return Rule{Message: msg, check: func(v string) bool {
		addr, err := mail.ParseAddress(v)
		return err == nil && addr.Address == v && strings.Contains(v[strings.LastIndex(v, "@"):], ".")
	}}
}

// Identical fails unless the value equals other, e.g. a confirmation field.
func Identical(other, msg string) Rule {
	return Rule{Message: msg, check: func(v string) bool { return v == other }}
}

// Min fails when the value is shorter than n bytes.
func Min(n int, msg string) Rule {
	return Rule{Message: msg, check: func(v string) bool { return len(v) >= n }}
}

// Max fails when the value is longer than n bytes.
func Max(n int, msg string) Rule {
	return Rule{Message: msg, check: func(v string) bool { return len(v) <= n }}
}

// AlphaNum fails unless the value is a non-empty run of ASCII letters and digits.
func AlphaNum(msg string) Rule {
	return Rule{Message: msg, check: func(v string) bool {
		if v == "" {
			return false
		}
		for _, r := range v {
			if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
				return false
			}
		}
		return true
	}}
}

// Check builds a rule from an arbitrary predicate.
func Check(fn func(string) bool, msg string) Rule {
	return Rule{Message: msg, check: fn}
}
