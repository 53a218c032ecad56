package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax/pkg/validator"
)

func TestValidate_FiltersAndFills(t *testing.T) {
	t.Parallel()

	data := map[string]string{"email": "ann@example.com", "is_admin": "1"}
	errs := validator.Validate(data, validator.Rules{
		"email":    {validator.Required("Enter an email.")},
		"username": {validator.Required("Enter a username.")},
	})

	assert.Equal(t, map[string]string{"email": "ann@example.com", "username": ""}, data)
	require.Len(t, errs, 1)
	assert.True(t, errs.Has("username"))
	assert.False(t, errs.Has("email"))
	assert.Equal(t, "username: Enter a username.", errs.Error())
}

func TestValidate_CollectsEveryFailure(t *testing.T) {
	t.Parallel()

	data := map[string]string{"password": "ab!"}
	errs := validator.Validate(data, validator.Rules{
		"password": {
			validator.Min(6, "Too short."),
			validator.AlphaNum("Letters and digits only."),
			validator.Identical("other", "Passwords differ."),
		},
	})

	assert.Equal(t, map[string][]string{
		"password": {"Too short.", "Letters and digits only.", "Passwords differ."},
	}, errs.Map())
}

func TestValidate_Passes(t *testing.T) {
	t.Parallel()

	errs := validator.Validate(map[string]string{"username": "ann99"}, validator.Rules{
		"username": {validator.Required("r"), validator.AlphaNum("a"), validator.Max(20, "m")},
	})
	assert.Nil(t, errs)
}

func TestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rule  validator.Rule
		value string
		want  bool
	}{
		{"required empty", validator.Required(""), "", false},
		{"required zero", validator.Required(""), "0", false},
		{"required set", validator.Required(""), "x", true},
		{"email ok", validator.Email(""), "ann@example.com", true},
		{"email no domain dot", validator.Email(""), "ann@localhost", false},
		{"email with name", validator.Email(""), "Ann <ann@example.com>", false},
		{"email garbage", validator.Email(""), "not-an-email", false},
		{"min", validator.Min(3, ""), "abc", true},
		{"min short", validator.Min(3, ""), "ab", false},
		{"max", validator.Max(3, ""), "abcd", false},
		{"alphanum", validator.AlphaNum(""), "Ann99", true},
		{"alphanum space", validator.AlphaNum(""), "Ann 99", false},
		{"alphanum unicode", validator.AlphaNum(""), "Ånn", false},
		{"identical", validator.Identical("secret", ""), "secret", true},
		{"check", validator.Check(func(s string) bool { return s == "yes" }, ""), "no", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			errs := validator.Validate(map[string]string{"f": tt.value}, validator.Rules{"f": {tt.rule}})
			assert.Equal(t, tt.want, errs == nil)
		})
	}
}
