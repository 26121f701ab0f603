package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"gte=18"`
	Note  string `validate:"max=3"`
}

func TestValidate_UsesJSONNames(t *testing.T) {
	errs := Validate(&sample{Email: "nope", Age: 3, Note: "long"})
	require.NotNil(t, errs)
	assert.Equal(t, "email", errs["email"])
	assert.Equal(t, "gte", errs["age"])
	assert.Equal(t, "max", errs["Note"])
}

func TestValidate_Valid(t *testing.T) {
	assert.Nil(t, Validate(&sample{Email: "a@b.co", Age: 30}))
}

func TestErrors_AddKeepsFirstRule(t *testing.T) {
	errs := Errors{}
	assert.NoError(t, errs.Err())

	errs.Add("title", "required")
	errs.Add("title", "max")
	errs.Add("origin", "required")

	err := errs.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed: origin=required, title=required", err.Error())

	var target Errors
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "required", target["title"])
}
