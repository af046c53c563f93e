package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
)

func TestStatusOKWithData(t *testing.T) {
	data := map[string]string{"key": "value"}
	resp := StatusOKWithData(data)

	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, data, resp.Data)
}

func TestError(t *testing.T) {
	msg := "something went wrong"
	resp := Error(msg)

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, msg, resp.Error)
}

func TestValidationError(t *testing.T) {
	type TestStruct struct {
		Username string `validate:"required,alphanum"`
		Email    string `validate:"email"`
		OrderID  string `validate:"uuid"`
		Period   string `validate:"oneof=monthly yearly"`
	}

	v := validator.New()
	ts := TestStruct{
		Username: "!!!",
		Email:    "not-an-email",
		OrderID:  "not-a-uuid",
		Period:   "weekly",
	}

	err := v.Struct(ts)
	assert.Error(t, err)

	validationErrors := err.(validator.ValidationErrors)
	resp := ValidationError(validationErrors)

	assert.Equal(t, StatusError, resp.Status)
	assert.NotEmpty(t, resp.Error)

	errMsg := resp.Error
	assert.Contains(t, errMsg, "field Username can contain only numbers and letters")
	assert.Contains(t, errMsg, "field Email must be a valid email address")
	assert.Contains(t, errMsg, "field OrderID can contain only uuid")
	assert.Contains(t, errMsg, "field Period must be one of: monthly yearly")
}

func TestValidationErrorRequired(t *testing.T) {
	type TestStruct struct {
		Username string `validate:"required"`
	}

	v := validator.New()
	ts := TestStruct{}

	err := v.Struct(ts)
	assert.Error(t, err)

	validationErrors := err.(validator.ValidationErrors)
	resp := ValidationError(validationErrors)

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Username is a required field")
}
