package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

type signupForm struct {
	Username string `validate:"required,max=50"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	ImageURL string `validate:"omitempty,url"`
}

func TestFormatValidationError(t *testing.T) {
	v := validator.New()
	err := v.Struct(signupForm{Email: "nope", Password: "abc", ImageURL: "::"})
	if err == nil {
		t.Fatal("expected validation errors")
	}

	got := FormatValidationError(err)
	for _, want := range []string{
		"Username is required",
		"Email must be a valid email",
		"Password must be at least 6 characters",
		"Image URL must be a valid URL",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("message %q missing %q", got, want)
		}
	}
}

func TestFormatValidationErrorPassesThroughOtherErrors(t *testing.T) {
	if got := FormatValidationError(errors.New("EOF")); got != "EOF" {
		t.Errorf("got %q", got)
	}
}
