package response

import (
	"errors"
	"testing"

	"github.com/go-playground/validator"
)

func TestValidationError(t *testing.T) {
	req := struct {
		Email    string `validate:"required"`
		RoomType string `validate:"required,oneof=Single Double"`
	}{RoomType: "Suite"}

	err := validator.New().Struct(req)

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected validation errors, got %v", err)
	}

	got := ValidationError(errs)
	want := "field Email is a required field, field RoomType must be one of: Single Double"

	if got.Status != StatusError {
		t.Errorf("Status = %q, want %q", got.Status, StatusError)
	}
	if got.Error != want {
		t.Errorf("Error = %q, want %q", got.Error, want)
	}
}
