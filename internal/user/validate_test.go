package user

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestCustomTagsRegistered(t *testing.T) {
	err := validateStruct(RegisterInput{Phone: "+79990001122", Username: "@explorer"})
	if err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	err = validateStruct(RegisterInput{Phone: "phone", Username: "explorer"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMustRegisterPanicsOnFailure(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for a tag that cannot be registered")
		}
	}()
	mustRegister(validator.New(), "", phonePattern)
}
