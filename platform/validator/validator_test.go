package validator

import "testing"

type stageForm struct {
	Name string `validate:"required,notblank,max=60"`
}

func TestNotBlankRejectsWhitespace(t *testing.T) {
	val := New()

	if err := val.Struct(stageForm{Name: "   "}); err == nil {
		t.Fatalf("expected whitespace-only name to fail validation")
	}
	if err := val.Struct(stageForm{Name: "Quarta Tentativa"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
