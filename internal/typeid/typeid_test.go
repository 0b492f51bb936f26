package typeid

import (
	"strings"
	"testing"
)

func TestNewAndValidate(t *testing.T) {
	id := NewStageID()
	if !strings.HasPrefix(id, PrefixStage+"_") {
		t.Fatalf("NewStageID = %q, want %q prefix", id, PrefixStage)
	}
	if err := Validate(id, PrefixStage); err != nil {
		t.Errorf("Validate(%q): %v", id, err)
	}
	if err := Validate(id, PrefixToken); err == nil {
		t.Errorf("Validate(%q, %q) succeeded, want prefix error", id, PrefixToken)
	}
	if err := Validate("not-an-id", PrefixStage); err == nil {
		t.Error("Validate accepted garbage")
	}
}
