package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixStage = "stage"
	PrefixToken = "tok"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewStageID() string { return New(PrefixStage) }
func NewTokenID() string { return New(PrefixToken) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
