package utils

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// UniqueSlug slugifies title and appends -2, -3, … until exists reports the
// candidate free.
func UniqueSlug(ctx context.Context, title string, exists func(ctx context.Context, s string) (bool, error)) (string, error) {
	base := slug.Make(strings.TrimSpace(title))
	if base == "" {
		base = "item"
	}
	candidate := base
	for i := 2; i < 100; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q", title)
}
