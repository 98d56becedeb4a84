package id

import (
	"fmt"

	"github.com/hashicorp/go-secure-stdlib/base62"
)

// defaultLength is long enough to make generated IDs unguessable within any
// feasible attack window, which matters since they are used as oidc
// nonce/state values.
const defaultLength = 20

// New generates an ID with an optional prefix.
func New(optionalPrefix string) (string, error) {
	id, err := base62.Random(defaultLength)
	if err != nil {
		return "", fmt.Errorf("unable to generate id: %w", err)
	}
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, id), nil
	default:
		return id, nil
	}
}
