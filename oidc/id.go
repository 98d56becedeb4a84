package oidc

import (
	"fmt"

	"github.com/authmachine/authmachine-go/sdk/id"
)

// NewID generates a cryptographically-unguessable ID with an optional prefix.
// The ID generated is suitable for a Request state or nonce.
// Supported options: WithPrefix
func NewID(opt ...Option) (string, error) {
	opts := getIDOpts(opt...)
	newID, err := id.New(opts.withPrefix)
	if err != nil {
		return "", fmt.Errorf("unable to generate id: %v: %w", err, ErrIDGeneratorFailed)
	}
	return newID, nil
}

// idOptions is the set of available options for NewID
type idOptions struct {
	withPrefix string
}

// idDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func idDefaults() idOptions {
	return idOptions{}
}

// getIDOpts gets the defaults and applies the opt overrides passed in.
func getIDOpts(opt ...Option) idOptions {
	opts := idDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
