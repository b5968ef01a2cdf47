package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a 24-character random hex token used as a request
// correlation id. Asset keys have their own generator in internal/asset.
func NewID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
