package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns a 12 character prefix for display
func (h Hash) Short() string {
	if len(h) < 12 {
		return string(h)
	}
	return string(h[:12])
}

// Domain-specific hash types
type (
	TemplateHash Hash
	DataHash     Hash
)

// Constructors
func NewTemplateHash(data []byte) TemplateHash { return TemplateHash(NewHash(data)) }
func NewDataHash(data []byte) DataHash         { return DataHash(NewHash(data)) }

// String conversions
func (h TemplateHash) String() string { return Hash(h).String() }
func (h DataHash) String() string     { return Hash(h).String() }

// Short display forms
func (h TemplateHash) Short() string { return Hash(h).Short() }
func (h DataHash) Short() string     { return Hash(h).Short() }
