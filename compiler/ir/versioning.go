package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// IRVersion is the current canonical program schema version.
const IRVersion = "1"

// MigrateToCurrent upgrades p in place to the current IR version.
// Empty version is treated as legacy v0, which had the same shape.
func MigrateToCurrent(p *Program) error {
	if p == nil {
		return fmt.Errorf("nil program")
	}
	switch strings.TrimSpace(p.IRVersion) {
	case "", "0":
		p.IRVersion = IRVersion
		return nil
	case IRVersion:
		return nil
	default:
		return fmt.Errorf("unsupported ir_version %q (current=%s)", p.IRVersion, IRVersion)
	}
}

// ToCanonicalJSON normalizes the version and returns stable indented JSON.
func ToCanonicalJSON(p *Program) ([]byte, error) {
	if err := MigrateToCurrent(p); err != nil {
		return nil, err
	}
	if err := ValidateABI(p); err != nil {
		return nil, err
	}
	return json.MarshalIndent(p, "", "  ")
}

// FromCanonicalJSON decodes and migrates a program written by ToCanonicalJSON.
func FromCanonicalJSON(data []byte) (*Program, error) {
	p := &Program{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	if err := MigrateToCurrent(p); err != nil {
		return nil, err
	}
	if err := ValidateABI(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Hash is the hex sha256 of the canonical JSON encoding.
func Hash(p *Program) (string, error) {
	data, err := ToCanonicalJSON(p)
	if err != nil {
		return "", err
	}
	return HashCanonical(data), nil
}

// HashCanonical hashes bytes already produced by ToCanonicalJSON.
func HashCanonical(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
