// Package lint implements the write-time and read-time trust pipelines: the
// stages every event passes through to get signed, encrypted, timestamped
// and authorized on commit, and verified and decrypted on load.
package lint

import (
	"fmt"

	"github.com/forestrie/go-chainvault/crypto"
	"github.com/forestrie/go-chainvault/record"
)

// TrustError is the write-pipeline's authorization/signature failure
// taxonomy (§4.D, §7). Each distinct kind is a sentinel so callers can
// errors.Is against it regardless of which key or event triggered it.
type TrustError struct {
	Kind   TrustErrorKind
	PK     record.PrimaryKey
	Detail string
}

type TrustErrorKind int

const (
	TrustMissingParent TrustErrorKind = iota
	TrustNoSignature
	TrustBadSignature
	TrustUnauthorized
)

func (e *TrustError) Error() string {
	return fmt.Sprintf("lint: trust error %v for key %v: %s", e.Kind, e.PK, e.Detail)
}

func (e *TrustError) Is(target error) bool {
	t, ok := target.(*TrustError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// TransformError signals that a payload could not be transformed (encrypted
// or decrypted) because the session lacks the required key.
type TransformError struct {
	Kind TransformErrorKind
	Hash crypto.Hash // the key hash the session was missing
}

type TransformErrorKind int

const (
	TransformMissingReadKey TransformErrorKind = iota
)

func (e *TransformError) Error() string {
	return "lint: transform error: missing read key"
}

func (e *TransformError) Is(target error) bool {
	t, ok := target.(*TransformError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel instances usable with errors.Is for simple cases.
var (
	ErrMissingParent  = &TrustError{Kind: TrustMissingParent}
	ErrNoSignature    = &TrustError{Kind: TrustNoSignature}
	ErrBadSignature   = &TrustError{Kind: TrustBadSignature}
	ErrUnauthorized   = &TrustError{Kind: TrustUnauthorized}
	ErrMissingReadKey = &TransformError{Kind: TransformMissingReadKey}
)

// newTrustError builds a TrustError that both carries detail and compares
// equal (via Is) to the matching sentinel above.
func newTrustError(kind TrustErrorKind, pk record.PrimaryKey, detail string) error {
	return &TrustError{Kind: kind, PK: pk, Detail: detail}
}
