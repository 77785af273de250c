// Package zerr defines the shared error taxonomy used across the storage
// engine, codecs, command dispatcher, and ACL subsystem. It follows the
// pack's convention of small sentinel error types (see store/types) rather
// than a single monolithic error enum.
package zerr

import "fmt"

// Kind identifies a coarse error category, independent of the Go type that
// carries it. Callers that need to translate an error into a wire-protocol
// error frame switch on Kind rather than doing type assertions across
// packages.
type Kind string

const (
	KindSystemIO       Kind = "system_io"
	KindInvalidCommand Kind = "invalid_command"
	KindWrongArgCount  Kind = "wrong_arg_count"
	KindSyntax         Kind = "syntax"
	KindWrongType      Kind = "wrong_type"
	KindKeyNotFound    Kind = "key_not_found"
	KindIndexOOB       Kind = "index_out_of_bounds"
	KindWrongShard     Kind = "wrong_shard"
	KindDecode         Kind = "decode"
	KindEncode         Kind = "encode"
	KindParse          Kind = "parse"
	KindACL            Kind = "acl"
	KindAuth           Kind = "auth"
	KindInternal       Kind = "internal"
)

// Error is the common shape for taxonomy errors: a Kind plus a message and
// an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, zerr.New(zerr.KindWrongType, "")) style checks:
// it reports whether target is a *Error of the same Kind, ignoring the
// target's message and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the Kind of err if it (or something it wraps) is a
// *Error, and KindInternal otherwise.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return KindInternal
}

// Sentinel constructors mirroring spec error kinds used by multiple
// packages without a parameterized payload.
func WrongType(have, want string) *Error {
	return New(KindWrongType, fmt.Sprintf("wrong type: have %s, want %s", have, want))
}

func KeyNotFound(key string) *Error {
	return New(KindKeyNotFound, fmt.Sprintf("no such key: %q", key))
}

func WrongShard(key string) *Error {
	return New(KindWrongShard, fmt.Sprintf("key %q does not belong to this shard", key))
}

func WrongArgCount(cmd string, expected string) *Error {
	return New(KindWrongArgCount, fmt.Sprintf("wrong number of arguments for %q, expected %s", cmd, expected))
}
