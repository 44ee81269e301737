package model

import (
	"fmt"

	"github.com/burrowdb/burrow/pkg/objid"
)

// Code tags the kind of an Error. A single struct plus a Code enum
// stands in for a sum type.
type Code int

const (
	CodeObjectNotFound Code = iota
	CodeObjectAlreadyExists
	CodeRecursiveMove
	CodeObjectPermissionDenied
	CodeVerbPermissionDenied
	CodePropertyPermissionDenied
	CodePropertyNotFound
	CodePropertyDefinitionNotFound
	CodeDuplicatePropertyDefinition
	CodePropertyTypeMismatch
	CodeVerbNotFound
	CodeDuplicateVerb
	CodeInvalidVerb
	CodeVerbDecodeError
	CodeFailedMatch
	CodeAmbiguousMatch
	CodeDatabaseError
)

// Error is the tagged error type every worldstate operation returns on
// failure. DatabaseError wraps an underlying cause and is Unwrap-able;
// every other code carries just the fields its message needs.
type Error struct {
	Code  Code
	Obj   objid.Objid
	Into  objid.Objid
	Name  string
	Cause error
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeObjectNotFound:
		return fmt.Sprintf("object not found: %s", e.Obj)
	case CodeObjectAlreadyExists:
		return fmt.Sprintf("object already exists: %s", e.Obj)
	case CodeRecursiveMove:
		return fmt.Sprintf("recursive move detected: %s -> %s", e.Obj, e.Into)
	case CodeObjectPermissionDenied:
		return "object permission denied"
	case CodeVerbPermissionDenied:
		return "verb permission denied"
	case CodePropertyPermissionDenied:
		return "property permission denied"
	case CodePropertyNotFound:
		return fmt.Sprintf("property not found: %s.%s", e.Obj, e.Name)
	case CodePropertyDefinitionNotFound:
		return fmt.Sprintf("property definition not found: %s.%s", e.Obj, e.Name)
	case CodeDuplicatePropertyDefinition:
		return fmt.Sprintf("duplicate property definition: %s.%s", e.Obj, e.Name)
	case CodePropertyTypeMismatch:
		return "property type mismatch"
	case CodeVerbNotFound:
		return fmt.Sprintf("verb not found: %s:%s", e.Obj, e.Name)
	case CodeDuplicateVerb:
		return fmt.Sprintf("verb already exists: %s:%s", e.Obj, e.Name)
	case CodeInvalidVerb:
		return fmt.Sprintf("invalid verb definition on %s", e.Obj)
	case CodeVerbDecodeError:
		return fmt.Sprintf("invalid verb, decode error: %s:%s", e.Obj, e.Name)
	case CodeFailedMatch:
		return fmt.Sprintf("failed object match: %s", e.Name)
	case CodeAmbiguousMatch:
		return fmt.Sprintf("ambiguous object match: %s", e.Name)
	case CodeDatabaseError:
		if e.Cause != nil {
			return fmt.Sprintf("db communications/internal error: %v", e.Cause)
		}
		return "db communications/internal error"
	}
	return "unknown world state error"
}

// Unwrap exposes the underlying cause for DatabaseError, so callers can
// errors.Is/As through to the bbolt or wirecodec failure beneath it.
func (e *Error) Unwrap() error {
	return e.Cause
}

// MooCode maps a Code to the MOO-style error code user-level code sees
// (E_PERM, E_PROPNF, ...). DatabaseError and the catch-all codes have
// no MOO equivalent and return "".
func (e *Error) MooCode() string {
	switch e.Code {
	case CodeObjectNotFound:
		return "E_INVIND"
	case CodeObjectPermissionDenied, CodeVerbPermissionDenied, CodePropertyPermissionDenied:
		return "E_PERM"
	case CodeRecursiveMove:
		return "E_RECMOVE"
	case CodeVerbNotFound, CodeInvalidVerb:
		return "E_VERBNF"
	case CodeDuplicateVerb:
		return "E_INVARG"
	case CodePropertyNotFound, CodePropertyDefinitionNotFound:
		return "E_PROPNF"
	case CodeDuplicatePropertyDefinition:
		return "E_INVARG"
	case CodePropertyTypeMismatch:
		return "E_TYPE"
	}
	return ""
}

func ObjectNotFound(o objid.Objid) *Error { return &Error{Code: CodeObjectNotFound, Obj: o} }
func ObjectAlreadyExists(o objid.Objid) *Error {
	return &Error{Code: CodeObjectAlreadyExists, Obj: o}
}
func RecursiveMove(o, into objid.Objid) *Error {
	return &Error{Code: CodeRecursiveMove, Obj: o, Into: into}
}
func ObjectPermissionDenied() *Error   { return &Error{Code: CodeObjectPermissionDenied} }
func VerbPermissionDenied() *Error     { return &Error{Code: CodeVerbPermissionDenied} }
func PropertyPermissionDenied() *Error { return &Error{Code: CodePropertyPermissionDenied} }
func PropertyNotFound(o objid.Objid, name string) *Error {
	return &Error{Code: CodePropertyNotFound, Obj: o, Name: name}
}
func PropertyDefinitionNotFound(o objid.Objid, name string) *Error {
	return &Error{Code: CodePropertyDefinitionNotFound, Obj: o, Name: name}
}
func DuplicatePropertyDefinition(o objid.Objid, name string) *Error {
	return &Error{Code: CodeDuplicatePropertyDefinition, Obj: o, Name: name}
}
func PropertyTypeMismatch() *Error { return &Error{Code: CodePropertyTypeMismatch} }
func VerbNotFound(o objid.Objid, name string) *Error {
	return &Error{Code: CodeVerbNotFound, Obj: o, Name: name}
}
func DuplicateVerb(o objid.Objid, name string) *Error {
	return &Error{Code: CodeDuplicateVerb, Obj: o, Name: name}
}
func InvalidVerb(o objid.Objid) *Error      { return &Error{Code: CodeInvalidVerb, Obj: o} }
func VerbDecodeError(o objid.Objid, desc string) *Error {
	return &Error{Code: CodeVerbDecodeError, Obj: o, Name: desc}
}
func FailedMatch(s string) *Error    { return &Error{Code: CodeFailedMatch, Name: s} }
func AmbiguousMatch(s string) *Error { return &Error{Code: CodeAmbiguousMatch, Name: s} }
func DatabaseError(cause error) *Error {
	return &Error{Code: CodeDatabaseError, Cause: cause}
}

// CommitResult is the non-error outcome of Tx.Commit.
type CommitResult int

const (
	CommitSuccess CommitResult = iota
	CommitConflictRetry
)

func (c CommitResult) String() string {
	if c == CommitSuccess {
		return "Success"
	}
	return "ConflictRetry"
}
