package split

import "fmt"

// The propagation error taxonomy. Each condition carries its own type so
// batch code can pick the recovery policy by type, never by message:
// MissingFieldError and ReferenceMissingError skip a file,
// ConflictingAssignmentError discards a file's output,
// IdentityIntegrityError aborts the whole run.

// MissingFieldError reports a record that lacks one of the identity
// fields, or carries one that cannot be parsed as an integer. Keys cannot
// be computed for such a file at all.
type MissingFieldError struct {
	Field string
	Err   error
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("identity field %q missing or invalid: %v", e.Field, e.Err)
}

func (e *MissingFieldError) Unwrap() error { return e.Err }

// ReferenceMissingError reports that one of the two reference subsets for
// a dataset does not exist.
type ReferenceMissingError struct {
	Name string // dataset file name
	Path string // the missing reference
}

func (e *ReferenceMissingError) Error() string {
	return fmt.Sprintf("reference subset %s for %s does not exist", e.Path, e.Name)
}

// EmptyReferenceError reports that both reference subsets exist but hold
// zero records, so there is nothing to propagate.
type EmptyReferenceError struct {
	Name string
}

func (e *EmptyReferenceError) Error() string {
	return fmt.Sprintf("reference subsets for %s contain no records", e.Name)
}

// ConflictingAssignmentError reports a key assigned to both categories:
// the derivative corresponds to an already-split reference, so the whole
// file's output is discarded.
type ConflictingAssignmentError struct {
	Name string
	Key  EventKey
}

func (e *ConflictingAssignmentError) Error() string {
	return fmt.Sprintf("%s: key %v assigned to both train and test, file was not split", e.Name, e.Key)
}

// IdentityIntegrityError reports a key seen more than twice across the
// reference subsets. The identity fields are not unique per event, so no
// further propagation can be trusted.
type IdentityIntegrityError struct {
	Name    string
	Key     EventKey
	Matches int
}

func (e *IdentityIntegrityError) Error() string {
	return fmt.Sprintf("%s: key %v matched %d times, identity fields are not unique", e.Name, e.Key, e.Matches)
}
