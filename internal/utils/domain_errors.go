package utils

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries field-level messages for the caller.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type TooManyFilesError struct {
	Count int
	Max   int
}

func (e *TooManyFilesError) Error() string {
	if e.Max == 1 {
		return fmt.Sprintf("this document type accepts a single file, got %d", e.Count)
	}
	return fmt.Sprintf("too many files: got %d, maximum is %d", e.Count, e.Max)
}

type UnsupportedFileTypeError struct {
	Index     int
	Extension string
	Allowed   []string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("file %d: extension %q is not allowed (allowed: %s)", e.Index, e.Extension, strings.Join(e.Allowed, ", "))
}

type FileTooLargeError struct {
	Index    int
	Size     int64
	MaxBytes int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %d: size %d bytes exceeds the limit of %d bytes", e.Index, e.Size, e.MaxBytes)
}

type DuplicateFileError struct {
	Index int
	Hash  string
}

func (e *DuplicateFileError) Error() string {
	return fmt.Sprintf("file %d: an identical file has already been uploaded", e.Index)
}

type MissingReasonError struct{}

func (e *MissingReasonError) Error() string {
	return "a rejection reason is required when rejecting a document"
}

// ReferentialIntegrityError blocks a delete while dependent rows exist.
type ReferentialIntegrityError struct {
	Entity    string
	Relations []string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("cannot delete %s: dependent %s exist", e.Entity, strings.Join(e.Relations, ", "))
}

// FieldErrors flattens any of the domain errors above into a field map
// suitable for a 422 response. ok is false for errors without a field shape.
func FieldErrors(err error) (map[string]string, bool) {
	switch e := err.(type) {
	case *ValidationError:
		return e.Fields, true
	case *TooManyFilesError:
		return map[string]string{"files": e.Error()}, true
	case *UnsupportedFileTypeError:
		return map[string]string{fmt.Sprintf("files.%d", e.Index): e.Error()}, true
	case *FileTooLargeError:
		return map[string]string{fmt.Sprintf("files.%d", e.Index): e.Error()}, true
	case *DuplicateFileError:
		return map[string]string{fmt.Sprintf("files.%d", e.Index): e.Error()}, true
	case *MissingReasonError:
		return map[string]string{"rejection_reason": e.Error()}, true
	}
	return nil, false
}
