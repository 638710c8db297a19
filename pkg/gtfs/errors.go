package gtfs

import (
	"errors"
	"fmt"
)

// MalformedInputError is a feed problem the analysis cannot safely continue past
type MalformedInputError struct {
	File  string
	Row   int // 1 based line in the file, 0 when the problem is with the file itself
	Field string
	Err   error
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Row == 0:
		return fmt.Sprintf("malformed %s: %s", e.File, e.Err)
	case e.Field == "":
		return fmt.Sprintf("malformed %s line %d: %s", e.File, e.Row, e.Err)
	default:
		return fmt.Sprintf("malformed %s line %d field %s: %s", e.File, e.Row, e.Field, e.Err)
	}
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

func malformed(file string, row int, field string, format string, args ...any) error {
	return &MalformedInputError{
		File:  file,
		Row:   row,
		Field: field,
		Err:   fmt.Errorf(format, args...),
	}
}

func IsMalformedInput(err error) bool {
	var malformedErr *MalformedInputError
	return errors.As(err, &malformedErr)
}

// rowNumber converts a slice index into a file line, accounting for the header
func rowNumber(index int) int {
	return index + 2
}
