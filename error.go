package ar

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingGlobalHeader indicates that the archive file is invalid because its global
	// header is missing (i.e., because the file is shorter than 8 bytes).
	ErrMissingGlobalHeader = errors.New("ar: missing global header")

	// ErrInvalidGlobalHeader indicates that the archive file is invalid because its global
	// header is malformed (i.e., not the string "!<arch>\n").
	ErrInvalidGlobalHeader = errors.New("ar: invalid global header")

	// ErrTruncatedHeader indicates that the archive ended part-way through a file header.
	ErrTruncatedHeader = errors.New("ar: truncated file header")

	// ErrHeaderMagic indicates that a file header does not end with the two bytes "`\n".
	ErrHeaderMagic = errors.New("ar: invalid file header terminator")

	// ErrUnsupportedLongName indicates that a file name cannot be represented in the variant of the
	// file format being written.
	ErrUnsupportedLongName = errors.New("file name too long for variant")

	// ErrMissingNameTable indicates that a GNU long file name was referenced before the archive's
	// name table was read.
	ErrMissingNameTable = errors.New("missing string table")

	// ErrNameTableOffset indicates that a GNU long file name refers to an offset beyond the end of
	// the archive's name table.
	ErrNameTableOffset = errors.New("invalid string table offset")

	// ErrUnexpectedIdentifier indicates that a file was appended to a GNU writer under a name that
	// was not passed to NewGNUWriter.
	ErrUnexpectedIdentifier = errors.New("file name was not declared when the writer was created")

	// ErrReservedName indicates that a file was written under the identifier of a name table or
	// symbol table.
	ErrReservedName = errors.New("file name is reserved for a special file")

	// ErrStaleEntry is returned when reading from an Entry after the Reader has moved past it.
	ErrStaleEntry = errors.New("ar: read from stale entry")

	ErrWriteTooLong    = errors.New("ar: write too long")
	ErrWriteTooShort   = errors.New("ar: write too short")
	ErrWriteAfterClose = errors.New("ar: write after close")
)

// ErrStringTable indicates a problem with the string table in archives that use the GNU variant of
// the file format.
type ErrStringTable struct {
	Err error
}

func (e *ErrStringTable) Error() string {
	return fmt.Sprintf("ar: string table: %s", e.Err)
}

func (e *ErrStringTable) Unwrap() error {
	return e.Err
}

// ErrSymbolTable indicates a problem with an archive's symbol lookup table.
type ErrSymbolTable struct {
	Name string
	Err  error
}

func (e *ErrSymbolTable) Error() string {
	return fmt.Sprintf("ar: symbol table '%s': %s", e.Name, e.Err)
}

func (e *ErrSymbolTable) Unwrap() error {
	return e.Err
}

// ErrFileName indicates a problem with the file name in one of the archive's file headers.
type ErrFileName struct {
	Name string
	Err  error
}

func (e *ErrFileName) Error() string {
	return fmt.Sprintf("ar: archive member '%s': %s", e.Name, e.Err)
}

func (e *ErrFileName) Unwrap() error {
	return e.Err
}

// ErrHeaderField indicates that a numeric field in a file header is malformed, or that a value is
// too large to be encoded in its field.
type ErrHeaderField struct {
	Field string
	Value string
	Err   error
}

func (e *ErrHeaderField) Error() string {
	return fmt.Sprintf("ar: header field %s %q: %s", e.Field, e.Value, e.Err)
}

func (e *ErrHeaderField) Unwrap() error {
	return e.Err
}
