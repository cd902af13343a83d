package ar

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

// identKind classifies the contents of a file header's name field.
type identKind int

const (
	// identPlain is a file name stored directly in the name field.
	identPlain identKind = iota

	// identBSDLong is a BSD long file name, stored at the start of the data section.
	identBSDLong

	// identGNULong is a GNU long file name, stored in the archive's name table.
	identGNULong

	// identNameTable is the GNU name table.
	identNameTable

	// identSymbolTable is a symbol lookup table.
	identSymbolTable
)

type symbolLayout struct {
	bsd      bool
	wordSize int
}

// ident is a decoded name field.
type ident struct {
	kind identKind

	// name is the file name for identPlain, and the symbol table identifier for identSymbolTable.
	name string

	// n is the length of the name for identBSDLong, or its offset in the name table for identGNULong.
	n int64

	layout symbolLayout
}

// nameCodec maps file names to and from the contents of the name field for one variant of the file
// format.
type nameCodec interface {
	// encode returns the value of the name field for the given file name, and the bytes (if any)
	// that must be prepended to the file's data section.
	encode(name string) (field string, prefix []byte, err error)

	// decode classifies the contents of a name field.
	decode(field string) (ident, error)
}

func (v Variant) codec() nameCodec {
	switch v {
	case BSD:
		return bsdNames{}
	case GNU:
		return &gnuNames{}
	}
	return commonNames{}
}

// commonNames is the common variant, which stores all file names in the name field. Names shorter
// than the field are terminated with a "/" so that trailing spaces in the name survive.
type commonNames struct{}

func (commonNames) encode(name string) (string, []byte, error) {
	if name == "" {
		return "", nil, &ErrFileName{Name: name, Err: errEmptyName}
	}
	// Readers take a leading "/" or "#1/" to mean a GNU or BSD escape.
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, bsdLongNamePrefix) {
		return "", nil, &ErrFileName{Name: name, Err: ErrUnsupportedLongName}
	}
	if len(name) < nameFieldLen {
		return name + "/", nil, nil
	}
	// A name that fills the field can't be terminated, so it mustn't end with anything that would be
	// stripped when it's read back.
	if len(name) == nameFieldLen && !strings.HasSuffix(name, " ") && !strings.HasSuffix(name, "/") {
		return name, nil, nil
	}
	return "", nil, &ErrFileName{Name: name, Err: ErrUnsupportedLongName}
}

func (commonNames) decode(field string) (ident, error) {
	return ident{kind: identPlain, name: strings.TrimSuffix(field, "/")}, nil
}

// bsdNames is the BSD variant, which stores names that are long or contain spaces at the start of the
// data section, and records their length in the name field as "#1/<length>".
type bsdNames struct{}

func (bsdNames) encode(name string) (string, []byte, error) {
	if !strings.Contains(name, " ") && !strings.HasPrefix(name, bsdLongNamePrefix) {
		field, _, err := commonNames{}.encode(name)
		if err == nil {
			return field, nil, nil
		}
		if !errors.Is(err, ErrUnsupportedLongName) {
			return "", nil, err
		}
	}
	return bsdLongNamePrefix + strconv.Itoa(len(name)), []byte(name), nil
}

func (bsdNames) decode(field string) (ident, error) {
	if id, ok := bsdSymbolTable(field); ok {
		return id, nil
	}
	// A file name consisting of "#1/" followed by an integer indicates that this file has a long name
	// that is prepended to the file's data section. The integer is the length of the prepended data.
	if strings.HasPrefix(field, bsdLongNamePrefix) {
		n, err := strconv.ParseInt(field[len(bsdLongNamePrefix):], 10, 64)
		if err != nil || n < 0 {
			return ident{}, &ErrFileName{Name: field, Err: errors.New("invalid long file name length")}
		}
		return ident{kind: identBSDLong, n: n}, nil
	}
	return commonNames{}.decode(field)
}

func bsdSymbolTable(name string) (ident, bool) {
	switch name {
	case bsdSymbolTableID, bsdSortedSymbolID:
		return ident{kind: identSymbolTable, name: name, layout: symbolLayout{bsd: true, wordSize: 4}}, true
	case bsdSymbolTable64ID, bsdSortedSymbol64ID:
		return ident{kind: identSymbolTable, name: name, layout: symbolLayout{bsd: true, wordSize: 8}}, true
	}
	return ident{}, false
}

// reservedName reports whether a file name is the identifier of a name table or symbol table, which
// readers consume instead of returning.
func reservedName(name string) bool {
	switch strings.TrimRight(name, "\x00") {
	case gnuNameTableID, gnuSymbolTableID, gnuSymbolTable64ID,
		bsdSymbolTableID, bsdSortedSymbolID, bsdSymbolTable64ID, bsdSortedSymbol64ID:
		return true
	}
	return false
}

// gnuNames is the GNU variant, which stores names that are long or contain spaces or slashes in the
// archive's name table, and records their offset in the table in the name field as "/<offset>".
//
// Writing requires every file name to be known before the first file is written, since the name
// table must precede them; known and offsets are populated by NewGNUWriter.
type gnuNames struct {
	known   map[string]bool
	offsets map[string]int64
}

// gnuNeedsNameTable reports whether a file name must be stored in a GNU name table.
func gnuNeedsNameTable(name string) bool {
	return len(name) >= nameFieldLen || strings.ContainsAny(name, " /")
}

func (g *gnuNames) encode(name string) (string, []byte, error) {
	if name == "" {
		return "", nil, &ErrFileName{Name: name, Err: errEmptyName}
	}
	if !g.known[name] {
		return "", nil, &ErrFileName{Name: name, Err: ErrUnexpectedIdentifier}
	}
	if !gnuNeedsNameTable(name) {
		return name + "/", nil, nil
	}
	return "/" + strconv.FormatInt(g.offsets[name], 10), nil, nil
}

func (g *gnuNames) decode(field string) (ident, error) {
	switch field {
	case gnuSymbolTableID:
		return ident{kind: identSymbolTable, name: field, layout: symbolLayout{wordSize: 4}}, nil
	case gnuSymbolTable64ID:
		return ident{kind: identSymbolTable, name: field, layout: symbolLayout{wordSize: 8}}, nil
	case gnuNameTableID:
		return ident{kind: identNameTable, name: field}, nil
	}
	if id, ok := bsdSymbolTable(field); ok {
		return id, nil
	}
	if field == "" {
		return ident{}, &ErrFileName{Name: field, Err: errEmptyName}
	}
	// A file name consisting of "/" followed by an integer indicates that this file has a long name
	// that is stored in the archive's string table. The integer is the byte offset of the real file
	// name in the string table.
	if field[0] == '/' {
		n, err := strconv.ParseInt(field[1:], 10, 64)
		if err != nil || n < 0 {
			return ident{}, &ErrFileName{Name: field, Err: ErrNameTableOffset}
		}
		return ident{kind: identGNULong, n: n}, nil
	}
	// GNU ar appends "/" to all file names, regardless of where they are stored.
	if field[len(field)-1] != '/' {
		return ident{}, &ErrFileName{Name: field, Err: errors.New("file name is missing trailing '/'")}
	}
	return ident{kind: identPlain, name: field[:len(field)-1]}, nil
}

// buildNameTable builds a GNU name table holding every name that needs one, in the order given.
// Each name is terminated by "/\n".
func buildNameTable(names []string) ([]byte, map[string]int64) {
	var data []byte
	offsets := map[string]int64{}
	for _, name := range names {
		if !gnuNeedsNameTable(name) {
			continue
		}
		if _, dup := offsets[name]; dup {
			continue
		}
		offsets[name] = int64(len(data))
		data = append(data, name...)
		data = append(data, '/', '\n')
	}
	return data, offsets
}

// lookupLongName returns the name stored at the given offset of a GNU name table.
func lookupLongName(table []byte, offset int64) (string, error) {
	if offset >= int64(len(table)) {
		return "", ErrNameTableOffset
	}
	entry := table[offset:]
	end := bytes.IndexByte(entry, '\n')
	if end == -1 {
		return "", &ErrStringTable{Err: errors.New("missing trailing newline")}
	}
	// Names are normally terminated by "/\n", but some writers omit the "/".
	return string(bytes.TrimSuffix(entry[:end], []byte{'/'})), nil
}

var errEmptyName = errors.New("zero-length file name")
