/*
Copyright (c) 2013 Blake Smith <blakesmith0@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package ar

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"
	"strings"
)

// Reader provides read access to an ar archive.
// Call next to skip files.
//
// Example:
//
//     reader, err := NewReader(f)
//     if err != nil {
//         return err
//     }
//     var buf bytes.Buffer
//     for {
//         _, err := reader.Next()
//         if err == io.EOF {
//             break
//         }
//         if err != nil {
//             return err
//         }
//         io.Copy(&buf, reader)
//     }
//
// Name tables and symbol tables are consumed by the Reader and never returned by Next; the symbol
// table is available from Symbols once the first file has been read.
type Reader struct {
	// r is the underlying archive file.
	r *bufio.Reader

	cfg *config

	// variant is the variant of the ar file format used by the archive, and codec decodes its file
	// names. Unless the variant was given as an option, it is Common until a header that could only
	// have been written by one variant is seen.
	variant  Variant
	detected bool
	codec    nameCodec

	// nb is the number of bytes in the current data section that remain unread.
	nb int64

	// pad is the number of padding bytes appended to the current data section; it is always either 0
	// or 1, depending on whether the length of the data section is an even or odd number of bytes
	// respectively.
	pad int64

	// pos is the offset from the start of the archive of the next unread byte, and off is the offset
	// of the current file's header.
	pos int64
	off int64

	// seq counts calls to Next, so that Entries can tell when they are stale.
	seq uint64

	// err is the error that stopped the last call to Next, if any; it is returned by every later call.
	err error

	// stringTable is the archive's string table, the data section of the special "//" file in the GNU
	// variant of the archive format, which stores the names of files that are too long to fit in a
	// file name header field.
	stringTable []byte

	// symbols is the archive's symbol lookup table, and symbolIndex maps each symbol's name to its
	// first position in symbols. symbolIndex is built on first use.
	symbols     []Symbol
	symbolIndex map[string]int
}

// NewReader creates a new reader reading from r. It returns an error if the global archive
// header is missing or malformed.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	cfg := newConfig(opts)
	rd := &Reader{
		r:   bufio.NewReader(r),
		cfg: cfg,
	}
	if cfg.variantSet {
		rd.setVariant(cfg.variant)
	} else {
		rd.variant, rd.codec = Common, Common.codec()
	}
	// Ensure the global archive header is valid.
	hdr := make([]byte, len(GLOBAL_HEADER))
	if _, err := io.ReadFull(rd.r, hdr); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrMissingGlobalHeader
		}
		return nil, fmt.Errorf("ar: %w", err)
	}
	if string(hdr) != GLOBAL_HEADER {
		return nil, ErrInvalidGlobalHeader
	}
	rd.pos = int64(len(GLOBAL_HEADER))
	return rd, nil
}

func (rd *Reader) setVariant(v Variant) {
	rd.variant = v
	rd.codec = v.codec()
	rd.detected = true
}

// detect identifies the file format variant from a file name field, if it hasn't been identified
// already. File names in the GNU variant that begin with "/" are special files or long names, and
// BSD long names and symbol tables begin with "#1/" and "__.SYMDEF" respectively; every other file
// name could belong to any variant, and is read the same way by all of them.
func (rd *Reader) detect(field string) {
	if rd.detected {
		return
	}
	switch {
	case strings.HasPrefix(field, bsdLongNamePrefix), strings.HasPrefix(field, bsdSymbolTableID):
		rd.setVariant(BSD)
	case strings.HasPrefix(field, "/"):
		rd.setVariant(GNU)
	default:
		return
	}
	rd.cfg.logger.Debug("detected archive variant",
		slog.String("variant", rd.variant.String()),
		slog.String("name", field))
}

// Variant returns the variant of the ar file format used by the archive. Unless it was given as an
// option, it is only known once a file that has a long name, or a special file, has been read.
func (rd *Reader) Variant() Variant {
	return rd.variant
}

// Offset returns the offset from the start of the archive of the header of the file most recently
// returned by Next. This is the offset that symbol tables refer to.
func (rd *Reader) Offset() int64 {
	return rd.off
}

// Symbols returns the archive's symbol lookup table, in the order it is stored in the archive. It
// is empty if the archive has no symbol table, or if Next has not yet been called.
func (rd *Reader) Symbols() []Symbol {
	return slices.Clone(rd.symbols)
}

// LookupSymbol returns the first entry in the archive's symbol lookup table with the given name.
func (rd *Reader) LookupSymbol(name string) (Symbol, bool) {
	if rd.symbolIndex == nil {
		rd.symbolIndex = make(map[string]int, len(rd.symbols))
		for i, sym := range rd.symbols {
			if _, ok := rd.symbolIndex[sym.Name]; !ok {
				rd.symbolIndex[sym.Name] = i
			}
		}
	}
	i, ok := rd.symbolIndex[name]
	if !ok {
		return Symbol{}, false
	}
	return rd.symbols[i], true
}

func (rd *Reader) skipUnread() error {
	skip, pad := rd.nb, rd.pad
	rd.nb, rd.pad = 0, 0
	n, err := io.CopyN(io.Discard, rd.r, skip)
	rd.pos += n
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("ar: skip file data: %w", err)
	}
	// Tolerate a missing padding byte at the very end of the archive; the next header read will
	// report a clean EOF.
	if pad > 0 {
		n, err := rd.r.Discard(int(pad))
		rd.pos += int64(n)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("ar: skip padding: %w", err)
		}
	}
	return nil
}

// Next skips to the next file in the archive file.
// Returns a Header which contains the metadata about the
// file in the archive. io.EOF is returned at the end of the input.
//
// Any other error leaves the Reader at an undefined position in the archive, and is returned again
// by every later call.
func (rd *Reader) Next() (*Header, error) {
	if rd.err != nil {
		return nil, rd.err
	}
	hdr, err := rd.next()
	if err != nil {
		rd.err = err
		return nil, err
	}
	return hdr, nil
}

func (rd *Reader) next() (*Header, error) {
	rd.seq++
	for {
		if err := rd.skipUnread(); err != nil {
			return nil, err
		}

		headerBuf := make([]byte, HEADER_BYTE_SIZE)
		n, err := io.ReadFull(rd.r, headerBuf)
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrTruncatedHeader, n, HEADER_BYTE_SIZE)
		}
		if err != nil {
			return nil, fmt.Errorf("ar: read header: %w", err)
		}
		rd.off = rd.pos
		rd.pos += HEADER_BYTE_SIZE

		field, header, err := decodeHeader(headerBuf)
		if err != nil {
			return nil, err
		}
		rd.nb = header.Size
		rd.pad = header.Size % 2

		rd.detect(field)
		id, err := rd.codec.decode(field)
		if err != nil {
			return nil, err
		}

		switch id.kind {
		// The special file name "//" indicates that the data section contains a string table. The string
		// table contains the names of files in the archive that are too long for the name field,
		// delimited with newlines. Store it, so we can resolve long file names when we encounter them
		// later.
		case identNameTable:
			if err := rd.readNameTable(); err != nil {
				return nil, err
			}
			// The string table should be invisible to the caller - move on to the next file.
			continue
		case identSymbolTable:
			if err := rd.readSymbolTable(id); err != nil {
				return nil, err
			}
			continue
		case identBSDLong:
			name, err := rd.readBSDName(field, id.n)
			if err != nil {
				return nil, err
			}
			header.Size -= id.n
			// BSD ar stores the sorted symbol table under a long name, since it contains a space.
			if symID, ok := bsdSymbolTable(name); ok {
				if err := rd.readSymbolTable(symID); err != nil {
					return nil, err
				}
				continue
			}
			header.Name = name
		case identGNULong:
			name, err := rd.lookupGNUName(field, id.n)
			if err != nil {
				return nil, err
			}
			header.Name = name
		default:
			header.Name = id.name
		}
		return header, nil
	}
}

// readTable reads the whole of the current data section, which holds a name or symbol table.
func (rd *Reader) readTable() ([]byte, error) {
	if limit := rd.cfg.maxTableSize; limit > 0 && rd.nb > limit {
		return nil, fmt.Errorf("table of %d bytes exceeds limit of %d bytes", rd.nb, limit)
	}
	buf := make([]byte, rd.nb)
	if _, err := io.ReadFull(rd, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (rd *Reader) readNameTable() error {
	if rd.stringTable != nil {
		return &ErrStringTable{Err: errors.New("archive contains multiple string tables")}
	}
	buf, err := rd.readTable()
	if err != nil {
		return &ErrStringTable{Err: err}
	}
	rd.stringTable = buf
	rd.cfg.logger.Debug("read name table", slog.Int("size", len(buf)))
	return nil
}

func (rd *Reader) readSymbolTable(id ident) error {
	if rd.symbols != nil {
		return &ErrSymbolTable{Name: id.name, Err: errors.New("archive contains multiple symbol tables")}
	}
	buf, err := rd.readTable()
	if err != nil {
		return &ErrSymbolTable{Name: id.name, Err: err}
	}
	var symbols []Symbol
	if id.layout.bsd {
		symbols, err = parseBSDSymbols(buf, rd.cfg.byteOrder, id.layout.wordSize)
	} else {
		symbols, err = parseGNUSymbols(buf, id.layout.wordSize)
	}
	if err != nil {
		return &ErrSymbolTable{Name: id.name, Err: err}
	}
	rd.symbols = symbols
	rd.symbolIndex = nil
	rd.cfg.logger.Debug("read symbol table",
		slog.String("name", id.name),
		slog.Int("symbols", len(symbols)))
	return nil
}

// readBSDName reads a BSD long file name of the given length from the start of the data section.
func (rd *Reader) readBSDName(field string, length int64) (string, error) {
	if length > rd.nb {
		return "", &ErrFileName{
			Name: field,
			Err:  fmt.Errorf("long file name length exceeds file size %d", rd.nb),
		}
	}
	if limit := rd.cfg.maxTableSize; limit > 0 && length > limit {
		return "", &ErrFileName{
			Name: field,
			Err:  fmt.Errorf("long file name length exceeds limit of %d bytes", limit),
		}
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(rd, b); err != nil {
		return "", &ErrFileName{
			Name: field,
			Err:  err,
		}
	}
	// Some implementations (e.g. llvm-ar) append an indeterminate number of trailing nulls to the
	// prepended data, which should be stripped.
	return string(bytes.TrimRight(b, "\x00")), nil
}

func (rd *Reader) lookupGNUName(field string, offset int64) (string, error) {
	if rd.stringTable == nil {
		return "", &ErrFileName{
			Name: field,
			Err:  ErrMissingNameTable,
		}
	}
	name, err := lookupLongName(rd.stringTable, offset)
	if errors.Is(err, ErrNameTableOffset) {
		return "", &ErrFileName{
			Name: field,
			Err:  err,
		}
	}
	return name, err
}

// Read reads data from the current entry in the archive. It never reads beyond the end of the
// entry's data section; if the archive ends before then, it returns io.ErrUnexpectedEOF.
func (rd *Reader) Read(b []byte) (n int, err error) {
	if rd.nb == 0 {
		return 0, io.EOF
	}
	if int64(len(b)) > rd.nb {
		b = b[0:rd.nb]
	}
	n, err = rd.r.Read(b)
	rd.nb -= int64(n)
	rd.pos += int64(n)
	if err == io.EOF && rd.nb > 0 {
		err = io.ErrUnexpectedEOF
	}

	return
}

// Entry is a file in an archive. Reading from it reads the file's data; it must be read before the
// Reader is advanced, after which reads fail with ErrStaleEntry.
type Entry struct {
	Header *Header

	// Offset is the offset from the start of the archive of the file's header.
	Offset int64

	rd  *Reader
	seq uint64
}

func (e *Entry) Read(b []byte) (int, error) {
	if e.rd.seq != e.seq {
		return 0, ErrStaleEntry
	}
	return e.rd.Read(b)
}

// NextEntry is like Next, but returns the file as an Entry.
func (rd *Reader) NextEntry() (*Entry, error) {
	hdr, err := rd.Next()
	if err != nil {
		return nil, err
	}
	return &Entry{Header: hdr, Offset: rd.off, rd: rd, seq: rd.seq}, nil
}

// Entries returns an iterator over the remaining files in the archive. Iteration stops at the end
// of the archive, or after the first error.
func (rd *Reader) Entries() iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		for {
			e, err := rd.NextEntry()
			if err == io.EOF {
				return
			}
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}
