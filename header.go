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
	"bytes"
	"errors"
	"strconv"
	"time"
)

var (
	errFieldTooLong = errors.New("value too long for field")
	errNegative     = errors.New("negative value")
)

// Widths of the fields in a file header, in the order they appear.
const (
	nameFieldLen  = 16
	mtimeFieldLen = 12
	uidFieldLen   = 6
	gidFieldLen   = 6
	modeFieldLen  = 8
	sizeFieldLen  = 10
)

// decodeHeader decodes a 60-byte file header. It returns the raw contents of the file name field
// separately; resolving it into a file name depends on the variant of the archive.
func decodeHeader(buf []byte) (string, *Header, error) {
	if string(buf[HEADER_BYTE_SIZE-2:]) != HEADER_MAGIC {
		return "", nil, ErrHeaderMagic
	}

	s := slicer(buf)
	field := string(bytes.TrimRight(s.next(nameFieldLen), " "))

	mtime, err := parseNumeric("mtime", s.next(mtimeFieldLen), 10, 63)
	if err != nil {
		return field, nil, err
	}
	uid, err := parseNumeric("uid", s.next(uidFieldLen), 10, 32)
	if err != nil {
		return field, nil, err
	}
	gid, err := parseNumeric("gid", s.next(gidFieldLen), 10, 32)
	if err != nil {
		return field, nil, err
	}
	mode, err := parseNumeric("mode", s.next(modeFieldLen), 8, 32)
	if err != nil {
		return field, nil, err
	}
	size, err := parseNumeric("size", s.next(sizeFieldLen), 10, 63)
	if err != nil {
		return field, nil, err
	}

	return field, &Header{
		Name:    field,
		ModTime: time.Unix(int64(mtime), 0),
		Uid:     uint32(uid),
		Gid:     uint32(gid),
		Mode:    uint32(mode),
		Size:    int64(size),
	}, nil
}

// parseNumeric parses an unsigned integer field. Fields are left-justified and padded with spaces
// (or, by some writers, NULs); an entirely blank field is zero, as in the header of the GNU name table.
func parseNumeric(name string, b []byte, base int, bitSize int) (uint64, error) {
	trimmed := bytes.TrimRight(b, " \x00")
	if len(trimmed) == 0 {
		return 0, nil
	}
	n, err := strconv.ParseUint(string(trimmed), base, bitSize)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, &ErrHeaderField{Field: name, Value: string(b), Err: err}
	}
	return n, nil
}

// encodeHeader encodes a file header whose name field holds field and whose size field holds size,
// which differs from hdr.Size for BSD long file names.
func encodeHeader(field string, hdr *Header, size int64) ([]byte, error) {
	var mtime int64
	if !hdr.ModTime.IsZero() {
		mtime = hdr.ModTime.Unix()
	}
	if mtime < 0 {
		return nil, &ErrHeaderField{Field: "mtime", Value: strconv.FormatInt(mtime, 10), Err: errNegative}
	}
	if size < 0 {
		return nil, &ErrHeaderField{Field: "size", Value: strconv.FormatInt(size, 10), Err: errNegative}
	}

	header := make([]byte, HEADER_BYTE_SIZE)
	s := slicer(header)
	for _, f := range []struct {
		name  string
		b     []byte
		value string
	}{
		{"name", s.next(nameFieldLen), field},
		{"mtime", s.next(mtimeFieldLen), strconv.FormatInt(mtime, 10)},
		{"uid", s.next(uidFieldLen), strconv.FormatUint(uint64(hdr.Uid), 10)},
		{"gid", s.next(gidFieldLen), strconv.FormatUint(uint64(hdr.Gid), 10)},
		{"mode", s.next(modeFieldLen), strconv.FormatUint(uint64(hdr.Mode), 8)},
		{"size", s.next(sizeFieldLen), strconv.FormatInt(size, 10)},
	} {
		if err := setField(f.b, f.value); err != nil {
			return nil, &ErrHeaderField{Field: f.name, Value: f.value, Err: err}
		}
	}
	copy(s.next(2), HEADER_MAGIC)
	return header, nil
}

// encodeTableHeader encodes the header of a GNU name table, which leaves every field other than the
// name and size blank.
func encodeTableHeader(size int64) ([]byte, error) {
	header := bytes.Repeat([]byte{' '}, HEADER_BYTE_SIZE)
	copy(header, gnuNameTableID)
	value := strconv.FormatInt(size, 10)
	if err := setField(header[HEADER_BYTE_SIZE-2-sizeFieldLen:HEADER_BYTE_SIZE-2], value); err != nil {
		return nil, &ErrHeaderField{Field: "size", Value: value, Err: err}
	}
	copy(header[HEADER_BYTE_SIZE-2:], HEADER_MAGIC)
	return header, nil
}

// setField writes s to b, left-justified and padded with spaces.
func setField(b []byte, s string) error {
	if len(s) > len(b) {
		return errFieldTooLong
	}
	n := copy(b, s)
	for i := n; i < len(b); i++ {
		b[i] = ' '
	}
	return nil
}
