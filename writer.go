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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
)

// Writer provides sequential writing of an ar archive.
// An ar archive is sequence of header file pairs
// Call WriteHeader to begin writing a new file, then call Write to supply the file's data
//
// Example:
// archive, err := ar.NewWriter(writer)
// if err != nil {
// 	return err
// }
// header := new(ar.Header)
// header.Name = "hello.txt"
// header.Size = 15 // bytes
// if err := archive.WriteHeader(header); err != nil {
// 	return err
// }
// io.Copy(archive, data)
type Writer struct {
	// w is the underlying io.Writer to which the archive file is written.
	w io.Writer

	cfg *config

	// codec encodes file names for the variant of the file format being written.
	codec nameCodec

	// closed is true if Close has been called on this Writer, or false if it has not.
	closed bool

	// wroteHeader is true if the archive header has been written to the underlying io.Writer, or
	// false if it has not yet.
	wroteHeader bool

	// nb is the number of bytes that have not yet been written (via Write) since the most
	// recent call to WriteHeader.
	nb int64

	// pad is true if a padding byte must follow the current data section once it is complete.
	pad bool
}

// NewWriter creates a new Writer that writes an ar archive to an underlying io.Writer, using the
// variant given by WithVariant (BSD by default). GNU archives must be written with NewGNUWriter.
func NewWriter(w io.Writer, opts ...Option) (*Writer, error) {
	cfg := newConfig(opts)
	if cfg.variant == GNU {
		return nil, errors.New("ar: GNU archives must be written with NewGNUWriter")
	}
	return &Writer{
		w:     w,
		cfg:   cfg,
		codec: cfg.variant.codec(),
	}, nil
}

// NewGNUWriter creates a new Writer that writes a GNU-format ar archive to an underlying io.Writer.
//
// The GNU variant stores file names that are too long for a header (or that contain spaces or
// slashes) in a table at the start of the archive, so the name of every file that will be written
// must be given here. The archive header and name table are written immediately; appending a file
// whose name is not in names fails with ErrUnexpectedIdentifier.
func NewGNUWriter(w io.Writer, names []string, opts ...Option) (*Writer, error) {
	cfg := newConfig(opts)
	known := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" {
			return nil, &ErrFileName{Name: name, Err: errEmptyName}
		}
		if reservedName(name) {
			return nil, &ErrFileName{Name: name, Err: ErrReservedName}
		}
		// Entries in the name table end at the first newline.
		if gnuNeedsNameTable(name) && strings.Contains(name, "\n") {
			return nil, &ErrFileName{Name: name, Err: ErrUnsupportedLongName}
		}
		known[name] = true
	}
	data, offsets := buildNameTable(names)
	aw := &Writer{
		w:     w,
		cfg:   cfg,
		codec: &gnuNames{known: known, offsets: offsets},
	}
	if err := aw.writeHeader(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return aw, nil
	}
	header, err := encodeTableHeader(int64(len(data)))
	if err != nil {
		return nil, &ErrStringTable{Err: err}
	}
	if _, err := aw.w.Write(header); err != nil {
		return nil, fmt.Errorf("ar: write string table header: %w", err)
	}
	aw.nb, aw.pad = int64(len(data)), len(data)%2 == 1
	if _, err := aw.Write(data); err != nil {
		return nil, fmt.Errorf("ar: write string table: %w", err)
	}
	cfg.logger.Debug("wrote name table",
		slog.Int("names", len(offsets)),
		slog.Int("size", len(data)))
	return aw, nil
}

// Close finishes writing the archive, ensuring that a valid archive header has been written even if
// the archive contains no files. It does not close the underlying io.Writer.
func (aw *Writer) Close() error {
	if aw.closed {
		return errors.New("ar: writer closed twice")
	}
	if err := aw.checkComplete(); err != nil {
		return err
	}
	aw.closed = true
	return aw.writeHeader()
}

// Writes to the current entry in the ar archive
// Returns ErrWriteTooLong if more than header.Size
// bytes are written after a call to WriteHeader
func (aw *Writer) Write(b []byte) (n int, err error) {
	if aw.closed {
		return 0, ErrWriteAfterClose
	}
	if int64(len(b)) > aw.nb {
		b = b[0:aw.nb]
		err = ErrWriteTooLong
	}
	if len(b) == 0 {
		return 0, err
	}
	n, werr := aw.w.Write(b)
	aw.nb -= int64(n)
	if werr != nil {
		return n, werr
	}

	if aw.nb == 0 && aw.pad { // data size must be aligned to an even byte
		aw.pad = false
		if _, werr := aw.w.Write([]byte{'\n'}); werr != nil {
			// Return n although we actually wrote n+1 bytes.
			// This is to make io.Copy() to work correctly.
			return n, werr
		}
	}

	return
}

// writeHeader writes the ar header to the underlying io.Writer. This must only happen once, and must
// be the first write operation on the io.Writer.
func (aw *Writer) writeHeader() error {
	if aw.wroteHeader {
		return nil
	}
	aw.wroteHeader = true
	if _, err := io.WriteString(aw.w, GLOBAL_HEADER); err != nil {
		return fmt.Errorf("ar: write archive header: %w", err)
	}
	return nil
}

// checkComplete returns an error if the data section of the current file is incomplete.
func (aw *Writer) checkComplete() error {
	if aw.nb > 0 {
		return fmt.Errorf("%w: %d bytes of the previous file are missing", ErrWriteTooShort, aw.nb)
	}
	return nil
}

// Writes the header to the underlying writer and prepares
// to receive the file payload
func (aw *Writer) WriteHeader(hdr *Header) error {
	if aw.closed {
		return ErrWriteAfterClose
	}
	if err := aw.checkComplete(); err != nil {
		return err
	}
	if hdr.Size < 0 {
		return &ErrHeaderField{Field: "size", Value: strconv.FormatInt(hdr.Size, 10), Err: errNegative}
	}
	if reservedName(hdr.Name) {
		return &ErrFileName{Name: hdr.Name, Err: ErrReservedName}
	}
	field, prefix, err := aw.codec.encode(hdr.Name)
	if err != nil {
		return err
	}
	size := hdr.Size + int64(len(prefix))
	header, err := encodeHeader(field, hdr, size)
	if err != nil {
		return err
	}

	if err := aw.writeHeader(); err != nil {
		return err
	}
	if _, err := aw.w.Write(header); err != nil {
		return fmt.Errorf("ar: write file header: %w", err)
	}
	aw.nb, aw.pad = size, size%2 == 1

	if len(prefix) > 0 {
		// BSD-style writes the name before the data section
		if _, err := aw.Write(prefix); err != nil {
			return fmt.Errorf("ar: write long file name: %w", err)
		}
	}
	return nil
}

// Append writes a file to the archive, reading exactly hdr.Size bytes of data from r.
func (aw *Writer) Append(hdr *Header, r io.Reader) error {
	if err := aw.WriteHeader(hdr); err != nil {
		return err
	}
	n, err := io.CopyN(aw, r, hdr.Size)
	if errors.Is(err, io.EOF) {
		return &ErrFileName{
			Name: hdr.Name,
			Err:  fmt.Errorf("read %d of %d bytes: %w", n, hdr.Size, io.ErrUnexpectedEOF),
		}
	}
	return err
}

// AppendFile writes a file to the archive under the given name, taking its metadata from f.Stat.
// An empty name means the file's base name.
func (aw *Writer) AppendFile(name string, f fs.File) error {
	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("ar: stat %s: %w", name, err)
	}
	hdr, err := FileInfoHeader(fi)
	if err != nil {
		return err
	}
	if name != "" {
		hdr.Name = name
	}
	return aw.Append(hdr, f)
}
