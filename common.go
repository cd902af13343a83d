package ar

import (
	"time"
)

const (
	HEADER_BYTE_SIZE = 60
	GLOBAL_HEADER    = "!<arch>\n"
	HEADER_MAGIC     = "`\n"
)

// Identifiers of the pseudo-entries that are consumed by the Reader rather than returned to the caller.
const (
	gnuNameTableID      = "//"
	gnuSymbolTableID    = "/"
	gnuSymbolTable64ID  = "/SYM64/"
	bsdSymbolTableID    = "__.SYMDEF"
	bsdSortedSymbolID   = "__.SYMDEF SORTED"
	bsdSymbolTable64ID  = "__.SYMDEF_64"
	bsdSortedSymbol64ID = "__.SYMDEF_64 SORTED"
	bsdLongNamePrefix   = "#1/"
)

type Variant int

const (
	// Common represents the variant of the ar file format used by Debian packages, among others. It
	// only supports file names of up to 16 bytes.
	Common Variant = iota

	// BSD represents the variant of the ar file format used by BSD ar.
	BSD

	// GNU represents the variant of the ar file format used by GNU ar.
	GNU
)

func (v Variant) String() string {
	switch v {
	case Common:
		return "common"
	case BSD:
		return "bsd"
	case GNU:
		return "gnu"
	}
	return "unknown"
}

// Header describes a single file in an ar archive.
//
// Size is the length of the file's contents; it never includes a BSD long file name or the padding
// byte that follows odd-sized data sections.
type Header struct {
	Name    string
	ModTime time.Time
	Uid     uint32
	Gid     uint32
	Mode    uint32
	Size    int64
}

type slicer []byte

func (sp *slicer) next(n int) (b []byte) {
	s := *sp
	b, *sp = s[0:n], s[n:]
	return
}
