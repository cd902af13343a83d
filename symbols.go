package ar

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

// Symbol is an entry in an archive's symbol lookup table: the name of a symbol, and the offset from
// the start of the archive of the header of the file that defines it.
type Symbol struct {
	Name   string
	Offset int64
}

var errSymbolTableTruncated = errors.New("table is truncated")

// parseGNUSymbols decodes a GNU symbol table: a big-endian count, that many big-endian file offsets,
// then a NUL-separated string table whose strings are associated positionally with the offsets.
func parseGNUSymbols(payload []byte, wordSize int) ([]Symbol, error) {
	s := symbolSlicer{b: payload, order: binary.BigEndian, wordSize: wordSize}
	count, ok := s.word()
	if !ok {
		return nil, errSymbolTableTruncated
	}
	if count > uint64(len(s.b)/wordSize) {
		return nil, errSymbolTableTruncated
	}
	symbols := make([]Symbol, count)
	for i := range symbols {
		off, _ := s.word()
		if off > math.MaxInt64 {
			return nil, errors.New("file offset out of range")
		}
		symbols[i].Offset = int64(off)
	}
	strtab := s.b
	for i := range symbols {
		end := bytes.IndexByte(strtab, 0)
		if end == -1 {
			return nil, errors.New("missing symbol names")
		}
		symbols[i].Name = string(strtab[:end])
		strtab = strtab[end+1:]
	}
	return symbols, nil
}

// parseBSDSymbols decodes a BSD symbol table: the length in bytes of an array of (string table
// offset, file offset) pairs, the array itself, the length in bytes of the string table, and the
// string table, whose strings are NUL-terminated. Every integer is in the given byte order.
func parseBSDSymbols(payload []byte, order binary.ByteOrder, wordSize int) ([]Symbol, error) {
	s := symbolSlicer{b: payload, order: order, wordSize: wordSize}
	arrayLen, ok := s.word()
	if !ok {
		return nil, errSymbolTableTruncated
	}
	pairLen := uint64(2 * wordSize)
	if arrayLen%pairLen != 0 {
		return nil, errors.New("symbol array length is not a multiple of its entry size")
	}
	if arrayLen > uint64(len(s.b)) {
		return nil, errSymbolTableTruncated
	}
	symbols := make([]Symbol, arrayLen/pairLen)
	nameOffsets := make([]uint64, len(symbols))
	for i := range symbols {
		nameOffsets[i], _ = s.word()
		off, _ := s.word()
		if off > math.MaxInt64 {
			return nil, errors.New("file offset out of range")
		}
		symbols[i].Offset = int64(off)
	}
	strtabLen, ok := s.word()
	if !ok || strtabLen > uint64(len(s.b)) {
		return nil, errSymbolTableTruncated
	}
	strtab := s.b[:strtabLen]
	for i, nameOff := range nameOffsets {
		if nameOff >= uint64(len(strtab)) {
			return nil, errors.New("symbol name offset out of range")
		}
		name := strtab[nameOff:]
		if end := bytes.IndexByte(name, 0); end != -1 {
			name = name[:end]
		}
		symbols[i].Name = string(name)
	}
	return symbols, nil
}

type symbolSlicer struct {
	b        []byte
	order    binary.ByteOrder
	wordSize int
}

func (s *symbolSlicer) word() (uint64, bool) {
	if len(s.b) < s.wordSize {
		return 0, false
	}
	var w uint64
	if s.wordSize == 8 {
		w = s.order.Uint64(s.b)
	} else {
		w = uint64(s.order.Uint32(s.b))
	}
	s.b = s.b[s.wordSize:]
	return w, true
}
