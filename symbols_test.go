package ar

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendWord(b []byte, order binary.ByteOrder, wordSize int, v uint64) []byte {
	if wordSize == 8 {
		return order.AppendUint64(b, v)
	}
	return order.AppendUint32(b, uint32(v))
}

// encodeGNUSymbols encodes a GNU symbol table.
func encodeGNUSymbols(wordSize int, symbols []Symbol) []byte {
	b := appendWord(nil, binary.BigEndian, wordSize, uint64(len(symbols)))
	for _, sym := range symbols {
		b = appendWord(b, binary.BigEndian, wordSize, uint64(sym.Offset))
	}
	for _, sym := range symbols {
		b = append(b, sym.Name...)
		b = append(b, 0)
	}
	return b
}

// encodeBSDSymbols encodes a BSD symbol table.
func encodeBSDSymbols(order binary.ByteOrder, wordSize int, symbols []Symbol) []byte {
	var strtab []byte
	b := appendWord(nil, order, wordSize, uint64(len(symbols)*2*wordSize))
	for _, sym := range symbols {
		b = appendWord(b, order, wordSize, uint64(len(strtab)))
		b = appendWord(b, order, wordSize, uint64(sym.Offset))
		strtab = append(strtab, sym.Name...)
		strtab = append(strtab, 0)
	}
	b = appendWord(b, order, wordSize, uint64(len(strtab)))
	return append(b, strtab...)
}

var testSymbols = []Symbol{{"foo", 60}, {"bar", 188}}

func TestParseGNUSymbols(t *testing.T) {
	for _, wordSize := range []int{4, 8} {
		symbols, err := parseGNUSymbols(encodeGNUSymbols(wordSize, testSymbols), wordSize)
		require.NoError(t, err)
		assert.Equal(t, testSymbols, symbols)
	}
}

func TestParseGNUSymbolsEmpty(t *testing.T) {
	symbols, err := parseGNUSymbols([]byte{0, 0, 0, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestParseGNUSymbolsMalformed(t *testing.T) {
	for _, tc := range []struct {
		Description string
		Payload     []byte
	}{
		{"empty", nil},
		{"count exceeds offsets", []byte{0, 0, 0, 5, 0, 0, 0, 60}},
		{"missing names", []byte{0, 0, 0, 2, 0, 0, 0, 60, 0, 0, 0, 188, 'f', 'o', 'o', 0}},
		{"unterminated name", []byte{0, 0, 0, 1, 0, 0, 0, 60, 'f', 'o', 'o'}},
	} {
		t.Run(tc.Description, func(t *testing.T) {
			_, err := parseGNUSymbols(tc.Payload, 4)
			assert.Error(t, err)
		})
	}
}

func TestParseBSDSymbols(t *testing.T) {
	for _, tc := range []struct {
		Description string
		Order       binary.ByteOrder
		WordSize    int
	}{
		{"little-endian", binary.LittleEndian, 4},
		{"big-endian", binary.BigEndian, 4},
		{"little-endian 64-bit", binary.LittleEndian, 8},
	} {
		t.Run(tc.Description, func(t *testing.T) {
			symbols, err := parseBSDSymbols(encodeBSDSymbols(tc.Order, tc.WordSize, testSymbols), tc.Order, tc.WordSize)
			require.NoError(t, err)
			assert.Equal(t, testSymbols, symbols)
		})
	}
}

func TestParseBSDSymbolsWrongByteOrder(t *testing.T) {
	// The array length 16 read with the wrong byte order is 0x10000000, far longer than the table.
	_, err := parseBSDSymbols(encodeBSDSymbols(binary.LittleEndian, 4, testSymbols), binary.BigEndian, 4)
	assert.ErrorIs(t, err, errSymbolTableTruncated)
}

func TestParseBSDSymbolsMalformed(t *testing.T) {
	le := binary.LittleEndian
	for _, tc := range []struct {
		Description string
		Payload     []byte
	}{
		{"empty", nil},
		{"array length not a multiple of entry size", le.AppendUint32(nil, 12)},
		{"missing string table length", encodeBSDSymbols(le, 4, testSymbols)[:20]},
		{"truncated string table", encodeBSDSymbols(le, 4, testSymbols)[:26]},
		{"name offset out of range", append(le.AppendUint32(le.AppendUint32(le.AppendUint32(nil, 8), 9), 60), 0, 0, 0, 0)},
	} {
		t.Run(tc.Description, func(t *testing.T) {
			_, err := parseBSDSymbols(tc.Payload, le, 4)
			assert.Error(t, err)
		})
	}
}
