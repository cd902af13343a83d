package ar

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeader(t *testing.T) {
	field, hdr, err := decodeHeader([]byte(rawHeader("hello.txt/", "1361157466", "501", "20", "100644", "13")))
	require.NoError(t, err)

	assert.Equal(t, "hello.txt/", field)
	assert.Equal(t, time.Unix(1361157466, 0), hdr.ModTime)
	assert.Equal(t, uint32(501), hdr.Uid)
	assert.Equal(t, uint32(20), hdr.Gid)
	assert.Equal(t, uint32(0100644), hdr.Mode)
	assert.Equal(t, int64(13), hdr.Size)
}

func TestDecodeHeaderBlankFields(t *testing.T) {
	field, hdr, err := decodeHeader([]byte(rawHeader("//", "", "", "", "", "46")))
	require.NoError(t, err)
	assert.Equal(t, "//", field)
	assert.Equal(t, time.Unix(0, 0), hdr.ModTime)
	assert.Zero(t, hdr.Uid)
	assert.Zero(t, hdr.Gid)
	assert.Zero(t, hdr.Mode)
	assert.Equal(t, int64(46), hdr.Size)
}

func TestDecodeHeaderNULPadding(t *testing.T) {
	raw := []byte(rawHeader("a.o/", "0", "0", "0", "644", "12"))
	copy(raw[50:58], strings.Repeat("\x00", 8))
	_, hdr, err := decodeHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(12), hdr.Size)
}

func TestDecodeHeaderErrors(t *testing.T) {
	for _, tc := range []struct {
		Description string
		Header      string
		Field       string
	}{
		{"non-numeric mtime", rawHeader("a.o/", "yesterday", "0", "0", "644", "1"), "mtime"},
		{"non-numeric uid", rawHeader("a.o/", "0", "root", "0", "644", "1"), "uid"},
		{"non-numeric gid", rawHeader("a.o/", "0", "0", "-1", "644", "1"), "gid"},
		{"non-octal mode", rawHeader("a.o/", "0", "0", "0", "100689", "1"), "mode"},
		{"non-numeric size", rawHeader("a.o/", "0", "0", "0", "644", "0x10"), "size"},
		{"leading space", rawHeader("a.o/", "0", "0", "0", "644", " 1"), "size"},
	} {
		t.Run(tc.Description, func(t *testing.T) {
			_, _, err := decodeHeader([]byte(tc.Header))
			var fieldErr *ErrHeaderField
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tc.Field, fieldErr.Field)
			assert.ErrorIs(t, err, strconv.ErrSyntax)
		})
	}
}

func TestDecodeHeaderBadTerminator(t *testing.T) {
	raw := []byte(rawHeader("a.o/", "0", "0", "0", "644", "1"))
	raw[59] = '\r'
	_, _, err := decodeHeader(raw)
	assert.ErrorIs(t, err, ErrHeaderMagic)
}

func TestEncodeHeader(t *testing.T) {
	hdr := &Header{
		ModTime: time.Unix(1361157466, 0),
		Uid:     501,
		Gid:     20,
		Mode:    0100644,
		Size:    13,
	}
	b, err := encodeHeader("hello.txt/", hdr, hdr.Size)
	require.NoError(t, err)
	assert.Equal(t, rawHeader("hello.txt/", "1361157466", "501", "20", "100644", "13"), string(b))
}

func TestEncodeHeaderZeroModTime(t *testing.T) {
	b, err := encodeHeader("a.o/", &Header{Mode: 0644}, 0)
	require.NoError(t, err)
	assert.Equal(t, rawHeader("a.o/", "0", "0", "0", "644", "0"), string(b))
}

func TestHeaderRoundTrip(t *testing.T) {
	for _, hdr := range []*Header{
		{ModTime: time.Unix(0, 0), Mode: 0100644},
		{ModTime: time.Unix(1542225207, 0), Uid: 502, Gid: 0, Mode: 0100755, Size: 1},
		{ModTime: time.Unix(999999999999, 0), Uid: 999999, Gid: 999999, Mode: 077777777, Size: 9999999999},
	} {
		b, err := encodeHeader("x/", hdr, hdr.Size)
		require.NoError(t, err)
		require.Len(t, b, HEADER_BYTE_SIZE)
		field, decoded, err := decodeHeader(b)
		require.NoError(t, err)
		assert.Equal(t, "x/", field)
		decoded.Name = hdr.Name
		assert.Equal(t, hdr, decoded)
	}
}

func TestEncodeHeaderOutOfRange(t *testing.T) {
	for _, tc := range []struct {
		Description string
		Header      Header
		Field       string
	}{
		{"mtime too large", Header{ModTime: time.Unix(1000000000000, 0)}, "mtime"},
		{"negative mtime", Header{ModTime: time.Unix(-1, 0)}, "mtime"},
		{"uid too large", Header{Uid: 1000000}, "uid"},
		{"gid too large", Header{Gid: 1000000}, "gid"},
		{"mode too large", Header{Mode: 0100000000}, "mode"},
		{"size too large", Header{Size: 10000000000}, "size"},
	} {
		t.Run(tc.Description, func(t *testing.T) {
			_, err := encodeHeader("a.o/", &tc.Header, tc.Header.Size)
			var fieldErr *ErrHeaderField
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tc.Field, fieldErr.Field)
		})
	}
}

func TestEncodeHeaderNameTooLong(t *testing.T) {
	_, err := encodeHeader("seventeen_chars.o", &Header{}, 0)
	assert.ErrorIs(t, err, errFieldTooLong)
}

func TestEncodeTableHeader(t *testing.T) {
	b, err := encodeTableHeader(25)
	require.NoError(t, err)
	assert.Equal(t, rawHeader("//", "", "", "", "", "25"), string(b))
}
