// Package cinrad decodes CINRAD "STD" weather-radar basic-data files into an
// in-memory volume scan.
//
// The format is a sequence of little-endian fixed-size blocks: a 32-byte
// generic header, a 128-byte site configuration, a 256-byte task
// configuration, one 256-byte cut configuration per scan layer, and then a
// radial stream with no up-front count. Each radial is a 64-byte header
// followed by one 32-byte moment header plus payload per data moment; the
// stream ends with the radial whose state field is 4. Record boundaries are
// only discoverable by consuming everything before them, so decoding is a
// single strictly sequential pass.
package cinrad

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// Decode errors. All of these abort the read; no partial volume is returned.
var (
	ErrBadMagic             = errors.New("not an STD file: magic mismatch")
	ErrTruncated            = errors.New("truncated input")
	ErrBadLength            = errors.New("corrupt block length")
	ErrUnsupportedBinLength = errors.New("unsupported moment bin length")
	ErrUnknownDataType      = errors.New("unknown moment data type code")
)

// cursor reads fixed-size blocks sequentially from a byte source, tracking
// the absolute offset for error reporting. The source may be a plain file or
// a bzip2 stream; the cursor does not care.
type cursor struct {
	r   io.Reader
	off int64
}

func newCursor(r io.Reader) *cursor {
	return &cursor{r: r}
}

// block reads exactly n bytes and advances the cursor. A short read is always
// ErrTruncated: the format has no optional trailing records.
func (c *cursor) block(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d at offset %d", ErrBadLength, n, c.off)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncated, n, c.off)
	}
	c.off += int64(n)
	return buf, nil
}

// decode reads a packed little-endian struct of size n into v.
func (c *cursor) decode(n int, v any) error {
	buf, err := c.block(n)
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(buf), binary.LittleEndian, v)
}

// cutString returns the prefix of b up to the first NUL byte, as raw bytes.
// Reserved fields use this form.
func cutString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// cutGBK decodes the NUL-terminated prefix of b as GBK (the format stores
// site and task names as gb2312). When no NUL is present the whole span is
// decoded; a garbled name must not fail the read, and the GBK decoder
// substitutes rather than erroring.
func cutGBK(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	s, err := simplifiedchinese.GBK.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
