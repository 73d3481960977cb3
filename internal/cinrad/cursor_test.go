package cinrad

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCursorBlock(t *testing.T) {
	c := newCursor(strings.NewReader("abcdef"))

	b, err := c.block(4)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if string(b) != "abcd" {
		t.Errorf("block = %q, want %q", b, "abcd")
	}

	// Only two bytes left; asking for four must fail, never short-read.
	if _, err := c.block(4); !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestCursorOffsetInError(t *testing.T) {
	c := newCursor(bytes.NewReader(make([]byte, 32)))
	if _, err := c.block(32); err != nil {
		t.Fatalf("block: %v", err)
	}
	_, err := c.block(8)
	if err == nil || !strings.Contains(err.Error(), "offset 32") {
		t.Errorf("err = %v, want offset 32 mentioned", err)
	}
}

func TestCutString(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte("RSTM\x00\x00"), "RSTM"},
		{[]byte("RSTM"), "RSTM"},
		{[]byte("\x00junk"), ""},
		{[]byte{}, ""},
	}
	for _, tt := range tests {
		if got := cutString(tt.in); got != tt.want {
			t.Errorf("cutString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCutGBK(t *testing.T) {
	// "北京" in GBK, NUL-terminated with trailing garbage.
	in := []byte{0xB1, 0xB1, 0xBE, 0xA9, 0x00, 0xFF, 0xFE}
	if got := cutGBK(in); got != "北京" {
		t.Errorf("cutGBK = %q, want 北京", got)
	}

	// No terminator: the whole span is decoded.
	if got := cutGBK([]byte("VCP21D")); got != "VCP21D" {
		t.Errorf("cutGBK = %q, want VCP21D", got)
	}
}
