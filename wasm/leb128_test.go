package wasm

import (
	"bytes"
	"testing"
)

func TestReadVaruint32(t *testing.T) {
	cases := []struct {
		bytes []byte
		want  uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7F}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xE5, 0x8E, 0x26}, 624485},
	}
	for _, c := range cases {
		got, err := readVaruint32(bytes.NewReader(c.bytes))
		if err != nil {
			t.Fatalf("readVaruint32(%v): %v", c.bytes, err)
		}
		if got != c.want {
			t.Errorf("readVaruint32(%v) = %d, want %d", c.bytes, got, c.want)
		}
	}
}

func TestReadVarint32(t *testing.T) {
	cases := []struct {
		bytes []byte
		want  int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7F}, -1},
		{[]byte{0x7E}, -2},
		{[]byte{0xFF, 0x00}, 127},
		{[]byte{0x81, 0x7F}, -127},
	}
	for _, c := range cases {
		got, err := readVarint32(bytes.NewReader(c.bytes))
		if err != nil {
			t.Fatalf("readVarint32(%v): %v", c.bytes, err)
		}
		if got != c.want {
			t.Errorf("readVarint32(%v) = %d, want %d", c.bytes, got, c.want)
		}
	}
}

func TestReadVaruint64RoundTrip(t *testing.T) {
	buf := EncodeVaruint32(1 << 30)
	got, err := readVaruint64(bytes.NewReader(buf))
	if err != nil {
		t.Fatal(err)
	}
	if got != 1<<30 {
		t.Errorf("round trip got %d", got)
	}
}

func TestReadVaruintOverflow(t *testing.T) {
	// Five continuation bytes with a sixth that overflows a 32-bit value
	// beyond what readVaruint32 accepts.
	overflow := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	if _, err := readVaruint32(bytes.NewReader(overflow)); err == nil {
		t.Error("expected overflow error, got nil")
	}
}
