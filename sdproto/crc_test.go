package sdproto

import (
	"math/bits"
	"testing"
)

func TestCRC7Vectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{"CMD0-arg0", []byte{0x40, 0, 0, 0, 0}, 0x95},
		{"CMD8-arg0x1AA", []byte{0x48, 0, 0, 0x01, 0xAA}, 0x87},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CRC7(tt.data)
			if got != tt.want {
				t.Fatalf("CRC7(%x) = %#02x, want %#02x", tt.data, got, tt.want)
			}
		})
	}
}

func TestCRC16CCITTVectors(t *testing.T) {
	zeros := make([]byte, 512)
	if got := CRC16CCITT(zeros); got != 0x0000 {
		t.Fatalf("CRC16CCITT(zeros) = %#04x, want 0x0000", got)
	}

	ones := make([]byte, 512)
	for i := range ones {
		ones[i] = 0xFF
	}
	if got := CRC16CCITT(ones); got != 0x7FA1 {
		t.Fatalf("CRC16CCITT(ones) = %#04x, want 0x7fa1", got)
	}
}

func TestCRC16CCITTAgainstReference(t *testing.T) {
	// Reference implementation via the plain MSB-first, table-free bitwise form
	// with matching parameters (poly 0x1021, init 0, no reflect, no
	// final xor) to cross-check the compact bit-twiddling form used by
	// the driver against random buffers.
	ref := func(data []byte) uint16 {
		var crc uint16
		for _, b := range data {
			crc ^= uint16(b) << 8
			for i := 0; i < 8; i++ {
				if crc&0x8000 != 0 {
					crc = crc<<1 ^ 0x1021
				} else {
					crc <<= 1
				}
			}
		}
		return crc
	}

	seed := uint32(0x2b2b2b2b)
	next := func() byte {
		seed = bits.RotateLeft32(seed*1103515245+12345, 7)
		return byte(seed >> 16)
	}

	for trial := 0; trial < 3; trial++ {
		buf := make([]byte, 64+trial*37)
		for i := range buf {
			buf[i] = next()
		}
		got := CRC16CCITT(buf)
		want := ref(buf)
		if got != want {
			t.Fatalf("trial %d: CRC16CCITT = %#04x, reference = %#04x", trial, got, want)
		}
	}
}

func TestFrameProperties(t *testing.T) {
	cmds := []Cmd{CMD0, CMD8, CMD16, CMD17, CMD55, ACMD41}
	args := []uint32{0, 1, 0x1AA, 0x40000000, 0xFFFFFFFF}
	for _, cmd := range cmds {
		for _, arg := range args {
			for _, useCRC := range []bool{true, false} {
				f := Frame(cmd, arg, useCRC)
				if f[0] != 0x40|byte(cmd) {
					t.Fatalf("Frame(%v,%#x,%v)[0] = %#02x", cmd, arg, useCRC, f[0])
				}
				gotArg := uint32(f[1])<<24 | uint32(f[2])<<16 | uint32(f[3])<<8 | uint32(f[4])
				if gotArg != arg {
					t.Fatalf("Frame(%v,%#x,%v) arg round-trip = %#x", cmd, arg, useCRC, gotArg)
				}
				if f[5]&1 != 1 {
					t.Fatalf("Frame(%v,%#x,%v)[5] end bit not set: %#02x", cmd, arg, useCRC, f[5])
				}
			}
		}
	}
}

func TestFrameCanonicalCRC(t *testing.T) {
	if f := Frame(CMD0, 0, false); f[5] != 0x95 {
		t.Fatalf("CMD0 canonical CRC = %#02x, want 0x95", f[5])
	}
	if f := Frame(CMD8, CardIfCondArg, false); f[5] != 0x87 {
		t.Fatalf("CMD8 canonical CRC = %#02x, want 0x87", f[5])
	}
	if f := Frame(CMD16, 512, false); f[5] != 0xFF {
		t.Fatalf("CMD16 with CRC disabled = %#02x, want 0xff", f[5])
	}
}
