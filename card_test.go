package sdspi_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/soypat/sdspi"
	"github.com/soypat/sdspi/vcard"
)

func newTestCard(t *testing.T, blocks uint32, sdhc bool) *sdspi.CardHandle {
	t.Helper()
	card, err := vcard.NewMem(blocks, sdhc)
	if err != nil {
		t.Fatalf("vcard.NewMem: %v", err)
	}
	return sdspi.New(card, sdspi.NewSystemClock())
}

func TestBeginSDHC(t *testing.T) {
	dev := newTestCard(t, 8192, true)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if dev.CardType() != sdspi.CardSDHC {
		t.Fatalf("CardType() = %v, want SDHC", dev.CardType())
	}
}

func TestBeginStandardCapacity(t *testing.T) {
	dev := newTestCard(t, 8192, false)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if dev.CardType() != sdspi.CardSDv2 {
		t.Fatalf("CardType() = %v, want SDv2", dev.CardType())
	}
}

func TestReadWriteBlockRoundTrip(t *testing.T) {
	dev := newTestCard(t, 64, true)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	want := bytes.Repeat([]byte{0xAB}, 512)
	if err := dev.WriteBlock(10, want); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	got := make([]byte, 512)
	if err := dev.ReadBlock(10, got); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Fatalf("readback mismatch")
	}
}

func TestReadWriteMultipleBlocks(t *testing.T) {
	dev := newTestCard(t, 64, true)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	const n = 4
	want := make([]byte, n*512)
	for i := range want {
		want[i] = byte(i)
	}
	if written, err := dev.WriteBlocks(20, n, want); err != nil {
		t.Fatalf("WriteBlocks: %v", err)
	} else if written != n {
		t.Fatalf("WriteBlocks: wrote %d blocks, want %d", written, n)
	}
	got := make([]byte, n*512)
	if read, err := dev.ReadBlocks(20, n, got); err != nil {
		t.Fatalf("ReadBlocks: %v", err)
	} else if read != n {
		t.Fatalf("ReadBlocks: read %d blocks, want %d", read, n)
	}
	if !bytes.Equal(want, got) {
		t.Fatalf("multi-block readback mismatch")
	}
}

func TestOperationBeforeBeginFails(t *testing.T) {
	dev := newTestCard(t, 64, true)
	buf := make([]byte, 512)
	err := dev.ReadBlock(0, buf)
	if !errors.Is(err, sdspi.ErrInitNotCalled) {
		t.Fatalf("ReadBlock before Begin: got %v, want ErrInitNotCalled", err)
	}
}

func TestReadCSDCapacity(t *testing.T) {
	dev := newTestCard(t, 8192, true)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	csd, err := dev.ReadCSD()
	if err != nil {
		t.Fatalf("ReadCSD: %v", err)
	}
	if csd.BlockCount() != 8192 {
		t.Fatalf("BlockCount() = %d, want 8192", csd.BlockCount())
	}
	if csd.CapacityBytes() != 8192*512 {
		t.Fatalf("CapacityBytes() = %d, want %d", csd.CapacityBytes(), 8192*512)
	}
}

func TestCapacityBlocks(t *testing.T) {
	dev := newTestCard(t, 8192, true)
	if err := dev.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	n, ok := dev.CapacityBlocks()
	if !ok {
		t.Fatalf("CapacityBlocks: ok = false")
	}
	if n != 8192 {
		t.Fatalf("CapacityBlocks() = %d, want 8192", n)
	}
}

func TestCapacityBlocksBeforeBeginFails(t *testing.T) {
	dev := newTestCard(t, 64, true)
	if _, ok := dev.CapacityBlocks(); ok {
		t.Fatalf("CapacityBlocks before Begin: ok = true, want false")
	}
}

func TestBeginIsIdempotent(t *testing.T) {
	dev := newTestCard(t, 64, true)
	if err := dev.Begin(); err != nil {
		t.Fatalf("first Begin: %v", err)
	}
	if err := dev.Begin(); err != nil {
		t.Fatalf("second Begin: %v", err)
	}
}
