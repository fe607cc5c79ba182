package sdspi

import (
	"encoding/binary"

	"github.com/soypat/sdspi/sdproto"
)

// ReadCID reads the Card IDentification register with CMD10.
func (h *CardHandle) ReadCID() (sdproto.CID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireBegun(); err != nil {
		return sdproto.CID{}, err
	}
	var buf [16]byte
	err := h.withSelection(func() error {
		return h.readRegister(sdproto.CMD10, buf[:])
	})
	if err != nil {
		return sdproto.CID{}, h.setErr(err)
	}
	h.lastError = nil
	return sdproto.DecodeCID(buf[:]), nil
}

// ReadCSD reads the Card-Specific Data register with CMD9.
func (h *CardHandle) ReadCSD() (sdproto.CSD, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireBegun(); err != nil {
		return sdproto.CSD{}, err
	}
	var buf [16]byte
	err := h.withSelection(func() error {
		return h.readRegister(sdproto.CMD9, buf[:])
	})
	if err != nil {
		return sdproto.CSD{}, h.setErr(err)
	}
	h.lastError = nil
	return sdproto.DecodeCSD(buf[:]), nil
}

// ReadOCR reads the Operating Conditions Register with CMD58. Unlike
// ReadCID/ReadCSD this register rides directly behind the R1 byte with
// no data-token framing.
func (h *CardHandle) ReadOCR() (sdproto.OCR, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireBegun(); err != nil {
		return sdproto.OCR{}, err
	}
	var buf [4]byte
	err := h.withSelection(func() error {
		r1 := h.send(sdproto.CMD58, 0)
		if !r1.Valid() || !r1.Ready() {
			return wrapErr(ErrCodeCmd58Failed, nil)
		}
		return h.transport.ReadBytes(buf[:])
	})
	if err != nil {
		return sdproto.OCR{}, h.setErr(err)
	}
	h.lastError = nil
	return sdproto.DecodeOCR(buf[:]), nil
}

// ReadStatus reads the 32-bit card status register with CMD13, whose SPI
// reply is R1 followed directly by a second status byte (rather than the
// full 32 bits the native SD bus returns); the remaining bits are always
// zero in SPI mode.
func (h *CardHandle) ReadStatus() (CardStatusResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireBegun(); err != nil {
		return CardStatusResult{}, err
	}
	var result CardStatusResult
	err := h.withSelection(func() error {
		r1 := h.send(sdproto.CMD13, 0)
		if r1.NoResponse() {
			return wrapErr(ErrCodeCmd58Failed, nil)
		}
		b2, rerr := h.transport.ReadByte()
		if rerr != nil {
			return rerr
		}
		result = CardStatusResult{sdproto.DecodeCardStatus(uint32(r1)<<8 | uint32(b2))}
		return nil
	})
	if err != nil {
		return CardStatusResult{}, h.setErr(err)
	}
	h.lastError = nil
	return result, nil
}

// CapacityBlocks reads the CSD and returns the card's capacity in
// 512-byte blocks. ok is false if the CSD could not be read.
func (h *CardHandle) CapacityBlocks() (n uint32, ok bool) {
	csd, err := h.ReadCSD()
	if err != nil {
		return 0, false
	}
	return csd.BlockCount(), true
}

// readRegister issues a register-read command (CMD9/CMD10) and reads the
// 16-byte register body behind its data-start token and CRC16 trailer,
// the same framing a single block read uses.
func (h *CardHandle) readRegister(cmd sdproto.Cmd, dst []byte) error {
	r1 := h.send(cmd, 0)
	if !r1.Valid() || !r1.Ready() {
		return errFromReadStart(r1)
	}
	tok, ok := h.waitToken(h.cfg.CmdTimeout)
	if !ok || tok != byte(sdproto.StartBlock) {
		return wrapErr(ErrCodeReadError, nil)
	}
	if err := h.transport.ReadBytes(dst); err != nil {
		return wrapErr(ErrCodeReadError, err)
	}
	var crcBuf [2]byte
	if err := h.transport.ReadBytes(crcBuf[:]); err != nil {
		return wrapErr(ErrCodeReadError, err)
	}
	if h.cfg.UseCRC16 {
		want := binary.BigEndian.Uint16(crcBuf[:])
		got := sdproto.CRC16CCITT(dst)
		if want != got {
			return wrapErr(ErrCodeReadError, nil)
		}
	}
	return nil
}
