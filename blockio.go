package sdspi

import (
	"encoding/binary"

	"github.com/soypat/sdspi/sdproto"
)

// ReadBlock reads exactly 512 bytes at logical block address lba into
// dst, which must be at least 512 bytes long.
func (h *CardHandle) ReadBlock(lba uint32, dst []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireBegun(); err != nil {
		return err
	}
	if len(dst) < 512 {
		return h.setErr(newErr(ErrCodeParamError))
	}
	err := h.withSelection(func() error {
		return h.readOneBlock(sdproto.CMD17, h.blockAddress(lba), dst[:512])
	})
	if err != nil {
		return h.setErr(err)
	}
	h.lastError = nil
	return nil
}

// ReadBlocks reads count consecutive 512-byte blocks starting at lba into
// dst, which must be at least count*512 bytes long. It uses
// READ_MULTIPLE_BLOCK and terminates with STOP_TRANSMISSION. It returns
// the number of blocks actually delivered before any error, which is
// count on success.
func (h *CardHandle) ReadBlocks(lba uint32, count int, dst []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireBegun(); err != nil {
		return 0, err
	}
	if count <= 0 || len(dst) < count*512 {
		return 0, h.setErr(newErr(ErrCodeParamError))
	}
	var n int
	err := h.withSelection(func() error {
		r1 := h.send(sdproto.CMD18, h.blockAddress(lba))
		if !r1.Valid() || !r1.Ready() {
			return errFromReadStart(r1)
		}
		for i := 0; i < count; i++ {
			if err := h.readBlockBody(dst[i*512 : i*512+512]); err != nil {
				h.stopTransmission()
				return err
			}
			n++
		}
		return h.stopTransmission()
	})
	if err != nil {
		return n, h.setErr(err)
	}
	h.lastError = nil
	return n, nil
}

// readOneBlock issues cmd (CMD17) with addr and reads a single block body.
func (h *CardHandle) readOneBlock(cmd sdproto.Cmd, addr uint32, dst []byte) error {
	r1 := h.send(cmd, addr)
	if !r1.Valid() || !r1.Ready() {
		return errFromReadStart(r1)
	}
	return h.readBlockBody(dst)
}

// readBlockBody waits for the data start token, reads the 512-byte block
// plus its trailing CRC16, and validates the CRC when enabled.
func (h *CardHandle) readBlockBody(dst []byte) error {
	tok, ok := h.waitToken(h.cfg.ReadTimeout)
	if !ok {
		return wrapErr(ErrCodeReadError, nil)
	}
	if tok != byte(sdproto.StartBlock) {
		detail := sdproto.ClassifyReadError(tok)
		return &Error{Code: ErrCodeReadError, ReadDetail: detail}
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
			return &Error{Code: ErrCodeReadError, ReadDetail: sdproto.ReadDataError{CCError: true}}
		}
	}
	return nil
}

// errFromReadStart maps a rejected read-command R1 to a driver error.
func errFromReadStart(r1 sdproto.R1) error {
	if r1.NoResponse() {
		return wrapErr(ErrCodeReadError, nil)
	}
	if err := errFromR1(r1); err != nil {
		return err
	}
	return wrapErr(ErrCodeReadError, nil)
}

// stopTransmission sends CMD12 and waits for the card to release the bus.
func (h *CardHandle) stopTransmission() error {
	h.send(sdproto.CMD12, 0)
	if !h.waitNotBusy(h.cfg.ReadTimeout) {
		return wrapErr(ErrCodeReadError, nil)
	}
	return nil
}

// WriteBlock writes exactly 512 bytes from src to logical block address
// lba using WRITE_BLOCK. When Config.VerifyAfterWrite is set, it follows
// up with CMD13 to confirm the card left the programming state cleanly.
func (h *CardHandle) WriteBlock(lba uint32, src []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireBegun(); err != nil {
		return err
	}
	if len(src) < 512 {
		return h.setErr(newErr(ErrCodeParamError))
	}
	err := h.withSelection(func() error {
		r1 := h.send(sdproto.CMD24, h.blockAddress(lba))
		if !r1.Valid() || !r1.Ready() {
			return errFromWriteStart(r1)
		}
		return h.writeBlockBody(sdproto.StartBlock, src[:512])
	})
	if err != nil {
		return h.setErr(err)
	}
	if h.cfg.VerifyAfterWrite {
		if err := h.verifyAfterWrite(); err != nil {
			return h.setErr(err)
		}
	}
	h.lastError = nil
	return nil
}

// WriteBlocks writes count consecutive 512-byte blocks from src starting
// at lba using WRITE_MULTIPLE_BLOCK, preceded by ACMD23 to pre-erase the
// run (a performance hint the card is free to ignore). It returns the
// number of blocks actually accepted before any error, which is count on
// success. When Config.VerifyAfterWrite is set, it follows up with CMD13
// as WriteBlock does.
func (h *CardHandle) WriteBlocks(lba uint32, count int, src []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.requireBegun(); err != nil {
		return 0, err
	}
	if count <= 0 || len(src) < count*512 {
		return 0, h.setErr(newErr(ErrCodeParamError))
	}
	var n int
	err := h.withSelection(func() error {
		h.sendACMD(sdproto.ACMD23, uint32(count))
		r1 := h.send(sdproto.CMD25, h.blockAddress(lba))
		if !r1.Valid() || !r1.Ready() {
			return errFromWriteStart(r1)
		}
		for i := 0; i < count; i++ {
			if err := h.writeBlockBody(sdproto.StartMultiWrite, src[i*512:i*512+512]); err != nil {
				h.sendStopTran()
				return err
			}
			n++
		}
		return h.sendStopTran()
	})
	if err != nil {
		return n, h.setErr(err)
	}
	if h.cfg.VerifyAfterWrite {
		if err := h.verifyAfterWrite(); err != nil {
			return n, h.setErr(err)
		}
	}
	h.lastError = nil
	return n, nil
}

// writeBlockBody sends token, the 512-byte block, its CRC16, and reads
// back the data-response byte, translating a rejection into an error.
func (h *CardHandle) writeBlockBody(token sdproto.DataToken, src []byte) error {
	if err := h.transport.WriteByte(byte(token)); err != nil {
		return wrapErr(ErrCodeWriteError, err)
	}
	if err := h.transport.WriteBytes(src); err != nil {
		return wrapErr(ErrCodeWriteError, err)
	}
	crc := sdproto.CRC16CCITT(src)
	var crcBuf [2]byte
	binary.BigEndian.PutUint16(crcBuf[:], crc)
	if err := h.transport.WriteBytes(crcBuf[:]); err != nil {
		return wrapErr(ErrCodeWriteError, err)
	}
	status, err := h.transport.ReadByte()
	if err != nil {
		return wrapErr(ErrCodeWriteError, err)
	}
	if !sdproto.Accepted(status) {
		return &Error{Code: ErrCodeWriteError, WriteStatus: status}
	}
	if !h.waitNotBusy(h.cfg.WriteTimeout) {
		return wrapErr(ErrCodeWriteError, nil)
	}
	return nil
}

// sendStopTran sends the multi-write stop token and waits for the card
// to finish programming the last block.
func (h *CardHandle) sendStopTran() error {
	if err := h.transport.WriteByte(byte(sdproto.StopTran)); err != nil {
		return wrapErr(ErrCodeWriteError, err)
	}
	// One throwaway byte before the card starts driving MISO with its
	// busy signal, per the SD SPI protocol.
	h.transport.ReadByte()
	if !h.waitNotBusy(h.cfg.WriteTimeout) {
		return wrapErr(ErrCodeWriteError, nil)
	}
	return nil
}

func errFromWriteStart(r1 sdproto.R1) error {
	if r1.NoResponse() {
		return wrapErr(ErrCodeWriteError, nil)
	}
	if err := errFromR1(r1); err != nil {
		return err
	}
	return wrapErr(ErrCodeWriteError, nil)
}

// verifyAfterWrite sends CMD13 and fails if the card reports any status
// error bit set.
func (h *CardHandle) verifyAfterWrite() error {
	var r1 sdproto.R1
	var b2 byte
	err := h.withSelection(func() error {
		r1 = h.send(sdproto.CMD13, 0)
		var rerr error
		b2, rerr = h.transport.ReadByte()
		return rerr
	})
	if err != nil {
		return wrapErr(ErrCodeWriteError, err)
	}
	// The SPI-mode reply is R1 followed by one byte whose every bit is an
	// error or lock flag, so any set bit in either byte fails.
	if !r1.Ready() || b2 != 0 {
		return wrapErr(ErrCodeWriteError, nil)
	}
	return nil
}

// CardStatusResult wraps sdproto.CardStatus so callers outside this
// package can inspect the decoded fields of CMD13's response.
type CardStatusResult struct {
	sdproto.CardStatus
}
