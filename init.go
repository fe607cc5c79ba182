package sdspi

import (
	"log/slog"
	"time"

	"github.com/soypat/sdspi/sdproto"
)

// Begin runs the SD SPI power-on and initialization sequence: at least 74
// clocks with CS deasserted, CMD0 (with the stuck-multi-block-write
// recovery on failure), CMD8 version probe, ACMD41 operating-condition
// negotiation, CMD58 OCR read for SDHC detection, and CMD16 SET_BLOCKLEN
// on anything that isn't already block-addressed.
//
// Begin is safe to call again after a failure; it always restarts from
// the power-on clocking step.
func (h *CardHandle) Begin() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.began = false
	h.cardType = CardUnknown

	if err := h.transport.Deselect(); err != nil {
		return h.setErr(wrapErr(ErrCodeNoCard, err))
	}
	if err := h.spiWait(10); err != nil {
		return h.setErr(wrapErr(ErrCodeNoCard, err))
	}

	if err := h.goIdle(); err != nil {
		return h.setErr(err)
	}

	v2, err := h.checkVoltageRange()
	if err != nil {
		return h.setErr(err)
	}

	if err := h.negotiateOpCond(v2); err != nil {
		return h.setErr(err)
	}

	ct, err := h.detectCapacityMode(v2)
	if err != nil {
		return h.setErr(err)
	}
	h.cardType = ct

	if h.cardType != CardSDHC {
		if err := h.setBlockLength(512); err != nil {
			return h.setErr(err)
		}
	}

	h.began = true
	h.lastError = nil
	h.info("card initialized", slog.String("type", h.cardType.String()))
	return nil
}

// goIdle sends CMD0 until the card replies idle, retrying up to
// Cmd0Retry times. After every failed attempt except the last it also
// runs the stuck-multi-block-write recovery before retrying, matching the
// workaround some SD cards need after a host crash mid-write left the
// card waiting for a STOP_TRAN token.
func (h *CardHandle) goIdle() error {
	var lastR1 sdproto.R1
	replied := false
	for attempt := 0; attempt < h.cfg.Cmd0Retry; attempt++ {
		if attempt > 0 {
			h.recoverStuckWrite()
		}
		err := h.withSelection(func() error {
			lastR1 = h.send(sdproto.CMD0, 0)
			return nil
		})
		if err != nil {
			return wrapErr(ErrCodeCmd0Failed, err)
		}
		if !lastR1.NoResponse() {
			replied = true
		}
		if lastR1.Idle() {
			return nil
		}
		h.debug("CMD0 not idle, retrying", slog.Int("attempt", attempt), slog.String("r1", lastR1.String()))
	}
	if !replied {
		return wrapErr(ErrCodeNoCard, nil)
	}
	return wrapErr(ErrCodeCmd0Failed, nil)
}

// recoverStuckWrite writes the STOP_TRAN data token and then polls up to
// 520ms for the card to release the bus, in case a prior multi-block
// write was interrupted before its own STOP_TRAN. A card left mid-write
// is in the data-reception state, not the command-ready state, so a
// CMD12 frame here would be consumed as six bytes of write data rather
// than acted on; only the bare token breaks it out.
func (h *CardHandle) recoverStuckWrite() {
	h.withSelection(func() error {
		h.transport.WriteByte(byte(sdproto.StopTran))
		h.waitNotBusy(520 * time.Millisecond)
		return nil
	})
}

// checkVoltageRange sends CMD8 to probe for SD version 2.0+ support. It
// returns v2 true only when the card echoes the check pattern; an
// illegal-command reply (the expected response from a version 1.x card)
// is not an error.
func (h *CardHandle) checkVoltageRange() (v2 bool, err error) {
	var r1 sdproto.R1
	var tail [4]byte
	selErr := h.withSelection(func() error {
		r1 = h.send(sdproto.CMD8, sdproto.CardIfCondArg)
		if r1.Valid() && !r1.IllegalCommand() {
			return h.transport.ReadBytes(tail[:])
		}
		return nil
	})
	if selErr != nil {
		return false, wrapErr(ErrCodeCmd8Failed, selErr)
	}
	if r1.NoResponse() {
		return false, wrapErr(ErrCodeCmd8Failed, nil)
	}
	if r1.IllegalCommand() {
		return false, nil
	}
	if tail[3] != sdproto.CardIfCondCheckPattern {
		return false, wrapErr(ErrCodeCmd8Failed, nil)
	}
	return true, nil
}

// negotiateOpCond polls ACMD41 until the card reports it has left the
// idle state, bounded by InitTimeout. hcs asserts host support for high
// capacity when the card responded to CMD8.
func (h *CardHandle) negotiateOpCond(hcs bool) error {
	var arg uint32
	if hcs {
		arg = sdproto.HCSArg
	}
	t0 := h.clock.NowMillis()
	for {
		var r1 sdproto.R1
		err := h.withSelection(func() error {
			r1 = h.sendACMD(sdproto.ACMD41, arg)
			return nil
		})
		if err != nil {
			return wrapErr(ErrCodeAcmd41Failed, err)
		}
		if r1.NoResponse() {
			return wrapErr(ErrCodeAcmd41Failed, nil)
		}
		if r1.Ready() {
			return nil
		}
		if Elapsed(h.clock, t0, h.cfg.InitTimeout.Milliseconds()) {
			return wrapErr(ErrCodeAcmd41Failed, nil)
		}
	}
}

// detectCapacityMode reads the OCR via CMD58 to distinguish SDHC/SDXC
// (block-addressed) cards from SDv2 standard-capacity (byte addressed)
// ones. v2 is the CMD8 probe result from checkVoltageRange: a v1 card
// never gets a CMD58 capacity check and stays SDv1.
func (h *CardHandle) detectCapacityMode(v2 bool) (CardType, error) {
	if !v2 {
		return CardSDv1, nil
	}
	var r1 sdproto.R1
	var ocrBytes [4]byte
	err := h.withSelection(func() error {
		r1 = h.send(sdproto.CMD58, 0)
		if !r1.Valid() {
			return nil
		}
		return h.transport.ReadBytes(ocrBytes[:])
	})
	if err != nil {
		return CardUnknown, wrapErr(ErrCodeCmd58Failed, err)
	}
	if r1.NoResponse() || !r1.Ready() {
		return CardUnknown, wrapErr(ErrCodeCmd58Failed, nil)
	}
	ocr := sdproto.DecodeOCR(ocrBytes[:])
	if ocr.CCS() && ocr.PowerUpStatus() {
		return CardSDHC, nil
	}
	return CardSDv2, nil
}

// setBlockLength sends CMD16 to fix the block length used by subsequent
// single-block read/write commands. SDHC cards ignore this and always
// use 512-byte blocks.
func (h *CardHandle) setBlockLength(n uint32) error {
	var r1 sdproto.R1
	err := h.withSelection(func() error {
		r1 = h.send(sdproto.CMD16, n)
		return nil
	})
	if err != nil {
		return wrapErr(ErrCodeCmd16Failed, err)
	}
	if !r1.Ready() {
		return wrapErr(ErrCodeCmd16Failed, nil)
	}
	return nil
}
