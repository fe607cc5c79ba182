package sdspi

import (
	"log/slog"
	"time"

	"github.com/soypat/sdspi/sdproto"
)

// send frames and transmits cmd/arg, then polls for the R1 response.
// Callers are responsible for Select/Deselect bracketing.
//
// If cmd is not CMD0, send first waits (bounded by CmdTimeout) for the
// bus to report not-busy; a timeout there is a non-fatal observation and
// the command is attempted regardless.
func (h *CardHandle) send(cmd sdproto.Cmd, arg uint32) sdproto.R1 {
	if cmd != sdproto.CMD0 {
		if !h.waitNotBusy(h.cfg.CmdTimeout) {
			h.debug("command issued after busy-wait timeout", attrCmd(cmd))
		}
	}

	frame := sdproto.Frame(cmd, arg, h.cfg.UseCRC7)
	if err := h.transport.WriteBytes(frame[:]); err != nil {
		h.debug("frame write failed", attrCmd(cmd), slog.Any("err", err))
		return sdproto.NoResponse
	}

	r1, ok := h.waitResponse(h.cfg.CmdTimeout)
	if !ok {
		h.debug("no response before timeout", attrCmd(cmd))
		return sdproto.NoResponse
	}
	return r1
}

// sendACMD sends CMD55 (an application-command escape) then cmd, per the
// SD spec's requirement that ACMDs be prefixed by CMD55 on the same
// selection cycle. CMD55's own R1 is discarded; only cmd's R1 is
// returned.
func (h *CardHandle) sendACMD(cmd sdproto.Cmd, arg uint32) sdproto.R1 {
	h.send(sdproto.CMD55, 0)
	return h.send(cmd, arg)
}

// waitNotBusy polls for the card to stop holding the bus low (i.e. for a
// 0xFF byte), bounded by timeout. It returns false on timeout without
// treating that as fatal.
func (h *CardHandle) waitNotBusy(timeout time.Duration) bool {
	t0 := h.clock.NowMillis()
	for {
		b, err := h.transport.ReadByte()
		if err == nil && b == 0xFF {
			return true
		}
		if Elapsed(h.clock, t0, timeout.Milliseconds()) {
			return false
		}
	}
}

// waitResponse polls for the first byte with a clear top bit, which is
// the R1 response, bounded by timeout.
func (h *CardHandle) waitResponse(timeout time.Duration) (sdproto.R1, bool) {
	t0 := h.clock.NowMillis()
	for {
		b, err := h.transport.ReadByte()
		if err == nil && b&0x80 == 0 {
			return sdproto.R1(b), true
		}
		if Elapsed(h.clock, t0, timeout.Milliseconds()) {
			return sdproto.NoResponse, false
		}
	}
}

// waitToken polls for the first byte other than 0xFF, which is either a
// data start token or a data-error token, bounded by timeout. Returns
// 0xFF (with ok=false) on timeout.
func (h *CardHandle) waitToken(timeout time.Duration) (byte, bool) {
	t0 := h.clock.NowMillis()
	for {
		b, err := h.transport.ReadByte()
		if err == nil && b != 0xFF {
			return b, true
		}
		if Elapsed(h.clock, t0, timeout.Milliseconds()) {
			return 0xFF, false
		}
	}
}
