package sdspi

import (
	"log/slog"
	"sync"

	"github.com/soypat/sdspi/sdproto"
)

// CardType identifies the card generation and addressing mode discovered
// during Begin.
type CardType uint8

const (
	CardUnknown CardType = iota
	CardSDv1
	CardSDv2
	CardSDHC
)

func (t CardType) String() string {
	switch t {
	case CardSDv1:
		return "SDv1"
	case CardSDv2:
		return "SDv2"
	case CardSDHC:
		return "SDHC"
	default:
		return "unknown"
	}
}

// CardHandle is a driver instance bound to one Transport and Clock. It
// holds the negotiated CardType and the last error encountered, and owns
// the transport exclusively for the duration of every operation: methods
// take an internal mutex so that concurrent misuse blocks rather than
// interleaving command frames, matching the fully sequential SD SPI
// protocol.
type CardHandle struct {
	mu        sync.Mutex
	transport Transport
	clock     Clock
	cfg       Config

	cardType  CardType
	lastError error
	began     bool
}

// New constructs a CardHandle bound to transport and clock. The card is
// not touched until Begin is called.
func New(transport Transport, clock Clock, opts ...Option) *CardHandle {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &CardHandle{
		transport: transport,
		clock:     clock,
		cfg:       cfg,
		cardType:  CardUnknown,
		lastError: ErrInitNotCalled,
	}
}

// CardType returns the card generation discovered by Begin, or
// CardUnknown before a successful Begin.
func (h *CardHandle) CardType() CardType {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cardType
}

// LastError returns the error from the most recently failed operation, or
// nil if the last operation succeeded (or none has run since Begin).
func (h *CardHandle) LastError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastError
}

func (h *CardHandle) setErr(err error) error {
	h.lastError = err
	return err
}

func (h *CardHandle) debug(msg string, args ...any) {
	if h.cfg.Logger != nil {
		h.cfg.Logger.Debug(msg, args...)
	}
}

func (h *CardHandle) info(msg string, args ...any) {
	if h.cfg.Logger != nil {
		h.cfg.Logger.Info(msg, args...)
	}
}

// requireBegun returns ErrInitNotCalled if Begin has not yet succeeded.
func (h *CardHandle) requireBegun() error {
	if !h.began {
		return h.setErr(ErrInitNotCalled)
	}
	return nil
}

// blockAddress translates a caller-facing LBA into the wire address for
// the negotiated card type: verbatim for SDHC, byte-addressed (×512) for
// everything else.
func (h *CardHandle) blockAddress(lba uint32) uint32 {
	if h.cardType == CardSDHC {
		return lba
	}
	return lba << 9
}

// spiWait clocks n fill bytes (0xFF) to give the card clocks to settle
// between selection cycles, as required by the SD SPI protocol.
func (h *CardHandle) spiWait(n int) error {
	for i := 0; i < n; i++ {
		if err := h.transport.WriteByte(0xFF); err != nil {
			return err
		}
	}
	return nil
}

func attrCmd(cmd sdproto.Cmd) slog.Attr { return slog.String("cmd", cmd.String()) }
