package sdproto

// R1 is the SD SPI-mode R1 response byte. The top bit is clear on any
// value the card actually placed on the bus; 0xFF is the "no response"
// sentinel and 0x80 is the PendingResponse sentinel for an R1 that no
// reply has filled in yet.
type R1 byte

const (
	// NoResponse is returned by the command engine when no byte with a
	// clear top bit was seen before the timeout elapsed.
	NoResponse R1 = 0xFF
	// PendingResponse marks an R1 not yet filled in by any reply. It is
	// not the zero value: a zero R1 is 0x00, which reads as Ready.
	PendingResponse R1 = 0x80
)

func (r R1) ParamError() bool    { return r&(1<<6) != 0 }
func (r R1) AddressError() bool  { return r&(1<<5) != 0 }
func (r R1) EraseSeqError() bool { return r&(1<<4) != 0 }
func (r R1) CRCError() bool      { return r&(1<<3) != 0 }
func (r R1) IllegalCommand() bool { return r&(1<<2) != 0 }
func (r R1) EraseReset() bool    { return r&(1<<1) != 0 }
func (r R1) Idle() bool          { return r&1 != 0 }

// Busy reports whether r is still the pending-response sentinel, i.e. no
// byte has been read from the card yet.
func (r R1) Busy() bool { return r == PendingResponse }

// Ready reports whether the command completed with no error bits set at
// all, R1 == 0x00.
func (r R1) Ready() bool { return r == 0 }

// NoResponse reports whether the command timed out with no reply.
func (r R1) NoResponse() bool { return r == NoResponse }

// Valid reports whether r looks like a genuine card reply: top bit clear.
func (r R1) Valid() bool { return r&0x80 == 0 }

func (r R1) String() string {
	switch {
	case r.Busy():
		return "busy"
	case r.NoResponse():
		return "no-response"
	case r.Ready():
		return "ready"
	case r.Idle():
		return "idle"
	default:
		s := "r1["
		if r.ParamError() {
			s += "param,"
		}
		if r.AddressError() {
			s += "addr,"
		}
		if r.EraseSeqError() {
			s += "erase-seq,"
		}
		if r.CRCError() {
			s += "crc,"
		}
		if r.IllegalCommand() {
			s += "illegal-cmd,"
		}
		if r.EraseReset() {
			s += "erase-reset,"
		}
		return s + "]"
	}
}

// CardState is the 4-bit CURRENT_STATE field embedded in the card status
// register read back by CMD13.
type CardState uint8

const (
	StateIdle CardState = iota
	StateReady
	StateIdent
	StateStby
	StateTran
	StateData
	StateRcv
	StatePrg
	StateDis
)

// CardStatus decodes the 32-bit status register returned by CMD13 (as
// R1 followed by a second status byte on SPI, or the full 32-bit value on
// the native SD bus). Only the fields relevant to the SPI-mode driver are
// exposed; see the SD Physical Layer Specification for the rest.
type CardStatus uint32

func DecodeCardStatus(v uint32) CardStatus { return CardStatus(v) }

func (s CardStatus) OutOfRange() bool     { return s&(1<<31) != 0 }
func (s CardStatus) AddressError() bool   { return s&(1<<30) != 0 }
func (s CardStatus) BlockLenError() bool  { return s&(1<<29) != 0 }
func (s CardStatus) EraseSeqError() bool  { return s&(1<<28) != 0 }
func (s CardStatus) WPViolation() bool    { return s&(1<<26) != 0 }
func (s CardStatus) CardIsLocked() bool   { return s&(1<<25) != 0 }
func (s CardStatus) ComCRCError() bool    { return s&(1<<23) != 0 }
func (s CardStatus) IllegalCommand() bool { return s&(1<<22) != 0 }
func (s CardStatus) CardECCFailed() bool  { return s&(1<<21) != 0 }
func (s CardStatus) CCError() bool        { return s&(1<<20) != 0 }
func (s CardStatus) GeneralError() bool   { return s&(1<<19) != 0 }
func (s CardStatus) State() CardState     { return CardState((s >> 9) & 0x0F) }
func (s CardStatus) ReadyForData() bool   { return s&(1<<8) != 0 }
func (s CardStatus) AppCmd() bool         { return s&(1<<5) != 0 }
