package sdspi

// Transport is the byte-serial SPI link the driver runs its protocol
// over. It is a full-duplex, single-card bus abstraction: Select and
// Deselect bracket every command or data phase, and every Read is
// modelled as writing 0xFF and capturing the byte the card drives back.
//
// Implementations are not required to be safe for concurrent use;
// CardHandle serializes all access with its own mutex.
type Transport interface {
	// Select asserts chip-select for this card.
	Select() error
	// Deselect releases chip-select.
	Deselect() error
	// WriteByte clocks a single byte out.
	WriteByte(b byte) error
	// ReadByte clocks 0xFF out and returns the byte read back.
	ReadByte() (byte, error)
	// WriteBytes clocks buf out, in order.
	WriteBytes(buf []byte) error
	// ReadBytes fills buf by clocking out 0xFF for each byte.
	ReadBytes(buf []byte) error
}

// Clock is a monotonic millisecond time source used to bound the
// driver's busy-polling loops.
type Clock interface {
	// NowMillis returns a monotonically increasing millisecond
	// timestamp. Only differences between two calls are meaningful.
	NowMillis() int64
}

// Elapsed reports whether more than d milliseconds have passed since t0,
// as observed by clk.
func Elapsed(clk Clock, t0 int64, d int64) bool {
	return clk.NowMillis()-t0 > d
}

// withSelection brackets fn with Select/Deselect, guaranteeing Deselect
// runs even if fn or Select itself fails, and joining any Deselect error
// into the result. It also emits the fill-byte settling waits the SD SPI
// protocol requires around every selection cycle: one fill byte before
// Select and two after Deselect, matching the source driver's spiWait
// calls around begin(), block I/O, and register reads. Callers that need
// finer control over deselection timing (e.g. to insert extra trailing
// fill bytes before releasing CS) bracket manually instead of using this
// helper.
func (h *CardHandle) withSelection(fn func() error) error {
	preErr := h.spiWait(1)
	selErr := h.transport.Select()
	fnErr := fn()
	deselErr := h.transport.Deselect()
	postErr := h.spiWait(2)
	return errjoin(preErr, selErr, fnErr, deselErr, postErr)
}
