// Package piospi implements sdspi.Transport on top of the RP2040's PIO
// blocks via github.com/tinygo-org/pio, for boards where the hardware SPI
// peripherals are already committed to other devices and the SD card is
// driven bit-banged on spare pins instead.
package piospi

import (
	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"
)

// OutputPin is the minimal chip-select control this package needs;
// machine.Pin satisfies it directly.
type OutputPin interface {
	Set(value bool)
}

// Transport drives an SD card in SPI mode using a PIO state machine
// running the standard 4-wire SPI program, with chip-select toggled on a
// plain GPIO pin. It implements sdspi.Transport.
type Transport struct {
	cs  OutputPin
	spi *piolib.SPI
}

// New claims a state machine on pio and configures it for baud, driving
// cs as chip-select. baud is a starting frequency; callers typically
// start slow (400kHz, the SD initialization rate) and reconfigure faster
// after Begin succeeds.
func New(p *pio.PIO, cs OutputPin, sck, mosi, miso pio.Pin, baud uint32) (*Transport, error) {
	sm, err := p.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	spi, err := piolib.NewSPI(sm, sck, mosi, miso, baud)
	if err != nil {
		return nil, err
	}
	cs.Set(true)
	return &Transport{cs: cs, spi: spi}, nil
}

// SetBaud reconfigures the state machine's clock divider, used to switch
// from the slow initialization rate to full speed after Begin.
func (t *Transport) SetBaud(baud uint32) error {
	return t.spi.SetBaudRate(baud)
}

func (t *Transport) Select() error   { t.cs.Set(false); return nil }
func (t *Transport) Deselect() error { t.cs.Set(true); return nil }

func (t *Transport) WriteByte(b byte) error {
	var rx [1]byte
	return t.spi.Tx([]byte{b}, rx[:])
}

func (t *Transport) ReadByte() (byte, error) {
	tx := [1]byte{0xFF}
	var rx [1]byte
	if err := t.spi.Tx(tx[:], rx[:]); err != nil {
		return 0, err
	}
	return rx[0], nil
}

func (t *Transport) WriteBytes(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return t.spi.Tx(buf, nil)
}

func (t *Transport) ReadBytes(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	tx := make([]byte, len(buf))
	for i := range tx {
		tx[i] = 0xFF
	}
	return t.spi.Tx(tx, buf)
}
