// Package hostspi implements sdspi.Transport on top of a board's real SPI
// peripheral through the tinygo.org/x/drivers.SPI interface, for the
// common case of an SD card wired to a dedicated hardware SPI bus.
package hostspi

import "tinygo.org/x/drivers"

// OutputPin is the minimal chip-select control this package needs.
type OutputPin interface {
	Set(value bool)
}

// Transport drives an SD card in SPI mode over a drivers.SPI peripheral,
// toggling cs for chip-select. It implements sdspi.Transport.
type Transport struct {
	bus drivers.SPI
	cs  OutputPin
}

// New wraps bus/cs as an sdspi.Transport. cs should already be configured
// as an output driven high (deselected).
func New(bus drivers.SPI, cs OutputPin) *Transport {
	return &Transport{bus: bus, cs: cs}
}

func (t *Transport) Select() error   { t.cs.Set(false); return nil }
func (t *Transport) Deselect() error { t.cs.Set(true); return nil }

func (t *Transport) WriteByte(b byte) error {
	_, err := t.bus.Transfer(b)
	return err
}

func (t *Transport) ReadByte() (byte, error) {
	return t.bus.Transfer(0xFF)
}

func (t *Transport) WriteBytes(buf []byte) error {
	return t.bus.Tx(buf, nil)
}

func (t *Transport) ReadBytes(buf []byte) error {
	tx := make([]byte, len(buf))
	for i := range tx {
		tx[i] = 0xFF
	}
	return t.bus.Tx(tx, buf)
}
