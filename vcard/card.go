// Package vcard implements a virtual SD card image over an afero.Fs
// backing store, so higher-level tests can exercise sdspi.CardHandle end
// to end without real hardware. It implements sdspi.Transport directly:
// callers hand it to sdspi.New like any other transport.
package vcard

import (
	"encoding/binary"

	"github.com/spf13/afero"

	"github.com/soypat/sdspi/sdproto"
)

const blockSize = 512

type mode int

const (
	modeCommand mode = iota
	modeWriteData
)

// Card is a virtual SD card backed by an afero.Fs file. Blocks not yet
// written read back as all-zero.
type Card struct {
	fs   afero.Fs
	path string

	blockCount uint32
	sdhc       bool

	// Negotiation state, mirroring the subset of the real card's state
	// machine this simulator needs to drive sdspi.CardHandle.Begin.
	idle       bool
	acmd41Hits int
	sawCMD55   bool
	initDone   bool

	// I/O state.
	mode        mode
	cmdBuf      []byte
	respQueue   []byte
	multiRead   bool
	multiWrite  bool
	readCursor  uint32
	writeCursor uint32
	writeBuf    []byte
}

// New creates a virtual card of size blockCount*512 bytes backed by a
// fresh file called "card.img" in fs. sdhc selects whether the simulated
// card reports itself as high-capacity (block-addressed) or
// standard-capacity (byte-addressed, requiring CMD16).
func New(fs afero.Fs, blockCount uint32, sdhc bool) (*Card, error) {
	return NewFile(fs, "card.img", blockCount, sdhc)
}

// NewFile is New with an explicit backing file name, for callers using
// afero.NewOsFs() who want the image to land at a chosen path.
func NewFile(fs afero.Fs, path string, blockCount uint32, sdhc bool) (*Card, error) {
	f, err := fs.Create(path)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(blockCount) * blockSize); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &Card{
		fs:         fs,
		path:       path,
		blockCount: blockCount,
		sdhc:       sdhc,
		idle:       true,
	}, nil
}

// NewMem is a convenience constructor over afero.NewMemMapFs, the common
// case for unit tests that don't need the image to survive the process.
func NewMem(blockCount uint32, sdhc bool) (*Card, error) {
	return New(afero.NewMemMapFs(), blockCount, sdhc)
}

func (c *Card) readBlock(lba uint32, dst []byte) error {
	f, err := c.fs.Open(c.path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.ReadAt(dst, int64(lba)*blockSize)
	return err
}

func (c *Card) writeBlock(lba uint32, src []byte) error {
	f, err := c.fs.OpenFile(c.path, 0, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteAt(src, int64(lba)*blockSize)
	return err
}

// Select and Deselect are no-ops: the simulator has no notion of a
// shared bus with other devices.
func (c *Card) Select() error   { return nil }
func (c *Card) Deselect() error { return nil }

func (c *Card) WriteByte(b byte) error {
	switch c.mode {
	case modeWriteData:
		c.writeBuf = append(c.writeBuf, b)
		if len(c.writeBuf) == 1 {
			// The leading token byte (0xFE/0xFC) or, for a multi-block
			// write, 0xFD to stop.
			if c.writeBuf[0] == byte(sdproto.StopTran) {
				c.multiWrite = false
				c.mode = modeCommand
				c.writeBuf = nil
			}
			return nil
		}
		if len(c.writeBuf) == 1+blockSize+2 {
			block := c.writeBuf[1 : 1+blockSize]
			c.writeBlock(c.writeCursor, block)
			c.writeCursor++
			c.respQueue = append(c.respQueue, 0x05)
			c.writeBuf = nil
			if !c.multiWrite {
				c.mode = modeCommand
			}
		}
		return nil
	default:
		if len(c.cmdBuf) == 0 && b&0xC0 != 0x40 {
			// Idle/fill byte (0xFF, or any other settling byte a real
			// card sees between selection cycles) outside a frame: a
			// command frame always starts with the transmission bit set
			// and the start bit clear, so anything else here isn't the
			// first byte of one.
			return nil
		}
		c.cmdBuf = append(c.cmdBuf, b)
		if len(c.cmdBuf) == 6 {
			cmd := c.cmdBuf
			c.cmdBuf = nil
			c.execute(cmd)
		}
		return nil
	}
}

func (c *Card) ReadByte() (byte, error) {
	if len(c.respQueue) == 0 && c.multiRead {
		c.appendReadBlock()
	}
	if len(c.respQueue) == 0 {
		return 0xFF, nil
	}
	b := c.respQueue[0]
	c.respQueue = c.respQueue[1:]
	return b, nil
}

func (c *Card) WriteBytes(buf []byte) error {
	for _, b := range buf {
		if err := c.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

func (c *Card) ReadBytes(buf []byte) error {
	for i := range buf {
		b, err := c.ReadByte()
		if err != nil {
			return err
		}
		buf[i] = b
	}
	return nil
}

func (c *Card) execute(frame []byte) {
	idx := frame[0] &^ 0x40
	arg := binary.BigEndian.Uint32(frame[1:5])
	cmd := sdproto.Cmd(idx)
	isAcmd := c.sawCMD55
	c.sawCMD55 = false

	r1 := byte(0)
	if c.idle {
		r1 |= 1
	}

	switch {
	case cmd == sdproto.CMD0:
		c.idle = true
		c.initDone = false
		c.acmd41Hits = 0
		c.multiRead, c.multiWrite = false, false
		c.mode = modeCommand
		c.respQueue = append(c.respQueue, 1)

	case cmd == sdproto.CMD8:
		c.respQueue = append(c.respQueue, r1, 0x00, 0x00, 0x01, 0xAA)

	case cmd == sdproto.CMD55:
		c.sawCMD55 = true
		c.respQueue = append(c.respQueue, r1)

	case isAcmd && cmd == sdproto.ACMD41:
		c.acmd41Hits++
		if c.acmd41Hits >= 2 {
			c.idle = false
			c.initDone = true
		}
		if c.idle {
			c.respQueue = append(c.respQueue, 1)
		} else {
			c.respQueue = append(c.respQueue, 0)
		}

	case cmd == sdproto.CMD58:
		ocr := byte(0x80)
		if c.sdhc {
			ocr |= 0x40
		}
		c.respQueue = append(c.respQueue, r1, ocr, 0xFF, 0x80, 0x00)

	case cmd == sdproto.CMD16:
		c.respQueue = append(c.respQueue, r1)

	case cmd == sdproto.CMD17:
		c.respQueue = append(c.respQueue, r1)
		c.readCursor = c.lba(arg)
		c.appendReadBlock()

	case cmd == sdproto.CMD18:
		c.respQueue = append(c.respQueue, r1)
		c.readCursor = c.lba(arg)
		c.multiRead = true

	case cmd == sdproto.CMD12:
		c.multiRead = false
		c.multiWrite = false
		c.mode = modeCommand
		c.respQueue = append(c.respQueue, 0)

	case cmd == sdproto.CMD24:
		c.respQueue = append(c.respQueue, r1)
		c.writeCursor = c.lba(arg)
		c.mode = modeWriteData
		c.multiWrite = false

	case isAcmd && cmd == sdproto.ACMD23:
		c.respQueue = append(c.respQueue, r1)

	case cmd == sdproto.CMD25:
		c.respQueue = append(c.respQueue, r1)
		c.writeCursor = c.lba(arg)
		c.mode = modeWriteData
		c.multiWrite = true

	case cmd == sdproto.CMD13:
		c.respQueue = append(c.respQueue, r1, 0)

	case cmd == sdproto.CMD9:
		c.respQueue = append(c.respQueue, r1)
		c.appendRegister(c.csd())

	case cmd == sdproto.CMD10:
		c.respQueue = append(c.respQueue, r1)
		c.appendRegister(c.cid())

	default:
		c.respQueue = append(c.respQueue, r1|0x04) // illegal command
	}
}

func (c *Card) lba(arg uint32) uint32 {
	if c.sdhc {
		return arg
	}
	return arg >> 9
}

func (c *Card) appendReadBlock() {
	if c.readCursor >= c.blockCount {
		c.respQueue = append(c.respQueue, 0x00) // out-of-range token
		c.multiRead = false
		return
	}
	var block [blockSize]byte
	c.readBlock(c.readCursor, block[:])
	c.readCursor++
	c.respQueue = append(c.respQueue, byte(sdproto.StartBlock))
	c.respQueue = append(c.respQueue, block[:]...)
	crc := sdproto.CRC16CCITT(block[:])
	c.respQueue = append(c.respQueue, byte(crc>>8), byte(crc))
}

func (c *Card) appendRegister(reg [16]byte) {
	c.respQueue = append(c.respQueue, byte(sdproto.StartBlock))
	c.respQueue = append(c.respQueue, reg[:]...)
	crc := sdproto.CRC16CCITT(reg[:])
	c.respQueue = append(c.respQueue, byte(crc>>8), byte(crc))
}

// csd synthesizes a CSD v2 (or v1) register consistent with blockCount.
func (c *Card) csd() sdproto.CSD {
	var reg sdproto.CSD
	if c.sdhc {
		reg[0] = 0x40 // CSD version 2.0
		cSize := c.blockCount/1024 - 1
		reg[7] = byte(cSize>>16) & 0x3F
		reg[8] = byte(cSize >> 8)
		reg[9] = byte(cSize)
	} else {
		reg[0] = 0x00
		mult := uint32(9) // 2^(7+2) = 512x multiplier
		cSize := c.blockCount/(1<<mult) - 1
		reg[6] = byte(cSize>>10) & 0x03
		reg[7] = byte(cSize >> 2)
		reg[8] = byte(cSize<<6) & 0xC0
		reg[9] = 0x03 // C_SIZE_MULT high bits
		reg[10] = 0x80
	}
	reg[5] = 9 // READ_BL_LEN = 9 -> 512 bytes
	return reg
}

// cid synthesizes a plausible CID register; the values are fixed and
// only exist to give ReadCID something structured to decode.
func (c *Card) cid() [16]byte {
	var reg [16]byte
	reg[0] = 0x03 // manufacturer ID
	reg[13] = 0x06
	reg[14] = 24 // 2024
	reg[15] = 0x01
	return reg
}
