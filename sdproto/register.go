package sdproto

// OCR is the 4-byte Operating Conditions Register.
type OCR [4]byte

func DecodeOCR(b []byte) OCR {
	_ = b[3]
	var o OCR
	copy(o[:], b[:4])
	return o
}

func (o OCR) PowerUpStatus() bool  { return o[0]&(1<<7) != 0 }
func (o OCR) CCS() bool            { return o[0]&(1<<6) != 0 }
func (o OCR) UHS2() bool           { return o[0]&(1<<5) != 0 }
func (o OCR) CanSwitch1V8() bool   { return o[3]&1 != 0 }

// VoltageRange returns the raw VDD voltage window bitmap, bits 23..15 of
// the OCR (all of byte 1 plus the top bit of byte 2), per the SD
// Physical Layer Specification. This deliberately does not mirror the
// byte-shift arithmetic in some C drivers, which decode the wrong byte
// pair for this field; see spec's Design Notes on OCR vRange.
func (o OCR) VoltageRange() uint16 {
	return uint16(o[1])<<1 | uint16(o[2]>>7)
}

// CID is the 16-byte Card IDentification register.
type CID [16]byte

func DecodeCID(b []byte) CID {
	_ = b[15]
	var c CID
	copy(c[:], b[:16])
	return c
}

func (c CID) ManufacturerID() byte { return c[0] }
func (c CID) OEMID() [2]byte       { return [2]byte{c[1], c[2]} }
func (c CID) ProductName() [5]byte {
	return [5]byte{c[3], c[4], c[5], c[6], c[7]}
}
func (c CID) ProductRevisionMajor() uint8 { return c[8] >> 4 }
func (c CID) ProductRevisionMinor() uint8 { return c[8] & 0x0F }
func (c CID) SerialNumber() uint32 {
	return uint32(c[9])<<24 | uint32(c[10])<<16 | uint32(c[11])<<8 | uint32(c[12])
}
func (c CID) ManufactureYear() int  { return 2000 + int(c[14]) }
func (c CID) ManufactureMonth() int { return int(c[13]) & 0x0F }
func (c CID) CRC7() byte            { return c[15] >> 1 }

// CSD is the 16-byte Card-Specific Data register, either v1
// (standard-capacity) or v2 (high-capacity) layout, selected by the top 2
// bits of byte 0.
type CSD [16]byte

func DecodeCSD(b []byte) CSD {
	_ = b[15]
	var c CSD
	copy(c[:], b[:16])
	return c
}

// V2 reports whether the register follows the CSD version 2.0 (SDHC)
// layout rather than version 1.0.
func (c CSD) V2() bool { return c[0]&0xC0 != 0 }

func (c CSD) TAAC() byte         { return c[1] }
func (c CSD) NSAC() byte         { return c[2] }
func (c CSD) TransferSpeed() byte { return c[3] }
func (c CSD) CCC() uint16        { return uint16(c[4])<<4 | uint16(c[5]&0xF0)>>4 }

// ReadBlockLength returns 1<<READ_BL_LEN, canonically 512.
func (c CSD) ReadBlockLength() uint32 { return 1 << (c[5] & 0x0F) }

func (c CSD) EraseBlockEnabled() bool { return c[10]&0x40 != 0 }

// cSize returns the raw device-size field, whose width and position
// differ between CSD versions.
func (c CSD) cSize() uint32 {
	if c.V2() {
		return uint32(c[7]&0x3F)<<16 | uint32(c[8])<<8 | uint32(c[9])
	}
	return uint32(c[6]&0x03)<<10 | uint32(c[7])<<2 | uint32(c[8])>>6
}

// cSizeMult returns 2^(C_SIZE_MULT+2), the v1-only size multiplier.
func (c CSD) cSizeMult() uint32 {
	exp := uint32(c[9]&0x03)<<1 | uint32(c[10]&0x80)>>7
	return 1 << (exp + 2)
}

// BlockCount returns the number of 512-byte-addressable blocks on the
// card: (C_SIZE+1) * 2^(C_SIZE_MULT+2) for v1, (C_SIZE+1)*1024 for v2.
func (c CSD) BlockCount() uint32 {
	if c.V2() {
		return (c.cSize() + 1) * 1024
	}
	return (c.cSize() + 1) * c.cSizeMult()
}

// CapacityBytes returns BlockCount() * ReadBlockLength().
func (c CSD) CapacityBytes() uint64 {
	return uint64(c.BlockCount()) * uint64(c.ReadBlockLength())
}
