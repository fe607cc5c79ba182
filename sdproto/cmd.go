package sdproto

// Cmd is a 6-bit SD command index. Application-specific commands (those
// that must be preceded by CMD55 on the same selection cycle) are named
// with an ACMD prefix but share the same underlying index space; whether
// a given Cmd is sent as an ACMD is a property of the call site, not of
// the value itself.
type Cmd uint8

const (
	CMD0   Cmd = 0  // GO_IDLE_STATE
	CMD8   Cmd = 8  // SEND_IF_COND
	CMD9   Cmd = 9  // SEND_CSD
	CMD10  Cmd = 10 // SEND_CID
	CMD12  Cmd = 12 // STOP_TRANSMISSION
	CMD13  Cmd = 13 // SEND_STATUS
	CMD16  Cmd = 16 // SET_BLOCKLEN
	CMD17  Cmd = 17 // READ_SINGLE_BLOCK
	CMD18  Cmd = 18 // READ_MULTIPLE_BLOCK
	CMD24  Cmd = 24 // WRITE_BLOCK
	CMD25  Cmd = 25 // WRITE_MULTIPLE_BLOCK
	CMD55  Cmd = 55 // APP_CMD
	CMD58  Cmd = 58 // READ_OCR
	ACMD22 Cmd = 22 // SEND_NUM_WR_BLOCKS
	ACMD23 Cmd = 23 // SET_WR_BLK_ERASE_COUNT
	ACMD41 Cmd = 41 // SD_SEND_OP_COND
)

func (c Cmd) String() string {
	switch c {
	case CMD0:
		return "CMD0"
	case CMD8:
		return "CMD8"
	case CMD9:
		return "CMD9"
	case CMD10:
		return "CMD10"
	case CMD12:
		return "CMD12"
	case CMD13:
		return "CMD13"
	case CMD16:
		return "CMD16"
	case CMD17:
		return "CMD17"
	case CMD18:
		return "CMD18"
	case CMD24:
		return "CMD24"
	case CMD25:
		return "CMD25"
	case CMD55:
		return "CMD55"
	case CMD58:
		return "CMD58"
	case ACMD22:
		return "ACMD22"
	case ACMD23:
		return "ACMD23"
	case ACMD41:
		return "ACMD41"
	default:
		return "CMD?"
	}
}

// CardIfCondArg is the CMD8 argument: 2.7-3.6V supply, check pattern 0xAA.
const CardIfCondArg uint32 = 0x000001AA

// CardIfCondCheckPattern is the byte CMD8's R7 tail must echo back.
const CardIfCondCheckPattern = 0xAA

// HCSArg is the ACMD41 argument asserting host support for high-capacity
// (SDHC) cards. Standard-capacity negotiation uses argument 0.
const HCSArg uint32 = 0x40000000

// crc7ForCMD0 and crc7ForCMD8 are the canonical CRC7 bytes (with end bit
// set) for the only two commands the SD spec requires a correct CRC for
// when CRC mode is otherwise disabled: CMD0 with argument 0, and CMD8
// with argument 0x1AA.
const (
	crc7ForCMD0 = 0x95
	crc7ForCMD8 = 0x87
	// crc7Disabled is sent for every other command frame when CRC mode
	// is off; only its low bit (the frame's end bit) is meaningful.
	crc7Disabled = 0xFF
)

// Frame renders the 6-byte command frame for cmd/arg. When useCRC7 is
// true the trailing byte is a freshly computed CRC7 (see CRC7); otherwise
// it is one of the two canonical constants required for CMD0/CMD8, or
// 0xFF (end bit set) for any other command.
func Frame(cmd Cmd, arg uint32, useCRC7 bool) [6]byte {
	var f [6]byte
	f[0] = 0x40 | byte(cmd)
	f[1] = byte(arg >> 24)
	f[2] = byte(arg >> 16)
	f[3] = byte(arg >> 8)
	f[4] = byte(arg)
	if useCRC7 {
		f[5] = CRC7(f[:5])
		return f
	}
	switch {
	case cmd == CMD0 && arg == 0:
		f[5] = crc7ForCMD0
	case cmd == CMD8 && arg == CardIfCondArg:
		f[5] = crc7ForCMD8
	default:
		f[5] = crc7Disabled
	}
	return f
}
