package sdproto

// DataToken is an in-band byte marking the start or end of a block-data
// phase transaction.
type DataToken byte

const (
	// StartBlock precedes a single read/write block or each block of a
	// multi-block read.
	StartBlock DataToken = 0xFE
	// StartMultiWrite precedes each block of a multi-block write.
	StartMultiWrite DataToken = 0xFC
	// StopTran ends a multi-block write.
	StopTran DataToken = 0xFD
)

// DataResponseMask isolates the 5 low bits of a post-write data-response
// byte; DataResponseAccepted is the only value of those bits meaning the
// card accepted the block.
const (
	DataResponseMask     = 0x1F
	DataResponseAccepted = 0x05
	DataResponseCRCError = 0x0B
	DataResponseWriteErr = 0x0D
)

// Accepted reports whether a post-write data-response byte indicates the
// card accepted the block: the masked value must equal 0x05 exactly, not
// merely differ from it — see the SD spec and the classic bug where an
// inverted comparison silently treats every non-accept code as success.
func Accepted(status byte) bool {
	return status&DataResponseMask == DataResponseAccepted
}

// ReadDataError classifies a byte read in place of StartBlock during a
// read data phase. ClassifyReadError reports 0xFF (no error token ever
// arrived) as Timeout with no other field set.
type ReadDataError struct {
	CCError    bool
	ECCFailed  bool
	OutOfRange bool
	CardLocked bool
	Timeout    bool
}

func ClassifyReadError(b byte) ReadDataError {
	if b == 0xFF {
		return ReadDataError{Timeout: true}
	}
	return ReadDataError{
		CCError:    b&(1<<1) != 0,
		ECCFailed:  b&(1<<2) != 0,
		OutOfRange: b&(1<<3) != 0,
		CardLocked: b&(1<<4) != 0,
	}
}
