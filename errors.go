package sdspi

import (
	"fmt"

	"github.com/soypat/sdspi/sdproto"
)

// ErrorCode discriminates the failure taxonomy of the driver. It is never
// used to signal success.
type ErrorCode uint8

const (
	ErrCodeNone ErrorCode = iota
	// ErrCodeInitNotCalled is returned by any I/O method invoked before
	// a successful Begin.
	ErrCodeInitNotCalled
	// ErrCodeCmd0Failed means CMD0 never produced an idle reply after
	// all retries, including the stuck-multi-block-write recovery.
	ErrCodeCmd0Failed
	// ErrCodeCmd8Failed means the CMD8 voltage/check-pattern round trip
	// came back with a mismatched pattern.
	ErrCodeCmd8Failed
	// ErrCodeAcmd41Failed means operating-condition negotiation never
	// reached ready.
	ErrCodeAcmd41Failed
	// ErrCodeCmd58Failed means the OCR could not be read after init.
	ErrCodeCmd58Failed
	// ErrCodeCmd16Failed means SET_BLOCKLEN was rejected on a
	// standard-capacity card.
	ErrCodeCmd16Failed
	// ErrCodeReadError carries a per-block read failure; see
	// Error.ReadDetail.
	ErrCodeReadError
	// ErrCodeWriteError carries a per-block write failure; see
	// Error.WriteStatus.
	ErrCodeWriteError
	// ErrCodeIllegalCommand, ErrCodeParamError, ErrCodeAddressError and
	// ErrCodeEraseSeqError surface the matching R1 bit from a non-fatal
	// command.
	ErrCodeIllegalCommand
	ErrCodeParamError
	ErrCodeAddressError
	ErrCodeEraseSeqError
	// ErrCodeNoCard means the transport never produced a valid response
	// at all during init.
	ErrCodeNoCard
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNone:
		return "none"
	case ErrCodeInitNotCalled:
		return "init not called"
	case ErrCodeCmd0Failed:
		return "CMD0 failed"
	case ErrCodeCmd8Failed:
		return "CMD8 failed"
	case ErrCodeAcmd41Failed:
		return "ACMD41 failed"
	case ErrCodeCmd58Failed:
		return "CMD58 failed"
	case ErrCodeCmd16Failed:
		return "CMD16 failed"
	case ErrCodeReadError:
		return "read error"
	case ErrCodeWriteError:
		return "write error"
	case ErrCodeIllegalCommand:
		return "illegal command"
	case ErrCodeParamError:
		return "parameter error"
	case ErrCodeAddressError:
		return "address error"
	case ErrCodeEraseSeqError:
		return "erase sequence error"
	case ErrCodeNoCard:
		return "no card"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type returned by every sdspi operation that
// fails. It wraps an ErrorCode so callers can test with errors.Is against
// the package-level sentinels below, and optionally a lower-level cause.
type Error struct {
	Code ErrorCode
	// ReadDetail is populated when Code == ErrCodeReadError.
	ReadDetail sdproto.ReadDataError
	// WriteStatus is the raw data-response byte when Code ==
	// ErrCodeWriteError from a rejected block; zero otherwise.
	WriteStatus byte
	Cause       error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sdspi: %s: %s", e.Code, e.Cause)
	}
	return "sdspi: " + e.Code.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, sentinel) match on ErrorCode rather than on
// pointer identity, so every *Error with the same Code is equivalent to
// its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newErr(code ErrorCode) *Error               { return &Error{Code: code} }
func wrapErr(code ErrorCode, cause error) *Error { return &Error{Code: code, Cause: cause} }

// Sentinels for use with errors.Is.
var (
	ErrInitNotCalled = newErr(ErrCodeInitNotCalled)
	ErrCmd0Failed    = newErr(ErrCodeCmd0Failed)
	ErrCmd8Failed    = newErr(ErrCodeCmd8Failed)
	ErrAcmd41Failed  = newErr(ErrCodeAcmd41Failed)
	ErrCmd58Failed   = newErr(ErrCodeCmd58Failed)
	ErrCmd16Failed   = newErr(ErrCodeCmd16Failed)
	ErrReadError     = newErr(ErrCodeReadError)
	ErrWriteError    = newErr(ErrCodeWriteError)
	ErrIllegalCmd    = newErr(ErrCodeIllegalCommand)
	ErrParam         = newErr(ErrCodeParamError)
	ErrAddress       = newErr(ErrCodeAddressError)
	ErrEraseSeq      = newErr(ErrCodeEraseSeqError)
	ErrNoCard        = newErr(ErrCodeNoCard)
)

// errFromR1 maps a non-fatal R1 error bit to the matching sentinel, or
// nil if r1 carries no error bit at all.
func errFromR1(r1 sdproto.R1) error {
	switch {
	case r1.IllegalCommand():
		return ErrIllegalCmd
	case r1.ParamError():
		return ErrParam
	case r1.AddressError():
		return ErrAddress
	case r1.EraseSeqError():
		return ErrEraseSeq
	default:
		return nil
	}
}

// errjoin returns an error combining every non-nil err in errs, in the
// style of errors.Join: it discards nils and returns nil if none remain.
// Interoperable with the stdlib errors.Join via Unwrap() []error.
func errjoin(errs ...error) error {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	joined := make([]error, 0, n)
	for _, err := range errs {
		if err != nil {
			joined = append(joined, err)
		}
	}
	return &joinError{errs: joined}
}

type joinError struct{ errs []error }

func (j *joinError) Error() string {
	s := ""
	for i, e := range j.errs {
		if i > 0 {
			s += "\n"
		}
		s += e.Error()
	}
	return s
}

func (j *joinError) Unwrap() []error { return j.errs }
