package sdproto

import "testing"

func TestR1Predicates(t *testing.T) {
	if !PendingResponse.Busy() {
		t.Error("PendingResponse should be busy")
	}
	if !NoResponse.NoResponse() {
		t.Error("NoResponse sentinel should report NoResponse()")
	}
	if !R1(0).Ready() {
		t.Error("0x00 should be ready")
	}
	if !R1(1).Idle() {
		t.Error("0x01 should be idle")
	}
	if !R1(0x04).IllegalCommand() {
		t.Error("0x04 should be illegal command")
	}
	if !R1(0x05).Idle() || !R1(0x05).IllegalCommand() {
		t.Error("0x05 should be idle and illegal command (SDv1 CMD8 rejection)")
	}
	if R1(0x80).Valid() {
		t.Error("0x80 has the top bit set and is not a valid card reply")
	}
}

func TestClassifyReadError(t *testing.T) {
	if got := ClassifyReadError(0xFF); !got.Timeout {
		t.Errorf("0xFF should classify as timeout, got %+v", got)
	}
	got := ClassifyReadError(0x08) // bit 3: out of range
	if !got.OutOfRange || got.CCError || got.ECCFailed || got.CardLocked || got.Timeout {
		t.Errorf("0x08 should be OutOfRange only, got %+v", got)
	}
}

func TestAccepted(t *testing.T) {
	if !Accepted(DataResponseAccepted) {
		t.Error("0x05 should be accepted")
	}
	if !Accepted(0xE5) {
		// high bits are don't-care outside the 5-bit mask.
		t.Error("0xE5 masks to 0x05 and should be accepted")
	}
	if Accepted(DataResponseCRCError) {
		t.Error("0x0B (CRC error) must not be accepted")
	}
	if Accepted(DataResponseWriteErr) {
		t.Error("0x0D (write error) must not be accepted")
	}
}

func TestCardStatusFields(t *testing.T) {
	s := DecodeCardStatus(1<<31 | 1<<22 | 4<<9 | 1<<8)
	if !s.OutOfRange() {
		t.Error("expected OutOfRange")
	}
	if !s.IllegalCommand() {
		t.Error("expected IllegalCommand")
	}
	if s.State() != StateTran {
		t.Errorf("State() = %v, want StateTran", s.State())
	}
	if !s.ReadyForData() {
		t.Error("expected ReadyForData")
	}
}
