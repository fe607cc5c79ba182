package mock

import (
	"reflect"

	"github.com/golang/mock/gomock"
)

// Clock is a mock of the sdspi.Clock interface.
type Clock struct {
	ctrl     *gomock.Controller
	recorder *ClockMockRecorder
}

// ClockMockRecorder is the mock recorder for Clock.
type ClockMockRecorder struct {
	mock *Clock
}

// NewClock creates a new mock instance.
func NewClock(ctrl *gomock.Controller) *Clock {
	mock := &Clock{ctrl: ctrl}
	mock.recorder = &ClockMockRecorder{mock}
	return mock
}

func (m *Clock) EXPECT() *ClockMockRecorder {
	return m.recorder
}

func (m *Clock) NowMillis() int64 {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NowMillis")
	ret0, _ := ret[0].(int64)
	return ret0
}

func (mr *ClockMockRecorder) NowMillis() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NowMillis", reflect.TypeOf((*Clock)(nil).NowMillis))
}

// FakeClock is a simple deterministic Clock for tests that need to
// advance time explicitly rather than script every NowMillis call
// through gomock expectations, e.g. driving a timeout loop to
// completion.
type FakeClock struct {
	millis int64
}

// NewFakeClock returns a FakeClock starting at 0ms.
func NewFakeClock() *FakeClock { return &FakeClock{} }

func (c *FakeClock) NowMillis() int64 { return c.millis }

// Advance moves the clock forward by d milliseconds.
func (c *FakeClock) Advance(d int64) { c.millis += d }
