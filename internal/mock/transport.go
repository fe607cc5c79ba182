// Package mock holds hand-written gomock doubles for sdspi.Transport and
// sdspi.Clock, in the shape mockgen would generate, so command-engine
// tests can script exact byte sequences and timing without a real card or
// bus.
package mock

import (
	"reflect"

	"github.com/golang/mock/gomock"
)

// Transport is a mock of the sdspi.Transport interface.
type Transport struct {
	ctrl     *gomock.Controller
	recorder *TransportMockRecorder
}

// TransportMockRecorder is the mock recorder for Transport.
type TransportMockRecorder struct {
	mock *Transport
}

// NewTransport creates a new mock instance.
func NewTransport(ctrl *gomock.Controller) *Transport {
	mock := &Transport{ctrl: ctrl}
	mock.recorder = &TransportMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *Transport) EXPECT() *TransportMockRecorder {
	return m.recorder
}

func (m *Transport) Select() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Select")
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *TransportMockRecorder) Select() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Select", reflect.TypeOf((*Transport)(nil).Select))
}

func (m *Transport) Deselect() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Deselect")
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *TransportMockRecorder) Deselect() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Deselect", reflect.TypeOf((*Transport)(nil).Deselect))
}

func (m *Transport) WriteByte(b byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WriteByte", b)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *TransportMockRecorder) WriteByte(b interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WriteByte", reflect.TypeOf((*Transport)(nil).WriteByte), b)
}

func (m *Transport) ReadByte() (byte, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ReadByte")
	ret0, _ := ret[0].(byte)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *TransportMockRecorder) ReadByte() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReadByte", reflect.TypeOf((*Transport)(nil).ReadByte))
}

func (m *Transport) WriteBytes(buf []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WriteBytes", buf)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *TransportMockRecorder) WriteBytes(buf interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WriteBytes", reflect.TypeOf((*Transport)(nil).WriteBytes), buf)
}

func (m *Transport) ReadBytes(buf []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ReadBytes", buf)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *TransportMockRecorder) ReadBytes(buf interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReadBytes", reflect.TypeOf((*Transport)(nil).ReadBytes), buf)
}
