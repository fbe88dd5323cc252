package testutil

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/ipfs/go-cid"

	"github.com/lexamoris/synthia/x/genesis/types"
)

type MockStoragePinnerRecorder struct {
	mock *MockStoragePinner
}

type MockStoragePinner struct {
	ctrl     *gomock.Controller
	recorder *MockStoragePinnerRecorder
}

var _ types.StoragePinner = &MockStoragePinner{}

func NewMockStoragePinner(ctrl *gomock.Controller) *MockStoragePinner {
	mock := &MockStoragePinner{ctrl: ctrl}
	mock.recorder = &MockStoragePinnerRecorder{mock: mock}
	return mock
}

func (m *MockStoragePinner) EXPECT() *MockStoragePinnerRecorder {
	return m.recorder
}

// Pin implements types.StoragePinner.
func (m *MockStoragePinner) Pin(ctx context.Context, payload types.PinPayload) (cid.Cid, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Pin", ctx, payload)
	ret0, _ := ret[0].(cid.Cid)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockStoragePinnerRecorder) Pin(ctx, payload any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Pin", reflect.TypeOf((*MockStoragePinner)(nil).Pin), ctx, payload)
}

type MockPeerAnnouncerRecorder struct {
	mock *MockPeerAnnouncer
}

type MockPeerAnnouncer struct {
	ctrl     *gomock.Controller
	recorder *MockPeerAnnouncerRecorder
}

var _ types.PeerAnnouncer = &MockPeerAnnouncer{}

func NewMockPeerAnnouncer(ctrl *gomock.Controller) *MockPeerAnnouncer {
	mock := &MockPeerAnnouncer{ctrl: ctrl}
	mock.recorder = &MockPeerAnnouncerRecorder{mock: mock}
	return mock
}

func (m *MockPeerAnnouncer) EXPECT() *MockPeerAnnouncerRecorder {
	return m.recorder
}

// Announce implements types.PeerAnnouncer.
func (m *MockPeerAnnouncer) Announce(ctx context.Context, c cid.Cid) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Announce", ctx, c)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockPeerAnnouncerRecorder) Announce(ctx, c any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Announce", reflect.TypeOf((*MockPeerAnnouncer)(nil).Announce), ctx, c)
}
