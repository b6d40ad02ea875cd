package call

import (
	payload "github.com/HMasataka/teamcall/payload/signaling"
	"github.com/pion/webrtc/v4"
)

// Observer receives engine notifications. Methods are called from the engine
// loop and must not block.
type Observer interface {
	OnConnected(selfID string)
	OnSignalingError(err error)
	OnUserList(users []payload.User)
	OnIncomingCall(call IncomingCall)
	OnIncomingCallCancelled(peerID string)
	OnStatusChange(snapshot Snapshot)
	OnRemoteTrack(snapshot Snapshot, track *webrtc.TrackRemote)
	// OnCallFailed is called at most once per call, before OnCallEnded.
	OnCallFailed(snapshot Snapshot, err *CallError)
	OnCallEnded(snapshot Snapshot)
}

type NopObserver struct{}

func (NopObserver) OnConnected(string)                          {}
func (NopObserver) OnSignalingError(error)                      {}
func (NopObserver) OnUserList([]payload.User)                   {}
func (NopObserver) OnIncomingCall(IncomingCall)                 {}
func (NopObserver) OnIncomingCallCancelled(string)              {}
func (NopObserver) OnStatusChange(Snapshot)                     {}
func (NopObserver) OnRemoteTrack(Snapshot, *webrtc.TrackRemote) {}
func (NopObserver) OnCallFailed(Snapshot, *CallError)           {}
func (NopObserver) OnCallEnded(Snapshot)                        {}

// Observers fans notifications out in order.
type Observers []Observer

func (o Observers) OnConnected(selfID string) {
	for _, obs := range o {
		obs.OnConnected(selfID)
	}
}

func (o Observers) OnSignalingError(err error) {
	for _, obs := range o {
		obs.OnSignalingError(err)
	}
}

func (o Observers) OnUserList(users []payload.User) {
	for _, obs := range o {
		obs.OnUserList(users)
	}
}

func (o Observers) OnIncomingCall(call IncomingCall) {
	for _, obs := range o {
		obs.OnIncomingCall(call)
	}
}

func (o Observers) OnIncomingCallCancelled(peerID string) {
	for _, obs := range o {
		obs.OnIncomingCallCancelled(peerID)
	}
}

func (o Observers) OnStatusChange(snapshot Snapshot) {
	for _, obs := range o {
		obs.OnStatusChange(snapshot)
	}
}

func (o Observers) OnRemoteTrack(snapshot Snapshot, track *webrtc.TrackRemote) {
	for _, obs := range o {
		obs.OnRemoteTrack(snapshot, track)
	}
}

func (o Observers) OnCallFailed(snapshot Snapshot, err *CallError) {
	for _, obs := range o {
		obs.OnCallFailed(snapshot, err)
	}
}

func (o Observers) OnCallEnded(snapshot Snapshot) {
	for _, obs := range o {
		obs.OnCallEnded(snapshot)
	}
}
