package call

import (
	"errors"
	"fmt"

	"github.com/HMasataka/teamcall/internal/signaling"
	"github.com/HMasataka/teamcall/pkg/media"
)

// Reason は通話が終了・失敗した理由を表す
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonPermissionDenied     Reason = "PermissionDenied"
	ReasonDeviceUnavailable    Reason = "DeviceUnavailable"
	ReasonSignalingUnavailable Reason = "SignalingUnavailable"
	ReasonNegotiationFailure   Reason = "NegotiationFailure"
	ReasonConnectivityLost     Reason = "ConnectivityLost"
	ReasonRemoteHangup         Reason = "RemoteHangup"
	ReasonLocalHangup          Reason = "LocalHangup"
)

// Message returns the text shown to the user.
func (r Reason) Message() string {
	switch r {
	case ReasonPermissionDenied:
		return "camera or microphone access was denied"
	case ReasonDeviceUnavailable:
		return "camera or microphone is unavailable"
	case ReasonSignalingUnavailable:
		return "cannot reach the signaling server"
	case ReasonNegotiationFailure:
		return "call setup failed"
	case ReasonConnectivityLost:
		return "connection lost"
	case ReasonRemoteHangup:
		return "the other party ended the call"
	case ReasonLocalHangup:
		return "call ended"
	}
	return ""
}

var (
	ErrBusy             = errors.New("a call is already in progress")
	ErrNoActiveCall     = errors.New("no active call")
	ErrNoIncomingCall   = errors.New("no incoming call from peer")
	ErrInvalidPeer      = errors.New("invalid peer")
	ErrEngineClosed     = errors.New("call engine closed")
	ErrConnectivityLost = errors.New("ice connectivity lost")
	ErrNegotiation      = errors.New("negotiation failed")
)

// CallError is the single failure surfaced for a failed call.
type CallError struct {
	Reason Reason
	Err    error
}

func (e *CallError) Error() string {
	if e.Err == nil {
		return e.Reason.Message()
	}
	return fmt.Sprintf("%s: %v", e.Reason.Message(), e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Classify maps err onto the failure taxonomy.
func Classify(err error) Reason {
	var callErr *CallError
	switch {
	case err == nil:
		return ReasonNone
	case errors.As(err, &callErr):
		return callErr.Reason
	case errors.Is(err, media.ErrPermissionDenied):
		return ReasonPermissionDenied
	case errors.Is(err, media.ErrDeviceUnavailable):
		return ReasonDeviceUnavailable
	case errors.Is(err, signaling.ErrNotConnected), errors.Is(err, signaling.ErrClosed):
		return ReasonSignalingUnavailable
	case errors.Is(err, ErrConnectivityLost):
		return ReasonConnectivityLost
	}
	return ReasonNegotiationFailure
}

// failure builds the CallError for a transition into Failed.
func failure(ev Event, cause error) *CallError {
	var callErr *CallError
	if errors.As(cause, &callErr) {
		return callErr
	}

	reason := Classify(cause)
	switch ev {
	case EventPermissionDenied:
		reason = ReasonPermissionDenied
	case EventGraceExpired:
		reason = ReasonConnectivityLost
	case EventSignalingLost:
		reason = ReasonSignalingUnavailable
	case EventMediaFailed:
		if reason == ReasonNegotiationFailure || reason == ReasonNone {
			reason = ReasonDeviceUnavailable
		}
	case EventNegotiationFailed:
		if reason == ReasonNone {
			reason = ReasonNegotiationFailure
		}
	}

	return &CallError{Reason: reason, Err: cause}
}
