package call

import "github.com/pion/webrtc/v4"

// Event drives the call state machine.
type Event int

const (
	EventStart Event = iota
	EventPermissionGranted
	EventPermissionDenied
	EventMediaAcquired
	EventMediaFailed
	EventLocalDescriptionSent
	EventRemoteAnswer
	EventRemoteOffer
	EventNegotiationFailed
	EventICEConnected
	EventICEDisrupted
	EventGraceExpired
	EventSignalingLost
	EventLocalHangup
	EventRemoteHangup
	EventTornDown
)

var eventNames = map[Event]string{
	EventStart:                "start",
	EventPermissionGranted:    "permission-granted",
	EventPermissionDenied:     "permission-denied",
	EventMediaAcquired:        "media-acquired",
	EventMediaFailed:          "media-failed",
	EventLocalDescriptionSent: "local-description-sent",
	EventRemoteAnswer:         "remote-answer",
	EventRemoteOffer:          "remote-offer",
	EventNegotiationFailed:    "negotiation-failed",
	EventICEConnected:         "ice-connected",
	EventICEDisrupted:         "ice-disrupted",
	EventGraceExpired:         "grace-expired",
	EventSignalingLost:        "signaling-lost",
	EventLocalHangup:          "local-hangup",
	EventRemoteHangup:         "remote-hangup",
	EventTornDown:             "torn-down",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// Effect is a side effect requested by a transition.
type Effect int

const (
	EffectRequestPermission Effect = iota
	EffectAcquireMedia
	EffectNegotiate
	EffectApplyAnswer
	EffectAnswerOffer
	EffectSendEndCall
	EffectStartGrace
	EffectCancelGrace
	EffectRestartICE
	EffectTeardown
)

func (e Effect) String() string {
	switch e {
	case EffectRequestPermission:
		return "request-permission"
	case EffectAcquireMedia:
		return "acquire-media"
	case EffectNegotiate:
		return "negotiate"
	case EffectApplyAnswer:
		return "apply-answer"
	case EffectAnswerOffer:
		return "answer-offer"
	case EffectSendEndCall:
		return "send-end-call"
	case EffectStartGrace:
		return "start-grace"
	case EffectCancelGrace:
		return "cancel-grace"
	case EffectRestartICE:
		return "restart-ice"
	case EffectTeardown:
		return "teardown"
	}
	return "unknown"
}

type transition struct {
	next    Status
	effects []Effect
}

type key struct {
	status Status
	event  Event
}

var (
	fail         = []Effect{EffectTeardown}
	hangupLocal  = []Effect{EffectSendEndCall, EffectTeardown}
	hangupRemote = []Effect{EffectTeardown}
	disrupted    = []Effect{EffectStartGrace, EffectRestartICE}
)

var transitions = map[key]transition{
	{StatusIdle, EventStart}:             {StatusIdle, []Effect{EffectRequestPermission}},
	{StatusIdle, EventPermissionGranted}: {StatusAcquiringMedia, []Effect{EffectAcquireMedia}},
	{StatusIdle, EventPermissionDenied}:  {StatusFailed, fail},
	{StatusIdle, EventMediaFailed}:       {StatusFailed, fail},
	{StatusIdle, EventSignalingLost}:     {StatusFailed, fail},
	{StatusIdle, EventNegotiationFailed}: {StatusFailed, fail},
	{StatusIdle, EventLocalHangup}:       {StatusEnded, hangupLocal},
	{StatusIdle, EventRemoteHangup}:      {StatusEnded, hangupRemote},

	{StatusAcquiringMedia, EventMediaAcquired}:     {StatusNegotiating, []Effect{EffectNegotiate}},
	{StatusAcquiringMedia, EventMediaFailed}:       {StatusFailed, fail},
	{StatusAcquiringMedia, EventSignalingLost}:     {StatusFailed, fail},
	{StatusAcquiringMedia, EventNegotiationFailed}: {StatusFailed, fail},
	{StatusAcquiringMedia, EventLocalHangup}:       {StatusEnded, hangupLocal},
	{StatusAcquiringMedia, EventRemoteHangup}:      {StatusEnded, hangupRemote},

	{StatusNegotiating, EventLocalDescriptionSent}: {StatusConnecting, nil},
	{StatusNegotiating, EventRemoteAnswer}:         {StatusNegotiating, []Effect{EffectApplyAnswer}},
	{StatusNegotiating, EventICEConnected}:         {StatusConnected, []Effect{EffectCancelGrace}},
	{StatusNegotiating, EventICEDisrupted}:         {StatusNegotiating, []Effect{EffectStartGrace}},
	{StatusNegotiating, EventGraceExpired}:         {StatusFailed, fail},
	{StatusNegotiating, EventNegotiationFailed}:    {StatusFailed, fail},
	{StatusNegotiating, EventSignalingLost}:        {StatusFailed, fail},
	{StatusNegotiating, EventLocalHangup}:          {StatusEnded, hangupLocal},
	{StatusNegotiating, EventRemoteHangup}:         {StatusEnded, hangupRemote},

	{StatusConnecting, EventRemoteAnswer}:      {StatusConnecting, []Effect{EffectApplyAnswer}},
	{StatusConnecting, EventRemoteOffer}:       {StatusConnecting, []Effect{EffectAnswerOffer}},
	{StatusConnecting, EventICEConnected}:      {StatusConnected, []Effect{EffectCancelGrace}},
	{StatusConnecting, EventICEDisrupted}:      {StatusConnecting, disrupted},
	{StatusConnecting, EventGraceExpired}:      {StatusFailed, fail},
	{StatusConnecting, EventNegotiationFailed}: {StatusFailed, fail},
	{StatusConnecting, EventSignalingLost}:     {StatusFailed, fail},
	{StatusConnecting, EventLocalHangup}:       {StatusEnded, hangupLocal},
	{StatusConnecting, EventRemoteHangup}:      {StatusEnded, hangupRemote},

	{StatusConnected, EventRemoteAnswer}: {StatusConnected, []Effect{EffectApplyAnswer}},
	{StatusConnected, EventRemoteOffer}:  {StatusConnected, []Effect{EffectAnswerOffer}},
	{StatusConnected, EventICEConnected}: {StatusConnected, []Effect{EffectCancelGrace}},
	{StatusConnected, EventICEDisrupted}: {StatusConnected, disrupted},
	{StatusConnected, EventGraceExpired}: {StatusFailed, fail},
	{StatusConnected, EventLocalHangup}:  {StatusEnded, hangupLocal},
	{StatusConnected, EventRemoteHangup}: {StatusEnded, hangupRemote},

	{StatusFailed, EventTornDown}: {StatusEnded, nil},
}

// Transition returns the next status and the effects to run for ev. ok is
// false when ev does not apply in status.
func Transition(status Status, ev Event) (next Status, effects []Effect, ok bool) {
	t, ok := transitions[key{status, ev}]
	if !ok {
		return status, nil, false
	}
	return t.next, append([]Effect(nil), t.effects...), true
}

// ICEEvent maps an ICE connection state onto a state machine event.
func ICEEvent(state webrtc.ICEConnectionState) (Event, bool) {
	switch state {
	case webrtc.ICEConnectionStateConnected, webrtc.ICEConnectionStateCompleted:
		return EventICEConnected, true
	case webrtc.ICEConnectionStateDisconnected, webrtc.ICEConnectionStateFailed, webrtc.ICEConnectionStateClosed:
		return EventICEDisrupted, true
	}
	return 0, false
}
