package call_test

import (
	"testing"

	"github.com/HMasataka/teamcall/internal/call"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		status  call.Status
		event   call.Event
		next    call.Status
		effects []call.Effect
		ok      bool
	}{
		{
			name:    "開始時は権限を要求する",
			status:  call.StatusIdle,
			event:   call.EventStart,
			next:    call.StatusIdle,
			effects: []call.Effect{call.EffectRequestPermission},
			ok:      true,
		},
		{
			name:    "権限が許可されるとメディアを取得する",
			status:  call.StatusIdle,
			event:   call.EventPermissionGranted,
			next:    call.StatusAcquiringMedia,
			effects: []call.Effect{call.EffectAcquireMedia},
			ok:      true,
		},
		{
			name:    "権限要求中の処理失敗は終了処理に進む",
			status:  call.StatusIdle,
			event:   call.EventNegotiationFailed,
			next:    call.StatusFailed,
			effects: []call.Effect{call.EffectTeardown},
			ok:      true,
		},
		{
			name:    "メディア取得中の処理失敗は終了処理に進む",
			status:  call.StatusAcquiringMedia,
			event:   call.EventNegotiationFailed,
			next:    call.StatusFailed,
			effects: []call.Effect{call.EffectTeardown},
			ok:      true,
		},
		{
			name:    "権限が拒否されるとメディア取得を経ずに失敗する",
			status:  call.StatusIdle,
			event:   call.EventPermissionDenied,
			next:    call.StatusFailed,
			effects: []call.Effect{call.EffectTeardown},
			ok:      true,
		},
		{
			name:    "メディア取得後にネゴシエーションする",
			status:  call.StatusAcquiringMedia,
			event:   call.EventMediaAcquired,
			next:    call.StatusNegotiating,
			effects: []call.Effect{call.EffectNegotiate},
			ok:      true,
		},
		{
			name:    "メディア取得に失敗すると失敗する",
			status:  call.StatusAcquiringMedia,
			event:   call.EventMediaFailed,
			next:    call.StatusFailed,
			effects: []call.Effect{call.EffectTeardown},
			ok:      true,
		},
		{
			name:   "ローカル記述の送信後は接続待ち",
			status: call.StatusNegotiating,
			event:  call.EventLocalDescriptionSent,
			next:   call.StatusConnecting,
			ok:     true,
		},
		{
			name:    "接続待ちでアンサーを適用する",
			status:  call.StatusConnecting,
			event:   call.EventRemoteAnswer,
			next:    call.StatusConnecting,
			effects: []call.Effect{call.EffectApplyAnswer},
			ok:      true,
		},
		{
			name:    "ICE接続で通話中になる",
			status:  call.StatusConnecting,
			event:   call.EventICEConnected,
			next:    call.StatusConnected,
			effects: []call.Effect{call.EffectCancelGrace},
			ok:      true,
		},
		{
			name:    "通話中のICE切断は猶予を開始する",
			status:  call.StatusConnected,
			event:   call.EventICEDisrupted,
			next:    call.StatusConnected,
			effects: []call.Effect{call.EffectStartGrace, call.EffectRestartICE},
			ok:      true,
		},
		{
			name:    "猶予切れで失敗する",
			status:  call.StatusConnected,
			event:   call.EventGraceExpired,
			next:    call.StatusFailed,
			effects: []call.Effect{call.EffectTeardown},
			ok:      true,
		},
		{
			name:   "通話中はシグナリング切断を無視する",
			status: call.StatusConnected,
			event:  call.EventSignalingLost,
			next:   call.StatusConnected,
			ok:     false,
		},
		{
			name:    "発信中のシグナリング切断は失敗になる",
			status:  call.StatusNegotiating,
			event:   call.EventSignalingLost,
			next:    call.StatusFailed,
			effects: []call.Effect{call.EffectTeardown},
			ok:      true,
		},
		{
			name:    "ローカル切断は相手に通知する",
			status:  call.StatusConnected,
			event:   call.EventLocalHangup,
			next:    call.StatusEnded,
			effects: []call.Effect{call.EffectSendEndCall, call.EffectTeardown},
			ok:      true,
		},
		{
			name:    "リモート切断は通知しない",
			status:  call.StatusConnecting,
			event:   call.EventRemoteHangup,
			next:    call.StatusEnded,
			effects: []call.Effect{call.EffectTeardown},
			ok:      true,
		},
		{
			name:   "失敗後は解放で終了になる",
			status: call.StatusFailed,
			event:  call.EventTornDown,
			next:   call.StatusEnded,
			ok:     true,
		},
		{
			name:   "終了後のイベントは無視する",
			status: call.StatusEnded,
			event:  call.EventLocalHangup,
			next:   call.StatusEnded,
			ok:     false,
		},
		{
			name:   "失敗後の切断は無視する",
			status: call.StatusFailed,
			event:  call.EventRemoteHangup,
			next:   call.StatusFailed,
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, effects, ok := call.Transition(tt.status, tt.event)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.next, next)
			assert.ElementsMatch(t, tt.effects, effects)
		})
	}
}

func TestTransition_NoStatusLeavesTerminal(t *testing.T) {
	events := []call.Event{
		call.EventStart, call.EventPermissionGranted, call.EventPermissionDenied,
		call.EventMediaAcquired, call.EventMediaFailed, call.EventLocalDescriptionSent,
		call.EventRemoteAnswer, call.EventRemoteOffer, call.EventNegotiationFailed,
		call.EventICEConnected, call.EventICEDisrupted, call.EventGraceExpired,
		call.EventSignalingLost, call.EventLocalHangup, call.EventRemoteHangup, call.EventTornDown,
	}

	for _, ev := range events {
		_, _, ok := call.Transition(call.StatusEnded, ev)
		assert.False(t, ok, ev.String())

		next, _, ok := call.Transition(call.StatusFailed, ev)
		if ok {
			assert.Equal(t, call.StatusEnded, next, ev.String())
		}
	}
}

func TestTransition_ReturnsCopy(t *testing.T) {
	_, effects, _ := call.Transition(call.StatusConnected, call.EventLocalHangup)
	effects[0] = call.EffectRestartICE

	_, again, _ := call.Transition(call.StatusConnected, call.EventLocalHangup)
	assert.Equal(t, call.EffectSendEndCall, again[0])
}

func TestICEEvent(t *testing.T) {
	tests := []struct {
		state webrtc.ICEConnectionState
		event call.Event
		ok    bool
	}{
		{webrtc.ICEConnectionStateConnected, call.EventICEConnected, true},
		{webrtc.ICEConnectionStateCompleted, call.EventICEConnected, true},
		{webrtc.ICEConnectionStateDisconnected, call.EventICEDisrupted, true},
		{webrtc.ICEConnectionStateFailed, call.EventICEDisrupted, true},
		{webrtc.ICEConnectionStateClosed, call.EventICEDisrupted, true},
		{webrtc.ICEConnectionStateChecking, 0, false},
		{webrtc.ICEConnectionStateNew, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			ev, ok := call.ICEEvent(tt.state)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.event, ev)
			}
		})
	}
}
