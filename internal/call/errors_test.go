package call_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/HMasataka/teamcall/internal/call"
	"github.com/HMasataka/teamcall/internal/signaling"
	"github.com/HMasataka/teamcall/pkg/media"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want call.Reason
	}{
		{"nil", nil, call.ReasonNone},
		{"権限拒否", fmt.Errorf("wrap: %w", media.ErrPermissionDenied), call.ReasonPermissionDenied},
		{"デバイスなし", media.ErrDeviceUnavailable, call.ReasonDeviceUnavailable},
		{"シグナリング未接続", signaling.ErrNotConnected, call.ReasonSignalingUnavailable},
		{"ICE切断", call.ErrConnectivityLost, call.ReasonConnectivityLost},
		{"CallErrorはそのまま", &call.CallError{Reason: call.ReasonRemoteHangup}, call.ReasonRemoteHangup},
		{"その他はネゴシエーション失敗", errors.New("boom"), call.ReasonNegotiationFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, call.Classify(tt.err))
		})
	}
}

func TestCallError(t *testing.T) {
	cause := errors.New("dtls handshake timeout")
	err := &call.CallError{Reason: call.ReasonNegotiationFailure, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "call setup failed: dtls handshake timeout", err.Error())
	assert.Equal(t, "connection lost", (&call.CallError{Reason: call.ReasonConnectivityLost}).Error())
}
