package sdputil_test

import (
	"os"
	"strings"
	"testing"

	"github.com/HMasataka/teamcall/pkg/sdputil"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSDP() string {
	lines := []string{
		"v=0",
		"o=- 4215775240449105457 2 IN IP4 127.0.0.1",
		"s=-",
		"t=0 0",
		"a=group:BUNDLE 0 1",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"c=IN IP4 0.0.0.0",
		"a=ice-ufrag:abcd",
		"a=ice-pwd:0123456789abcdef0123456789",
		"a=mid:0",
		"a=sendrecv",
		"a=rtpmap:111 opus/48000/2",
		"a=candidate:1 1 udp 2122260223 10.0.0.1 50000 typ host",
		"m=video 9 UDP/TLS/RTP/SAVPF 96",
		"c=IN IP4 0.0.0.0",
		"a=mid:1",
		"a=recvonly",
		"a=rtpmap:96 VP8/90000",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

func TestParse(t *testing.T) {
	t.Run("メディアセクションを要約する", func(t *testing.T) {
		summary, err := sdputil.Parse(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sampleSDP()})

		require.NoError(t, err)
		assert.Equal(t, []string{"audio", "video"}, summary.Media)
		assert.Equal(t, []string{"sendrecv", "recvonly"}, summary.Directions)
		assert.Equal(t, "abcd", summary.ICEUfrag)
		assert.Equal(t, 1, summary.Candidates)
		assert.True(t, summary.HasMedia("video"))
		assert.False(t, summary.HasMedia("application"))
	})

	t.Run("壊れたSDPはエラー", func(t *testing.T) {
		_, err := sdputil.Parse(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "garbage"})

		assert.ErrorIs(t, err, sdputil.ErrMalformedSDP)
	})
}

func TestValidate(t *testing.T) {
	t.Run("種別が一致しない場合はエラー", func(t *testing.T) {
		_, err := sdputil.Validate(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sampleSDP()}, webrtc.SDPTypeAnswer)

		assert.ErrorIs(t, err, sdputil.ErrUnexpectedType)
	})

	t.Run("メディアがない場合はエラー", func(t *testing.T) {
		bare := strings.Join([]string{"v=0", "o=- 1 2 IN IP4 127.0.0.1", "s=-", "t=0 0"}, "\r\n") + "\r\n"

		_, err := sdputil.Validate(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: bare}, webrtc.SDPTypeAnswer)

		assert.ErrorIs(t, err, sdputil.ErrNoMedia)
	})

	t.Run("正常なanswer", func(t *testing.T) {
		summary, err := sdputil.Validate(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sampleSDP()}, webrtc.SDPTypeAnswer)

		require.NoError(t, err)
		assert.Equal(t, webrtc.SDPTypeAnswer, summary.Type)
	})
}

func TestDump(t *testing.T) {
	dir := t.TempDir()

	path, err := sdputil.Dump(dir, "peer/1 offer", webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sampleSDP()})

	require.NoError(t, err)
	assert.Contains(t, path, "peer-1-offer")
	assert.True(t, strings.HasSuffix(path, "_offer.sdp"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleSDP(), string(data))
}
