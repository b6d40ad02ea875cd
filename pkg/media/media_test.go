package media_test

import (
	"context"
	"testing"

	"github.com/HMasataka/teamcall/pkg/media"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacing(t *testing.T) {
	assert.Equal(t, media.FacingBack, media.FacingFront.Opposite())
	assert.Equal(t, media.FacingFront, media.FacingBack.Opposite())
	assert.Equal(t, "front", media.FacingFront.String())
	assert.Equal(t, "back", media.FacingBack.String())
}

func TestStaticSource_GetUserMedia(t *testing.T) {
	t.Run("音声と映像のトラックを取得する", func(t *testing.T) {
		src := media.NewStaticSource("test")

		stream, err := src.GetUserMedia(context.Background(), media.DefaultConstraints())

		require.NoError(t, err)
		require.Len(t, stream.AudioTracks(), 1)
		require.Len(t, stream.VideoTracks(), 1)
		assert.Equal(t, webrtc.RTPCodecTypeAudio, stream.AudioTracks()[0].Kind())
		assert.Equal(t, media.FacingFront, stream.Facing())
		assert.True(t, stream.AudioTracks()[0].Enabled())
	})

	t.Run("映像なし", func(t *testing.T) {
		src := media.NewStaticSource("")

		stream, err := src.GetUserMedia(context.Background(), media.Constraints{Audio: true})

		require.NoError(t, err)
		assert.Len(t, stream.Tracks(), 1)
		assert.Empty(t, stream.VideoTracks())
	})

	t.Run("キャンセル済みコンテキスト", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := media.NewStaticSource("").GetUserMedia(ctx, media.DefaultConstraints())

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTrack_Stop(t *testing.T) {
	local, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "a", "s")
	require.NoError(t, err)

	stops := 0
	track := media.NewTrack(local, func() { stops++ })

	track.Stop()
	track.Stop()

	assert.Equal(t, 1, stops)
	assert.True(t, track.Stopped())
	assert.False(t, track.Enabled())
}

func TestStream_SetEnabled(t *testing.T) {
	stream, err := media.NewStaticSource("s").GetUserMedia(context.Background(), media.DefaultConstraints())
	require.NoError(t, err)

	stream.SetEnabled(webrtc.RTPCodecTypeAudio, false)

	assert.False(t, stream.AudioTracks()[0].Enabled())
	assert.True(t, stream.VideoTracks()[0].Enabled())

	stream.Stop()
	assert.True(t, stream.Stopped())
}

func TestStaticPermissions(t *testing.T) {
	granted, err := media.StaticPermissions(true).RequestCameraAndMicrophone(context.Background())
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = media.StaticPermissions(false).RequestCameraAndMicrophone(context.Background())
	require.NoError(t, err)
	assert.False(t, granted)
}
