package call_test

import (
	"context"
	"errors"
	"testing"

	"github.com/HMasataka/teamcall/internal/call"
	"github.com/HMasataka/teamcall/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type speaker struct {
	on  []bool
	err error
}

func (s *speaker) SetSpeakerphone(on bool) error {
	if s.err != nil {
		return s.err
	}
	s.on = append(s.on, on)
	return nil
}

func TestEngine_ToggleTracks(t *testing.T) {
	t.Run("マイクとカメラの切り替えは送信トラックを差し替えない", func(t *testing.T) {
		f := newFixture(t, call.DefaultConfig(), call.Deps{})
		f.connectOutgoing(t)
		f.pc.EXPECT().Close().Return(nil)
		ctx := context.Background()

		stream := f.stream()
		require.NotNil(t, stream)
		audio := stream.AudioTracks()[0]
		video := stream.VideoTracks()[0]

		state, err := f.engine.ToggleMicrophone(ctx)
		require.NoError(t, err)
		assert.False(t, state.MicrophoneEnabled)
		assert.True(t, state.CameraEnabled)
		assert.False(t, audio.Enabled())

		state, err = f.engine.ToggleCamera(ctx)
		require.NoError(t, err)
		assert.False(t, state.CameraEnabled)
		assert.False(t, video.Enabled())

		state, err = f.engine.ToggleMicrophone(ctx)
		require.NoError(t, err)
		assert.True(t, state.MicrophoneEnabled)
		assert.True(t, audio.Enabled())

		assert.Same(t, audio, f.stream().AudioTracks()[0])
		assert.Same(t, video, f.stream().VideoTracks()[0])
		assert.False(t, audio.Stopped())
	})

	t.Run("スピーカーの経路を切り替える", func(t *testing.T) {
		route := &speaker{}
		f := newFixture(t, call.DefaultConfig(), call.Deps{AudioRoute: route})
		f.connectOutgoing(t)
		f.pc.EXPECT().Close().Return(nil)

		on, err := f.engine.ToggleSpeaker(context.Background())
		require.NoError(t, err)
		assert.True(t, on)

		on, err = f.engine.ToggleSpeaker(context.Background())
		require.NoError(t, err)
		assert.False(t, on)
		assert.Equal(t, []bool{true, false}, route.on)
	})

	t.Run("経路の切り替えに失敗すると状態を変えない", func(t *testing.T) {
		f := newFixture(t, call.DefaultConfig(), call.Deps{AudioRoute: &speaker{err: errors.New("no route")}})
		f.connectOutgoing(t)
		f.pc.EXPECT().Close().Return(nil)

		_, err := f.engine.ToggleSpeaker(context.Background())
		require.Error(t, err)

		snapshot, err := f.engine.Snapshot(context.Background())
		require.NoError(t, err)
		assert.False(t, snapshot.SpeakerOn)
	})
}

func TestEngine_SwitchCamera(t *testing.T) {
	t.Run("背面カメラに切り替えて古いストリームを止める", func(t *testing.T) {
		f := newFixture(t, call.DefaultConfig(), call.Deps{})
		f.connectOutgoing(t)
		f.pc.EXPECT().Close().Return(nil)

		var replaced *media.Stream
		f.pc.EXPECT().ReplaceLocalStream(gomock.Any()).DoAndReturn(func(stream *media.Stream) error {
			replaced = stream
			return nil
		}).Times(1)

		_, err := f.engine.ToggleMicrophone(context.Background())
		require.NoError(t, err)

		previous := f.stream()
		require.NoError(t, f.engine.SwitchCamera(context.Background()))

		require.NotNil(t, replaced)
		assert.Equal(t, media.FacingBack, replaced.Facing())
		assert.True(t, previous.Stopped())
		assert.False(t, replaced.Stopped())

		snapshot, err := f.engine.Snapshot(context.Background())
		require.NoError(t, err)
		assert.False(t, snapshot.Tracks.UsingFrontCamera)
		assert.False(t, snapshot.Tracks.MicrophoneEnabled)
		assert.False(t, replaced.AudioTracks()[0].Enabled())
	})

	t.Run("ミュート中のトラックは無効のまま送信に載る", func(t *testing.T) {
		f := newFixture(t, call.DefaultConfig(), call.Deps{})
		f.connectOutgoing(t)
		f.pc.EXPECT().Close().Return(nil)

		var audioOnBind, videoOnBind []bool
		f.pc.EXPECT().ReplaceLocalStream(gomock.Any()).DoAndReturn(func(stream *media.Stream) error {
			for _, track := range stream.AudioTracks() {
				audioOnBind = append(audioOnBind, track.Enabled())
			}
			for _, track := range stream.VideoTracks() {
				videoOnBind = append(videoOnBind, track.Enabled())
			}
			return nil
		}).Times(1)

		_, err := f.engine.ToggleMicrophone(context.Background())
		require.NoError(t, err)
		_, err = f.engine.ToggleCamera(context.Background())
		require.NoError(t, err)

		require.NoError(t, f.engine.SwitchCamera(context.Background()))

		require.NotEmpty(t, audioOnBind)
		require.NotEmpty(t, videoOnBind)
		for _, enabled := range audioOnBind {
			assert.False(t, enabled)
		}
		for _, enabled := range videoOnBind {
			assert.False(t, enabled)
		}
	})

	t.Run("取得に失敗しても元のストリームを維持する", func(t *testing.T) {
		source := &failingSource{inner: media.NewStaticSource("local"), ok: 1}
		f := newFixture(t, call.DefaultConfig(), call.Deps{Media: source})
		f.connectOutgoing(t)
		f.pc.EXPECT().Close().Return(nil)

		previous := f.stream()
		err := f.engine.SwitchCamera(context.Background())
		require.ErrorIs(t, err, media.ErrDeviceUnavailable)

		assert.False(t, previous.Stopped())
		for _, track := range previous.Tracks() {
			assert.True(t, track.Enabled())
		}

		snapshot, err := f.engine.Snapshot(context.Background())
		require.NoError(t, err)
		assert.Equal(t, call.StatusConnected, snapshot.Status)
		assert.True(t, snapshot.Tracks.UsingFrontCamera)
		assert.Empty(t, f.rec.Failures())
	})

	t.Run("差し替えに失敗すると新しいストリームを止める", func(t *testing.T) {
		f := newFixture(t, call.DefaultConfig(), call.Deps{})
		f.connectOutgoing(t)
		f.pc.EXPECT().Close().Return(nil)

		var rejected *media.Stream
		f.pc.EXPECT().ReplaceLocalStream(gomock.Any()).DoAndReturn(func(stream *media.Stream) error {
			rejected = stream
			return errors.New("replace failed")
		})

		previous := f.stream()
		require.Error(t, f.engine.SwitchCamera(context.Background()))

		assert.True(t, rejected.Stopped())
		assert.False(t, previous.Stopped())

		snapshot, err := f.engine.Snapshot(context.Background())
		require.NoError(t, err)
		assert.True(t, snapshot.Tracks.UsingFrontCamera)
	})

	t.Run("通話がなければエラー", func(t *testing.T) {
		f := newFixture(t, call.DefaultConfig(), call.Deps{})
		assert.ErrorIs(t, f.engine.SwitchCamera(context.Background()), call.ErrNoActiveCall)
	})
}
