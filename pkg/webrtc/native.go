package webrtc

import (
	"errors"

	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
)

// nativeConn is the subset of *webrtc.PeerConnection the manager drives.
type nativeConn interface {
	CreateOffer(options *webrtc.OfferOptions) (webrtc.SessionDescription, error)
	CreateAnswer(options *webrtc.AnswerOptions) (webrtc.SessionDescription, error)
	SetLocalDescription(desc webrtc.SessionDescription) error
	SetRemoteDescription(desc webrtc.SessionDescription) error
	RemoteDescription() *webrtc.SessionDescription
	AddICECandidate(candidate webrtc.ICECandidateInit) error
	AddTrack(track webrtc.TrackLocal) (rtpSender, error)
	RemoveTrack(sender rtpSender) error
	AddRecvOnlyTransceiver(kind webrtc.RTPCodecType) error
	OnICECandidate(f func(*webrtc.ICECandidate))
	OnTrack(f func(*webrtc.TrackRemote, *webrtc.RTPReceiver))
	OnICEConnectionStateChange(f func(webrtc.ICEConnectionState))
	WriteRTCP(pkts []rtcp.Packet) error
	Close() error
}

type rtpSender interface {
	Track() webrtc.TrackLocal
	ReplaceTrack(track webrtc.TrackLocal) error
}

var errForeignSender = errors.New("sender does not belong to this peer connection")

type pionConn struct {
	*webrtc.PeerConnection
}

func (c *pionConn) AddTrack(track webrtc.TrackLocal) (rtpSender, error) {
	sender, err := c.PeerConnection.AddTrack(track)
	if err != nil {
		return nil, err
	}

	// RTCP has to be read for the interceptors to run.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()

	return sender, nil
}

func (c *pionConn) RemoveTrack(sender rtpSender) error {
	s, ok := sender.(*webrtc.RTPSender)
	if !ok {
		return errForeignSender
	}
	return c.PeerConnection.RemoveTrack(s)
}

func (c *pionConn) AddRecvOnlyTransceiver(kind webrtc.RTPCodecType) error {
	_, err := c.PeerConnection.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	})
	return err
}
