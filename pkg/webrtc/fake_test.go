package webrtc

import (
	"errors"
	"sync"

	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
)

type fakeSender struct {
	track       webrtc.TrackLocal
	replaceErr  error
	replaceCall int
}

func (s *fakeSender) Track() webrtc.TrackLocal {
	return s.track
}

func (s *fakeSender) ReplaceTrack(track webrtc.TrackLocal) error {
	s.replaceCall++
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.track = track
	return nil
}

type fakeConn struct {
	mu sync.Mutex

	remote     *webrtc.SessionDescription
	local      *webrtc.SessionDescription
	candidates []webrtc.ICECandidateInit
	senders    []*fakeSender
	removed    []*fakeSender
	recvOnly   []webrtc.RTPCodecType
	rtcp       []rtcp.Packet
	offers     []*webrtc.OfferOptions
	closed     int

	onCandidate func(*webrtc.ICECandidate)
	onState     func(webrtc.ICEConnectionState)

	addTrackErr  error
	setRemoteErr error
}

func (c *fakeConn) CreateOffer(options *webrtc.OfferOptions) (webrtc.SessionDescription, error) {
	c.offers = append(c.offers, options)
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "offer"}, nil
}

func (c *fakeConn) CreateAnswer(*webrtc.AnswerOptions) (webrtc.SessionDescription, error) {
	if c.remote == nil {
		return webrtc.SessionDescription{}, errors.New("no remote description")
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "answer"}, nil
}

func (c *fakeConn) SetLocalDescription(desc webrtc.SessionDescription) error {
	c.local = &desc
	return nil
}

func (c *fakeConn) SetRemoteDescription(desc webrtc.SessionDescription) error {
	if c.setRemoteErr != nil {
		return c.setRemoteErr
	}
	c.remote = &desc
	return nil
}

func (c *fakeConn) RemoteDescription() *webrtc.SessionDescription {
	return c.remote
}

func (c *fakeConn) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	if c.remote == nil {
		return errors.New("remote description not set")
	}
	c.candidates = append(c.candidates, candidate)
	return nil
}

func (c *fakeConn) AddTrack(track webrtc.TrackLocal) (rtpSender, error) {
	if c.addTrackErr != nil {
		return nil, c.addTrackErr
	}
	s := &fakeSender{track: track}
	c.senders = append(c.senders, s)
	return s, nil
}

func (c *fakeConn) RemoveTrack(sender rtpSender) error {
	c.removed = append(c.removed, sender.(*fakeSender))
	return nil
}

func (c *fakeConn) AddRecvOnlyTransceiver(kind webrtc.RTPCodecType) error {
	c.recvOnly = append(c.recvOnly, kind)
	return nil
}

func (c *fakeConn) OnICECandidate(f func(*webrtc.ICECandidate)) {
	c.onCandidate = f
}

func (c *fakeConn) OnTrack(func(*webrtc.TrackRemote, *webrtc.RTPReceiver)) {}

func (c *fakeConn) OnICEConnectionStateChange(f func(webrtc.ICEConnectionState)) {
	c.onState = f
}

func (c *fakeConn) WriteRTCP(pkts []rtcp.Packet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rtcp = append(c.rtcp, pkts...)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}
