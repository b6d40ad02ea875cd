package signaling

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// Event は signaling チャネル上のイベント名を表す
type Event string

const (
	EventOffer            Event = "offer"
	EventAnswer           Event = "answer"
	EventICECandidate     Event = "ice-candidate"
	EventEndCall          Event = "end-call"
	EventUserList         Event = "user-list"
	EventUserDisconnected Event = "user-disconnected"

	// ローカルのライフサイクルイベント
	EventConnect      Event = "connect"
	EventConnectError Event = "connect_error"
	EventDisconnect   Event = "disconnect"
)

var (
	ErrInvalidPayload = errors.New("invalid signaling payload")
	ErrUnknownEvent   = errors.New("unknown signaling event")
)

// Relayed reports whether the server forwards the event from one peer to another.
func (e Event) Relayed() bool {
	switch e {
	case EventOffer, EventAnswer, EventICECandidate, EventEndCall:
		return true
	}
	return false
}

type Offer struct {
	Offer    webrtc.SessionDescription `json:"offer"`
	To       string                    `json:"to"`
	From     string                    `json:"from,omitempty"`
	Username string                    `json:"username,omitempty"`
}

type Answer struct {
	Answer webrtc.SessionDescription `json:"answer"`
	To     string                    `json:"to"`
	From   string                    `json:"from,omitempty"`
}

type ICECandidate struct {
	Candidate webrtc.ICECandidateInit `json:"candidate"`
	To        string                  `json:"to"`
	From      string                  `json:"from,omitempty"`
}

type EndCall struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Connect is sent by the server once the connection is registered.
type Connect struct {
	ID         string             `json:"id"`
	Username   string             `json:"username"`
	ICEServers []webrtc.ICEServer `json:"iceServers,omitempty"`
}

type ConnectError struct {
	Message string `json:"message"`
}

func (o *Offer) Validate() error {
	if o.To == "" {
		return fmt.Errorf("%w: offer without recipient", ErrInvalidPayload)
	}
	return validateDescription(o.Offer, webrtc.SDPTypeOffer)
}

func (a *Answer) Validate() error {
	if a.To == "" {
		return fmt.Errorf("%w: answer without recipient", ErrInvalidPayload)
	}
	return validateDescription(a.Answer, webrtc.SDPTypeAnswer)
}

func (c *ICECandidate) Validate() error {
	if c.To == "" {
		return fmt.Errorf("%w: candidate without recipient", ErrInvalidPayload)
	}
	if c.Candidate.Candidate == "" {
		return fmt.Errorf("%w: empty candidate", ErrInvalidPayload)
	}
	return nil
}

func (e *EndCall) Validate() error {
	if e.To == "" {
		return fmt.Errorf("%w: end-call without recipient", ErrInvalidPayload)
	}
	return nil
}

func validateDescription(desc webrtc.SessionDescription, expected webrtc.SDPType) error {
	if desc.Type != expected {
		return fmt.Errorf("%w: expected %s description, got %s", ErrInvalidPayload, expected, desc.Type)
	}
	if desc.SDP == "" {
		return fmt.Errorf("%w: empty sdp", ErrInvalidPayload)
	}
	return nil
}

func DecodeOffer(raw json.RawMessage) (*Offer, error) {
	var o Offer
	if err := decode(raw, &o); err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

func DecodeAnswer(raw json.RawMessage) (*Answer, error) {
	var a Answer
	if err := decode(raw, &a); err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

func DecodeICECandidate(raw json.RawMessage) (*ICECandidate, error) {
	var c ICECandidate
	if err := decode(raw, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func DecodeEndCall(raw json.RawMessage) (*EndCall, error) {
	var e EndCall
	if err := decode(raw, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

func DecodeUserList(raw json.RawMessage) ([]User, error) {
	var users []User
	if err := decode(raw, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == "" {
			return nil, fmt.Errorf("%w: user without id", ErrInvalidPayload)
		}
	}
	return users, nil
}

// DecodeUserDisconnected decodes the bare peer id carried by user-disconnected.
func DecodeUserDisconnected(raw json.RawMessage) (string, error) {
	var id string
	if err := decode(raw, &id); err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: empty peer id", ErrInvalidPayload)
	}
	return id, nil
}

func DecodeConnect(raw json.RawMessage) (*Connect, error) {
	var c Connect
	if len(raw) == 0 {
		return &c, nil
	}
	if err := decode(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func DecodeConnectError(raw json.RawMessage) (*ConnectError, error) {
	var c ConnectError
	if len(raw) == 0 {
		return &c, nil
	}
	if err := decode(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that raw is a well formed payload for event.
func Validate(event Event, raw json.RawMessage) error {
	var err error
	switch event {
	case EventOffer:
		_, err = DecodeOffer(raw)
	case EventAnswer:
		_, err = DecodeAnswer(raw)
	case EventICECandidate:
		_, err = DecodeICECandidate(raw)
	case EventEndCall:
		_, err = DecodeEndCall(raw)
	case EventUserList:
		_, err = DecodeUserList(raw)
	case EventUserDisconnected:
		_, err = DecodeUserDisconnected(raw)
	case EventConnect:
		_, err = DecodeConnect(raw)
	case EventConnectError:
		_, err = DecodeConnectError(raw)
	case EventDisconnect:
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	return err
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing params", ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
