package messaging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/practice/console/pkg/wire"
)

var (
	ErrIllegalTransition = errors.New("illegal responder transition")
	ErrUnknownResponder  = errors.New("unknown responder")
	ErrProviderRequired  = errors.New("provider id is required to take over a conversation")
)

// Action names a responder transition.
type Action string

const (
	ActionTakeOver Action = "take_over"
	ActionDelegate Action = "delegate"
)

type Transition struct {
	From   Responder `json:"from"`
	To     Responder `json:"to"`
	Action Action    `json:"action"`
}

// transitions holds the only legal responder changes.
var transitions = map[Responder]map[Responder]Action{
	ResponderAssistant: {ResponderDoctor: ActionTakeOver},
	ResponderDoctor:    {ResponderAssistant: ActionDelegate},
}

// NextResponder checks that target is reachable from current.
func NextResponder(current, target Responder) (Transition, error) {
	if !current.Valid() {
		return Transition{}, fmt.Errorf("%w: %q", ErrUnknownResponder, current)
	}
	if !target.Valid() {
		return Transition{}, fmt.Errorf("%w: %q", ErrUnknownResponder, target)
	}
	action, ok := transitions[current][target]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s to %s", ErrIllegalTransition, current, target)
	}
	return Transition{From: current, To: target, Action: action}, nil
}

// HandoffMessages are the texts sent to the patient when none is given.
type HandoffMessages struct {
	TakeOver string
	Delegate string
}

// BuildSwitchRequest builds the switch-responder body. Taking over needs the
// provider id; delegating never sends one. The patient is always notified.
func BuildSwitchRequest(t Transition, providerID wire.FlexID, message string, defaults HandoffMessages) (*SwitchRequest, error) {
	req := &SwitchRequest{
		Responder:          t.To,
		SendHandoffMessage: true,
		HandoffMessage:     strings.TrimSpace(message),
	}
	switch t.Action {
	case ActionTakeOver:
		if providerID.IsZero() {
			return nil, ErrProviderRequired
		}
		req.ProviderID = providerID
		if req.HandoffMessage == "" {
			req.HandoffMessage = defaults.TakeOver
		}
	case ActionDelegate:
		if req.HandoffMessage == "" {
			req.HandoffMessage = defaults.Delegate
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrIllegalTransition, t.Action)
	}
	return req, nil
}
