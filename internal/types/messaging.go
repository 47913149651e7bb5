// Package types holds the shared data model of the relay: chat destinations,
// outbound messages, delivery outcomes, and the context/secret helpers used
// across packages.
package types

import "fmt"

// TargetKind selects which OneBot endpoint and payload shape an outbound
// message uses.
type TargetKind string

const (
	// TargetGroup delivers to a group chat via /send_group_msg.
	TargetGroup TargetKind = "group"

	// TargetPrivate delivers to a single user via /send_private_msg.
	TargetPrivate TargetKind = "private"
)

// ParseTargetKind converts a configuration string into a TargetKind.
func ParseTargetKind(s string) (TargetKind, error) {
	switch TargetKind(s) {
	case TargetGroup:
		return TargetGroup, nil
	case TargetPrivate:
		return TargetPrivate, nil
	default:
		return "", fmt.Errorf("unknown target kind %q (want %q or %q)", s, TargetGroup, TargetPrivate)
	}
}

// OutboundMessage is one rendered notification bound for a chat destination.
// It is constructed per inbound request from the matched route plus the
// rendered body, handed to the OneBot client exactly once, and never stored.
type OutboundMessage struct {
	// To is the numeric chat identifier: a group ID for TargetGroup, a user
	// ID for TargetPrivate.
	To int64

	// Target decides the outbound endpoint and payload shape.
	Target TargetKind

	// Body is the rendered plain-text message.
	Body string
}

// DeliveryOutcome records the result of one send attempt against the OneBot
// API. It is logged and then discarded; delivery failures never surface to
// the webhook caller.
type DeliveryOutcome struct {
	// Success is true when the provider accepted the message.
	Success bool

	// MessageID is the provider-assigned message ID. Only meaningful when
	// Success is true; nil when the provider response carried none.
	MessageID *int32
}
