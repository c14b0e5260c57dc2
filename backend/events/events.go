// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package events defines the frames exchanged with messaging clients.
// Every frame is an envelope {"type": ..., "payload": ...}.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/efchatnet/efmsg/backend/models"
)

type Type string

// Outbound
const (
	TypeThreadSnapshot         Type = "ThreadSnapshot"
	TypeGroupMembershipChanged Type = "GroupMembershipChanged"
	TypeMessageDelivered       Type = "MessageDelivered"
	TypeMessageNotification    Type = "MessageNotification"
	TypeError                  Type = "Error"
)

// Inbound
const (
	TypeSendMessage Type = "SendMessage"
)

// Event is a server-to-client frame.
type Event interface {
	Type() Type
}

// ThreadSnapshot is sent once to a connection that joins a conversation.
type ThreadSnapshot struct {
	Messages []models.Message `json:"messages"`
}

// GroupMembershipChanged is broadcast to a group when a connection joins or leaves it.
type GroupMembershipChanged struct {
	Group   string              `json:"group"`
	Members []models.Connection `json:"members"`
}

// MessageDelivered carries a new message to every connection in its group.
type MessageDelivered struct {
	Message models.Message `json:"message"`
}

// MessageNotification tells a recipient's other connections that a message
// arrived for a thread they are not viewing.
type MessageNotification struct {
	Username string `json:"username"`
	KnownAs  string `json:"knownAs"`
}

// Error reports a failed operation to the connection that requested it.
type Error struct {
	Operation string `json:"operation"`
	Message   string `json:"message"`
}

func (ThreadSnapshot) Type() Type         { return TypeThreadSnapshot }
func (GroupMembershipChanged) Type() Type { return TypeGroupMembershipChanged }
func (MessageDelivered) Type() Type       { return TypeMessageDelivered }
func (MessageNotification) Type() Type    { return TypeMessageNotification }
func (Error) Type() Type                  { return TypeError }

// SendMessage is the payload of an inbound SendMessage frame.
type SendMessage struct {
	RecipientUsername string `json:"recipientUsername"`
	Content           string `json:"content"`
}

// Envelope is the wire form of every frame.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps evt in an envelope.
func Encode(evt Event) ([]byte, error) {
	if ts, ok := evt.(ThreadSnapshot); ok && ts.Messages == nil {
		ts.Messages = []models.Message{}
		evt = ts
	}
	if gm, ok := evt.(GroupMembershipChanged); ok && gm.Members == nil {
		gm.Members = []models.Connection{}
		evt = gm
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", evt.Type(), err)
	}
	return json.Marshal(Envelope{Type: evt.Type(), Payload: payload})
}

// Decode parses an outbound frame back into its event. Clients and tests use it.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}
	var evt Event
	switch env.Type {
	case TypeThreadSnapshot:
		var e ThreadSnapshot
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, err
		}
		evt = e
	case TypeGroupMembershipChanged:
		var e GroupMembershipChanged
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, err
		}
		evt = e
	case TypeMessageDelivered:
		var e MessageDelivered
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, err
		}
		evt = e
	case TypeMessageNotification:
		var e MessageNotification
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, err
		}
		evt = e
	case TypeError:
		var e Error
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, err
		}
		evt = e
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	return evt, nil
}

// DecodeInbound splits a client frame into its type and raw payload.
func DecodeInbound(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("invalid frame: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("invalid frame: missing type")
	}
	return env, nil
}
