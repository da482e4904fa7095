// Package realtime – events
//
// Wire shapes of the WebSocket protocol. Every frame is one JSON object with
// a "type" field. Inbound frames are decoded into the unexported event
// structs below; outbound frames use the exported *Out types.
package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

// Event types carried in the "type" field of every frame.
const (
	EventJoin          = "join"
	EventChatMessage   = "chat_message"
	EventTeamUpdate    = "team_update"
	EventProjectUpdate = "project_update"
	EventCollaboration = "collaboration"
)

// FlexID is an entity id that clients may send either as a JSON number or
// as a numeric string. The original token is kept so it can be echoed back
// unchanged in broadcasts.
type FlexID struct {
	ID  int64
	raw json.RawMessage
}

// UnmarshalJSON accepts 7 and "7". Zero and the empty string decode to the
// zero id, which callers treat as absent. Anything else is rejected.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	s := string(b)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			s = "0"
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return fmt.Errorf("invalid id %s", string(b))
	}
	f.ID = id
	f.raw = append(f.raw[:0], b...)
	return nil
}

// MarshalJSON echoes the token received from the client, or the number when
// the id was built in code.
func (f FlexID) MarshalJSON() ([]byte, error) {
	if len(f.raw) > 0 {
		return f.raw, nil
	}
	return []byte(strconv.FormatInt(f.ID, 10)), nil
}

// value returns the id as an optional field; the zero id means none.
func (f *FlexID) value() *int64 {
	if f == nil || f.ID == 0 {
		return nil
	}
	id := f.ID
	return &id
}

// envelope reads only the type of an inbound frame.
type envelope struct {
	Type string `json:"type"`
}

// Inbound event payloads. Binding tags are checked by Handler.decode.

type joinEvent struct {
	Room      string  `json:"room"      binding:"required"`
	UserID    *FlexID `json:"userId"`
	ProjectID *FlexID `json:"projectId"`
}

type chatEvent struct {
	Message  string         `json:"message"  binding:"required"`
	Metadata map[string]any `json:"metadata"`
}

type teamUpdateEvent struct {
	MemberID *FlexID        `json:"memberId" binding:"required"`
	Updates  map[string]any `json:"updates"  binding:"required"`
}

type projectUpdateEvent struct {
	ProjectID *FlexID        `json:"projectId" binding:"required"`
	Updates   map[string]any `json:"updates"   binding:"required"`
}

type collaborationEvent struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// ChatMessageOut announces a persisted chat message to a room.
type ChatMessageOut struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message"`
}

// TeamUpdateOut relays an applied team member update.
type TeamUpdateOut struct {
	Type     string         `json:"type"`
	MemberID FlexID         `json:"memberId"`
	Updates  map[string]any `json:"updates"`
}

// ProjectUpdateOut relays an applied project update.
type ProjectUpdateOut struct {
	Type      string         `json:"type"`
	ProjectID FlexID         `json:"projectId"`
	Updates   map[string]any `json:"updates"`
}

// CollaborationOut relays an ephemeral collaboration event. Data and UserID
// are omitted when the sender supplied none.
type CollaborationOut struct {
	Type   string          `json:"type"`
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
	UserID *int64          `json:"userId,omitempty"`
}
