package collab

import (
	"errors"
	"fmt"

	"github.com/fontogether/fontogether/store"
)

// Topic names one kind of message on a project channel.
type Topic string

// Project topics.
const (
	TopicGlyph    Topic = "glyph-outline-update"
	TopicDetail   Topic = "project-detail-update"
	TopicPresence Topic = "presence"
	TopicKick     Topic = "forced-removal"
	TopicAction   Topic = "glyph-action"
	TopicEditing  Topic = "editing-presence"
)

// Transport topics. They never reach the store.
const (
	TopicHello     Topic = "hello"
	TopicHeartbeat Topic = "heartbeat"
	// TopicResync tells a receiver that messages were dropped and local
	// state must be refetched.
	TopicResync Topic = "resync"
	TopicError  Topic = "error"
)

// Envelope is one message on a project channel. Exactly one payload field
// matching Topic is set. The JSON tags double as CBOR keys on the socket
// transport.
type Envelope struct {
	Topic     Topic         `json:"topic"`
	ProjectID int64         `json:"projectId"`
	Glyph     *GlyphUpdate  `json:"glyph,omitempty"`
	Detail    *DetailUpdate `json:"detail,omitempty"`
	Presence  *Presence     `json:"presence,omitempty"`
	Kick      *Kick         `json:"kick,omitempty"`
	Action    *GlyphAction  `json:"action,omitempty"`
	Editing   *Editing      `json:"editing,omitempty"`
	Hello     *Hello        `json:"hello,omitempty"`
	Error     *RemoteError  `json:"error,omitempty"`
}

// GlyphUpdate carries a glyph's complete outline. Receivers ignore updates
// carrying their own UserID.
type GlyphUpdate struct {
	ProjectID    int64   `json:"projectId"`
	GlyphName    string  `json:"glyphName"`
	OutlineData  string  `json:"outlineData"`
	AdvanceWidth float64 `json:"advanceWidth"`
	UserID       string  `json:"userId"`
	Nickname     string  `json:"nickname"`
	Unicodes     []int   `json:"unicodes"`
}

// DetailUpdate replaces one category of project details.
type DetailUpdate struct {
	UpdateType store.DetailKind `json:"updateType"`
	Data       string           `json:"data"`
	UserID     string           `json:"userId,omitempty"`
}

// Member is one live connection in a project.
type Member struct {
	ConnID   string `json:"uuid"`
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

// Presence lists every connection currently joined to the project.
type Presence struct {
	Members []Member `json:"members"`
}

// UserCount returns the number of distinct users in p.
func (p *Presence) UserCount() int {
	seen := make(map[string]bool, len(p.Members))
	for _, m := range p.Members {
		seen[m.UserID] = true
	}
	return len(seen)
}

// Kick removes a user from the project.
type Kick struct {
	KickedUserID string `json:"kickedUserId"`
	ByUserID     string `json:"byUserId,omitempty"`
}

// ActionKind is a structural change to a project's glyph set.
type ActionKind string

// Glyph actions.
const (
	ActionAdd     ActionKind = "ADD"
	ActionDelete  ActionKind = "DELETE"
	ActionRename  ActionKind = "RENAME"
	ActionReorder ActionKind = "REORDER"
	ActionMove    ActionKind = "MOVE"
)

// GlyphAction adds, removes, renames or reorders glyphs. After the hub
// applies a REORDER or MOVE, Order holds the complete resulting glyph order.
type GlyphAction struct {
	Kind      ActionKind `json:"action"`
	GlyphName string     `json:"glyphName,omitempty"`
	NewName   string     `json:"newName,omitempty"`
	GlyphUUID string     `json:"glyphUuid,omitempty"`
	Unicodes  []int      `json:"unicodes,omitempty"`
	Order     []string   `json:"glyphOrder,omitempty"`
	// Index is the target position of a MOVE.
	Index  int    `json:"index,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// EditState marks the start or end of a user's editing of a glyph.
type EditState string

// Edit states.
const (
	StartEdit EditState = "START_EDIT"
	StopEdit  EditState = "STOP_EDIT"
)

// Editing announces which glyph a user has open.
type Editing struct {
	State     EditState `json:"state"`
	GlyphName string    `json:"glyphName"`
	UserID    string    `json:"userId,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
}

// Hello is the first frame on a socket connection.
type Hello struct {
	ProjectID int64  `json:"projectId"`
	UserID    string `json:"userId"`
	Nickname  string `json:"nickname"`
}

// Error codes carried by RemoteError.
const (
	CodeForbidden = "forbidden"
	CodeNotFound  = "not_found"
	CodeNameTaken = "name_taken"
	CodeInvalid   = "invalid"
	CodeInternal  = "internal"
)

// RemoteError is a request rejected by the hub.
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Topic is the topic of the rejected request.
	Topic Topic `json:"topic,omitempty"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("collab: %s: %s", e.Code, e.Message)
}

// Is maps error codes onto the store sentinels so callers can test
// remote failures with errors.Is.
func (e *RemoteError) Is(target error) bool {
	switch e.Code {
	case CodeForbidden:
		return target == store.ErrForbidden
	case CodeNotFound:
		return target == store.ErrNotFound
	case CodeNameTaken:
		return target == store.ErrNameTaken
	}
	return false
}

func remoteError(topic Topic, err error) *RemoteError {
	var re *RemoteError
	if errors.As(err, &re) {
		return re
	}
	code := CodeInternal
	switch {
	case errors.Is(err, store.ErrForbidden):
		code = CodeForbidden
	case errors.Is(err, store.ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, store.ErrNameTaken):
		code = CodeNameTaken
	case errors.Is(err, errInvalid):
		code = CodeInvalid
	}
	return &RemoteError{Code: code, Message: err.Error(), Topic: topic}
}

var errInvalid = errors.New("invalid message")

// Validate checks that the payload matching e.Topic is present.
func (e *Envelope) Validate() error {
	var ok bool
	switch e.Topic {
	case TopicGlyph:
		ok = e.Glyph != nil && e.Glyph.GlyphName != ""
	case TopicDetail:
		ok = e.Detail != nil && e.Detail.UpdateType.Valid()
	case TopicPresence:
		ok = e.Presence != nil
	case TopicKick:
		ok = e.Kick != nil && e.Kick.KickedUserID != ""
	case TopicAction:
		ok = e.Action != nil
	case TopicEditing:
		ok = e.Editing != nil && (e.Editing.State == StartEdit || e.Editing.State == StopEdit)
	case TopicHello:
		ok = e.Hello != nil && e.Hello.UserID != ""
	case TopicError:
		ok = e.Error != nil
	case TopicHeartbeat, TopicResync:
		ok = true
	default:
		return fmt.Errorf("%w: unknown topic %q", errInvalid, e.Topic)
	}
	if !ok {
		return fmt.Errorf("%w: missing or malformed %s payload", errInvalid, e.Topic)
	}
	return nil
}
