package model

import "time"

// PlayerAction is the last playback action recorded on a session. It is a
// command that happened, not an ongoing state: clients apply it once and
// track what they last applied.
type PlayerAction string

const (
	ActionPlay  PlayerAction = "play"
	ActionPause PlayerAction = "pause"
	ActionSeek  PlayerAction = "seek"
	ActionStop  PlayerAction = "stop"
	ActionNone  PlayerAction = ""
)

// Session is the shared document describing one watch party: the playlist
// plus the playback cursor everyone converges to.
type Session struct {
	Id             string       `json:"id" rethinkdb:"id,omitempty"`
	Name           string       `json:"name" rethinkdb:"name"`
	Videos         []string     `json:"videos" rethinkdb:"videos"`
	CurrentVideoId string       `json:"currentVideoId" rethinkdb:"currentVideoId"`
	Action         PlayerAction `json:"action" rethinkdb:"action"`
	Time           float64      `json:"time" rethinkdb:"time"`
	UserId         string       `json:"userId" rethinkdb:"userId"`
}

// SessionUpdate is a partial session write. Nil fields are absent and leave
// the stored value untouched; the store merges only what is present.
type SessionUpdate struct {
	Name           *string       `json:"name,omitempty"`
	Videos         []string      `json:"videos,omitempty"`
	CurrentVideoId *string       `json:"currentVideoId,omitempty"`
	Action         *PlayerAction `json:"action,omitempty"`
	Time           *float64      `json:"time,omitempty"`
	UserId         *string       `json:"userId,omitempty"`
}

// Apply merges the present fields of u onto s. No validation happens here:
// out-of-range times or a currentVideoId missing from videos are accepted
// as-is, the writer side is responsible for correctness.
func (s *Session) Apply(u SessionUpdate) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Videos != nil {
		s.Videos = u.Videos
	}
	if u.CurrentVideoId != nil {
		s.CurrentVideoId = *u.CurrentVideoId
	}
	if u.Action != nil {
		s.Action = *u.Action
	}
	if u.Time != nil {
		s.Time = *u.Time
	}
	if u.UserId != nil {
		s.UserId = *u.UserId
	}
}

// AsUpdate returns the session as a full-document update, so a pushed
// document can travel through the same merge path as a partial write.
func (s Session) AsUpdate() SessionUpdate {
	return SessionUpdate{
		Name:           &s.Name,
		Videos:         s.Videos,
		CurrentVideoId: &s.CurrentVideoId,
		Action:         &s.Action,
		Time:           &s.Time,
		UserId:         &s.UserId,
	}
}

// Fields returns the present fields as a map keyed by wire name, for stores
// that merge at the field level themselves.
func (u SessionUpdate) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Videos != nil {
		fields["videos"] = u.Videos
	}
	if u.CurrentVideoId != nil {
		fields["currentVideoId"] = *u.CurrentVideoId
	}
	if u.Action != nil {
		fields["action"] = *u.Action
	}
	if u.Time != nil {
		fields["time"] = *u.Time
	}
	if u.UserId != nil {
		fields["userId"] = *u.UserId
	}
	return fields
}

// User is the authenticated participant identity. Only the id matters to the
// sync protocol; the email rides along for display.
type User struct {
	Id    string `json:"id"`
	Email string `json:"email"`
}

// Command is the envelope clients send on the command topic.
type Command struct {
	Cmd       string  `json:"cmd"`
	SessionId string  `json:"sessionId"`
	Token     string  `json:"token"`
	Name      string  `json:"name"`
	VideoId   string  `json:"videoId"`
	Time      float64 `json:"time"`
}

type Broadcast struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
