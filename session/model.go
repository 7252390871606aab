package session

import "time"

// Session is the metadata record behind one opaque token. Timestamps are
// Unix seconds; Token is set by the store on read and is never part of the
// encoded payload (the token is the Redis key, not data).
type Session struct {
	Token     string
	UserID    string
	UserAgent string
	IP        string
	CreatedAt int64
	IssuedAt  int64
	LastSeen  int64
}

// Created returns CreatedAt as a time.Time.
func (s *Session) Created() time.Time { return time.Unix(s.CreatedAt, 0) }

// Seen returns LastSeen as a time.Time.
func (s *Session) Seen() time.Time { return time.Unix(s.LastSeen, 0) }
