package domain

import "errors"

type UserID string
type LogID string
type InsightID string

// ChatRole marks who authored a chat turn.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ErrNotFound is returned by stores when a document does not exist.
var ErrNotFound = errors.New("not found")

// ErrSafetyBlocked is returned by the LLM client when the model refused
// the request on content-safety grounds. Callers translate it into a
// fixed friendly reply instead of surfacing an error.
var ErrSafetyBlocked = errors.New("blocked by content safety")
