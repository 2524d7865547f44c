// Package linear defines domain records and interfaces for the Linear CLI.
// This package has no project imports -- it is the dependency root.
package linear

import (
	"context"
	"slices"
	"time"
)

// --- Transport ---

// Request is a single GraphQL operation. Values are bound through Variables,
// never spliced into Query, so the cache key stays stable across ids.
type Request struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Transport performs the live network exchange for a Request and returns the
// raw response body.
type Transport interface {
	Do(ctx context.Context, req Request) ([]byte, error)
}

// --- Records ---

// State types reported by Linear workflow states.
const (
	StateTriage    = "triage"
	StateBacklog   = "backlog"
	StateUnstarted = "unstarted"
	StateStarted   = "started"
	StateCompleted = "completed"
	StateCanceled  = "canceled"
)

// StateTypes lists every workflow state type accepted by --state filters.
var StateTypes = []string{
	StateBacklog,
	StateCompleted,
	StateStarted,
	StateUnstarted,
	StateCanceled,
	StateTriage,
}

// OpenStateTypes are the states shown by default for a user's own issues.
var OpenStateTypes = []string{StateBacklog, StateStarted, StateUnstarted}

// WorkflowState is the state an issue is in.
type WorkflowState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Comment is a comment on an issue. ParentID is set for replies.
type Comment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UserName  string    `json:"user_name,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"`
}

// Attachment is an external resource linked to an issue (a pull request,
// a Slack thread).
type Attachment struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	SourceType string `json:"source_type"`
}

// Issue is a Linear issue.
type Issue struct {
	ID          string        `json:"id"`
	Identifier  string        `json:"identifier"` // human readable, e.g. ENG-123
	Title       string        `json:"title"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
	URL         string        `json:"url"`
	State       WorkflowState `json:"state"`
	Assignee    *User         `json:"assignee,omitempty"`
	Children    []Issue       `json:"children"`
	Comments    []Comment     `json:"comments"`
	Attachments []Attachment  `json:"attachments"`
}

// Team is a Linear team and, when requested, its issues.
type Team struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Issues []Issue `json:"issues,omitempty"`
}

// User is a Linear user. Teams and AssignedIssues are only populated for the viewer.
type User struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Teams          []Team  `json:"teams,omitempty"`
	AssignedIssues []Issue `json:"assigned_issues,omitempty"`
}

// HasState reports whether the issue's state type is one of types.
func (i *Issue) HasState(types []string) bool {
	return slices.Contains(types, i.State.Type)
}

// --- Context keys ---

type contextKey int

const ctxKeyRequestID contextKey = 0

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// ContextWithRequestID returns a context carrying the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}
