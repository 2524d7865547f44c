package app

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	linear "github.com/eugener/linear/internal"
)

// Wire shapes mirror the GraphQL selection sets; connections nest under nodes.

type wireState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type wireUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	TeamMemberships *struct {
		Nodes []struct {
			Team wireTeam `json:"team"`
		} `json:"nodes"`
	} `json:"teamMemberships"`
	AssignedIssues *wireIssues `json:"assignedIssues"`
}

type wireIssues struct {
	Nodes []wireIssue `json:"nodes"`
}

type wireIssue struct {
	ID          string     `json:"id"`
	Identifier  string     `json:"identifier"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	URL         string     `json:"url"`
	State       wireState  `json:"state"`
	Assignee    *wireUser  `json:"assignee"`
	Children    wireIssues `json:"children"`
	Comments    struct {
		Nodes []wireComment `json:"nodes"`
	} `json:"comments"`
	Attachments struct {
		Nodes []wireAttachment `json:"nodes"`
	} `json:"attachments"`
}

type wireComment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	User      *struct {
		Name string `json:"name"`
	} `json:"user"`
	Parent *struct {
		ID string `json:"id"`
	} `json:"parent"`
}

type wireAttachment struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	SourceType string `json:"sourceType"`
}

type wireTeam struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Issues wireIssues `json:"issues"`
}

// decodeData unmarshals the value at data.<field> into dst. A missing or
// null value is linear.ErrNotFound.
func decodeData(payload []byte, field string, dst any) error {
	v := gjson.GetBytes(payload, "data."+field)
	if !v.Exists() || v.Type == gjson.Null {
		return fmt.Errorf("app: %s: %w", field, linear.ErrNotFound)
	}
	if err := json.Unmarshal([]byte(v.Raw), dst); err != nil {
		return fmt.Errorf("app: decode %s: %w", field, err)
	}
	return nil
}

func decodeViewer(payload []byte) (*linear.User, error) {
	var w wireUser
	if err := decodeData(payload, "viewer", &w); err != nil {
		return nil, err
	}
	u := w.toUser()
	return &u, nil
}

func decodeIssue(payload []byte) (*linear.Issue, error) {
	var w wireIssue
	if err := decodeData(payload, "issue", &w); err != nil {
		return nil, err
	}
	i := w.toIssue()
	return &i, nil
}

func decodeTeam(payload []byte) (*linear.Team, error) {
	var w wireTeam
	if err := decodeData(payload, "team", &w); err != nil {
		return nil, err
	}
	t := w.toTeam()
	return &t, nil
}

func (w wireUser) toUser() linear.User {
	u := linear.User{ID: w.ID, Name: w.Name, Email: w.Email}
	if w.TeamMemberships != nil {
		u.Teams = make([]linear.Team, 0, len(w.TeamMemberships.Nodes))
		for _, n := range w.TeamMemberships.Nodes {
			u.Teams = append(u.Teams, n.Team.toTeam())
		}
	}
	if w.AssignedIssues != nil {
		u.AssignedIssues = w.AssignedIssues.toIssues()
	}
	return u
}

func (w wireIssues) toIssues() []linear.Issue {
	out := make([]linear.Issue, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		out = append(out, n.toIssue())
	}
	return out
}

func (w wireIssue) toIssue() linear.Issue {
	i := linear.Issue{
		ID:          w.ID,
		Identifier:  w.Identifier,
		Title:       w.Title,
		Description: w.Description,
		CreatedAt:   w.CreatedAt,
		URL:         w.URL,
		State:       linear.WorkflowState(w.State),
		Children:    w.Children.toIssues(),
		Comments:    make([]linear.Comment, 0, len(w.Comments.Nodes)),
		Attachments: make([]linear.Attachment, 0, len(w.Attachments.Nodes)),
	}
	if w.Assignee != nil {
		a := w.Assignee.toUser()
		i.Assignee = &a
	}
	for _, c := range w.Comments.Nodes {
		comment := linear.Comment{ID: c.ID, Body: c.Body, CreatedAt: c.CreatedAt}
		if c.User != nil {
			comment.UserName = c.User.Name
		}
		if c.Parent != nil {
			comment.ParentID = c.Parent.ID
		}
		i.Comments = append(i.Comments, comment)
	}
	for _, a := range w.Attachments.Nodes {
		i.Attachments = append(i.Attachments, linear.Attachment(a))
	}
	return i
}

func (w wireTeam) toTeam() linear.Team {
	t := linear.Team{ID: w.ID, Name: w.Name}
	if len(w.Issues.Nodes) > 0 {
		t.Issues = w.Issues.toIssues()
	}
	return t
}
