// Package printer renders Linear records as colored text, tables or JSON.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	linear "github.com/eugener/linear/internal"
)

// Format selects the output representation.
type Format string

// Supported formats.
const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("printer: unknown format %q", s)
	}
}

// Printer writes records to w in one format.
type Printer struct {
	w      io.Writer
	format Format
	st     styles
}

// New returns a Printer. With color false all output is plain text.
func New(w io.Writer, format Format, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{w: w, format: format, st: newStyles(r)}
}

// Issue prints a single issue with description, sub-issues, attachments and
// comments.
func (p *Printer) Issue(issue *linear.Issue) error {
	switch p.format {
	case FormatJSON:
		return p.json(issue)
	case FormatTable:
		return p.issueTable(issue)
	default:
		_, err := io.WriteString(p.w, p.issueText(issue))
		return err
	}
}

// Issues prints a list of issues; sub-issues are listed under their parent.
func (p *Printer) Issues(issues []linear.Issue) error {
	switch p.format {
	case FormatJSON:
		return p.json(issues)
	case FormatTable:
		return p.issuesTable(issues)
	default:
		var b strings.Builder
		for _, i := range issues {
			b.WriteString(p.titleLine(&i))
			for _, c := range sortedChildren(i.Children) {
				b.WriteString("  " + p.titleLine(&c))
			}
		}
		_, err := io.WriteString(p.w, b.String())
		return err
	}
}

// Me prints the viewer's issues including descriptions.
func (p *Printer) Me(me *linear.User, issues []linear.Issue) error {
	switch p.format {
	case FormatJSON:
		return p.json(issues)
	case FormatTable:
		return p.issuesTable(issues)
	default:
		var b strings.Builder
		b.WriteString(p.st.header.Render(fmt.Sprintf("%s <%s>", me.Name, me.Email)) + "\n\n")
		for _, i := range issues {
			b.WriteString(p.titleLine(&i))
			b.WriteString(p.description(i.Description))
			for _, c := range sortedChildren(i.Children) {
				b.WriteString("  " + p.titleLine(&c))
				b.WriteString(p.description(c.Description))
			}
		}
		_, err := io.WriteString(p.w, b.String())
		return err
	}
}

// Teams prints each team followed by its issues.
func (p *Printer) Teams(teams []linear.Team) error {
	if p.format == FormatJSON {
		return p.json(teams)
	}
	for n, t := range teams {
		if n > 0 {
			fmt.Fprintln(p.w)
		}
		fmt.Fprintln(p.w, p.st.header.Render(t.Name))
		if len(t.Issues) == 0 {
			fmt.Fprintln(p.w, "  No issues")
			continue
		}
		if err := p.Issues(t.Issues); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) issueText(issue *linear.Issue) string {
	var b strings.Builder
	b.WriteString(p.titleLine(issue))
	b.WriteString("<" + p.st.url.Render(issue.URL) + ">\n")
	b.WriteString(p.description(issue.Description))

	if len(issue.Children) > 0 {
		b.WriteString("\nSub-issues:\n")
		for _, c := range sortedChildren(issue.Children) {
			b.WriteString("  " + p.titleLine(&c))
		}
	}

	if len(issue.Attachments) > 0 {
		b.WriteString("\nAttachments:\n")
		for _, a := range issue.Attachments {
			fmt.Fprintf(&b, "  %s <%s>", a.Title, p.st.url.Render(a.URL))
			if a.SourceType != "" {
				fmt.Fprintf(&b, " (%s)", a.SourceType)
			}
			b.WriteString("\n")
		}
	}

	if len(issue.Comments) > 0 {
		b.WriteString("\n")
		for _, c := range commentThreads(issue.Comments) {
			b.WriteString(p.st.author.Render("@"+author(c.Comment)+dateSuffix(c.CreatedAt)) + "\n")
			b.WriteString(indent(c.Body, 2) + "\n")
			for _, r := range c.Replies {
				b.WriteString("    " + p.st.replyAuthor.Render("@"+author(r)+dateSuffix(r.CreatedAt)) + "\n")
				b.WriteString(indent(r.Body, 6) + "\n")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (p *Printer) titleLine(issue *linear.Issue) string {
	line := fmt.Sprintf("%s - %s (%s)",
		p.st.identifier.Render(issue.Identifier),
		issue.Title,
		p.st.state(issue.State.Type).Render(issue.State.Name),
	)
	if issue.Assignee != nil {
		line += " (" + p.st.assignee.Render(issue.Assignee.Name) + ")"
	}
	return line + "\n"
}

func (p *Printer) description(desc string) string {
	desc = strings.TrimSpace(strings.ReplaceAll(desc, "\n\\", "\n"))
	if desc == "" {
		return ""
	}
	return "\n" + indent(desc, 2) + "\n\n"
}

func (p *Printer) issuesTable(issues []linear.Issue) error {
	rows := make([][]string, 0, len(issues))
	for _, i := range issues {
		rows = append(rows, []string{i.Identifier, i.Title, i.State.Name, assigneeName(i.Assignee)})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.st.border).
		Headers("ID", "Title", "State", "Assignee").
		Rows(rows...)
	_, err := fmt.Fprintln(p.w, t.String())
	return err
}

func (p *Printer) issueTable(issue *linear.Issue) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.st.border).
		Rows(
			[]string{"ID", issue.Identifier},
			[]string{"Title", issue.Title},
			[]string{"State", issue.State.Name},
			[]string{"Assignee", assigneeName(issue.Assignee)},
			[]string{"Description", strings.TrimSpace(issue.Description)},
		)
	_, err := fmt.Fprintln(p.w, t.String())
	return err
}

// thread is a top-level comment and its replies, oldest first.
type thread struct {
	linear.Comment
	Replies []linear.Comment
}

// commentThreads sorts comments by creation time and nests replies under
// their parent. Replies whose parent is missing are shown as top-level.
func commentThreads(comments []linear.Comment) []thread {
	sorted := slices.Clone(comments)
	slices.SortStableFunc(sorted, func(a, b linear.Comment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	ids := make(map[string]bool, len(sorted))
	for _, c := range sorted {
		ids[c.ID] = true
	}

	var threads []thread
	pos := make(map[string]int)
	for _, c := range sorted {
		if c.ParentID == "" || !ids[c.ParentID] {
			pos[c.ID] = len(threads)
			threads = append(threads, thread{Comment: c})
		}
	}
	for _, c := range sorted {
		if c.ParentID == "" || !ids[c.ParentID] {
			continue
		}
		if n, ok := pos[c.ParentID]; ok {
			threads[n].Replies = append(threads[n].Replies, c)
		}
	}
	return threads
}

func sortedChildren(children []linear.Issue) []linear.Issue {
	out := slices.Clone(children)
	slices.SortStableFunc(out, func(a, b linear.Issue) int {
		return strings.Compare(a.State.Name, b.State.Name)
	})
	return out
}

func assigneeName(u *linear.User) string {
	if u == nil {
		return "Unassigned"
	}
	return u.Name
}

func author(c linear.Comment) string {
	if c.UserName == "" {
		return "unknown"
	}
	return c.UserName
}

func dateSuffix(t time.Time) string {
	return " (" + t.Format("2006-01-02 - 15:04:05") + ")"
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}
