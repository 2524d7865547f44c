package cli

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"

	linear "github.com/eugener/linear/internal"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*-[0-9]+$`)

// ParseIssueRef reduces an issue URL such as
// https://linear.app/acme/issue/ENG-123/fix-login to its identifier. Other
// input is returned as-is and may be an identifier or an issue id.
func ParseIssueRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty", linear.ErrInvalidIssueRef)
	}
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		if strings.ContainsAny(ref, "/ \t") {
			return "", fmt.Errorf("%w: %q", linear.ErrInvalidIssueRef, ref)
		}
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", linear.ErrInvalidIssueRef, err)
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	i := slices.Index(segs, "issue")
	if i < 0 || i+1 >= len(segs) || !identifierPattern.MatchString(segs[i+1]) {
		return "", fmt.Errorf("%w: no issue identifier in %q", linear.ErrInvalidIssueRef, ref)
	}
	return segs[i+1], nil
}

// resolveStates returns defaults when state is empty, and otherwise the
// single validated state type.
func resolveStates(state string, defaults []string) ([]string, error) {
	if state == "" {
		return defaults, nil
	}
	if !slices.Contains(linear.StateTypes, state) {
		return nil, fmt.Errorf("%w %q: want one of %s", linear.ErrInvalidState, state, strings.Join(linear.StateTypes, ", "))
	}
	return []string{state}, nil
}
