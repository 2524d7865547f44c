// Package app implements the Linear operations behind the CLI commands on top
// of the cached query Resolver.
package app

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	linear "github.com/eugener/linear/internal"
)

// DefaultConcurrency bounds parallel issue and team fetches.
const DefaultConcurrency = 4

// Service runs Linear operations through a Resolver.
type Service struct {
	resolver    *Resolver
	concurrency int
}

// NewService returns a Service. concurrency <= 0 means DefaultConcurrency.
func NewService(resolver *Resolver, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{resolver: resolver, concurrency: concurrency}
}

// Me returns the viewer with team memberships and assigned issues.
func (s *Service) Me(ctx context.Context) (*linear.User, error) {
	payload, err := s.resolver.Resolve(ctx, MeRequest())
	if err != nil {
		return nil, err
	}
	return decodeViewer(payload)
}

// Issue returns a single issue by id or identifier.
func (s *Service) Issue(ctx context.Context, id string) (*linear.Issue, error) {
	payload, err := s.resolver.Resolve(ctx, IssueRequest(id))
	if err != nil {
		return nil, err
	}
	return decodeIssue(payload)
}

// Team returns a team with its issues.
func (s *Service) Team(ctx context.Context, id string) (*linear.Team, error) {
	payload, err := s.resolver.Resolve(ctx, TeamRequest(id))
	if err != nil {
		return nil, err
	}
	return decodeTeam(payload)
}

// AssignedIssues returns the viewer and the full details (sub-issues,
// comments) of their assigned issues whose state type is in states, sorted by
// state name.
func (s *Service) AssignedIssues(ctx context.Context, states []string) (*linear.User, []linear.Issue, error) {
	me, err := s.Me(ctx)
	if err != nil {
		return nil, nil, err
	}

	var ids []string
	for _, i := range me.AssignedIssues {
		if i.HasState(states) {
			ids = append(ids, i.ID)
		}
	}

	issues := make([]linear.Issue, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for n, id := range ids {
		g.Go(func() error {
			issue, err := s.Issue(gctx, id)
			if err != nil {
				return err
			}
			issues[n] = *issue
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sortByStateName(issues)
	return me, issues, nil
}

// TeamIssues returns every team of the viewer with its issues filtered to
// states and sorted by state name. Teams keep membership order.
func (s *Service) TeamIssues(ctx context.Context, states []string) ([]linear.Team, error) {
	me, err := s.Me(ctx)
	if err != nil {
		return nil, err
	}
	if len(me.Teams) == 0 {
		return nil, linear.ErrNoTeams
	}

	teams := make([]linear.Team, len(me.Teams))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for n, member := range me.Teams {
		g.Go(func() error {
			team, err := s.Team(gctx, member.ID)
			if err != nil {
				return err
			}
			team.Issues = slices.DeleteFunc(team.Issues, func(i linear.Issue) bool {
				return !i.HasState(states)
			})
			sortByStateName(team.Issues)
			teams[n] = *team
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return teams, nil
}

// AssignedIdentifiers returns identifiers of the viewer's open issues that
// start with prefix, for shell completion.
func (s *Service) AssignedIdentifiers(ctx context.Context, prefix string) ([]string, error) {
	me, err := s.Me(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, i := range me.AssignedIssues {
		if i.HasState(linear.OpenStateTypes) && strings.HasPrefix(i.Identifier, prefix) {
			out = append(out, i.Identifier)
		}
	}
	return out, nil
}

func sortByStateName(issues []linear.Issue) {
	slices.SortStableFunc(issues, func(a, b linear.Issue) int {
		return cmp.Compare(a.State.Name, b.State.Name)
	})
}
