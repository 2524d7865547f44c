package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	linear "github.com/eugener/linear/internal"
	"github.com/eugener/linear/internal/printer"
)

// outputFlags are the --json/--table switches shared by listing commands.
type outputFlags struct {
	json  bool
	table bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "print JSON")
	cmd.Flags().BoolVar(&o.table, "table", false, "print a table")
	cmd.MarkFlagsMutuallyExclusive("json", "table")
}

func (o outputFlags) format(def string) (printer.Format, error) {
	switch {
	case o.json:
		return printer.FormatJSON, nil
	case o.table:
		return printer.FormatTable, nil
	default:
		return printer.ParseFormat(def)
	}
}

func addStateFlag(cmd *cobra.Command, state *string, usage string) {
	cmd.Flags().StringVar(state, "state", "", usage)
	_ = cmd.RegisterFlagCompletionFunc("state", cobra.FixedCompletions(linear.StateTypes, cobra.ShellCompDirectiveNoFileComp))
}

func (s *session) printer(o outputFlags) (*printer.Printer, error) {
	f, err := o.format(s.cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	return printer.New(s.stdout, f, s.colorEnabled()), nil
}

func newMeCmd(s *session) *cobra.Command {
	var (
		out   outputFlags
		state string
	)
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show your open issues with descriptions and sub-issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			states, err := resolveStates(state, linear.OpenStateTypes)
			if err != nil {
				return err
			}
			svc, err := s.service()
			if err != nil {
				return err
			}
			me, issues, err := svc.AssignedIssues(cmd.Context(), states)
			if err != nil {
				return err
			}
			p, err := s.printer(out)
			if err != nil {
				return err
			}
			return p.Me(me, issues)
		},
	}
	out.register(cmd)
	addStateFlag(cmd, &state, "only issues in this state type (default backlog, started, unstarted)")
	return cmd
}

// assignedListCmd builds "ls" and "issue list", which are the same listing.
func assignedListCmd(s *session, use, short string) *cobra.Command {
	var (
		out   outputFlags
		state string
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			states, err := resolveStates(state, linear.OpenStateTypes)
			if err != nil {
				return err
			}
			svc, err := s.service()
			if err != nil {
				return err
			}
			_, issues, err := svc.AssignedIssues(cmd.Context(), states)
			if err != nil {
				return err
			}
			p, err := s.printer(out)
			if err != nil {
				return err
			}
			return p.Issues(issues)
		},
	}
	out.register(cmd)
	addStateFlag(cmd, &state, "only issues in this state type (default backlog, started, unstarted)")
	return cmd
}

func newLsCmd(s *session) *cobra.Command {
	return assignedListCmd(s, "ls", "List issues assigned to you")
}

func newIssueCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "List and view issues",
	}
	cmd.AddCommand(
		assignedListCmd(s, "list", "List issues assigned to you"),
		newIssueViewCmd(s),
	)
	return cmd
}

func newIssueViewCmd(s *session) *cobra.Command {
	var (
		out outputFlags
		web bool
	)
	cmd := &cobra.Command{
		Use:   "view <ID|URL>",
		Short: "Show an issue with comments, or open it in the browser",
		Example: `  linear issue view ENG-123
  linear issue view https://linear.app/acme/issue/ENG-123/fix-login --web`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			ids, err := s.completeIdentifiers(cmd, toComplete)
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ParseIssueRef(args[0])
			if err != nil {
				return err
			}
			svc, err := s.service()
			if err != nil {
				return err
			}
			issue, err := svc.Issue(cmd.Context(), id)
			if err != nil {
				return err
			}
			if web {
				if err := s.openURL(issue.URL); err != nil {
					return fmt.Errorf("open browser: %w", err)
				}
				return nil
			}
			p, err := s.printer(out)
			if err != nil {
				return err
			}
			return p.Issue(issue)
		},
	}
	out.register(cmd)
	cmd.Flags().BoolVar(&web, "web", false, "open the issue in the browser")
	return cmd
}

func newTeamCmd(s *session) *cobra.Command {
	var (
		out   outputFlags
		state string
	)
	cmd := &cobra.Command{
		Use:   "team",
		Short: "List the issues of every team you belong to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			states, err := resolveStates(state, linear.StateTypes)
			if err != nil {
				return err
			}
			svc, err := s.service()
			if err != nil {
				return err
			}
			teams, err := svc.TeamIssues(cmd.Context(), states)
			if err != nil {
				return err
			}
			p, err := s.printer(out)
			if err != nil {
				return err
			}
			return p.Teams(teams)
		},
	}
	out.register(cmd)
	addStateFlag(cmd, &state, "only issues in this state type (default all)")
	return cmd
}

func (s *session) completeIdentifiers(cmd *cobra.Command, prefix string) ([]string, error) {
	ctx := cmd.Context()
	if err := s.setup(ctx); err != nil {
		return nil, err
	}
	svc, err := s.service()
	if err != nil {
		return nil, err
	}
	return svc.AssignedIdentifiers(ctx, prefix)
}
