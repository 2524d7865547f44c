package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eugener/linear/internal/cache"
)

func newCacheCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the query cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if s.cfg.Cache.Backend == "memory" {
					fmt.Fprintln(s.stdout, "(memory)")
					return nil
				}
				dir, err := s.cfg.Cache.Path()
				if err != nil {
					return err
				}
				fmt.Fprintln(s.stdout, dir)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every cached response",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := s.cacheStore()
				if err != nil {
					return err
				}
				p, ok := store.(cache.Purger)
				if !ok {
					return fmt.Errorf("cache backend %q cannot be cleared", s.cfg.Cache.Backend)
				}
				if err := p.Purge(cmd.Context()); err != nil {
					return err
				}
				s.log.Debug("cache cleared", "backend", s.cfg.Cache.Backend)
				fmt.Fprintln(s.stdout, "cache cleared")
				return nil
			},
		},
	)
	return cmd
}
