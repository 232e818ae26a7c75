package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"animap/internal/media"
	"animap/internal/store"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached row counts per media type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(runCtx context.Context, cache store.Store) error {
				stats, err := cache.Stats(runCtx)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, stats)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Backend: %s\nPath:    %s\n", stats.Backend, stats.Path)

				types := make([]string, 0, len(stats.ByType))
				for t := range stats.ByType {
					types = append(types, string(t))
				}
				sort.Strings(types)
				rows := make([][]string, 0, len(types)+1)
				for _, t := range types {
					c := stats.ByType[media.Type(t)]
					rows = append(rows, countsRow(t, c))
				}
				rows = append(rows, countsRow("Total", stats.Total()))
				fmt.Fprintln(out, renderTable([]string{"Type", "Records", "Content", "Sources"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight}))
				return nil
			})
		},
	}
}

func countsRow(label string, c store.Counts) []string {
	return []string{label, strconv.Itoa(c.Records), strconv.Itoa(c.Content), strconv.Itoa(c.Sources)}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached record, content list and source bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear the cache without --yes")
			}
			return ctx.withStore(cmd, func(runCtx context.Context, cache store.Store) error {
				if err := cache.Clear(runCtx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the cache")
	return cmd
}
