package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"animap/internal/media"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Resolve a title against the catalog and every provider",
		Args:  cobra.MinimumNArgs(1),
	}
	mediaType := addTypeFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return ctx.withService(cmd, func(runCtx context.Context, rt *runtime) error {
			records, err := rt.service.Search(runCtx, query, mediaType())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No matches for %q\n", query)
				return nil
			}
			fmt.Fprintln(out, renderTable(recordHeaders, recordRows(records), recordAligns))
			return nil
		})
	}
	return cmd
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <id>",
		Short: "Show the resolved identity for a catalog id",
		Args:  cobra.ExactArgs(1),
	}
	mediaType := addTypeFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return ctx.withService(cmd, func(runCtx context.Context, rt *runtime) error {
			rec, err := rt.service.Info(runCtx, id, mediaType())
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("catalog has no entry with id %d", id)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, rec)
			}
			printRecord(cmd, rec)
			return nil
		})
	}
	return cmd
}

func printRecord(cmd *cobra.Command, rec *media.ResolvedRecord) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	snap := rec.Snapshot
	for _, line := range renderSectionHeader(fmt.Sprintf("%s (%d)", snap.PreferredTitle(), rec.CanonicalID), colorize) {
		fmt.Fprintln(out, line)
	}
	fields := [][2]string{
		{"Romaji", snap.Title.Romaji},
		{"English", snap.Title.English},
		{"Native", snap.Title.Native},
		{"Synonyms", strings.Join(snap.Synonyms, ", ")},
		{"Format", snap.Format},
		{"Status", snap.Status},
	}
	if snap.SecondaryID > 0 {
		fields = append(fields, [2]string{"Secondary ID", fmt.Sprint(snap.SecondaryID)})
	}
	if snap.Season != "" {
		fields = append(fields, [2]string{"Season", fmt.Sprintf("%s %d", snap.Season, snap.SeasonYear)})
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintf(out, "  %-13s %s\n", f[0]+":", f[1])
	}
	fmt.Fprintln(out)
	if len(rec.Connectors) == 0 {
		fmt.Fprintln(out, dim("No provider carries this title", colorize))
		return
	}
	rows := make([][]string, 0, len(rec.Connectors))
	for _, conn := range rec.Connectors {
		rows = append(rows, []string{conn.Locator, formatScore(conn.Similarity.Score), yesNo(conn.Similarity.IsMatch)})
	}
	fmt.Fprintln(out, renderTable([]string{"Locator", "Score", "Match"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
}

func newSeasonalCommand(ctx *commandContext) *cobra.Command {
	var page, perPage int
	cmd := &cobra.Command{
		Use:   "seasonal",
		Short: "Show trending, seasonal, popular and top titles",
		Args:  cobra.NoArgs,
	}
	mediaType := addTypeFlag(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	cmd.Flags().IntVar(&perPage, "per-page", 10, "Results per list")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return ctx.withService(cmd, func(runCtx context.Context, rt *runtime) error {
			seasonal, err := rt.service.Seasonal(runCtx, mediaType(), page, perPage)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, seasonal)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			sections := []struct {
				title    string
				entities []media.CanonicalEntity
			}{
				{"Trending", seasonal.Trending},
				{"This season", seasonal.Season},
				{"Next season", seasonal.NextSeason},
				{"Popular", seasonal.Popular},
				{"Top rated", seasonal.Top},
			}
			for _, section := range sections {
				if len(section.entities) == 0 {
					continue
				}
				for _, line := range renderSectionHeader(section.title, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderTable(entityHeaders, entityRows(section.entities), entityAligns))
				fmt.Fprintln(out)
			}
			return nil
		})
	}
	return cmd
}
