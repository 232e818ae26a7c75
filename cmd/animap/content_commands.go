package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"animap/internal/language"
	"animap/internal/media"
)

// newContentCommand builds "episodes" (anime) or "chapters" (manga).
func newContentCommand(ctx *commandContext, noun string) *cobra.Command {
	mediaType := media.Anime
	if noun == "chapters" {
		mediaType = media.Manga
	}
	cmd := &cobra.Command{
		Use:   noun + " <id>",
		Short: fmt.Sprintf("List %s from every provider carrying a catalog id", noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(cmd, func(runCtx context.Context, rt *runtime) error {
				bundles, err := rt.service.Content(runCtx, id, mediaType)
				if err != nil {
					return err
				}
				if bundles == nil {
					return fmt.Errorf("catalog has no entry with id %d", id)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, bundles)
				}
				out := cmd.OutOrStdout()
				if len(bundles) == 0 {
					fmt.Fprintf(out, "No provider returned %s for %d\n", noun, id)
					return nil
				}
				colorize := shouldColorize(out)
				for _, bundle := range bundles {
					for _, line := range renderSectionHeader(fmt.Sprintf("%s (%d %s)", bundle.Provider, len(bundle.Content), noun), colorize) {
						fmt.Fprintln(out, line)
					}
					rows := make([][]string, 0, len(bundle.Content))
					for _, c := range bundle.Content {
						rows = append(rows, []string{formatNumber(c.Number), c.ID, c.Title})
					}
					fmt.Fprintln(out, renderTable([]string{"#", "ID", "Title"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
				}
				return nil
			})
		},
	}
	return cmd
}

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources <id> <provider> <episode-or-chapter-id>",
		Short: "Show video sources or page images for one episode or chapter",
		Args:  cobra.ExactArgs(3),
	}
	mediaType := addTypeFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return ctx.withService(cmd, func(runCtx context.Context, rt *runtime) error {
			bundle, err := rt.service.Sources(runCtx, id, args[1], args[2], mediaType())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, bundle)
			}
			out := cmd.OutOrStdout()
			if bundle.Empty() {
				fmt.Fprintln(out, "No sources available")
				return nil
			}
			rows := make([][]string, 0, len(bundle.Sources))
			for _, src := range bundle.Sources {
				rows = append(rows, []string{src.Quality, src.Kind, src.URL})
			}
			fmt.Fprintln(out, renderTable([]string{"Quality", "Kind", "URL"}, rows, nil))
			if len(bundle.Subtitles) > 0 {
				subs := make([][]string, 0, len(bundle.Subtitles))
				for _, sub := range bundle.Subtitles {
					subs = append(subs, []string{language.DisplayName(sub.Lang), sub.URL})
				}
				fmt.Fprintln(out, renderTable([]string{"Subtitle", "URL"}, subs, nil))
			}
			return nil
		})
	}
	return cmd
}
