package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"animap/internal/aggregator"
	"animap/internal/logging"
	"animap/internal/metrics"
)

const crawlProgressEvery = 50

func newCrawlCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var listen string
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Resolve every catalog id into the cache",
		Args:  cobra.NoArgs,
	}
	mediaType := addTypeFlag(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many ids (0 crawls everything)")
	cmd.Flags().StringVar(&listen, "metrics-listen", "", "Serve Prometheus metrics on this address while crawling (overrides metrics.listen)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return ctx.withService(cmd, func(runCtx context.Context, rt *runtime) error {
			addr := strings.TrimSpace(listen)
			if addr == "" {
				addr = rt.cfg.Metrics.Listen
			}
			if addr != "" {
				stop, err := serveMetrics(addr, rt)
				if err != nil {
					return err
				}
				defer stop()
			}

			errOut := cmd.ErrOrStderr()
			report, err := rt.service.Crawl(runCtx, mediaType(), aggregator.CrawlOptions{
				Limit: limit,
				Progress: func(done, total int) {
					if done%crawlProgressEvery == 0 || done == total {
						fmt.Fprintf(errOut, "crawled %d/%d\n", done, total)
					}
				},
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if ctx.jsonOutput() {
				if jsonErr := writeJSON(cmd, report); jsonErr != nil {
					return jsonErr
				}
				return err
			}
			rows := [][]string{
				{"Total", fmt.Sprint(report.Total)},
				{"Resolved", fmt.Sprint(report.Resolved)},
				{"Already cached", fmt.Sprint(report.Skipped)},
				{"Not in catalog", fmt.Sprint(report.Missing)},
				{"Failed", fmt.Sprint(report.Failed)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Crawl", "IDs"}, rows, []columnAlignment{alignLeft, alignRight}))
			return err
		})
	}
	return cmd
}

func serveMetrics(addr string, rt *runtime) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for metrics on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Warn("metrics server stopped", logging.Error(err))
		}
	}()
	rt.logger.Info("serving metrics", logging.String("address", listener.Addr().String()))
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
