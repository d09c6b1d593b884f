package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"kbaudit/internal/config"
	"kbaudit/internal/pipeline"
	"kbaudit/internal/report"
	"kbaudit/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show corpus and analysis progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				lines := renderSectionHeader("Corpus", colorize)
				fmt.Fprintln(out, strings.Join(lines, "\n"))
				fmt.Fprintln(out, renderTable(
					[]string{"Categories", "Articles", "Analyzed", "Failed", "Pending", "Progress"},
					[][]string{{
						strconv.Itoa(stats.Categories),
						strconv.Itoa(stats.Total),
						strconv.Itoa(stats.Analyzed),
						strconv.Itoa(stats.Failed),
						strconv.Itoa(stats.Pending),
						fmt.Sprintf("%.1f%%", stats.Percent()),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				))

				fmt.Fprintln(out)
				fmt.Fprintln(out, strings.Join(renderSectionHeader("Pipeline", colorize), "\n"))
				busy, err := pipeline.Busy(cfg)
				switch {
				case err != nil:
					fmt.Fprintln(out, renderStatusLine("Run lock", statusError, err.Error(), colorize))
				case busy:
					fmt.Fprintln(out, renderStatusLine("Run lock", statusWarn, "a stage is running", colorize))
				default:
					fmt.Fprintln(out, renderStatusLine("Run lock", statusOK, "idle", colorize))
				}
				if cfg.LLMConfigured() {
					fmt.Fprintln(out, renderStatusLine("AI analysis", statusOK, fmt.Sprintf("%d models: %s", len(cfg.LLM.Models), strings.Join(cfg.LLM.Models, ", ")), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("AI analysis", statusWarn, "No AI Configured (no API key; analyze leaves articles pending)", colorize))
				}
				if latest, err := report.Latest(cfg.Paths.ReportDir); err == nil {
					fmt.Fprintln(out, renderStatusLine("Latest report", statusInfo, filepath.Base(latest), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Latest report", statusInfo, "none", colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, st.Path(), colorize))
				return nil
			})
		},
	}
}

func newArticlesCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List collected articles and their analysis status",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := strings.ToLower(strings.TrimSpace(statusFilter))
			switch filter {
			case "", "pending", "error", "analyzed":
			default:
				return fmt.Errorf("invalid --status %q (want pending, error, or analyzed)", statusFilter)
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				var (
					articles []store.Article
					err      error
				)
				if limit > 0 {
					articles, err = st.RecentArticles(cmd.Context(), limit)
				} else {
					articles, err = st.Articles(cmd.Context())
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(articles))
				for _, a := range articles {
					if filter != "" && a.Status() != filter {
						continue
					}
					rows = append(rows, []string{
						strconv.FormatInt(a.ID, 10),
						"KB-" + a.CustomID,
						truncate(a.Title, 48),
						a.Category,
						strconv.Itoa(a.WordCount),
						yesNo(a.HasScreenshots),
						a.ContentType,
						a.Status(),
					})
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "No articles found")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Article ID", "Title", "Category", "Words", "Screenshots", "Type", "Status"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Show the most recent N articles (0 for all)")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status: pending, error, analyzed")
	return cmd
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}
