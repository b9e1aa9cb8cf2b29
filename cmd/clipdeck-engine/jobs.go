package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/clipdeck/clipdeck-engine/internal/config"
	"github.com/clipdeck/clipdeck-engine/internal/db"
	"github.com/clipdeck/clipdeck-engine/internal/jobs"
)

func newJobsCommand(configFlag *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent render jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(cmd, *configFlag, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum jobs to list")

	return cmd
}

func runJobs(cmd *cobra.Command, configPath string, limit int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.New(cfg.DBPath(), nil)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	repo := jobs.NewRepository(database.Conn())
	list, err := repo.ListJobs(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no render jobs")
		return nil
	}

	headers := []string{"ID", "STATUS", "TEMPLATE", "SCENES", "DURATION", "SIZE", "CREATED"}
	rows := make([][]string, 0, len(list))
	for _, j := range list {
		rows = append(rows, []string{
			j.ID[:8],
			j.Status,
			j.TemplateName,
			formatCount(j.SceneCount),
			formatSeconds(j.DurationSeconds),
			formatBytes(j.OutputBytes),
			j.CreatedAt.Local().Format(time.DateTime),
		})
	}

	if isatty.IsTerminal(os.Stdout.Fd()) {
		aligns := []columnAlignment{
			alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft,
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
		return nil
	}

	// Plain tab-separated output for pipes.
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(cmd.OutOrStdout(), "\t")
			}
			fmt.Fprint(cmd.OutOrStdout(), cell)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func formatCount(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

func formatSeconds(s float64) string {
	if s == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fs", s)
}

func formatBytes(n int64) string {
	switch {
	case n == 0:
		return "-"
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KiB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1024*1024))
	}
}
