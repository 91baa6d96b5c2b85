package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cesargomez89/showmover/internal/app"
	"github.com/cesargomez89/showmover/internal/constants"
	"github.com/cesargomez89/showmover/internal/domain"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func bytesString(n int64) string {
	return humanize.Bytes(uint64(max(n, 0)))
}

func newShowsCommand(ctx *commandContext) *cobra.Command {
	var query app.ShowQuery
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "shows",
		Short: "List indexed shows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnv(func(env *environment) error {
				page, err := env.shows.ListShows(cmd.Context(), query)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, page)
				}
				if len(page.Items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No shows indexed")
					return nil
				}

				rows := make([][]string, 0, len(page.Items))
				for _, s := range page.Items {
					rows = append(rows, []string{
						s.ID,
						s.Title,
						s.Location.String(),
						strconv.Itoa(s.SeasonCount),
						strconv.Itoa(s.EpisodeCount),
						bytesString(s.SizeBytes),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Location", "Seasons", "Episodes", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d shows\n", len(page.Items), page.Total)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&query.Location, "location", "", "Only shows on this tier (hot or cold)")
	cmd.Flags().StringVar(&query.Search, "search", "", "Match title or path")
	cmd.Flags().StringVar(&query.SortBy, "sort", "title", "Sort by title, size, date, seasons or episodes")
	cmd.Flags().StringVar(&query.SortDir, "dir", "asc", "Sort direction (asc or desc)")
	cmd.Flags().IntVar(&query.Limit, "limit", constants.DefaultPageSize, "Maximum shows to list")
	cmd.Flags().IntVar(&query.Offset, "offset", 0, "Shows to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit, offset int
	var active, asJSON bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List move jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnv(func(env *environment) error {
				var jobs []*domain.Job
				var err error
				if active {
					jobs, err = env.jobs.ListActiveJobs(cmd.Context())
				} else {
					jobs, err = env.jobs.ListJobs(cmd.Context(), limit, offset)
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, jobs)
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No move jobs")
					return nil
				}

				rows := make([][]string, 0, len(jobs))
				for _, j := range jobs {
					rows = append(rows, []string{
						j.ID,
						string(j.Status),
						j.SourcePath,
						j.DestinationPath,
						progressString(j),
						humanize.Time(j.UpdatedAt),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Status", "Source", "Destination", "Progress", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum jobs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Jobs to skip")
	cmd.Flags().BoolVar(&active, "active", false, "Only queued and running jobs, oldest first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func progressString(j *domain.Job) string {
	return bytesString(j.ProgressBytes) + " / " + bytesString(j.TotalBytes)
}

func newJobCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "job <id>",
		Short: "Show one move job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnv(func(env *environment) error {
				job, err := env.jobs.GetJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, job)
				}
				printJob(cmd, job)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printJob(cmd *cobra.Command, j *domain.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %s\n", j.ID)
	fmt.Fprintf(out, "Show:        %s\n", j.ShowID)
	fmt.Fprintf(out, "Status:      %s\n", j.Status)
	fmt.Fprintf(out, "Source:      %s\n", j.SourcePath)
	fmt.Fprintf(out, "Destination: %s\n", j.DestinationPath)
	fmt.Fprintf(out, "Progress:    %s\n", progressString(j))
	if j.Status == domain.JobStatusRunning {
		fmt.Fprintf(out, "Speed:       %s/s\n", bytesString(j.SpeedBytesPerSec))
		fmt.Fprintf(out, "ETA:         %s\n", time.Duration(j.ETASeconds)*time.Second)
	}
	if j.ErrorMessage != nil {
		fmt.Fprintf(out, "Error:       %s\n", *j.ErrorMessage)
	}
	fmt.Fprintf(out, "Created:     %s\n", j.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Updated:     %s\n", humanize.Time(j.UpdatedAt))
}

func newMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <show-id|show-path> <hot|cold>",
		Short: "Queue a show for relocation to the other tier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnv(func(env *environment) error {
				show, err := env.shows.ResolveShow(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				job, err := env.jobs.CreateMoveJob(cmd.Context(), show.ID, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %s: %s -> %s (%s)\n",
					job.ID, job.SourcePath, job.DestinationPath, bytesString(job.TotalBytes))
				return nil
			})
		},
	}
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Index the library paths now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnv(func(env *environment) error {
				return withServerLock(env.cfg.LockPath, func() error {
					summary, err := env.scans.RunScan(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d libraries: %d shows (%d new, %d updated)\n",
						summary.ScannedLibraries, summary.ShowsProcessed, summary.Inserted, summary.Updated)
					return nil
				})
			})
		},
	}
}

func newPoolsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Show filesystem usage of the hot and cold roots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEnv(func(env *environment) error {
				pools := app.CollectPools(env.settings.Snapshot())
				if asJSON {
					return writeJSON(cmd, pools)
				}

				rows := make([][]string, 0, len(pools))
				for _, p := range pools {
					if p.Usage == nil {
						rows = append(rows, []string{p.Tier.String(), p.Path, "-", "-", "-", p.Error})
						continue
					}
					rows = append(rows, []string{
						p.Tier.String(),
						p.Path,
						humanize.Bytes(p.Usage.TotalBytes),
						humanize.Bytes(p.Usage.FreeBytes),
						fmt.Sprintf("%.1f%%", p.Usage.Percent()),
						"",
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Tier", "Path", "Size", "Free", "Used", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
