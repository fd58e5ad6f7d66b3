package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgods/therapy-center-scheduling/internal/config"
	"github.com/hackgods/therapy-center-scheduling/internal/db"
	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "schedctl",
		Short:        "Therapy center scheduling admin tool",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(planCmd())
	return rootCmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, db.Migrations()).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, db.Migrations()).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect detox plan templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List plan templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-24s %-10s %-8s %s\n", "ID", "TYPE", "DAYS", "NAME")
			for _, t := range plan.Templates() {
				fmt.Fprintf(out, "%-24s %-10s %-8d %s\n", t.ID, t.Type, t.Duration, t.Name)
			}
			return nil
		},
	})

	previewCmd := &cobra.Command{
		Use:   "preview <template-id>",
		Short: "Show the calendar a template expands to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startRaw, _ := cmd.Flags().GetString("start")
			therapyTime, _ := cmd.Flags().GetString("therapy-time")
			asJSON, _ := cmd.Flags().GetBool("json")

			start := plan.Truncate(time.Now())
			if startRaw != "" {
				var err error
				if start, err = plan.ParseDate(startRaw); err != nil {
					return err
				}
			}

			sched, err := plan.Generate(args[0], start, therapyTime)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sched)
			}
			printSchedule(cmd.OutOrStdout(), sched)
			return nil
		},
	}
	previewCmd.Flags().String("start", "", "Start date (YYYY-MM-DD), defaults to today")
	previewCmd.Flags().String("therapy-time", "10:00-11:00", "Therapy slot label")
	previewCmd.Flags().Bool("json", false, "Print the full schedule as JSON")
	cmd.AddCommand(previewCmd)

	return cmd
}

func printSchedule(out io.Writer, s *plan.Schedule) {
	fmt.Fprintf(out, "%s (%s), %s to %s, therapy at %s\n",
		s.Info.Name, s.Info.TemplateID, s.Info.StartDate, s.Info.EndDate, s.Info.TherapyTime)
	fmt.Fprintf(out, "%-5s %-12s %-10s %s\n", "DAY", "DATE", "WEEKDAY", "THERAPY")
	for _, d := range s.Days {
		therapy := ""
		if e, ok := d.Slots[plan.SlotTherapy]; ok {
			therapy = e.Activity
		}
		fmt.Fprintf(out, "%-5d %-12s %-10s %s\n", d.Number, d.Date, d.Weekday, therapy)
	}
	if len(s.RestDates) > 0 {
		fmt.Fprintf(out, "Rest days: %s\n", strings.Join(s.RestDates, ", "))
	}
}
