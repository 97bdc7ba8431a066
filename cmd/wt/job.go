package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/zulandar/worktrack/internal/config"
	"github.com/zulandar/worktrack/internal/db"
	"github.com/zulandar/worktrack/internal/models"
	"gorm.io/gorm"
)

func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Work-plan job commands",
	}

	cmd.AddCommand(newJobAddCmd())
	cmd.AddCommand(newJobListCmd())
	return cmd
}

// connectFromConfig loads the config and opens the configured database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

func newJobAddCmd() *cobra.Command {
	var (
		configPath string
		title      string
		jobType    string
		dateStr    string
		shift      string
		equipment  string
		defect     string
		hours      float64
		priority   int
		workers    []string
		publish    bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a job to a day's work plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobAdd(cmd, configPath, jobAddOpts{
				Title:     title,
				JobType:   jobType,
				Date:      dateStr,
				Shift:     shift,
				Equipment: equipment,
				Defect:    defect,
				Hours:     hours,
				Priority:  priority,
				Workers:   workers,
				Publish:   publish,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "worktrack.yaml", "path to Worktrack config file")
	cmd.Flags().StringVar(&title, "title", "", "job title (required)")
	cmd.Flags().StringVar(&jobType, "type", models.JobTypePreventive, "job type (preventive_maintenance, defect, inspection)")
	cmd.Flags().StringVar(&dateStr, "date", "", "plan date, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&shift, "shift", models.ShiftDay, "shift (day, night)")
	cmd.Flags().StringVar(&equipment, "equipment", "", "equipment reference")
	cmd.Flags().StringVar(&defect, "defect", "", "defect reference")
	cmd.Flags().Float64Var(&hours, "hours", 0, "estimated hours")
	cmd.Flags().IntVar(&priority, "priority", 2, "priority (1=high, 2=normal, 3=low)")
	cmd.Flags().StringSliceVar(&workers, "workers", nil, "assigned worker IDs, first is lead (required)")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish immediately")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("workers")
	return cmd
}

type jobAddOpts struct {
	Title     string
	JobType   string
	Date      string
	Shift     string
	Equipment string
	Defect    string
	Hours     float64
	Priority  int
	Workers   []string
	Publish   bool
}

func runJobAdd(cmd *cobra.Command, configPath string, opts jobAddOpts) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	date := models.DateOnly(time.Now())
	if opts.Date != "" {
		parsed, err := time.Parse("2006-01-02", opts.Date)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", opts.Date, err)
		}
		date = models.DateOnly(parsed)
	}
	if len(opts.Workers) == 0 {
		return fmt.Errorf("at least one worker is required")
	}

	job := models.WorkPlanJob{
		ID:             uuid.NewString(),
		Title:          opts.Title,
		JobType:        opts.JobType,
		EquipmentRef:   opts.Equipment,
		DefectRef:      opts.Defect,
		PlanDate:       date,
		Shift:          opts.Shift,
		EstimatedHours: opts.Hours,
		Priority:       opts.Priority,
		Published:      opts.Publish,
	}

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&job).Error; err != nil {
			return fmt.Errorf("create job: %w", err)
		}
		for i, w := range opts.Workers {
			a := models.JobAssignment{JobID: job.ID, WorkerID: w, Lead: i == 0}
			if err := tx.Create(&a).Error; err != nil {
				return fmt.Errorf("assign %s: %w", w, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created job %s\n", job.ID)
	fmt.Fprintf(out, "Scheduled: %s %s shift\n", job.PlanDate.Format("2006-01-02"), job.Shift)
	fmt.Fprintf(out, "Workers: %s (lead: %s)\n", strings.Join(opts.Workers, ", "), opts.Workers[0])
	return nil
}

func newJobListCmd() *cobra.Command {
	var (
		configPath string
		dateStr    string
		shift      string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs with their tracking status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobList(cmd, configPath, dateStr, shift)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "worktrack.yaml", "path to Worktrack config file")
	cmd.Flags().StringVar(&dateStr, "date", "", "filter by plan date, YYYY-MM-DD")
	cmd.Flags().StringVar(&shift, "shift", "", "filter by shift (day, night)")
	return cmd
}

func runJobList(cmd *cobra.Command, configPath, dateStr, shift string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	q := gormDB.Preload("Tracking")
	if dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", dateStr, err)
		}
		q = q.Where("plan_date = ?", models.DateOnly(date))
	}
	if shift != "" {
		q = q.Where("shift = ?", shift)
	}

	var jobs []models.WorkPlanJob
	if err := q.Order("plan_date ASC, shift ASC, priority ASC").Find(&jobs).Error; err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSHIFT\tPRI\tTYPE\tSTATUS\tTITLE")
	for _, job := range jobs {
		status := models.StatusNotStarted
		if job.Tracking != nil {
			status = job.Tracking.Status
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			shortID(job.ID), job.PlanDate.Format("2006-01-02"), job.Shift,
			job.Priority, job.JobType, status, job.Title)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d job(s)\n", len(jobs))
	return nil
}

// shortID truncates a UUID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
