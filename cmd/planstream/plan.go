package main

import (
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/planstream/internal/planner"
	"github.com/user/planstream/internal/stream"
)

var planFlags struct {
	due         string
	timezone    string
	preferences string
	labels      []string
	priority    int
	maxTasks    int
}

var planCmd = &cobra.Command{
	Use:   "plan PROMPT",
	Short: "Plan and sync one request, printing events as NDJSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&planFlags.due, "due", "", "due hint applied when a task has none")
	f.StringVar(&planFlags.timezone, "timezone", "", "IANA timezone of the requester")
	f.StringVar(&planFlags.preferences, "preferences", "", "free-text planning preferences")
	f.StringArrayVar(&planFlags.labels, "label", nil, "label to apply (repeatable, at most 5)")
	f.IntVar(&planFlags.priority, "priority", 0, "priority 1-4")
	f.IntVar(&planFlags.maxTasks, "max-tasks", 0, "maximum number of tasks (1-10)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Events own stdout.
	setupLogging(os.Stderr, cfg.LogLevel)

	req := planner.Request{
		Prompt:      strings.Join(args, " "),
		Timezone:    planFlags.timezone,
		Due:         planFlags.due,
		Preferences: planFlags.preferences,
		Labels:      planFlags.labels,
		Priority:    planFlags.priority,
		MaxTasks:    planFlags.maxTasks,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	j, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}
	p, err := buildPipeline(ctx, cfg, j)
	if err != nil {
		return err
	}
	return p.Run(ctx, req, stream.NewEmitter(os.Stdout))
}
