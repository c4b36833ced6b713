package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetctl/app"
	"github.com/kilianp07/fleetctl/config"
	"github.com/kilianp07/fleetctl/core/model"
)

var (
	submitWaypoint string
	submitWaitAck  time.Duration
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a test Clean task and wait for its status to change",
	RunE:  submitTask,
}

func init() {
	submitCmd.Flags().StringVar(&submitWaypoint, "waypoint", "", "start waypoint of the Clean task")
	submitCmd.Flags().DurationVar(&submitWaitAck, "wait", 10*time.Second, "how long to wait for a status change before giving up")
	_ = submitCmd.MarkFlagRequired("waypoint")
	rootCmd.AddCommand(submitCmd)
}

func submitTask(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	go func() { _ = svc.Run(ctx) }()

	desc := model.TaskDescription{
		Type:  model.TaskClean,
		Clean: model.CleanDescription{StartWaypoint: submitWaypoint},
	}
	taskID, err := svc.Dispatcher.Submit(desc, model.PriorityLow)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fmt.Println("submitted", taskID)

	done := make(chan model.TaskStatus, 1)
	svc.Dispatcher.OnChange(func(status model.TaskStatus) {
		if status.TaskProfile.TaskID == taskID {
			select {
			case done <- status:
			default:
			}
		}
	})

	select {
	case status := <-done:
		fmt.Printf("task %s state=%s fleet=%q\n", taskID, status.State, status.FleetName)
	case <-time.After(submitWaitAck):
		return fmt.Errorf("timed out waiting for a status change on %s", taskID)
	}
	return nil
}
