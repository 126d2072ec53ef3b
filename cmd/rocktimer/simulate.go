package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbevemyr/rocktimer/internal/simulate"
	"github.com/jbevemyr/rocktimer/internal/trigger"
)

var (
	simServer  string
	simPort    int
	simDevice  string
	simTeeHog  float64
	simHogHog  float64
	simSkipFar bool
	simPasses  int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Send simulated triggers to a running coordinator",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simServer, "server", "192.168.50.1", "coordinator address")
	simulateCmd.Flags().IntVar(&simPort, "port", 5000, "coordinator UDP port")
	simulateCmd.Flags().StringVar(&simDevice, "device", "", "send a single trigger (tee, hog_close, hog_far)")
	simulateCmd.Flags().Float64Var(&simTeeHog, "tee-hog", 0, "tee to hog time in seconds (default random)")
	simulateCmd.Flags().Float64Var(&simHogHog, "hog-hog", 0, "hog to hog time in seconds (default random)")
	simulateCmd.Flags().BoolVar(&simSkipFar, "skip-far", false, "stone does not reach the far hog line")
	simulateCmd.Flags().IntVar(&simPasses, "passes", 1, "number of stone passes")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	sender, err := trigger.NewSender(simServer, simPort)
	if err != nil {
		return err
	}
	defer sender.Close()

	runner := simulate.NewRunner(sender.Send)

	if simDevice != "" {
		return runner.SendTrigger(simDevice)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := simulate.PassOptions{
		TeeToHog: time.Duration(simTeeHog * float64(time.Second)),
		HogToHog: time.Duration(simHogHog * float64(time.Second)),
		SkipFar:  simSkipFar,
	}

	for i := 0; i < simPasses; i++ {
		if i > 0 {
			fmt.Println()
		}
		if err := runner.StonePass(ctx, opts); err != nil {
			return err
		}
	}
	return nil
}
