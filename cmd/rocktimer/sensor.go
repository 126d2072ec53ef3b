package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbevemyr/rocktimer/internal/config"
	"github.com/jbevemyr/rocktimer/internal/sensor"
	"github.com/jbevemyr/rocktimer/internal/trigger"
)

var sensorCmd = &cobra.Command{
	Use:   "sensor",
	Short: "Run a remote sensor node, sending triggers to the coordinator",
	RunE:  runSensor,
}

func runSensor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sender, err := trigger.NewSender(cfg.Sensor.ServerHost, cfg.Sensor.ServerPort)
	if err != nil {
		return err
	}
	defer sender.Close()

	line, err := sensor.RequestGPIOLine(cfg.GPIO.Chip, cfg.GPIO.SensorPin)
	if err != nil {
		return err
	}
	defer line.Close()

	capture := sensor.NewCapture(cfg.Sensor.DeviceID, cfg.GPIO.Debounce(), line, sender.Send)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("Sensor %s on %s line %d, coordinator %s:%d",
		cfg.Sensor.DeviceID, cfg.GPIO.Chip, cfg.GPIO.SensorPin,
		cfg.Sensor.ServerHost, cfg.Sensor.ServerPort)

	return capture.Run(ctx)
}
