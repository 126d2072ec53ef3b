package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbevemyr/rocktimer/internal/config"
	"github.com/jbevemyr/rocktimer/internal/sensor"
	"github.com/jbevemyr/rocktimer/internal/speech"
	"github.com/jbevemyr/rocktimer/internal/timing"
	"github.com/jbevemyr/rocktimer/internal/trigger"
	"github.com/jbevemyr/rocktimer/internal/ws"
)

// The arm sensor is a slow IR proximity trigger, nothing like the
// break-beam lines; it gets a much wider debounce.
const armDebounce = 500 * time.Millisecond

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the timing coordinator node",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override HTTP port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if servePort > 0 {
		cfg.Server.HTTPPort = servePort
	}

	startSplit, ok := timing.ParseRole(cfg.Timing.StartSplit)
	if !ok {
		return fmt.Errorf("invalid start_split %q", cfg.Timing.StartSplit)
	}

	devices := timing.NewRegistry(cfg.Devices, cfg.Timing.StaleAfter())
	history := timing.NewHistory(cfg.Timing.HistorySize)
	broadcaster := ws.NewBroadcaster()
	speaker := speech.NewSpeaker(cfg.Speech.Enabled, cfg.Speech.Command)

	coord := timing.NewCoordinator(timing.Options{
		StartSplit:  startSplit,
		IdleTimeout: cfg.Timing.IdleTimeout(),
		QueueSize:   cfg.Timing.QueueSize,
	}, devices, history, broadcaster, speaker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coord.Start(ctx)

	listener, err := trigger.Listen(cfg.Server.Host, cfg.Server.UDPPort, coord.Submit)
	if err != nil {
		return err
	}
	listener.Start(ctx)
	log.Printf("Trigger listener on UDP port %d", cfg.Server.UDPPort)

	// Local sensors are optional: a coordinator with no usable GPIO still
	// times stones from the network sensors alone.
	startLocalCapture(ctx, cfg, coord)

	server := ws.NewServer(coord, broadcaster, cfg.Server.WebDir)
	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		os.Exit(0)
	}()

	return ws.ListenAndServe(cfg.Server.Host, cfg.Server.HTTPPort, mux)
}

func startLocalCapture(ctx context.Context, cfg *config.Config, coord *timing.Coordinator) {
	submit := func(ev trigger.Event) error {
		coord.Submit(ev)
		return nil
	}

	if cfg.GPIO.SensorPin > 0 {
		line, err := sensor.RequestGPIOLine(cfg.GPIO.Chip, cfg.GPIO.SensorPin)
		if err != nil {
			log.Printf("No local timing sensor: %v", err)
		} else {
			log.Printf("Timing sensor %s on %s line %d", cfg.GPIO.DeviceID, cfg.GPIO.Chip, cfg.GPIO.SensorPin)
			capture := sensor.NewCapture(cfg.GPIO.DeviceID, cfg.GPIO.Debounce(), line, submit)
			go func() {
				defer line.Close()
				if err := capture.Run(ctx); err != nil {
					log.Printf("Local timing sensor stopped: %v", err)
				}
			}()
		}
	}

	if cfg.GPIO.ArmPin > 0 {
		line, err := sensor.RequestGPIOLine(cfg.GPIO.Chip, cfg.GPIO.ArmPin)
		if err != nil {
			log.Printf("No arm sensor: %v", err)
		} else {
			log.Printf("Arm sensor on %s line %d", cfg.GPIO.Chip, cfg.GPIO.ArmPin)
			capture := sensor.NewCapture("arm", armDebounce, line, submit)
			go func() {
				defer line.Close()
				if err := capture.Run(ctx); err != nil {
					log.Printf("Arm sensor stopped: %v", err)
				}
			}()
		}
	}
}
