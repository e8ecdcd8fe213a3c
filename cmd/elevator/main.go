package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/xyproto/randomstring"

	"github.com/heislab/elevsim/internal/elevconfig"
	"github.com/heislab/elevsim/internal/elevlog"
	"github.com/heislab/elevsim/internal/elevrider"
	"github.com/heislab/elevsim/internal/elevutils"
	"github.com/heislab/elevsim/internal/logger"

	"github.com/heislab/elevsim/internal/elevator"
)

const DRAIN_TIMEOUT = 5 * time.Minute

// randomstring ships with a constant seed, identifiers would repeat per run
func init() {
	randomstring.Seed()
}

func main() {
	args := elevutils.ProcessCmdArgs()
	Logger := logger.GetLoggerConfigured(logger.ParseLevel(args.LogLevel))

	cfg, err := loadConfig(args)
	if err != nil {
		Logger.Error().Msgf("Error loading config: %v", err)
		os.Exit(1)
	}

	// Starting Programme
	Logger.Info().Msg("Starting Elevator Programme")

	elev, err := elevator.NewElevator(cfg, args.Identifier, elevlog.NewWriter(os.Stdout))
	if err != nil {
		Logger.Error().Msgf("Error creating elevator: %v", err)
		os.Exit(1)
	}
	elev.Start()

	Logger.Info().Msgf("Elevator: %v", elev.MetaData.String())
	Logger.Info().Msgf("Building: %s, %v between floors", elev.MetaData.Building(), cfg.FloorInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator := elevrider.NewGenerator(cfg.Floors, cfg.MinRiderWeight, cfg.MaxRiderWeight, time.Now().UnixNano())
	if args.Interactive {
		runInteractive(ctx, elev, generator)
	} else {
		spawnRiders(ctx, elev, generator, args.Riders, cfg.SpawnInterval)
	}

	if ctx.Err() == nil {
		drainCtx, cancel := context.WithTimeout(ctx, DRAIN_TIMEOUT)
		if err := elev.Drain(drainCtx); err != nil {
			Logger.Warn().Msgf("Stopped before every rider was delivered: %v", err)
		}
		cancel()
	}

	elev.State.Print()
	elev.Stop()
	Logger.Info().Msg("Elevator Programme finished")
}

func loadConfig(args elevutils.CmdArgs) (elevconfig.Config, error) {
	cfg := elevconfig.Default()

	var err error
	if args.ConfigPath != "" {
		if cfg, err = elevconfig.LoadFile(args.ConfigPath); err != nil {
			return cfg, err
		}
	}
	if args.EnvPath != "" {
		if cfg, err = elevconfig.ApplyEnv(cfg, args.EnvPath); err != nil {
			return cfg, err
		}
	}
	if args.SpawnInterval > 0 {
		cfg.SpawnInterval = args.SpawnInterval
	}
	return cfg, cfg.Validate()
}

func spawnRiders(ctx context.Context, elev *elevator.Elevator, generator *elevrider.Generator, count int, interval time.Duration) {
	if count == 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for spawned := 0; spawned < count; {
		elev.PressButton(generator.Next())
		spawned++
		if spawned == count {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runInteractive spawns a rider per key press until q or ctrl-c.
func runInteractive(ctx context.Context, elev *elevator.Elevator, generator *elevrider.Generator) {
	Logger := logger.GetLogger()
	Logger.Info().Msg("Interactive mode: space/enter spawns a rider, p prints the ledger, q quits")

	for ctx.Err() == nil {
		char, key, err := keyboard.GetSingleKey()
		if err != nil {
			Logger.Error().Msgf("Error when getting key: %v", err)
			return
		}

		switch {
		case key == keyboard.KeyCtrlC || key == keyboard.KeyEsc || char == 'q':
			return
		case char == 'p':
			elev.State.Print()
		case key == keyboard.KeySpace || key == keyboard.KeyEnter || char == 'r':
			elev.PressButton(generator.Next())
		}
	}
}
