package elevconfig

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/heislab/elevsim/internal/elevconsts"
	"github.com/heislab/elevsim/internal/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var Log = logger.GetLogger()

var ErrInvalidConfig = errors.New("invalid elevator config")

// Config is fixed once the elevator is constructed.
type Config struct {
	Floors         int           `yaml:"Floors"`
	Capacity       int           `yaml:"Capacity"`
	MinRiderWeight int           `yaml:"MinRiderWeight"`
	MaxRiderWeight int           `yaml:"MaxRiderWeight"`
	FloorInterval  time.Duration `yaml:"FloorInterval"`
	PassQueueSize  int           `yaml:"PassQueueSize"`
	SpawnInterval  time.Duration `yaml:"SpawnInterval"`
}

func Default() Config {
	return Config{
		Floors:         elevconsts.N_FLOORS,
		Capacity:       elevconsts.MAX_WEIGHT,
		MinRiderWeight: elevconsts.MIN_PERSON_WEIGHT,
		MaxRiderWeight: elevconsts.MAX_PERSON_WEIGHT,
		FloorInterval:  elevconsts.FLOOR_INTERVAL,
		PassQueueSize:  elevconsts.PASS_QUEUE_SIZE,
		SpawnInterval:  elevconsts.SPAWN_INTERVAL,
	}
}

// LoadFile reads a yaml file on top of the defaults. Keys missing from
// the file keep their default value.
func LoadFile(path string) (Config, error) {
	c := Default()

	file, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("error opening config file %s: %w", path, err)
	}
	defer file.Close()

	err = yaml.NewDecoder(file).Decode(&c)
	if err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("error decoding config file %s: %w", path, err)
	}

	Log.Debug().Msgf("Loaded config from %s", path)
	return c, nil
}

var envKeys = []string{
	"ELEVATOR_FLOORS",
	"ELEVATOR_CAPACITY",
	"ELEVATOR_MIN_RIDER_WEIGHT",
	"ELEVATOR_MAX_RIDER_WEIGHT",
	"ELEVATOR_FLOOR_INTERVAL",
	"ELEVATOR_PASS_QUEUE_SIZE",
	"ELEVATOR_SPAWN_INTERVAL",
}

// ApplyEnv overrides c with the values found in a .env file.
func ApplyEnv(c Config, path string) (Config, error) {
	envFile, err := godotenv.Read(path)
	if err != nil {
		return c, fmt.Errorf("error reading env file %s: %w", path, err)
	}
	return applyValues(c, envFile)
}

func applyValues(c Config, values map[string]string) (Config, error) {
	for _, key := range envKeys {
		value, ok := values[key]
		if !ok || value == "" {
			continue
		}

		var err error
		switch key {
		case "ELEVATOR_FLOORS":
			c.Floors, err = strconv.Atoi(value)
		case "ELEVATOR_CAPACITY":
			c.Capacity, err = strconv.Atoi(value)
		case "ELEVATOR_MIN_RIDER_WEIGHT":
			c.MinRiderWeight, err = strconv.Atoi(value)
		case "ELEVATOR_MAX_RIDER_WEIGHT":
			c.MaxRiderWeight, err = strconv.Atoi(value)
		case "ELEVATOR_FLOOR_INTERVAL":
			c.FloorInterval, err = time.ParseDuration(value)
		case "ELEVATOR_PASS_QUEUE_SIZE":
			c.PassQueueSize, err = strconv.Atoi(value)
		case "ELEVATOR_SPAWN_INTERVAL":
			c.SpawnInterval, err = time.ParseDuration(value)
		}
		if err != nil {
			return c, fmt.Errorf("error converting %s=%q: %w", key, value, err)
		}
		Log.Debug().Msgf("Config override %s=%s", key, value)
	}
	return c, nil
}

func (c Config) Validate() error {
	switch {
	case c.Floors < 2:
		return fmt.Errorf("%w: Floors must be at least 2, got %d", ErrInvalidConfig, c.Floors)
	case c.Capacity <= 0:
		return fmt.Errorf("%w: Capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	case c.MinRiderWeight <= 0:
		return fmt.Errorf("%w: MinRiderWeight must be positive, got %d", ErrInvalidConfig, c.MinRiderWeight)
	case c.MaxRiderWeight < c.MinRiderWeight:
		return fmt.Errorf("%w: MaxRiderWeight %d is below MinRiderWeight %d", ErrInvalidConfig, c.MaxRiderWeight, c.MinRiderWeight)
	case c.MaxRiderWeight > c.Capacity:
		return fmt.Errorf("%w: MaxRiderWeight %d exceeds Capacity %d", ErrInvalidConfig, c.MaxRiderWeight, c.Capacity)
	case c.FloorInterval < 0:
		return fmt.Errorf("%w: FloorInterval must not be negative, got %v", ErrInvalidConfig, c.FloorInterval)
	case c.PassQueueSize < 1:
		return fmt.Errorf("%w: PassQueueSize must be at least 1, got %d", ErrInvalidConfig, c.PassQueueSize)
	case c.SpawnInterval <= 0:
		return fmt.Errorf("%w: SpawnInterval must be positive, got %v", ErrInvalidConfig, c.SpawnInterval)
	}
	return nil
}
