package elevutils

import (
	_ "embed"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

//go:generate sh -c "printf %s $(git rev-parse HEAD) > githash.txt"
//go:embed githash.txt
var gitHash string

func GetGitHash() string {
	return strings.TrimSpace(gitHash)
}

type CmdArgs struct {
	ConfigPath    string
	EnvPath       string
	Identifier    string
	LogLevel      string
	Riders        int
	SpawnInterval time.Duration // zero keeps the configured interval
	Interactive   bool
	Version       bool
	Help          bool
}

func ProcessCmdArgs() CmdArgs {
	flagSet := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	args, err := ParseCmdArgs(flagSet, os.Args[1:])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if args.Version {
		fmt.Println("Version:", GetGitHash())
		os.Exit(0)
	}

	if args.Help {
		fmt.Println("Usage: ./elevator [OPTIONS]")
		fmt.Println("Single car elevator simulator")
		fmt.Println()
		fmt.Println("Options:")
		flagSet.PrintDefaults()
		fmt.Println()
		fmt.Println("Keys in interactive mode:")
		fmt.Println("	space/enter  spawn a random rider")
		fmt.Println("	p            print the request ledger")
		fmt.Println("	q/ctrl-c     quit")
		os.Exit(0)
	}

	return args
}

func ParseCmdArgs(flagSet *flag.FlagSet, arguments []string) (CmdArgs, error) {
	var args CmdArgs
	flagSet.BoolVar(&args.Help, "help", false, "Show Help Window")
	flagSet.BoolVar(&args.Version, "version", false, "Show Version")
	flagSet.StringVar(&args.Identifier, "id", "", "Set the identifier of the elevator. Defaults to random string")
	flagSet.StringVar(&args.ConfigPath, "config", "", "YAML configuration file. Defaults to built-in values")
	flagSet.StringVar(&args.EnvPath, "env", "", "Dotenv file with ELEVATOR_* overrides")
	flagSet.StringVar(&args.LogLevel, "loglevel", "info", "Diagnostic log level (trace, debug, info, warn, error, disabled)")
	flagSet.IntVar(&args.Riders, "riders", 10, "Number of random riders to spawn. 0 spawns none")
	flagSet.DurationVar(&args.SpawnInterval, "spawn", 0, "Delay between spawned riders. Defaults to the configured interval")
	flagSet.BoolVar(&args.Interactive, "interactive", false, "Spawn riders on key presses instead of a timer")

	if err := flagSet.Parse(arguments); err != nil {
		return args, err
	}

	if args.Riders < 0 {
		return args, fmt.Errorf("riders must be 0 or more, got %d", args.Riders)
	}
	if args.SpawnInterval < 0 {
		return args, fmt.Errorf("spawn interval must not be negative, got %v", args.SpawnInterval)
	}
	return args, nil
}
