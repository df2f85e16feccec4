// Package main provides the csim command, a trace-driven
// set-associative cache simulator.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/recording"
	"github.com/sarchlab/cachesim/trace"
)

var (
	numSets    int    // Number of sets (S)
	ways       int    // Lines per set (K)
	lineBytes  int    // Bytes per line (B)
	policyName string // Eviction policy name
	tracePath  string // Trace file path
	verbose    bool   // Log every simulated access
	configPath string // Optional YAML config file
	recordName string // Optional SQLite recording database name
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csim",
		Short: "Trace-driven set-associative cache simulator",
		Long: `csim replays a memory-access trace against a configurable
set-associative cache model and reports aggregate hit, miss, and
eviction counts.

Examples:
  csim    -S 16  -K 1 -B 16 -p LRU -t traces/yi2.trace
  csim -v -S 256 -K 2 -B 16 -p LRU -t traces/yi2.trace`,
		Run: run,
	}

	flags := cmd.Flags()
	flags.IntVarP(&numSets, "sets", "S", 0,
		"number of sets (must be a positive power of two)")
	flags.IntVarP(&ways, "ways", "K", 0,
		"lines per set (must be > 0)")
	flags.IntVarP(&lineBytes, "line-bytes", "B", 0,
		"bytes per line (must be a positive power of two)")
	flags.StringVarP(&policyName, "policy", "p", "",
		"eviction policy (one of FIFO, LRU)")
	flags.StringVarP(&tracePath, "trace", "t", "",
		"trace file")
	flags.BoolVarP(&verbose, "verbose", "v", false,
		"log every simulated cache-line access")
	flags.StringVar(&configPath, "config", "",
		"YAML config file; explicit flags override its values")
	flags.StringVar(&recordName, "record", "",
		"record every access into <name>.sqlite3")

	return cmd
}

// resolveConfig builds the run configuration: the config file's values
// when one is given, with explicitly set flags taking precedence.
func resolveConfig(flags *pflag.FlagSet) (*cache.Config, error) {
	config := cache.DefaultConfig()
	if configPath != "" {
		loaded, err := cache.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if flags.Changed("sets") {
		config.Sets = numSets
	}
	if flags.Changed("ways") {
		config.Ways = ways
	}
	if flags.Changed("line-bytes") {
		config.LineBytes = lineBytes
	}
	if flags.Changed("policy") {
		config.Policy = policyName
	}

	return config, nil
}

// replayTrace replays the trace file against the cache and returns the
// final counters.
func replayTrace(
	c *cache.Cache,
	path string,
	opts ...trace.Option,
) (cache.Statistics, error) {
	file, err := os.Open(path)
	if err != nil {
		return cache.Statistics{}, fmt.Errorf("failed to open trace: %w", err)
	}
	defer file.Close()

	if err := trace.NewReplayer(c, opts...).Replay(file); err != nil {
		return cache.Statistics{}, err
	}

	return c.Stats(), nil
}

// summary formats the final counters the way csim reports them.
func summary(stats cache.Statistics) string {
	return fmt.Sprintf("hits:%d misses:%d evictions:%d",
		stats.Hits, stats.Misses, stats.Evictions)
}

func run(cmd *cobra.Command, args []string) {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	config, err := resolveConfig(cmd.Flags())
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	c, err := config.Build()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	if tracePath == "" {
		logrus.Fatalf("Trace file not provided (use -t)")
	}

	var opts []trace.Option
	if verbose {
		opts = append(opts, trace.WithObserver(accessLogger()))
	}
	if cmd.Flags().Changed("record") {
		recorder, err := recording.New(recordName)
		if err != nil {
			logrus.Fatalf("Failed to set up recording: %v", err)
		}
		defer recorder.Close()
		opts = append(opts, trace.WithObserver(recorder))
	}

	stats, err := replayTrace(c, tracePath, opts...)
	if err != nil {
		logrus.Fatalf("Replay failed: %v", err)
	}

	fmt.Println(summary(stats))
}

// accessLogger logs one line per simulated cache-line access.
func accessLogger() trace.Observer {
	return trace.ObserverFunc(func(
		rec trace.Record,
		addr uint64,
		result cache.AccessResult,
	) {
		outcome := "miss"
		switch {
		case result.Hit:
			outcome = "hit"
		case result.Evicted:
			outcome = "miss eviction"
		}
		logrus.Debugf("%s %x,%d -> %s (set %d, tag %x, way %d)",
			rec.Op, addr, rec.Size, outcome,
			result.SetIndex, result.Tag, result.WayID)
	})
}

// routeExitsThroughAtexit makes fatal log paths run the registered
// atexit handlers, such as the recorder's final flush, before the
// process dies.
func routeExitsThroughAtexit() {
	logrus.StandardLogger().ExitFunc = atexit.Exit
}

func main() {
	routeExitsThroughAtexit()

	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
