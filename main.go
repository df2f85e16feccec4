// Package main provides the entry point for cachesim.
// cachesim replays memory-access traces against a set-associative
// cache model.
//
// For the full CLI, use: go run ./cmd/csim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("cachesim - Trace-Driven Cache Simulator")
	fmt.Println("")
	fmt.Println("Usage: csim [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -S <num>     Number of sets           (positive power of two)")
	fmt.Println("  -K <num>     Lines per set            (must be > 0)")
	fmt.Println("  -B <num>     Bytes per line           (positive power of two)")
	fmt.Println("  -p <policy>  Eviction policy          (one of FIFO, LRU)")
	fmt.Println("  -t <file>    Trace file")
	fmt.Println("  -v           Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/csim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/csim' instead.")
	}
}
