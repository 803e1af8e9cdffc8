// Package main runs the encounter scenarios headlessly on a virtual clock
// and exits non-zero when any of them fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ghostguild/ghg-server/internal/platform/logger"
	"github.com/ghostguild/ghg-server/test"
)

func main() {
	seed := flag.Int64("seed", 1, "rng seed for hostile stats and movement")
	verbose := flag.Bool("v", false, "log encounter output")
	flag.Parse()

	fmt.Println("👻 GHOST HUNTERS GUILD - ENCOUNTER SCENARIO SUITE")
	fmt.Println(strings.Repeat("=", 60))

	log := logger.NewDiscard()
	if *verbose {
		log = logger.NewLogger()
	}

	results := test.RunAll(context.Background(), *seed, log)

	passed, failed := 0, 0
	for _, r := range results {
		if r.Passed {
			passed++
			fmt.Printf("   ✅ %-42s %4d events  %s\n", r.ScenarioName, r.Events, r.Elapsed)
		} else {
			failed++
			fmt.Printf("   ❌ %-42s %s\n", r.ScenarioName, r.Reason)
		}
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("   Passed: %d\n", passed)
	fmt.Printf("   Failed: %d\n", failed)

	if failed > 0 {
		os.Exit(1)
	}
}
