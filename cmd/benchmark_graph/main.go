package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/turnsignal/sloth"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Layered-graph benchmark: width signals feed totalLayers-1 rows of
// computeds (totalLayers rows counting the signals), each reading
// nSources nodes of the row above. A fraction
// of nodes is dynamic and drops one source depending on the values it
// sees, so topology shifts while the run is in flight. All "random"
// choices are xxhash-derived so every run builds the same graph.

func main() {
	log.Print("Starting turnsignal graph benchmark, please wait...")
	defer log.Print("Finished turnsignal graph benchmark")

	perfTestCfgs := []benchmarkTestConfig{
		{
			name:           "simple component",
			width:          10,
			totalLayers:    5,
			staticFraction: 1,
			nSources:       2,
			readFraction:   0.2,
			iterations:     600000,
		},
		{
			name:           "dynamic component",
			width:          10,
			totalLayers:    10,
			staticFraction: 0.75,
			nSources:       6,
			readFraction:   0.2,
			iterations:     15000,
		},
		{
			name:           "large web app",
			width:          1000,
			totalLayers:    12,
			staticFraction: 0.95,
			nSources:       4,
			readFraction:   1,
			iterations:     7000,
		},
		{
			name:           "wide dense",
			width:          1000,
			totalLayers:    5,
			staticFraction: 1,
			nSources:       25,
			readFraction:   1,
			iterations:     3000,
		},
		{
			name:           "deep",
			width:          5,
			totalLayers:    500,
			staticFraction: 1,
			nSources:       3,
			readFraction:   1,
			iterations:     500,
		},
		{
			name:           "very dynamic",
			width:          100,
			totalLayers:    15,
			staticFraction: 0.5,
			nSources:       6,
			readFraction:   1,
			iterations:     2000,
		},
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"framework", "size", "nSources", "read%", "static%",
		"nTimes", "test", "time", "updateRate", "title",
	})

	testRepeats := 5
	for _, cfg := range perfTestCfgs {
		log.Printf("Running '%s' config", cfg.name)
		counter := new(int64)
		rs := sloth.NewReactiveSystem()
		graph := makeGraph(rs, &cfg, counter)

		runOnce := func() int {
			sum, err := runGraph(graph, &cfg)
			if err != nil {
				log.Fatalf("%s: %v", cfg.name, err)
			}
			return sum
		}
		firstSum := runOnce() // warm up, and pin the expected result

		best := struct {
			sum      int
			count    int64
			duration time.Duration
		}{duration: time.Hour}

		for i := 0; i < testRepeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d", cfg.name, i+1, testRepeats)
			*counter = 0
			start := time.Now()
			sum := runOnce()
			duration := time.Since(start)
			if sum != firstSum {
				log.Fatalf("%s: run %d produced %d, expected %d", cfg.name, i, sum, firstSum)
			}
			if duration < best.duration {
				best.duration = duration
				best.sum = sum
				best.count = *counter
			}
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))
		table.Append([]string{
			"sloth",
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.readFraction),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(int64(cfg.iterations)),
			cfg.name,
			fmt.Sprint(best.duration),
			humanize.Comma(int64(updateRate)),
			makeTitle(&cfg),
		})
	}
	table.Render()
}

type benchmarkTestConfig struct {
	name           string  // friendly name for the test, should be unique
	width          int     // width of dependency graph to construct
	totalLayers    int     // depth of dependency graph to construct
	staticFraction float64 // fraction of nodes that are static
	nSources       int     // number of sources in each node
	readFraction   float64 // fraction of the last layer to read each iteration
	iterations     int
}

func makeTitle(cfg *benchmarkTestConfig) string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%dx%d %d sources", cfg.width, cfg.totalLayers, cfg.nSources))
	if cfg.staticFraction < 1 {
		sb.WriteString(" dynamic")
	}
	if cfg.readFraction < 1 {
		sb.WriteString(fmt.Sprintf(" read %0.2f%%", 100*cfg.readFraction))
	}
	return sb.String()
}

// hashFraction maps the joined parts onto [0, 1) deterministically.
func hashFraction(parts ...string) float64 {
	sum := xxhash.Sum64String(strings.Join(parts, "|"))
	return float64(sum%100000) / 100000
}

type benchmarkGraph struct {
	sources []*sloth.WriteableSignal[int]
	layers  [][]*sloth.ReadonlySignal[int]
}

func makeGraph(rs *sloth.ReactiveSystem, cfg *benchmarkTestConfig, counter *int64) *benchmarkGraph {
	sources := make([]*sloth.WriteableSignal[int], cfg.width)
	for i := range sources {
		seed := int(xxhash.Sum64String(fmt.Sprintf("leaf|%s|%d", cfg.name, i)) % 10)
		sources[i] = sloth.Signal(rs, seed)
	}

	graph := &benchmarkGraph{sources: sources}
	prevRow := sources
	readRow := func(row []*sloth.WriteableSignal[int]) []func() (int, error) {
		readers := make([]func() (int, error), len(row))
		for i, s := range row {
			readers[i] = func() (int, error) { return s.Value(), nil }
		}
		return readers
	}
	prevReaders := readRow(prevRow)

	for l := 0; l < cfg.totalLayers-1; l++ {
		row := make([]*sloth.ReadonlySignal[int], cfg.width)
		for myDex := range row {
			mySources := make([]func() (int, error), 0, cfg.nSources)
			for sourceDex := 0; sourceDex < cfg.nSources; sourceDex++ {
				x := (myDex + sourceDex) % len(prevReaders)
				mySources = append(mySources, prevReaders[x])
			}

			staticNode := hashFraction("static", cfg.name, fmt.Sprint(l), fmt.Sprint(myDex)) < cfg.staticFraction
			if staticNode {
				row[myDex] = sloth.Computed(rs, func() (int, error) {
					*counter++
					sum := 0
					for _, source := range mySources {
						v, err := source()
						if err != nil {
							return 0, err
						}
						sum += v
					}
					return sum, nil
				})
			} else {
				first := mySources[0]
				tail := mySources[1:]
				row[myDex] = sloth.Computed(rs, func() (int, error) {
					*counter++
					sum, err := first()
					if err != nil {
						return 0, err
					}
					shouldDrop := sum&0x1 > 0
					dropDex := sum % len(tail)
					for i := 0; i < len(tail); i++ {
						if shouldDrop && i == dropDex {
							continue
						}
						v, err := tail[i]()
						if err != nil {
							return 0, err
						}
						sum += v
					}
					return sum, nil
				})
			}
		}
		graph.layers = append(graph.layers, row)

		nextReaders := make([]func() (int, error), len(row))
		for i, c := range row {
			nextReaders[i] = c.Value
		}
		prevReaders = nextReaders
	}

	return graph
}

// Execute the graph by writing one source and reading part of the
// last layer each iteration; returns the sum of the leaves read.
func runGraph(graph *benchmarkGraph, cfg *benchmarkTestConfig) (int, error) {
	leaves := graph.layers[len(graph.layers)-1]
	readLeaves := make([]*sloth.ReadonlySignal[int], 0, len(leaves))
	for i, leaf := range leaves {
		if hashFraction("read", cfg.name, fmt.Sprint(i)) < cfg.readFraction {
			readLeaves = append(readLeaves, leaf)
		}
	}
	if len(readLeaves) == 0 {
		readLeaves = leaves[:1]
	}

	for i := 0; i < cfg.iterations; i++ {
		sourceDex := i % len(graph.sources)
		if err := graph.sources[sourceDex].SetValue(i + sourceDex); err != nil {
			return 0, err
		}
		for _, leaf := range readLeaves {
			if _, err := leaf.Value(); err != nil {
				return 0, err
			}
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		v, err := leaf.Value()
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}
