package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/turnsignal/cmd/benchmark/templates"
	"github.com/delaneyj/turnsignal/sloth"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	profileKey = "cpu-profile"
	reportKey  = "report"
	itersKey   = "iterations"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Benchmark sloth propagation over chain graphs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this path",
			},
			&cli.StringFlag{
				Name:  reportKey,
				Usage: "Write a markdown report to this path",
			},
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Write+read cycles per graph shape",
				Value: 100,
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

var (
	ww = []int{1, 10, 100, 1_000}
	hh = []int{1, 10, 100}
)

func run(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}
	iters := int(cmd.Uint(itersKey))

	readValue := func(x any) int {
		switch x := x.(type) {
		case *sloth.WriteableSignal[int]:
			return x.Value()
		case *sloth.ReadonlySignal[int]:
			v, err := x.Value()
			if err != nil {
				log.Panic(err)
			}
			return v
		default:
			panic("unknown node type")
		}
	}

	log.Print("Starting turnsignal benchmark, please wait...")
	defer log.Print("Finished turnsignal benchmark")

	tbl := table.NewWriter()
	tbl.SetTitle("Sloth Signals")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	var (
		reportRows []templates.Row
		totalReads int64
	)
	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rs := sloth.NewReactiveSystem()
			src := sloth.Signal(rs, 1)
			leaves := make([]any, 0, w)
			for i := 0; i < w; i++ {
				var last any = src
				for j := 0; j < h; j++ {
					prev := last
					last = sloth.Computed(rs, func() (int, error) {
						return readValue(prev) + 1, nil
					})
				}
				leaves = append(leaves, last)
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				if err := src.SetValue(src.Value() + 1); err != nil {
					return err
				}
				for _, leaf := range leaves {
					readValue(leaf)
					totalReads++
				}
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			name := fmt.Sprintf("propagate: %d * %d", w, h)
			tbl.AppendRows([]table.Row{
				{
					name,
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
			reportRows = append(reportRows, templates.Row{
				Name: name,
				Avg:  calc.Time.Avg.String(),
				Min:  calc.Time.Min.String(),
				P75:  calc.Time.P75.String(),
				P99:  calc.Time.P99.String(),
				Max:  calc.Time.Max.String(),
			})
		}
	}

	tbl.Render()
	log.Printf("%s leaf reads total", humanize.Comma(totalReads))

	if path := cmd.String(reportKey); path != "" {
		contents := templates.Report("Sloth Signals", reportRows)
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			return err
		}
		log.Printf("report written to %s", path)
	}
	return nil
}
