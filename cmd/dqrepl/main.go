package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	dqengine "github.com/dquery/dqengine"
	"github.com/dquery/dqengine/internal/candidateset"
	"github.com/dquery/dqengine/internal/evaluator"
	"github.com/dquery/dqengine/internal/executor"
)

const helpText = `dqrepl — distribution-aware dataset search REPL

Commands:
  mode <sequential|prefilter|threaded>   Switch executor mode (current: %s)
  fainder <low_memory|full_precision|full_recall|exact>   Switch Fainder mode (current: %s)
  help                                   Show this help message
  exit / quit                            Exit the REPL

Any other input is treated as a DQL query against the baked-in demo index.

DQL examples:
  KW("rainfall")
  KW("rainfall") AND COL(NAME("temperature";3))
  COL(PP(0.9;ge;30)) OR COL(PP(0.1;le;-10))
  NOT KW("census")
`

func main() {
	if cleanup, err := dqengine.InitDevelopmentLogging(); err == nil {
		defer cleanup()
	}

	engine, err := dqengine.New(dqengine.DefaultConfig(), demoEvaluators(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build engine: %v\n", err)
		os.Exit(1)
	}

	mode := executor.Prefilter
	fainderMode := evaluator.FullPrecision

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("dqrepl — distribution-aware dataset search engine")
	fmt.Println(`Type "help" for available commands.`)
	fmt.Println()

	for {
		fmt.Printf("[%s/%s]> ", mode, fainderMode)
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "exit", "quit":
			return

		case "help":
			fmt.Printf(helpText, mode, fainderMode)

		case "mode":
			if len(parts) != 2 {
				fmt.Println("usage: mode <sequential|prefilter|threaded>")
				continue
			}
			m, ok := parseMode(parts[1])
			if !ok {
				fmt.Printf("unknown mode %q\n", parts[1])
				continue
			}
			mode = m

		case "fainder":
			if len(parts) != 2 {
				fmt.Println("usage: fainder <low_memory|full_precision|full_recall|exact>")
				continue
			}
			fm, ok := parseFainderMode(parts[1])
			if !ok {
				fmt.Printf("unknown fainder mode %q\n", parts[1])
				continue
			}
			fainderMode = fm

		default:
			runQuery(engine, mode, fainderMode, line)
		}
	}
}

func runQuery(engine *dqengine.Engine, mode executor.Mode, fainderMode evaluator.FainderMode, query string) {
	res, err := engine.Execute(context.Background(), query, mode, fainderMode)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if len(res.IDs) == 0 {
		fmt.Println("(no matching datasets)")
		return
	}
	for _, id := range res.IDs {
		name := demoDatasetNames[id]
		if score, ok := res.Scores[id]; ok {
			fmt.Printf("  %d  %-24s  score=%.3f\n", id, name, score)
		} else {
			fmt.Printf("  %d  %s\n", id, name)
		}
	}
}

func parseMode(s string) (executor.Mode, bool) {
	switch s {
	case "sequential":
		return executor.Sequential, true
	case "prefilter":
		return executor.Prefilter, true
	case "threaded":
		return executor.Threaded, true
	default:
		return 0, false
	}
}

func parseFainderMode(s string) (evaluator.FainderMode, bool) {
	switch s {
	case "low_memory":
		return evaluator.LowMemory, true
	case "full_precision":
		return evaluator.FullPrecision, true
	case "full_recall":
		return evaluator.FullRecall, true
	case "exact":
		return evaluator.Exact, true
	default:
		return 0, false
	}
}

// --- baked-in demo index -----------------------------------------------
//
// A tiny in-memory stand-in for the external keyword/column-name/
// percentile indexes spec.md §1 treats as out of scope: five datasets
// about weather and public-health observations, enough to exercise
// every DQL construct from the REPL without wiring a real index.

var demoDatasetNames = map[evaluator.DatasetID]string{
	0: "daily_rainfall_totals",
	1: "city_temperature_series",
	2: "county_census_2020",
	3: "air_quality_index",
	4: "hospital_admissions",
}

var demoColumnDataset = map[evaluator.ColumnID]evaluator.DatasetID{
	0: 0, // rainfall_mm
	1: 1, // temperature
	2: 2, // population
	3: 3, // aqi
	4: 4, // admission_count
}

type demoKeyword struct{}

func (demoKeyword) Search(ctx context.Context, query string, candidates *candidateset.Set, minScore float64, maxResults int) (evaluator.KeywordResult, error) {
	hits := map[string][]evaluator.KeywordHit{
		"rainfall": {{Dataset: 0, Score: 0.95}},
		"weather":  {{Dataset: 0, Score: 0.8}, {Dataset: 1, Score: 0.7}},
		"census":   {{Dataset: 2, Score: 0.9}},
		"air":      {{Dataset: 3, Score: 0.85}},
		"health":   {{Dataset: 4, Score: 0.88}, {Dataset: 3, Score: 0.4}},
	}
	var out []evaluator.KeywordHit
	for _, h := range hits[strings.ToLower(query)] {
		if candidates != nil && !candidates.Contains(uint32(h.Dataset)) {
			continue
		}
		out = append(out, h)
	}
	return evaluator.KeywordResult{Hits: out}, nil
}

type demoColumnName struct{}

func (demoColumnName) Search(ctx context.Context, name string, k int) ([]evaluator.ColumnID, error) {
	byName := map[string][]evaluator.ColumnID{
		"temperature":     {1},
		"rainfall_mm":     {0},
		"population":      {2},
		"aqi":             {3},
		"admission_count": {4},
	}
	return byName[strings.ToLower(name)], nil
}

type demoPercentile struct{}

func (demoPercentile) Search(ctx context.Context, p float64, cmp evaluator.Comparator, v float64, candidates *candidateset.Set, mode evaluator.FainderMode) (*candidateset.Set, error) {
	// p, cmp and v are ignored: every one of the five demo histograms
	// (one per column, 1:1 with the columns above) matches, subject
	// only to candidates.
	out := candidateset.NewEmpty(5)
	for h := uint32(0); h < 5; h++ {
		if candidates != nil && !candidates.Contains(h) {
			continue
		}
		out.Add(h)
	}
	return out, nil
}

type demoMeta struct{}

func (demoMeta) ColumnToDataset(col evaluator.ColumnID) (evaluator.DatasetID, bool) {
	ds, ok := demoColumnDataset[col]
	return ds, ok
}

func (demoMeta) ColumnsToDatasets(cols []evaluator.ColumnID) []evaluator.DatasetID {
	out := make([]evaluator.DatasetID, 0, len(cols))
	for _, c := range cols {
		if ds, ok := demoColumnDataset[c]; ok {
			out = append(out, ds)
		}
	}
	return out
}

func (demoMeta) HistogramToColumn(hist evaluator.HistogramID) (evaluator.ColumnID, bool) {
	if uint32(hist) >= 5 {
		return 0, false
	}
	return evaluator.ColumnID(hist), true
}

func (demoMeta) DatasetUniverse() *candidateset.Set         { return candidateset.NewFull(5) }
func (demoMeta) HistogramColumnUniverse() *candidateset.Set { return candidateset.NewFull(5) }
func (demoMeta) ColumnUniverse() *candidateset.Set          { return candidateset.NewFull(5) }
func (demoMeta) DatasetCount() uint32                       { return 5 }
func (demoMeta) ColumnCount() uint32                        { return 5 }
func (demoMeta) HistogramCount() uint32                     { return 5 }

func demoEvaluators() executor.Evaluators {
	return executor.Evaluators{
		Keyword:    demoKeyword{},
		ColumnName: demoColumnName{},
		Percentile: demoPercentile{},
		Meta:       demoMeta{},
	}
}
