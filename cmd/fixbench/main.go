// Command fixbench sweeps the workload runner across thread counts and
// comparator implementations, writing one CSV row per (name, threads)
// measurement. Grounded on original_source/src/main.rs's sweep-over-
// num_threads loop and write_csv — the SVG plotting step from that same
// file is intentionally not reproduced (see SPEC_FULL.md §1c).
package main

import (
	"encoding/csv"
	"log/slog"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	flag "github.com/spf13/pflag"

	"github.com/codeGROOVE-dev/fixmap/adapters"
	"github.com/codeGROOVE-dev/fixmap/internal/keypool"
	"github.com/codeGROOVE-dev/fixmap/internal/workload"
)

func main() {
	capacity := flag.Int("capacity", 100_000, "key-space and comparator capacity")
	valSize := flag.Int("val-size", 64, "value size in bytes for byte-valued comparators")
	opsPerRun := flag.Int("ops", 2_000_000, "total operations per (comparator, thread-count) run")
	maxThreads := flag.Int("max-threads", 16, "sweep thread counts from 1 to this value")
	readPercent := flag.Int("read-percent", 95, "read percentage: 100 selects read-only, anything else read-heavy")
	out := flag.String("out", "fixbench.csv", "output CSV path")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	mix := workload.ReadHeavy()
	if *readPercent == 100 {
		mix = workload.ReadOnly()
	}
	ops := mix.ToOps()

	f, err := os.Create(*out)
	if err != nil {
		slog.Error("create output file", "path", *out, "err", err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"name", "threads", "total_ops", "latency_ns"}); err != nil {
		slog.Error("write csv header", "err", err)
		os.Exit(1)
	}

	prefill := *capacity / 2

	for threads := 1; threads <= *maxThreads; threads++ {
		for _, comparator := range comparators(*capacity, *valSize) {
			keys := keypool.New(*capacity)
			cfg := workload.RunConfig{Threads: threads, TotalOps: *opsPerRun, Prefill: prefill}

			m := workload.Run(comparator.name, comparator.collection, ops, cfg, keys)

			slog.Info("measurement",
				"name", m.Name,
				"threads", m.ThreadCount,
				"total_ops", humanize.Comma(int64(m.TotalOps)),
				"latency", humanize.Comma(int64(m.LatencyNs))+"ns")

			row := []string{
				m.Name,
				strconv.FormatUint(m.ThreadCount, 10),
				strconv.FormatUint(m.TotalOps, 10),
				strconv.FormatUint(m.LatencyNs, 10),
			}
			if err := w.Write(row); err != nil {
				slog.Error("write csv row", "err", err)
				os.Exit(1)
			}
		}
	}
}

type namedCollection struct {
	name       string
	collection workload.Collection[uint64, []byte]
}

// comparators builds one fresh instance of every registered comparator for
// a sweep iteration; fresh instances avoid carrying state (and any eviction
// history) across thread-count steps.
func comparators(capacity, valSize int) []namedCollection {
	bfix, err := adapters.NewBFix[[]byte](capacity)
	if err != nil {
		slog.Error("construct bfix comparator", "err", err)
		os.Exit(1)
	}

	ristretto, err := adapters.NewRistretto(capacity, valSize)
	if err != nil {
		slog.Error("construct ristretto comparator", "err", err)
		os.Exit(1)
	}

	lru, err := adapters.NewLRU(capacity, valSize)
	if err != nil {
		slog.Error("construct lru comparator", "err", err)
		os.Exit(1)
	}

	return []namedCollection{
		{"nop", adapters.NewNoOp[[]byte]()},
		{"mutexmap", adapters.NewMutexMap[[]byte](capacity)},
		{"rwsnapshot", adapters.NewRWSnapshot[[]byte](capacity)},
		{"xsyncmap", adapters.NewXsyncMap[[]byte]()},
		{"bfix", bfix},
		{"freecache", adapters.NewFreeCache(capacity, valSize)},
		{"ristretto", ristretto},
		{"lru", lru},
		{"otter", adapters.NewOtter(capacity, valSize)},
		{"tinylfu", adapters.NewTinyLFU(capacity, valSize)},
	}
}
