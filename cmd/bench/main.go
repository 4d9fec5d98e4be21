package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/nexia"
	"github.com/aretw0/nexia/pkg/core"
)

func main() {
	count := flag.Int("count", 1000, "Number of notes to generate")
	degree := flag.Int("degree", 5, "Outgoing links per note")
	adapters := flag.String("adapters", "json,yaml,sqlite,badger", "Comma separated adapters to measure")
	keep := flag.Bool("keep", false, "Keep the benchmark directory after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "nexia_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	fmt.Printf("Building a graph of %d notes (%d links each)...\n", *count, *degree)
	start := time.Now()
	source := core.NewService(nil)
	ids := make([]string, *count)
	for i := range *count {
		n, err := source.CreateNote(ctx, fmt.Sprintf("Note %d", i))
		if err != nil {
			panic(err)
		}
		ids[i] = n.ID.String()
	}
	for i, id := range ids {
		content := strings.Builder{}
		for range *degree {
			j := rand.IntN(len(ids))
			if err := source.LinkNotes(ctx, id, ids[j]); err != nil {
				panic(err)
			}
			fmt.Fprintf(&content, "see note %d. ", rand.IntN(len(ids)))
		}
		if _, err := source.UpdateContent(ctx, ids[i], content.String()); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Build took: %v\n", time.Since(start))

	start = time.Now()
	for _, id := range ids {
		if _, err := source.Backlinks(ctx, id); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Backlinks of every note: %v\n", time.Since(start))

	start = time.Now()
	hits := source.Search(ctx, "note 1", core.ScopeContent)
	fmt.Printf("Search: %v (%d hits)\n", time.Since(start), len(hits))

	start = time.Now()
	suggestions, err := source.SuggestLinks(ctx, ids[0])
	if err != nil {
		panic(err)
	}
	fmt.Printf("Suggest: %v (%d notes)\n", time.Since(start), len(suggestions))

	snapshot := source.Snapshot()
	fmt.Printf("--------------------------------------------------\n")
	for _, adapter := range strings.Split(*adapters, ",") {
		path := filepath.Join(benchDir, "bench-"+adapter)
		storage, err := nexia.OpenStorage(path, nexia.WithAdapter(adapter), nexia.WithLogger(logger))
		if err != nil {
			panic(err)
		}

		start := time.Now()
		if err := storage.Save(ctx, snapshot, path); err != nil {
			panic(err)
		}
		saveDur := time.Since(start)

		start = time.Now()
		nb, err := storage.Load(ctx, path)
		if err != nil {
			panic(err)
		}
		loadDur := time.Since(start)

		fmt.Printf("%-8s save %-14v load %-14v (%d notes)\n", adapter, saveDur, loadDur, nb.Len())
	}
	fmt.Printf("--------------------------------------------------\n")
}
