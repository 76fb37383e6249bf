package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/forgelight/membudget/internal/config"
	"github.com/forgelight/membudget/internal/memory"
	"github.com/forgelight/membudget/internal/storage"
)

// memsim drives a synthetic allocation workload against the memory
// manager: admissions across every category, uneven access patterns so
// the reclaimer has something to evict, and periodic update ticks.
func main() {
	env := flag.String("env", "development", "config environment to load")
	flag.Parse()

	cfg, err := config.LoadConfig(*env)
	if err != nil {
		log.Fatal(err)
	}

	manager := memory.NewManager(cfg.Memory)
	guarded := memory.NewGuarded(manager)

	guarded.Manager().AddWarningCallback(func(usage float64) {
		log.Printf("memory pressure warning: %.1f%%", usage)
	})
	guarded.Manager().AddCriticalCallback(func(usage float64) {
		log.Printf("memory pressure CRITICAL: %.1f%%", usage)
	})

	var snap *storage.Snapshotter
	if cfg.Snapshot.Enabled {
		interval := cfg.Snapshot.Interval.Std()
		if interval <= 0 {
			interval = 10 * time.Second
		}
		snap = storage.NewSnapshotter(cfg.Snapshot.Path, interval)
		snap.Start(interval, func() interface{} { return guarded.Stats() })
		defer snap.Close()
	}

	workers := cfg.Simulation.Workers
	if workers <= 0 {
		workers = 4
	}
	tick := cfg.Simulation.TickInterval.Std()
	if tick <= 0 {
		tick = 16 * time.Millisecond
	}
	duration := cfg.Simulation.Duration.Std()
	if duration <= 0 {
		duration = 30 * time.Second
	}

	log.Printf("memsim: budget %.0f MB, %d workers, %s ticks for %s",
		cfg.Memory.TotalBudgetMB, workers, tick, duration)

	stop := time.After(duration)
	done := make(chan struct{})

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(worker) + 1))
			categories := memory.Categories()
			seq := 0
			for {
				select {
				case <-done:
					return
				default:
				}

				cat := categories[rng.Intn(len(categories))]
				prio := memory.Priority(rng.Intn(5))
				size := int64(1024 << rng.Intn(12)) // 1KB..2MB
				id := fmt.Sprintf("w%d_%s_%d", worker, cat, seq)
				seq++

				if guarded.AllocateResource(id, size, cat, prio) {
					// Touch roughly half of what we allocate so the
					// rest ages out.
					if rng.Intn(2) == 0 {
						guarded.AccessResource(id)
					}
					if rng.Intn(8) == 0 {
						guarded.DeallocateResource(id)
					}
				}

				time.Sleep(time.Duration(rng.Intn(4)) * time.Millisecond)
			}
		}(w)
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	last := time.Now()

loop:
	for {
		select {
		case now := <-ticker.C:
			guarded.Update(now.Sub(last))
			last = now
		case <-stop:
			break loop
		}
	}
	close(done)
	wg.Wait()

	freed := guarded.ForceGarbageCollection()
	log.Printf("final gc freed %.2f MB", freed)
	fmt.Print(guarded.Manager().Info())
}
