// Command bench runs a synthetic workload against the limiter, serves Prometheus metrics, and exposes an optional pprof endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	pmet "github.com/ratekit/ratekit/metrics/prom"
	"github.com/ratekit/ratekit/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ---- Flags ----
	var (
		shards   = flag.Int("shards", 0, "number of shards (0=default)")
		capacity = flag.Uint64("capacity", 100, "bucket capacity (tokens)")
		rate     = flag.Uint64("rate", 50, "refill rate (tokens/sec)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")

		keys  = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed  = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "ratekit", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build limiter ----
	l := ratelimit.New(ratelimit.Config{
		Shards:  *shards,
		Metrics: metrics,
	}, nil)

	limit := ratelimit.Limit{Capacity: *capacity, RefillPerSec: *rate}

	// ---- Snapshot flags for goroutines ----
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var total, allowed, denied uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				if d := l.Allow(keyByZipf(), limit); d.Allowed {
					atomic.AddUint64(&allowed, 1)
				} else {
					atomic.AddUint64(&denied, 1)
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	allowedN := atomic.LoadUint64(&allowed)
	deniedN := atomic.LoadUint64(&denied)

	admitRate := 0.0
	if ops > 0 {
		admitRate = float64(allowedN) / float64(ops) * 100
	}

	fmt.Printf("capacity=%d rate=%d shards=%d workers=%d keys=%d dur=%v seed=%d\n",
		*capacity, *rate, *shards, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)\n", ops, float64(ops)/elapsed.Seconds())
	fmt.Printf("allowed=%d  denied=%d  admit-rate=%.2f%%\n", allowedN, deniedN, admitRate)
	fmt.Printf("Size()=%d\n", l.Size())
}
