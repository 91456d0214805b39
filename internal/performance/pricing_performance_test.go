package performance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricecube/internal/app"
	"pricecube/internal/clustering"
	"pricecube/internal/config"
	"pricecube/internal/pricing"
	"pricecube/internal/simulation"
	api "pricecube/pkg/contracts/api/v1"
)

// MaxLatency bounds the p95 of read endpoints under load.
const MaxLatency = time.Second

var RowCounts = []int{1000, 10000, 50000}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func generate(tb testing.TB, rows int) []pricing.Observation {
	tb.Helper()
	cfg := config.Default().Pricing
	cfg.Rows = rows
	gen, err := simulation.NewGeneratorFromConfig(config.DefaultCatalog(), cfg, quiet())
	require.NoError(tb, err)
	obs, err := gen.Generate(context.Background())
	require.NoError(tb, err)
	return obs
}

func BenchmarkGenerate(b *testing.B) {
	for _, n := range RowCounts {
		b.Run(fmt.Sprintf("rows=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				generate(b, n)
			}
		})
	}
}

func BenchmarkDerive(b *testing.B) {
	params := config.DefaultCatalog().CohortParams()
	for _, n := range RowCounts {
		obs := generate(b, n)
		for _, workers := range []int{1, 4} {
			b.Run(fmt.Sprintf("rows=%d/workers=%d", n, workers), func(b *testing.B) {
				d := pricing.NewDeriver(params, pricing.WithConcurrency(workers), pricing.WithLogger(quiet()))
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := d.Derive(context.Background(), obs); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkOptimalPrice(b *testing.B) {
	curve := pricing.Curve{MaxUnits: 200, Steepness: 0.12, Inflection: 95}
	bounds := pricing.PriceBounds{Low: 60, High: 140}
	for i := 0; i < b.N; i++ {
		pricing.OptimalPrice(55, curve, bounds)
	}
}

func BenchmarkProductTree(b *testing.B) {
	catalog := config.DefaultCatalog()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := clustering.ProductTree(catalog); err != nil {
			b.Fatal(err)
		}
	}
}

func TestDeriveConcurrencyMatchesSerial(t *testing.T) {
	obs := generate(t, 5000)
	params := config.DefaultCatalog().CohortParams()

	serial, err := pricing.NewDeriver(params, pricing.WithLogger(quiet())).Derive(context.Background(), obs)
	require.NoError(t, err)
	parallel, err := pricing.NewDeriver(params, pricing.WithConcurrency(8), pricing.WithLogger(quiet())).
		Derive(context.Background(), obs)
	require.NoError(t, err)

	assert.Equal(t, serial.Cohorts, parallel.Cohorts)
	assert.Equal(t, serial.Rows, parallel.Rows)
}

type loadResults struct {
	requests int64
	failures int64
	p95      time.Duration
}

func runLoad(t *testing.T, url string, concurrency, perWorker int) loadResults {
	t.Helper()
	var (
		res       loadResults
		mu        sync.Mutex
		latencies []time.Duration
		wg        sync.WaitGroup
	)
	client := &http.Client{Timeout: 10 * time.Second}
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				start := time.Now()
				resp, err := client.Get(url)
				elapsed := time.Since(start)
				atomic.AddInt64(&res.requests, 1)
				if err != nil {
					atomic.AddInt64(&res.failures, 1)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					atomic.AddInt64(&res.failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(latencies) > 0 {
		sortDurations(latencies)
		res.p95 = latencies[len(latencies)*95/100]
	}
	return res
}

func sortDurations(d []time.Duration) {
	sort.Slice(d, func(i, j int) bool { return d[i] < d[j] })
}

func TestLoadRecapEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load test in short mode")
	}

	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Server.RateLimit.Enabled = false
	cfg.Pricing.Rows = 2000

	application, err := app.NewApplication(context.Background(), cfg, quiet())
	require.NoError(t, err)
	server := httptest.NewServer(application.Router)
	defer func() {
		server.Close()
		application.Close(context.Background())
	}()

	_, err = application.Services.Pricing.CreateRun(context.Background(), api.CreateRunRequest{Source: "generate"})
	require.NoError(t, err)

	for _, concurrency := range []int{1, 10, 50} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			res := runLoad(t, server.URL+"/api/runs/latest/recap", concurrency, 20)
			assert.Zero(t, res.failures)
			assert.Equal(t, int64(concurrency*20), res.requests)
			assert.Less(t, res.p95, MaxLatency, "p95 latency")
		})
	}
}
