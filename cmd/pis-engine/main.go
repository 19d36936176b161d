// Command pis-engine runs the UCI protocol loop hosting the path integral
// sampler in place of a conventional tree search.
package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime/pprof"

	"github.com/hailam/pathintegral/internal/backend"
	"github.com/hailam/pathintegral/internal/cache"
	"github.com/hailam/pathintegral/internal/shell"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	noCache    = flag.Bool("no-cache", false, "disable the persistent evaluation cache")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			slog.Error("could not create CPU profile", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			slog.Error("could not start CPU profile", "error", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
		slog.Info("CPU profiling enabled", "path", profilePath)
	}

	be, evalCache := loadBackend()
	if evalCache != nil {
		defer evalCache.Close()
	}

	s := shell.New(be)
	s.Run()
}

// loadBackend opens the persistent evaluation cache and returns a backend
// wrapping it, falling back to the same backend without a cache (every
// evaluation computed fresh) when the cache can't be opened or was disabled. The returned *cache.EvalCache is nil
// whenever there is nothing for the caller to close.
func loadBackend() (backend.Backend, *cache.EvalCache) {
	if *noCache {
		return backend.NewCachedBackend(nil), nil
	}

	c, err := cache.Open()
	if err != nil {
		slog.Warn("evaluation cache not available, evaluations will not be cached", "error", err)
		return backend.NewCachedBackend(nil), nil
	}

	return backend.NewCachedBackend(c), c
}
