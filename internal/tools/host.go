package tools

import (
	"context"
	"math"
	"os"
	"runtime"
)

type hostInfoArgs struct{}

type systemResourcesArgs struct{}

// RegisterHostTools adds the host and runtime inspection tools to r.
func RegisterHostTools(r *Registry) error {
	return register(r, []registration{
		{
			name:        "get_host_info",
			description: "Get host information: operating system, architecture, hostname, CPU count and working directory.",
			schema:      ReflectSchema[hostInfoArgs],
			handler:     handleHostInfo,
		},
		{
			name:        "get_system_resources",
			description: "Get current process resource usage: goroutines, CPU count and Go memory statistics.",
			schema:      ReflectSchema[systemResourcesArgs],
			handler:     handleSystemResources,
		},
	})
}

func handleHostInfo(_ context.Context, _ map[string]any) (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "unknown"
	}

	return marshalResult(map[string]any{
		"system":      runtime.GOOS,
		"arch":        runtime.GOARCH,
		"hostname":    hostname,
		"cpu_count":   runtime.NumCPU(),
		"go_version":  runtime.Version(),
		"pid":         os.Getpid(),
		"working_dir": cwd,
	})
}

func handleSystemResources(_ context.Context, _ map[string]any) (string, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	toMB := func(b uint64) float64 {
		return math.Round(float64(b)/(1<<20)*100) / 100
	}

	return okJSON("system resources", map[string]any{
		"resources": map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"cpu_count":  runtime.NumCPU(),
			"gomaxprocs": runtime.GOMAXPROCS(0),
			"memory": map[string]any{
				"alloc_mb":     toMB(mem.Alloc),
				"sys_mb":       toMB(mem.Sys),
				"heap_objects": mem.HeapObjects,
				"gc_cycles":    mem.NumGC,
			},
		},
	})
}
