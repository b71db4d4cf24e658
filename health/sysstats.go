package health

import (
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// cpuSampleInterval is the window for CPU utilization sampling.
const cpuSampleInterval = 100 * time.Millisecond

// provider reads OS resource statistics through gopsutil.
type provider struct {
	diskPath string
}

// NewProvider creates the gopsutil-backed stats provider, reporting disk
// usage for the root filesystem.
func NewProvider() StatsProvider {
	return &provider{diskPath: "/"}
}

func (p *provider) SystemStats() (map[string]any, error) {
	percent, err := cpu.Percent(cpuSampleInterval, false)
	if err != nil {
		return nil, err
	}
	cpuPercent := 0.0
	if len(percent) > 0 {
		cpuPercent = percent[0]
	}

	counts, err := cpu.Counts(true)
	if err != nil {
		return nil, err
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}

	du, err := disk.Usage(p.diskPath)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"cpu_percent":      cpuPercent,
		"cpu_count":        counts,
		"memory_total":     vm.Total,
		"memory_available": vm.Available,
		"memory_used":      vm.Used,
		"memory_percent":   vm.UsedPercent,
		"disk_total":       du.Total,
		"disk_used":        du.Used,
		"disk_free":        du.Free,
		"disk_percent":     du.UsedPercent,
		"timestamp":        time.Now(),
	}, nil
}

func (p *provider) MemoryInfo() (map[string]any, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}

	swap, err := mem.SwapMemory()
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"virtual": map[string]any{
			"total":     vm.Total,
			"available": vm.Available,
			"used":      vm.Used,
			"free":      vm.Free,
			"percent":   vm.UsedPercent,
		},
		"swap": map[string]any{
			"total":   swap.Total,
			"used":    swap.Used,
			"free":    swap.Free,
			"percent": swap.UsedPercent,
		},
	}, nil
}

func (p *provider) CPUInfo() (map[string]any, error) {
	physical, err := cpu.Counts(false)
	if err != nil {
		return nil, err
	}

	logical, err := cpu.Counts(true)
	if err != nil {
		return nil, err
	}

	percent, err := cpu.Percent(cpuSampleInterval, false)
	if err != nil {
		return nil, err
	}
	cpuPercent := 0.0
	if len(percent) > 0 {
		cpuPercent = percent[0]
	}

	times, err := cpu.Times(false)
	if err != nil {
		return nil, err
	}

	info := map[string]any{
		"count":         physical,
		"count_logical": logical,
		"percent":       cpuPercent,
	}
	if len(times) > 0 {
		info["times"] = map[string]any{
			"user":   times[0].User,
			"system": times[0].System,
			"idle":   times[0].Idle,
		}
	}

	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info["frequency_mhz"] = cpus[0].Mhz
		info["model"] = cpus[0].ModelName
	}

	return info, nil
}
