// Package health reports node diagnostics for the /api/health endpoint.
// The Pi nodes live in a cold rink with marginal power, so load, memory and
// CPU temperature are worth a glance when sensors go quiet.
package health

import (
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

type Snapshot struct {
	Hostname      string   `json:"hostname"`
	UptimeS       uint64   `json:"uptime_s"`
	Load1         float64  `json:"load_1"`
	MemoryUsedPct float64  `json:"memory_used_pct"`
	CPUTempC      *float64 `json:"cpu_temp_c,omitempty"`
}

// Collect gathers best-effort diagnostics. Probes that fail leave their
// fields zero rather than failing the whole snapshot.
func Collect() Snapshot {
	var snap Snapshot

	if info, err := host.Info(); err == nil {
		snap.Hostname = info.Hostname
		snap.UptimeS = info.Uptime
	}
	if avg, err := load.Avg(); err == nil {
		snap.Load1 = avg.Load1
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snap.MemoryUsedPct = vm.UsedPercent
	}
	if temps, err := host.SensorsTemperatures(); err == nil {
		for _, t := range temps {
			// cpu_thermal on the Pi, coretemp elsewhere.
			if strings.Contains(t.SensorKey, "cpu_thermal") || strings.Contains(t.SensorKey, "coretemp") {
				temp := t.Temperature
				snap.CPUTempC = &temp
				break
			}
		}
	}
	return snap
}
