// Package resource samples process-level resource usage. Samples are
// plain values so runs can be measured, and tested, without reading
// ambient counters ad hoc.
package resource

import (
	"runtime"
	"time"

	"github.com/prometheus/procfs"
)

// Snapshot is the process state at one instant.
type Snapshot struct {
	Wall      time.Time
	CPUUser   time.Duration
	CPUSystem time.Duration
	HeapBytes int64 // live Go heap (HeapAlloc)
	RSSBytes  int64 // resident set size, zero where unavailable
}

// Sampler takes snapshots.
type Sampler interface {
	Sample() Snapshot
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func() Snapshot

// Sample calls f.
func (f SamplerFunc) Sample() Snapshot { return f() }

// Process samples the current process.
type Process struct {
	proc    procfs.Proc
	hasProc bool
}

// NewProcess returns a sampler for this process. RSS sampling is
// disabled when /proc is not available.
func NewProcess() *Process {
	p := &Process{}
	if proc, err := procfs.Self(); err == nil {
		p.proc = proc
		p.hasProc = true
	}
	return p
}

// Sample implements Sampler.
func (p *Process) Sample() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	user, system := cpuTimes()
	s := Snapshot{
		Wall:      time.Now(),
		CPUUser:   user,
		CPUSystem: system,
		HeapBytes: int64(ms.HeapAlloc),
	}
	if p.hasProc {
		if stat, err := p.proc.Stat(); err == nil {
			s.RSSBytes = int64(stat.ResidentMemory())
		}
	}
	return s
}

// Runtime describes the Go runtime the process runs on, such as
// "go1.24.2 linux/amd64".
func Runtime() string {
	return runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH
}
