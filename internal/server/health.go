package server

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/process"
)

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	MemoryRSS     uint64  `json:"memory_rss_bytes"`
	Memory        string  `json:"memory"`
	HeapAlloc     uint64  `json:"heap_alloc_bytes"`
	CPUPercent    float64 `json:"cpu_percent"`
	Goroutines    int     `json:"goroutines"`
}

func (s *Server) handleHealth(c *gin.Context) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	up := time.Since(s.started)
	resp := healthResponse{
		Status:        "healthy",
		Uptime:        humanize.RelTime(s.started, time.Now(), "", ""),
		UptimeSeconds: up.Seconds(),
		HeapAlloc:     ms.HeapAlloc,
		Goroutines:    runtime.NumGoroutine(),
	}

	// Process stats are best effort; some sandboxes hide /proc.
	if p, err := process.NewProcessWithContext(c.Request.Context(), int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfoWithContext(c.Request.Context()); err == nil {
			resp.MemoryRSS = mi.RSS
		}
		if pct, err := p.CPUPercentWithContext(c.Request.Context()); err == nil {
			resp.CPUPercent = pct
		}
	}
	if resp.MemoryRSS == 0 {
		resp.MemoryRSS = ms.Sys
	}
	resp.Memory = humanize.IBytes(resp.MemoryRSS)

	c.JSON(http.StatusOK, resp)
}
