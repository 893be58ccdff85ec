// Debug memory reporting
package main

import (
	"runtime"

	"github.com/sirupsen/logrus"
)

// logMemoryUsage reports Go heap usage at debug level. Mat memory lives in
// the C heap and shows up in sys_mb only.
func logMemoryUsage(logger *logrus.Logger, stage string) {
	if !logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	logger.WithFields(logrus.Fields{
		"stage":          stage,
		"alloc_mb":       float64(m.Alloc) / 1024 / 1024,
		"total_alloc_mb": float64(m.TotalAlloc) / 1024 / 1024,
		"sys_mb":         float64(m.Sys) / 1024 / 1024,
		"num_gc":         m.NumGC,
	}).Debug("Memory usage")
}
