// Package parallel provides the process-wide worker pool used for building
// acceleration structures and dispatching render tiles.
package parallel

import (
	"runtime"

	"github.com/achilleasa/polaris-accel/log"
)

var (
	logger = log.New("parallel")

	// The process-wide pool. Nil until Init is called, in which case all
	// loops run inline on the calling goroutine.
	defaultPool *Pool
)

// DefaultWorkers returns max(NumCPU-1, 1); the calling goroutine is the
// remaining executor.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// Init starts the process-wide pool with DefaultWorkers() workers. Calling
// Init twice without an intermediate Shutdown is not supported.
func Init() {
	InitWorkers(0)
}

// InitWorkers starts the process-wide pool with a specific worker count. A
// value <= 0 selects DefaultWorkers().
func InitWorkers(workers int) {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	defaultPool = NewPool(workers)
	logger.Infof("started %d workers", workers)
}

// Shutdown stops the process-wide pool and waits for its workers to exit.
func Shutdown() {
	if defaultPool == nil {
		return
	}
	defaultPool.Close()
	logger.Debugf("stopped %d workers", defaultPool.Workers())
	defaultPool = nil
}

// Workers reports the number of workers in the process-wide pool.
func Workers() int {
	return defaultPool.Workers()
}

// For runs fn over [0, count) on the process-wide pool. See Pool.For.
func For(count, chunkSize int, fn func(i int)) {
	defaultPool.For(count, chunkSize, fn)
}

// For2D runs fn over a width x height grid on the process-wide pool. See
// Pool.For2D.
func For2D(width, height int, fn func(x, y int)) {
	defaultPool.For2D(width, height, fn)
}
