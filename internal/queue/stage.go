package queue

import "context"

// Stage is one layer of the pipeline (link, codec, fw, autoconfig):
// an independent unit of execution reading/writing Envelopes through
// bounded Queues, grounded on std/engine/basic/engine.go's
// inQueue/taskQueue/close/running shape and PiCN's
// start_process/stop_process layer contract.
type Stage interface {
	// Run starts the stage's worker goroutine(s) and returns
	// immediately; the stage keeps running until Stop is called or
	// ctx is cancelled.
	Run(ctx context.Context)
	// Stop signals the worker(s) to exit after the current packet and
	// closes any owned resources (e.g. sockets). Idempotent.
	Stop()
}
