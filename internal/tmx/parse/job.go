package parse

import (
	"context"

	"github.com/shawnli329/SLTMX-Editor/internal/tmx"
)

const progressBuffer = 16

// Job is an asynchronous parse of one file. It runs on its own goroutine
// so the caller's control flow (a UI event loop, typically) never blocks;
// progress and the terminal result come back over channels.
//
// Progress snapshots are delivered in strictly increasing unit order and
// the progress channel is closed before Done is signalled, so nothing
// arrives after the terminal result. Slow consumers lose intermediate
// snapshots rather than stalling the parse.
type Job struct {
	progress chan Progress
	done     chan struct{}
	cancel   context.CancelFunc

	doc *tmx.Document
	err error
}

// Start begins parsing path in the background.
func Start(path string, opts ...Option) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		progress: make(chan Progress, progressBuffer),
		done:     make(chan struct{}),
		cancel:   cancel,
	}

	opts = append(opts, WithProgress(j.forward))

	go func() {
		defer cancel()
		doc, err := ParseFile(ctx, path, opts...)
		close(j.progress)
		j.doc, j.err = doc, err
		close(j.done)
	}()

	return j
}

// forward pushes a snapshot without blocking the parser. Dropping keeps
// ordering intact; only the latest snapshots matter to a progress bar.
func (j *Job) forward(p Progress) {
	select {
	case j.progress <- p:
	default:
	}
}

// Progress returns the snapshot channel. It is closed before Done fires.
func (j *Job) Progress() <-chan Progress {
	return j.progress
}

// Done is closed once the job has a terminal result.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result blocks until the job finishes and returns the parsed document or
// the terminal error. After cancellation the error kind is KindCancelled
// and the document is nil.
func (j *Job) Result() (*tmx.Document, error) {
	<-j.done
	return j.doc, j.err
}

// Cancel requests cooperative cancellation. The parser notices at the next
// unit boundary; Result then reports KindCancelled.
func (j *Job) Cancel() {
	j.cancel()
}
