package avcodec

import "sync/atomic"

// FrameRef is a shared-ownership handle for externally owned, reference
// counted frame storage. Frames produced by the decode drivers embed one;
// every view sharing the storage holds a reference, and the external release
// call runs exactly once when the last reference is dropped.
type FrameRef struct {
	refs    atomic.Int32
	release func()
}

// newFrameRef creates a handle holding one reference. release performs the
// external teardown and is invoked exactly once.
func newFrameRef(release func()) *FrameRef {
	r := &FrameRef{release: release}
	r.refs.Store(1)
	return r
}

// Retain adds a reference. Each Retain must be balanced by a Release.
func (r *FrameRef) Retain() {
	if r.refs.Add(1) <= 1 {
		panic("avcodec: Retain on released FrameRef")
	}
}

// Release drops a reference, running the external teardown when the count
// reaches zero. Releasing more times than retained is a programming error.
func (r *FrameRef) Release() {
	n := r.refs.Add(-1)
	if n == 0 {
		if r.release != nil {
			r.release()
			r.release = nil
		}
		return
	}
	if n < 0 {
		panic("avcodec: Release on released FrameRef")
	}
}

// Refs returns the current reference count.
func (r *FrameRef) Refs() int { return int(r.refs.Load()) }
