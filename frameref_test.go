package avcodec

import (
	"testing"
)

func TestFrameRef_ReleaseRunsTeardownOnce(t *testing.T) {
	released := 0
	ref := newFrameRef(func() { released++ })

	if got := ref.Refs(); got != 1 {
		t.Fatalf("initial Refs() = %d, want 1", got)
	}

	ref.Retain()
	ref.Release()
	if released != 0 {
		t.Fatal("teardown ran while references remain")
	}

	ref.Release()
	if released != 1 {
		t.Fatalf("teardown ran %d times, want 1", released)
	}
}

func TestFrameRef_RetainAfterReleasePanics(t *testing.T) {
	ref := newFrameRef(nil)
	ref.Release()

	defer func() {
		if recover() == nil {
			t.Error("Retain on a released ref did not panic")
		}
	}()
	ref.Retain()
}

func TestFrameRef_DoubleReleasePanics(t *testing.T) {
	ref := newFrameRef(nil)
	ref.Release()

	defer func() {
		if recover() == nil {
			t.Error("double Release did not panic")
		}
	}()
	ref.Release()
}

func TestVideoFrame_RetainRelease(t *testing.T) {
	released := false
	f := &VideoFrame{
		Width: 2, Height: 2, Format: PixelFormatGray8,
		ref: newFrameRef(func() { released = true }),
	}

	ref := f.ref
	f.Retain()
	f.Release() // frame detaches, the retained reference keeps storage alive

	if released {
		t.Fatal("storage released while a reference remained")
	}
	ref.Release()
	if !released {
		t.Fatal("storage not released after the last reference dropped")
	}
}
