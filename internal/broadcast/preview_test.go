package broadcast

import (
	"errors"
	"testing"
)

func TestPreviewAcquisition_rejects_concurrent_request(t *testing.T) {
	var p PreviewAcquisition
	e := &fakeEngine{}

	if err := p.Request(e, AspectNone, false, func(PreviewResult) {}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if err := p.Request(e, AspectNone, false, func(PreviewResult) {}); !errors.Is(err, ErrPreviewPending) {
		t.Errorf("expected ErrPreviewPending, got %v", err)
	}
	if e.previewRequests != 1 {
		t.Errorf("engine should see one request, got %d", e.previewRequests)
	}

	e.resolvePreview(fakeSurface{id: "p"}, nil)
	if p.Pending() {
		t.Error("request should no longer be pending")
	}
	if err := p.Request(e, AspectFit, true, func(PreviewResult) {}); err != nil {
		t.Errorf("request after resolution: %v", err)
	}
}

func TestPreviewAcquisition_delivers_once(t *testing.T) {
	var p PreviewAcquisition
	discarded := 0
	p.discarded = func() { discarded++ }
	e := &fakeEngine{}

	var results []PreviewResult
	_ = p.Request(e, AspectNone, false, func(r PreviewResult) { results = append(results, r) })

	e.resolvePreview(nil, errors.New("denied"))
	e.resolvePreview(fakeSurface{id: "again"}, nil)

	if len(results) != 1 || results[0].Err == nil || results[0].Surface != nil {
		t.Errorf("expected a single failure result, got %+v", results)
	}
	if discarded != 1 {
		t.Errorf("expected duplicate delivery discarded, got %d", discarded)
	}
}

func TestPreviewAcquisition_Invalidate_discards(t *testing.T) {
	var p PreviewAcquisition
	e := &fakeEngine{}
	called := false
	_ = p.Request(e, AspectNone, false, func(PreviewResult) { called = true })

	p.Invalidate()
	if p.Pending() {
		t.Error("invalidate should clear the pending request")
	}
	e.resolvePreview(fakeSurface{id: "late"}, nil)

	if called {
		t.Error("invalidated request must not deliver")
	}
}

func TestPreviewAcquisition_stale_empty_callback_does_not_panic(t *testing.T) {
	var p PreviewAcquisition
	e := &fakeEngine{}
	_ = p.Request(e, AspectNone, false, func(PreviewResult) {})
	p.Invalidate()

	e.resolvePreview(nil, nil)
}

func TestPreviewAcquisition_empty_callback_panics(t *testing.T) {
	var p PreviewAcquisition
	e := &fakeEngine{}
	_ = p.Request(e, AspectNone, false, func(PreviewResult) {
		t.Error("done must not run for an empty result")
	})

	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, ErrContractViolation) {
			t.Errorf("expected ErrContractViolation panic, got %v", err)
		}
	}()
	e.resolvePreview(nil, nil)
}
