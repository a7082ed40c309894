package broadcast

import "fmt"

// PreviewResult is the outcome of a preview request: exactly one of Surface
// and Err is set.
type PreviewResult struct {
	Surface Surface
	Err     error
}

// PreviewAcquisition issues at most one camera preview request at a time and
// discards results that belong to an invalidated attachment cycle.
type PreviewAcquisition struct {
	generation uint64
	pending    bool

	// discarded, if set, is called for every result dropped as stale.
	discarded func()
}

// Pending reports whether a request is in flight.
func (p *PreviewAcquisition) Pending() bool {
	return p.pending
}

// Request asks engine for a preview surface. done runs once with the result
// unless Invalidate is called first. A callback carrying neither a surface nor
// an error panics with ErrContractViolation.
func (p *PreviewAcquisition) Request(engine Engine, mode AspectMode, mirrored bool, done func(PreviewResult)) error {
	if p.pending {
		return ErrPreviewPending
	}
	p.pending = true
	gen := p.generation
	delivered := false

	engine.CameraPreviewAsync(mode, mirrored, func(s Surface, err error) {
		if gen != p.generation || delivered {
			if p.discarded != nil {
				p.discarded()
			}
			return
		}
		delivered = true
		p.pending = false

		if s == nil && err == nil {
			panic(fmt.Errorf("%w: camera preview resolved with neither surface nor error", ErrContractViolation))
		}
		if err != nil {
			done(PreviewResult{Err: err})
			return
		}
		done(PreviewResult{Surface: s})
	})
	return nil
}

// Invalidate makes every outstanding request irrelevant.
func (p *PreviewAcquisition) Invalidate() {
	p.generation++
	p.pending = false
}
