package motion

import "sort"

// MedianModel is a background model built from the per-byte median of
// the last N frames, held as a FIFO ring (medianmodel.h). Unlike
// GaussianModel, synthesis, difference, segmentation and update are
// byte-wise over the raw, padding-included pixel buffer, exactly as
// generate_median_background/update_median_model are; only Classify's
// greyscale step works per pixel.
type MedianModel struct {
	Width, Height int
	N             int
	frames        [][]byte // frames[0] is oldest, frames[N-1] is newest
}

// NewMedianModel seeds a median model from base, replicated N times.
func NewMedianModel(base *Image, n int) (*MedianModel, error) {
	if n < 1 {
		return nil, ErrInvalidConfiguration
	}
	m := &MedianModel{
		Width:  base.Width,
		Height: base.Height,
		N:      n,
		frames: make([][]byte, n),
	}
	for i := range m.frames {
		buf := make([]byte, len(base.Pix))
		copy(buf, base.Pix)
		m.frames[i] = buf
	}
	return m, nil
}

func (m *MedianModel) checkDims(img *Image) error {
	if img.Width != m.Width || img.Height != m.Height {
		return ErrDimensionMismatch
	}
	return nil
}

// SynthesiseBackground returns an image whose every byte is the
// per-position lower median (vals[(N-1)/2] after sorting) across the
// N frames currently held.
func (m *MedianModel) SynthesiseBackground() *Image {
	out := NewImage(m.Width, m.Height)
	vals := make([]byte, m.N)
	for i := range out.Pix {
		for j, f := range m.frames {
			vals[j] = f[i]
		}
		sort.Slice(vals, func(a, b int) bool { return vals[a] < vals[b] })
		out.Pix[i] = vals[(m.N-1)/2]
	}
	return out
}

// SynthesiseBackgroundParallel is the byte-stride parallel variant of
// SynthesiseBackground.
func (m *MedianModel) SynthesiseBackgroundParallel(executor *Executor) *Image {
	if executor == nil {
		executor = NewExecutor(DefaultFanout)
	}
	out := NewImage(m.Width, m.Height)
	executor.Run(func(step int) {
		vals := make([]byte, m.N)
		for i := step; i < len(out.Pix); i += executor.P() {
			for j, f := range m.frames {
				vals[j] = f[i]
			}
			sort.Slice(vals, func(a, b int) bool { return vals[a] < vals[b] })
			out.Pix[i] = vals[(m.N-1)/2]
		}
	})
	return out
}

// Classify synthesises the current background, takes its byte-wise
// absolute difference from frame, greyscales that difference, and
// segments it at threshold.
func (m *MedianModel) Classify(frame *Image, threshold byte) (*Image, error) {
	if err := m.checkDims(frame); err != nil {
		return nil, err
	}
	bg := m.SynthesiseBackground()
	diff, err := AbsoluteDifference(frame, bg)
	if err != nil {
		return nil, err
	}
	diff.Greyscale()
	return Segment(diff, threshold), nil
}

// ClassifyParallel is the parallel variant of Classify.
func (m *MedianModel) ClassifyParallel(frame *Image, threshold byte, executor *Executor) (*Image, error) {
	if err := m.checkDims(frame); err != nil {
		return nil, err
	}
	if executor == nil {
		executor = NewExecutor(DefaultFanout)
	}
	bg := m.SynthesiseBackgroundParallel(executor)
	diff, err := AbsoluteDifferenceParallel(frame, bg, executor)
	if err != nil {
		return nil, err
	}
	diff.GreyscaleParallel(executor)
	return SegmentParallel(diff, threshold, executor), nil
}

// Update substitutes every mask byte marked foreground (255) in frame
// with the synthesised background's byte at that position, then
// evicts the oldest held frame and enqueues the result as the newest.
func (m *MedianModel) Update(mask, frame *Image) error {
	if err := m.checkDims(mask); err != nil {
		return err
	}
	if err := m.checkDims(frame); err != nil {
		return err
	}
	bg := m.SynthesiseBackground()
	newFrame := make([]byte, len(frame.Pix))
	copy(newFrame, frame.Pix)
	for i, b := range mask.Pix {
		if b == 255 {
			newFrame[i] = bg.Pix[i]
		}
	}
	m.frames = append(m.frames[1:], newFrame)
	return nil
}

// UpdateParallel is the byte-stride parallel variant of Update.
func (m *MedianModel) UpdateParallel(mask, frame *Image, executor *Executor) error {
	if err := m.checkDims(mask); err != nil {
		return err
	}
	if err := m.checkDims(frame); err != nil {
		return err
	}
	if executor == nil {
		executor = NewExecutor(DefaultFanout)
	}
	bg := m.SynthesiseBackgroundParallel(executor)
	newFrame := make([]byte, len(frame.Pix))
	copy(newFrame, frame.Pix)
	executor.Run(func(step int) {
		for i := step; i < len(mask.Pix); i += executor.P() {
			if mask.Pix[i] == 255 {
				newFrame[i] = bg.Pix[i]
			}
		}
	})
	m.frames = append(m.frames[1:], newFrame)
	return nil
}
