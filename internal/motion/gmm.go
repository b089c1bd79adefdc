package motion

import (
	"fmt"
	"math"
	"sort"
)

// GaussianComponent is one component of one pixel's mixture: RGB
// channel means, a scalar variance shared across channels, and a
// prior weight. Formulas below are translated one-for-one from
// gmmodel.h; in particular the match test uses variance directly
// (not its square root) as the tolerance radius, and the update
// formulas raise (val-mean) to the power T even though T is a mass
// fraction, not an exponent. Both are preserved deliberately: this
// specification mandates bug-for-bug fidelity to the source, not a
// textbook Stauffer-Grimson implementation.
type GaussianComponent struct {
	MeanR, MeanG, MeanB float64
	Variance            float64
	Prior               float64
}

// GaussianModel is a per-pixel mixture-of-K-Gaussians background
// model over a Width x Height grid, row-major by y then x.
type GaussianModel struct {
	Width, Height int
	K             int
	T             float64
	Alpha         float64
	InitVariance  float64
	MinVariance   float64
	// NewComponentVariance is the variance assigned to a component
	// freshly introduced by Update when it replaces the worst-rated
	// component at a foreground pixel.
	NewComponentVariance float64
	Map                  [][]GaussianComponent // Map[y*Width+x] is a mixture of K components
}

// NewGaussianModel initialises a model from a seed image: every
// component at every pixel starts with mean = that pixel's colour,
// variance = initVariance, prior = 1/K.
func NewGaussianModel(seed *Image, k int, t, alpha, initVariance, minVariance float64) (*GaussianModel, error) {
	if k < 1 || k > 10 {
		return nil, fmt.Errorf("gmm.K must be 1-10, got %d: %w", k, ErrInvalidConfiguration)
	}
	if t < 0 || t > 1 {
		return nil, fmt.Errorf("gmm.T must be 0.0-1.0, got %v: %w", t, ErrInvalidConfiguration)
	}
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("gmm.alpha must be 0.0-1.0, got %v: %w", alpha, ErrInvalidConfiguration)
	}
	if initVariance < 0 || initVariance > 255 {
		return nil, fmt.Errorf("gmm.initVariance must be 0-255, got %v: %w", initVariance, ErrInvalidConfiguration)
	}
	if minVariance < 0 || minVariance > 255 {
		return nil, fmt.Errorf("gmm.minVariance must be 0-255, got %v: %w", minVariance, ErrInvalidConfiguration)
	}

	model := &GaussianModel{
		Width:                seed.Width,
		Height:               seed.Height,
		K:                    k,
		T:                    t,
		Alpha:                alpha,
		InitVariance:         initVariance,
		MinVariance:          minVariance,
		NewComponentVariance: 1.5 * initVariance,
	}
	model.Map = make([][]GaussianComponent, model.Width*model.Height)
	for y := 0; y < model.Height; y++ {
		for x := 0; x < model.Width; x++ {
			p, _ := seed.Get(x, y)
			mix := make([]GaussianComponent, k)
			for i := range mix {
				mix[i] = GaussianComponent{
					MeanR:    float64(p.Red),
					MeanG:    float64(p.Green),
					MeanB:    float64(p.Blue),
					Variance: initVariance,
					Prior:    1.0 / float64(k),
				}
			}
			model.Map[y*model.Width+x] = mix
		}
	}
	return model, nil
}

func (m *GaussianModel) checkDims(frame *Image) error {
	if frame.Width != m.Width || frame.Height != m.Height {
		return fmt.Errorf("gmm: model is %dx%d, frame is %dx%d: %w", m.Width, m.Height, frame.Width, frame.Height, ErrDimensionMismatch)
	}
	return nil
}

// matchesDistribution reports whether p lies within 2.5*variance of
// d's mean on every channel. This is the spec's deliberately
// non-standard tolerance: classical Stauffer-Grimson would use
// 2.5*sqrt(variance).
func matchesDistribution(p Pixel, d GaussianComponent) bool {
	r, g, b := float64(p.Red), float64(p.Green), float64(p.Blue)
	radius := 2.5 * d.Variance
	return d.MeanR-radius < r && r < d.MeanR+radius &&
		d.MeanG-radius < g && g < d.MeanG+radius &&
		d.MeanB-radius < b && b < d.MeanB+radius
}

// sortedIndexes returns the indexes of mix in descending-prior order.
func sortedIndexes(mix []GaussianComponent) []int {
	idx := make([]int, len(mix))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return mix[idx[a]].Prior > mix[idx[b]].Prior
	})
	return idx
}

func classifyPixel(mix []GaussianComponent, t float64, p Pixel) Pixel {
	wsum := 0.0
	for _, i := range sortedIndexes(mix) {
		if wsum > t {
			break
		}
		c := mix[i]
		wsum += c.Prior
		if matchesDistribution(p, c) {
			return Black
		}
	}
	return White
}

// Classify returns a fresh binary mask: white where the frame pixel is
// foreground, black where it matches the accumulated background mass.
func (m *GaussianModel) Classify(frame *Image) (*Image, error) {
	if err := m.checkDims(frame); err != nil {
		return nil, err
	}
	out := NewImage(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			p, _ := frame.Get(x, y)
			mix := m.Map[y*m.Width+x]
			out.Set(x, y, classifyPixel(mix, m.T, p))
		}
	}
	return out, nil
}

// ClassifyParallel is the column-stride parallel variant of Classify.
func (m *GaussianModel) ClassifyParallel(frame *Image, executor *Executor) (*Image, error) {
	if err := m.checkDims(frame); err != nil {
		return nil, err
	}
	if executor == nil {
		executor = NewExecutor(DefaultFanout)
	}
	out := NewImage(m.Width, m.Height)
	executor.Run(func(step int) {
		for x := step; x < m.Width; x += executor.P() {
			for y := 0; y < m.Height; y++ {
				p, _ := frame.Get(x, y)
				mix := m.Map[y*m.Width+x]
				out.Set(x, y, classifyPixel(mix, m.T, p))
			}
		}
	})
	return out, nil
}

func updatePixel(mix []GaussianComponent, t, alpha, newVar float64, maskP, framep Pixel) {
	if maskP == White {
		ratings := make([]float64, len(mix))
		for i, c := range mix {
			ratings[i] = c.Prior / c.Variance
		}
		worst := indexOfMin(ratings)
		mix[worst] = GaussianComponent{
			MeanR:    float64(framep.Red),
			MeanG:    float64(framep.Green),
			MeanB:    float64(framep.Blue),
			Variance: newVar,
			Prior:    0.5 / float64(len(mix)),
		}
		return
	}

	valR, valG, valB := float64(framep.Red), float64(framep.Green), float64(framep.Blue)
	matched := false
	for i := range mix {
		c := &mix[i]
		if !matched && matchesDistribution(framep, *c) {
			matched = true
			avgVal := (valR + valG + valB) / 3
			avgMean := (c.MeanR + c.MeanG + c.MeanB) / 3
			variance := c.Variance
			c.MeanR = newMean(c.MeanR, valR, variance, alpha, t)
			c.MeanB = newMean(c.MeanB, valB, variance, alpha, t)
			c.MeanG = newMean(c.MeanG, valG, variance, alpha, t)
			c.Variance = newVariance(avgMean, avgVal, variance, alpha, t)
			c.Prior = newPrior(c.Prior, alpha, true)
		} else {
			c.Prior = newPrior(c.Prior, alpha, false)
		}
	}
}

// Update adjusts every mixture from (mask, frame): foreground pixels
// replace the worst-rated (lowest prior/variance) component; background
// pixels update the first matching component and decay every other
// component's prior.
func (m *GaussianModel) Update(mask, frame *Image) error {
	if err := m.checkDims(mask); err != nil {
		return err
	}
	if err := m.checkDims(frame); err != nil {
		return err
	}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			maskP, _ := mask.Get(x, y)
			frameP, _ := frame.Get(x, y)
			updatePixel(m.Map[y*m.Width+x], m.T, m.Alpha, m.NewComponentVariance, maskP, frameP)
		}
	}
	return nil
}

// UpdateParallel is the column-stride parallel variant of Update. Each
// worker touches only the mixtures in its own columns, so no mixture
// is written by more than one worker per call.
func (m *GaussianModel) UpdateParallel(mask, frame *Image, executor *Executor) error {
	if err := m.checkDims(mask); err != nil {
		return err
	}
	if err := m.checkDims(frame); err != nil {
		return err
	}
	if executor == nil {
		executor = NewExecutor(DefaultFanout)
	}
	executor.Run(func(step int) {
		for x := step; x < m.Width; x += executor.P() {
			for y := 0; y < m.Height; y++ {
				maskP, _ := mask.Get(x, y)
				frameP, _ := frame.Get(x, y)
				updatePixel(m.Map[y*m.Width+x], m.T, m.Alpha, m.NewComponentVariance, maskP, frameP)
			}
		}
	})
	return nil
}

// Normalise divides every component's prior by its mixture's prior sum.
func (m *GaussianModel) Normalise() {
	for i, mix := range m.Map {
		sum := 0.0
		for _, c := range mix {
			sum += c.Prior
		}
		for k := range mix {
			mix[k].Prior /= sum
		}
		m.Map[i] = mix
	}
}

// NormaliseParallel is the column-stride parallel variant of Normalise.
func (m *GaussianModel) NormaliseParallel(executor *Executor) {
	if executor == nil {
		executor = NewExecutor(DefaultFanout)
	}
	executor.Run(func(step int) {
		for x := step; x < m.Width; x += executor.P() {
			for y := 0; y < m.Height; y++ {
				mix := m.Map[y*m.Width+x]
				sum := 0.0
				for _, c := range mix {
					sum += c.Prior
				}
				for k := range mix {
					mix[k].Prior /= sum
				}
			}
		}
	})
}

func clampChannel(v float64) byte {
	if v > 255.0 {
		return 255
	}
	if v < 0.0 {
		return 0
	}
	return byte(v)
}

func synthesisePixel(mix []GaussianComponent) Pixel {
	ratings := make([]float64, len(mix))
	for i, c := range mix {
		ratings[i] = c.Prior / c.Variance
	}
	best := mix[indexOfMax(ratings)]
	return Pixel{
		Red:   clampChannel(best.MeanR),
		Green: clampChannel(best.MeanG),
		Blue:  clampChannel(best.MeanB),
	}
}

// SynthesiseBackground returns the most-likely background image: at
// each pixel, the component maximising prior/variance.
func (m *GaussianModel) SynthesiseBackground() *Image {
	out := NewImage(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			out.Set(x, y, synthesisePixel(m.Map[y*m.Width+x]))
		}
	}
	return out
}

// SynthesiseBackgroundParallel is the column-stride parallel variant
// of SynthesiseBackground.
func (m *GaussianModel) SynthesiseBackgroundParallel(executor *Executor) *Image {
	if executor == nil {
		executor = NewExecutor(DefaultFanout)
	}
	out := NewImage(m.Width, m.Height)
	executor.Run(func(step int) {
		for x := step; x < m.Width; x += executor.P() {
			for y := 0; y < m.Height; y++ {
				out.Set(x, y, synthesisePixel(m.Map[y*m.Width+x]))
			}
		}
	})
	return out
}

func indexOfMax(ratings []float64) int {
	best := 0
	for i := 1; i < len(ratings); i++ {
		if ratings[i] > ratings[best] {
			best = i
		}
	}
	return best
}

func indexOfMin(ratings []float64) int {
	worst := 0
	for i := 1; i < len(ratings); i++ {
		if ratings[i] <= ratings[worst] {
			worst = i
		}
	}
	return worst
}

// newPrior returns the decayed or reinforced prior for a component:
// (1-alpha)*old + alpha if matched, else (1-alpha)*old.
func newPrior(old, alpha float64, matched bool) float64 {
	m := 0.0
	if matched {
		m = 1.0
	}
	return (1-alpha)*old + alpha*m
}

// newMean blends the existing mean toward val, weighted by
// alpha*pdf(mean, val, variance, t).
func newMean(mean, val, variance, alpha, t float64) float64 {
	p := alpha * pdf(mean, val, variance, t)
	return (1-p)*mean + p*val
}

// newVariance blends the existing variance toward powt(val-mean, t)*(val-mean),
// weighted the same way as newMean. t is used here as an exponent even
// though it represents a background-mass fraction elsewhere in the
// model; this mirrors the source exactly (spec.md §9, open question c).
func newVariance(mean, val, variance, alpha, t float64) float64 {
	p := alpha * pdf(mean, val, variance, t)
	return (1-p)*variance + p*powt(val-mean, t)*(val-mean)
}

// pdf is the Gaussian-shaped weight used for mean/variance updates,
// with standard deviation sqrt(|variance|). The deviation term in the
// exponent is powt(val-mean, t)*(val-mean) rather than val-mean, the
// same term newVariance uses.
func pdf(mean, val, variance, t float64) float64 {
	coeff := 1 / (math.Sqrt(math.Abs(variance)) * math.Sqrt(2*math.Pi))
	power := -0.5 * powt(powt(val-mean, t)*(val-mean)/math.Sqrt(math.Abs(variance)), 2)
	return coeff * math.Exp(power)
}

// powt is sign-preserving exponentiation: pow(|x|, t) with x's
// original sign reapplied. Used as an exponent on a mass fraction T in
// newMean/newVariance per the source; preserved for bug-compatibility
// (spec.md §9, open question c).
func powt(x, t float64) float64 {
	if x < 0 {
		return -math.Pow(-x, t)
	}
	return math.Pow(x, t)
}
