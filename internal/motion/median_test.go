package motion

import "testing"

func TestMedianModelSeedSynthesisEqualsSeed(t *testing.T) {
	seed := seedImage(4, 4, Pixel{Red: 80, Green: 90, Blue: 100})
	model, err := NewMedianModel(seed, 5)
	if err != nil {
		t.Fatalf("NewMedianModel: %v", err)
	}
	bg := model.SynthesiseBackground()
	for i := range bg.Pix {
		if bg.Pix[i] != seed.Pix[i] {
			t.Fatalf("synthesised background differs from seed at byte %d: %d vs %d", i, bg.Pix[i], seed.Pix[i])
		}
	}
}

func TestMedianModelRejectsBadN(t *testing.T) {
	seed := seedImage(2, 2, Black)
	if _, err := NewMedianModel(seed, 0); err == nil {
		t.Errorf("N=0 should be rejected")
	}
}

func TestMedianModelClassifyDetectsChange(t *testing.T) {
	seed := seedImage(5, 5, Black)
	model, err := NewMedianModel(seed, 3)
	if err != nil {
		t.Fatalf("NewMedianModel: %v", err)
	}
	frame := seed.Clone()
	frame.Set(2, 2, White)
	seg, err := model.Classify(frame, 50)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if n := seg.CountMatching(White); n == 0 {
		t.Errorf("Classify did not flag the injected change as foreground")
	}
}

func TestMedianModelUpdateEvictsOldestFrame(t *testing.T) {
	seed := seedImage(3, 3, Black)
	model, err := NewMedianModel(seed, 3)
	if err != nil {
		t.Fatalf("NewMedianModel: %v", err)
	}
	mask := NewImage(3, 3) // all-zero: nothing is foreground
	frame := seedImage(3, 3, Pixel{Red: 9, Green: 9, Blue: 9})

	for i := 0; i < model.N; i++ {
		if err := model.Update(mask, frame); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	bg := model.SynthesiseBackground()
	for i := range bg.Pix {
		if bg.Pix[i] != frame.Pix[i] {
			t.Fatalf("after N updates the ring should hold only the new frame, got byte %d = %d, want %d", i, bg.Pix[i], frame.Pix[i])
		}
	}
}

func TestMedianModelUpdateParallelMatchesSequential(t *testing.T) {
	seed := seedImage(6, 6, Pixel{Red: 40, Green: 40, Blue: 40})
	seqModel, err := NewMedianModel(seed, 4)
	if err != nil {
		t.Fatalf("NewMedianModel: %v", err)
	}
	parModel, err := NewMedianModel(seed, 4)
	if err != nil {
		t.Fatalf("NewMedianModel: %v", err)
	}

	frame := seed.Clone()
	frame.Set(1, 1, White)
	frame.Set(4, 4, Pixel{Red: 120, Green: 5, Blue: 5})

	seqSeg, err := seqModel.Classify(frame, 30)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	parSeg, err := parModel.ClassifyParallel(frame, 30, NewExecutor(4))
	if err != nil {
		t.Fatalf("ClassifyParallel: %v", err)
	}
	for i := range seqSeg.Pix {
		if seqSeg.Pix[i] != parSeg.Pix[i] {
			t.Fatalf("sequential/parallel median classify diverge at byte %d", i)
		}
	}

	if err := seqModel.Update(seqSeg, frame); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := parModel.UpdateParallel(parSeg, frame, NewExecutor(4)); err != nil {
		t.Fatalf("UpdateParallel: %v", err)
	}

	seqBg := seqModel.SynthesiseBackground()
	parBg := parModel.SynthesiseBackground()
	for i := range seqBg.Pix {
		if seqBg.Pix[i] != parBg.Pix[i] {
			t.Fatalf("sequential/parallel median update diverge at byte %d", i)
		}
	}
}

func TestMedianModelDimensionMismatch(t *testing.T) {
	seed := seedImage(4, 4, Black)
	model, err := NewMedianModel(seed, 3)
	if err != nil {
		t.Fatalf("NewMedianModel: %v", err)
	}
	wrong := NewImage(5, 4)
	if _, err := model.Classify(wrong, 10); err == nil {
		t.Errorf("expected dimension mismatch error")
	}
}
