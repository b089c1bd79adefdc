package motion

import (
	"bytes"
	"testing"
)

func TestScanlineSize(t *testing.T) {
	cases := map[int]int{1: 4, 2: 8, 3: 12, 4: 12, 5: 16}
	for width, want := range cases {
		if got := ScanlineSize(width); got != want {
			t.Errorf("ScanlineSize(%d) = %d, want %d", width, got, want)
		}
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	img := NewImage(2, 2)
	p := Pixel{Red: 10, Green: 20, Blue: 30}
	if !img.Set(1, 0, p) {
		t.Fatalf("Set reported out of bounds for (1,0)")
	}
	got, ok := img.Get(1, 0)
	if !ok {
		t.Fatalf("Get reported out of bounds for (1,0)")
	}
	if got != p {
		t.Errorf("Get(1,0) = %+v, want %+v", got, p)
	}
}

func TestGetSetOutOfBounds(t *testing.T) {
	img := NewImage(2, 2)
	if _, ok := img.Get(2, 0); ok {
		t.Errorf("Get(2,0) should be out of bounds")
	}
	if img.Set(-1, 0, White) {
		t.Errorf("Set(-1,0) should be out of bounds")
	}
}

func TestGreyscale(t *testing.T) {
	img := NewImage(1, 1)
	img.Set(0, 0, Pixel{Red: 30, Green: 60, Blue: 90})
	img.Greyscale()
	got, _ := img.Get(0, 0)
	want := Pixel{Red: 60, Green: 60, Blue: 60}
	if got != want {
		t.Errorf("Greyscale() = %+v, want %+v", got, want)
	}
}

func TestSegment(t *testing.T) {
	src := &Image{Width: 1, Height: 1, Scanline: 4, Pix: []byte{10, 40, 80, 255}}
	out := Segment(src, 50)
	want := []byte{0, 0, 255, 255}
	for i := range want {
		if out.Pix[i] != want[i] {
			t.Errorf("Segment()[%d] = %d, want %d", i, out.Pix[i], want[i])
		}
	}
}

func TestAbsoluteDifferenceCommutative(t *testing.T) {
	a := NewImage(3, 3)
	b := NewImage(3, 3)
	a.Set(1, 1, Pixel{Red: 200, Green: 10, Blue: 5})
	b.Set(1, 1, Pixel{Red: 5, Green: 250, Blue: 5})

	ab, err := AbsoluteDifference(a, b)
	if err != nil {
		t.Fatalf("AbsoluteDifference(a,b): %v", err)
	}
	ba, err := AbsoluteDifference(b, a)
	if err != nil {
		t.Fatalf("AbsoluteDifference(b,a): %v", err)
	}
	for i := range ab.Pix {
		if ab.Pix[i] != ba.Pix[i] {
			t.Fatalf("absolute difference not commutative at byte %d: %d vs %d", i, ab.Pix[i], ba.Pix[i])
		}
	}
}

func TestAbsoluteDifferenceDimensionMismatch(t *testing.T) {
	a := NewImage(3, 3)
	b := NewImage(4, 3)
	if _, err := AbsoluteDifference(a, b); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestSegmentIdempotent(t *testing.T) {
	src := NewImage(4, 4)
	for i := range src.Pix {
		src.Pix[i] = byte(i * 17)
	}
	once := Segment(src, 100)
	twice := Segment(once, 100)
	for i := range once.Pix {
		if once.Pix[i] != twice.Pix[i] {
			t.Fatalf("segment not idempotent at byte %d: %d vs %d", i, once.Pix[i], twice.Pix[i])
		}
	}
}

func TestBMPRoundTrip(t *testing.T) {
	img := NewImage(5, 3)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.Set(x, y, Pixel{Red: byte(x * 10), Green: byte(y * 20), Blue: 7})
		}
	}

	var buf bytes.Buffer
	if err := EncodeBMP(&buf, img); err != nil {
		t.Fatalf("EncodeBMP: %v", err)
	}
	decoded, err := DecodeBMP(&buf)
	if err != nil {
		t.Fatalf("DecodeBMP: %v", err)
	}
	if decoded.Width != img.Width || decoded.Height != img.Height {
		t.Fatalf("decoded dims = %dx%d, want %dx%d", decoded.Width, decoded.Height, img.Width, img.Height)
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			want, _ := img.Get(x, y)
			got, _ := decoded.Get(x, y)
			if got != want {
				t.Errorf("round-trip pixel (%d,%d) = %+v, want %+v", x, y, got, want)
			}
		}
	}
}

func TestCountMatchingParallelMatchesSequential(t *testing.T) {
	img := NewImage(9, 9)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if (x+y)%3 == 0 {
				img.Set(x, y, White)
			}
		}
	}
	seq := img.CountMatching(White)
	par := img.CountMatchingParallel(White, NewExecutor(4))
	if seq != par {
		t.Fatalf("CountMatchingParallel = %d, sequential = %d", par, seq)
	}
}
