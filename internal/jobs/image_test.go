package jobs

import (
	"image"
	"testing"
)

func TestScaleDownPreservesAspectRatio(t *testing.T) {
	cases := []struct {
		w, h, maxEdge int
		wantW, wantH  int
	}{
		{1920, 1080, 320, 320, 180},
		{1080, 1920, 320, 180, 320},
		{4000, 4000, 1024, 1024, 1024},
		// Already small: kept at original size.
		{200, 100, 320, 200, 100},
		// Degenerate aspect ratios never collapse to zero.
		{10000, 1, 320, 320, 1},
	}
	for _, tc := range cases {
		src := image.NewRGBA(image.Rect(0, 0, tc.w, tc.h))
		out := scaleDown(src, tc.maxEdge)
		b := out.Bounds()
		if b.Dx() != tc.wantW || b.Dy() != tc.wantH {
			t.Fatalf("scaleDown(%dx%d, %d) = %dx%d, want %dx%d",
				tc.w, tc.h, tc.maxEdge, b.Dx(), b.Dy(), tc.wantW, tc.wantH)
		}
	}
}
