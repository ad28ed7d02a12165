package strikes

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

// blank returns a white grayscale canvas.
func blank(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// drawLine rasterizes a black stroke of the given thickness between two
// points.
func drawLine(img *image.Gray, x1, y1, x2, y2, thickness int) {
	steps := int(math.Hypot(float64(x2-x1), float64(y2-y1))) * 2
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		cx := int(math.Round(float64(x1) + t*float64(x2-x1)))
		cy := int(math.Round(float64(y1) + t*float64(y2-y1)))
		r := thickness / 2
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				p := image.Pt(cx+dx, cy+dy)
				if p.In(img.Bounds()) {
					img.SetGray(p.X, p.Y, color.Gray{Y: 0})
				}
			}
		}
	}
}

func TestDetectDiagonalThroughCenter(t *testing.T) {
	img := blank(200, 200)
	drawLine(img, 40, 40, 160, 160, 3)

	sig := Detect(img, DefaultConfig())
	if !sig.HasDiagonal {
		t.Fatal("expected diagonal for 45-degree line through center")
	}
	if len(sig.Lines) != 1 {
		t.Fatalf("expected one segment, got %d", len(sig.Lines))
	}
	seg := sig.Lines[0]
	if !inDiagonalBand(seg.AngleDeg) {
		t.Errorf("segment angle %.1f outside diagonal band", seg.AngleDeg)
	}
	if seg.Length < 40 {
		t.Errorf("segment length %.1f implausibly short", seg.Length)
	}
}

func TestDetectIgnoresNearHorizontal(t *testing.T) {
	img := blank(200, 200)
	// Full-width rule at roughly 5 degrees: an underline, not a strike.
	drawLine(img, 0, 97, 199, 115, 3)

	sig := Detect(img, DefaultConfig())
	if sig.HasDiagonal {
		t.Fatal("near-horizontal line must not register as a strike-through")
	}
}

func TestDetectIgnoresNearVertical(t *testing.T) {
	img := blank(200, 200)
	drawLine(img, 97, 0, 110, 199, 3)

	sig := Detect(img, DefaultConfig())
	if sig.HasDiagonal {
		t.Fatal("near-vertical line must not register as a strike-through")
	}
}

func TestDetectRejectsBorderArtifact(t *testing.T) {
	img := blank(200, 200)
	// Diagonal confined to the top-left corner: midpoint sits outside the
	// central band, as a scan-edge shadow would.
	drawLine(img, 2, 2, 50, 50, 3)

	sig := Detect(img, DefaultConfig())
	if sig.HasDiagonal {
		t.Fatal("corner artifact must not register as a strike-through")
	}
}

func TestDetectBlankRegion(t *testing.T) {
	sig := Detect(blank(200, 200), DefaultConfig())
	if sig.HasDiagonal {
		t.Fatal("blank region must not register as a strike-through")
	}
}

func TestDetectDeterministic(t *testing.T) {
	img := blank(240, 160)
	drawLine(img, 50, 120, 190, 40, 3)

	first := Detect(img, DefaultConfig())
	for i := 0; i < 3; i++ {
		again := Detect(img, DefaultConfig())
		if again.HasDiagonal != first.HasDiagonal {
			t.Fatal("detection flipped between identical runs")
		}
		if first.HasDiagonal && again.Lines[0] != first.Lines[0] {
			t.Fatal("segment changed between identical runs")
		}
	}
}

func TestDetectTinyImage(t *testing.T) {
	sig := Detect(blank(2, 2), DefaultConfig())
	if sig.HasDiagonal {
		t.Fatal("degenerate image must yield no diagonal")
	}
}

func TestDetectBytes(t *testing.T) {
	t.Run("malformed data", func(t *testing.T) {
		sig := DetectBytes([]byte("not an image"), DefaultConfig())
		if sig.HasDiagonal {
			t.Fatal("malformed image data must yield no diagonal")
		}
	})

	t.Run("encoded diagonal", func(t *testing.T) {
		img := blank(200, 200)
		drawLine(img, 40, 160, 160, 40, 3)

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatalf("encode: %v", err)
		}
		sig := DetectBytes(buf.Bytes(), DefaultConfig())
		if !sig.HasDiagonal {
			t.Fatal("expected diagonal after decode round-trip")
		}
	})
}
