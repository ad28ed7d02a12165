package strikes

import (
	"image"
	"image/color"
	"math"
)

// grayscale converts any image to an 8-bit luminance buffer.
func grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// gaussianKernel5 is the separable 5-tap binomial approximation of a
// Gaussian, matching the 5x5 blur the detector was tuned against.
var gaussianKernel5 = [5]int{1, 4, 6, 4, 1}

// gaussianBlur applies a 5x5 Gaussian blur using two separable passes.
func gaussianBlur(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tmp := image.NewGray(bounds)
	dst := image.NewGray(bounds)

	// Horizontal pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, weight := 0, 0
			for k := -2; k <= 2; k++ {
				xx := clamp(x+k, 0, w-1)
				kw := gaussianKernel5[k+2]
				sum += int(src.GrayAt(bounds.Min.X+xx, bounds.Min.Y+y).Y) * kw
				weight += kw
			}
			tmp.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: uint8(sum / weight)})
		}
	}

	// Vertical pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, weight := 0, 0
			for k := -2; k <= 2; k++ {
				yy := clamp(y+k, 0, h-1)
				kw := gaussianKernel5[k+2]
				sum += int(tmp.GrayAt(bounds.Min.X+x, bounds.Min.Y+yy).Y) * kw
				weight += kw
			}
			dst.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: uint8(sum / weight)})
		}
	}

	return dst
}

// cannyEdges computes a binary edge map using Sobel gradients, non-maximum
// suppression, and double-threshold hysteresis.
func cannyEdges(src *image.Gray, lowThreshold, highThreshold float64) []bool {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return make([]bool, w*h)
	}

	at := func(x, y int) float64 {
		return float64(src.GrayAt(bounds.Min.X+clamp(x, 0, w-1), bounds.Min.Y+clamp(y, 0, h-1)).Y)
	}

	magnitude := make([]float64, w*h)
	direction := make([]uint8, w*h) // Quantized: 0=E/W, 1=NE/SW, 2=N/S, 3=NW/SE

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) +
				at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)

			mag := math.Hypot(gx, gy)
			magnitude[y*w+x] = mag
			if mag > 0 {
				angle := math.Atan2(gy, gx) * 180 / math.Pi
				if angle < 0 {
					angle += 180
				}
				switch {
				case angle < 22.5 || angle >= 157.5:
					direction[y*w+x] = 0
				case angle < 67.5:
					direction[y*w+x] = 1
				case angle < 112.5:
					direction[y*w+x] = 2
				default:
					direction[y*w+x] = 3
				}
			}
		}
	}

	// Non-maximum suppression along the gradient direction.
	suppressed := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			idx := y*w + x
			mag := magnitude[idx]
			if mag == 0 {
				continue
			}
			var a, b float64
			switch direction[idx] {
			case 0:
				a, b = magnitude[idx-1], magnitude[idx+1]
			case 1:
				a, b = magnitude[(y-1)*w+x+1], magnitude[(y+1)*w+x-1]
			case 2:
				a, b = magnitude[(y-1)*w+x], magnitude[(y+1)*w+x]
			default:
				a, b = magnitude[(y-1)*w+x-1], magnitude[(y+1)*w+x+1]
			}
			if mag >= a && mag >= b {
				suppressed[idx] = mag
			}
		}
	}

	// Double threshold with hysteresis: weak edges survive only when
	// connected to a strong edge.
	const (
		none   = 0
		weak   = 1
		strong = 2
	)
	labels := make([]uint8, w*h)
	var stack []int
	for i, mag := range suppressed {
		switch {
		case mag >= highThreshold:
			labels[i] = strong
			stack = append(stack, i)
		case mag >= lowThreshold:
			labels[i] = weak
		}
	}

	edges := make([]bool, w*h)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if edges[idx] {
			continue
		}
		edges[idx] = true

		x, y := idx%w, idx/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				nidx := ny*w + nx
				if labels[nidx] == weak && !edges[nidx] {
					labels[nidx] = strong
					stack = append(stack, nidx)
				}
			}
		}
	}

	return edges
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
