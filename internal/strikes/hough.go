package strikes

import (
	"math"

	"github.com/jackzampolin/redline/internal/types"
)

// Diagonal orientation bands in degrees. Near-horizontal and near-vertical
// lines are layout rules and underlines, not strike-throughs, so only these
// bands are scanned. The bands are symmetric under the 90-degree rotation
// between a line's direction and its Hough normal, so the same bounds apply
// to both.
const (
	angleBandLow  = 20.0
	angleBandHigh = 70.0
)

// inDiagonalBand reports whether a line angle (degrees in [0,180)) falls in
// the accepted diagonal orientations: [20,70] or [110,160].
func inDiagonalBand(angle float64) bool {
	return (angle >= angleBandLow && angle <= angleBandHigh) ||
		(angle >= 90+angleBandLow && angle <= 90+angleBandHigh)
}

// findSegment runs one Hough pass over the edge map and returns the first
// line segment that survives every filter: vote count, length, diagonal
// orientation, and central midpoint. Scanning order is fixed (theta, then
// rho, then position along the line) so detection is deterministic for
// identical pixel input.
func findSegment(edges []bool, w, h int, pass Pass, minLen float64, centerMargin float64) (types.LineSegment, bool) {
	diag := int(math.Ceil(math.Hypot(float64(w), float64(h))))
	nRho := 2*diag + 1

	// Precompute trig for the diagonal theta bands only.
	type thetaEntry struct {
		deg      int
		cos, sin float64
	}
	var thetas []thetaEntry
	for deg := 0; deg < 180; deg++ {
		if !inDiagonalBand(float64(deg)) {
			continue
		}
		rad := float64(deg) * math.Pi / 180
		thetas = append(thetas, thetaEntry{deg: deg, cos: math.Cos(rad), sin: math.Sin(rad)})
	}

	// Vote: one accumulator row per banded theta.
	acc := make([][]int, len(thetas))
	for i := range acc {
		acc[i] = make([]int, nRho)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !edges[y*w+x] {
				continue
			}
			for i, th := range thetas {
				rho := int(math.Round(float64(x)*th.cos + float64(y)*th.sin))
				acc[i][rho+diag]++
			}
		}
	}

	for i, th := range thetas {
		for rhoIdx, votes := range acc[i] {
			if votes < pass.VoteThreshold {
				continue
			}
			rho := float64(rhoIdx - diag)
			if seg, ok := walkLine(edges, w, h, rho, th.cos, th.sin, pass.MaxGap, minLen, centerMargin); ok {
				return seg, true
			}
		}
	}

	return types.LineSegment{}, false
}

// walkLine scans along the line x*cos+y*sin=rho collecting contiguous edge
// runs (gaps up to maxGap tolerated) and returns the first run that passes
// the segment filters.
func walkLine(edges []bool, w, h int, rho, cosT, sinT float64, maxGap int, minLen float64, centerMargin float64) (types.LineSegment, bool) {
	// Direction along the line is the normal rotated 90 degrees.
	dx, dy := -sinT, cosT
	// Base point: foot of the perpendicular from the origin.
	bx, by := rho*cosT, rho*sinT

	span := w + h
	const noHit = math.MinInt32

	runStart, lastHit := noHit, noHit

	emit := func() (types.LineSegment, bool) {
		if runStart == noHit {
			return types.LineSegment{}, false
		}
		length := float64(lastHit - runStart)
		if length < minLen {
			return types.LineSegment{}, false
		}

		x1 := int(math.Round(bx + float64(runStart)*dx))
		y1 := int(math.Round(by + float64(runStart)*dy))
		x2 := int(math.Round(bx + float64(lastHit)*dx))
		y2 := int(math.Round(by + float64(lastHit)*dy))

		angle := math.Mod(math.Abs(math.Atan2(float64(y2-y1), float64(x2-x1))*180/math.Pi), 180)
		if !inDiagonalBand(angle) {
			return types.LineSegment{}, false
		}

		// Reject border and scan artifacts: the midpoint must fall in the
		// central band of the region.
		midX := float64(x1+x2) / 2
		midY := float64(y1+y2) / 2
		if midX < centerMargin*float64(w) || midX > (1-centerMargin)*float64(w) ||
			midY < centerMargin*float64(h) || midY > (1-centerMargin)*float64(h) {
			return types.LineSegment{}, false
		}

		return types.LineSegment{
			X1: x1, Y1: y1, X2: x2, Y2: y2,
			Length:   length,
			AngleDeg: angle,
		}, true
	}

	for t := -span; t <= span; t++ {
		x := int(math.Round(bx + float64(t)*dx))
		y := int(math.Round(by + float64(t)*dy))
		if x < -1 || x > w || y < -1 || y > h {
			continue
		}

		if hitNear(edges, w, h, x, y) {
			if runStart == noHit {
				runStart = t
			}
			lastHit = t
			continue
		}

		if lastHit != noHit && t-lastHit > maxGap {
			if seg, ok := emit(); ok {
				return seg, true
			}
			runStart, lastHit = noHit, noHit
		}
	}

	return emit()
}

// hitNear reports whether any pixel in the 3x3 neighborhood is an edge,
// tolerating one pixel of rasterization jitter along the walked line.
func hitNear(edges []bool, w, h, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			if edges[ny*w+nx] {
				return true
			}
		}
	}
	return false
}
