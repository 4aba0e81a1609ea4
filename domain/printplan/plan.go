// Package printplan converts physical print targets into the pixel figures
// the backend endpoints expect, and classifies how an image must be extended
// to reach a target aspect ratio. Nothing here touches pixels.
package printplan

import (
	"errors"
	"fmt"
	"math"
)

const mmPerInch = 25.4

// Aspect ratio limits accepted by the outpainting service.
const (
	MinRatio = 0.4687
	MaxRatio = 2.133
)

// Constraints of the outpainting model's output dimensions.
const (
	MinDimension   = 720
	MaxDimension   = 1536
	RatioTolerance = 0.01
	SquareSide     = 1024
)

var (
	ErrRatioOutOfRange = errors.New("aspect ratio out of range")
	ErrInvalidTarget   = errors.New("invalid print target")
)

// Target is a physical print size with bleed at a given resolution.
type Target struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
	DPI      float64 `json:"dpi"`
	BleedMM  float64 `json:"bleed_mm"`
}

// Validate checks that the target describes a printable area.
func (t Target) Validate() error {
	if t.WidthMM <= 0 || t.HeightMM <= 0 {
		return fmt.Errorf("%w: size %gx%gmm", ErrInvalidTarget, t.WidthMM, t.HeightMM)
	}
	if t.DPI <= 0 {
		return fmt.Errorf("%w: dpi %g", ErrInvalidTarget, t.DPI)
	}
	if t.BleedMM < 0 {
		return fmt.Errorf("%w: bleed %gmm", ErrInvalidTarget, t.BleedMM)
	}
	return nil
}

// Pixels converts a length in millimetres to whole pixels at dpi, truncating.
func Pixels(mm, dpi float64) int {
	return int(mm / mmPerInch * dpi)
}

// PixelSize returns the trimmed print size in pixels.
func (t Target) PixelSize() (w, h int) {
	return Pixels(t.WidthMM, t.DPI), Pixels(t.HeightMM, t.DPI)
}

// BleedPixels returns the bleed width in pixels.
func (t Target) BleedPixels() int { return Pixels(t.BleedMM, t.DPI) }

// Ratio returns the width/height ratio of the trimmed pixel size.
func (t Target) Ratio() float64 {
	w, h := t.PixelSize()
	if h == 0 {
		return 0
	}
	return float64(w) / float64(h)
}

// ScalingFactor is the factor by which an actualW x actualH image must be
// scaled so both axes reach the desired size.
func ScalingFactor(desiredW, desiredH, actualW, actualH int) float64 {
	if actualW <= 0 || actualH <= 0 {
		return 0
	}
	return math.Max(float64(desiredW)/float64(actualW), float64(desiredH)/float64(actualH))
}

// ConstrainedDimensions searches for a width/height pair inside
// [minDim, maxDim] whose ratio is within tol of ratio, preferring pairs whose
// average side is closest to the middle of the range and then the smallest
// ratio error.
func ConstrainedDimensions(ratio float64, minDim, maxDim int, tol float64) (int, int, error) {
	if ratio <= 0 || minDim <= 0 || maxDim < minDim {
		return 0, 0, fmt.Errorf("%w: ratio %.3f in [%d, %d]", ErrRatioOutOfRange, ratio, minDim, maxDim)
	}
	target := float64(minDim+maxDim) / 2
	bestW, bestH := 0, 0
	bestErr := math.Inf(1)
	bestDist := math.Inf(1)
	found := false
	for w := minDim; w <= maxDim; w++ {
		ideal := float64(w) / ratio
		for _, h := range []int{int(ideal), int(ideal) + 1} {
			if h < minDim || h > maxDim {
				continue
			}
			e := math.Abs(float64(w)/float64(h) - ratio)
			if e > tol {
				continue
			}
			dist := math.Abs(float64(w+h)/2 - target)
			if dist < bestDist || (dist == bestDist && e < bestErr) {
				bestW, bestH, bestErr, bestDist = w, h, e, dist
				found = true
			}
		}
	}
	if !found {
		return 0, 0, fmt.Errorf("%w: cannot reach %.3f within %g in [%d, %d]", ErrRatioOutOfRange, ratio, tol, minDim, maxDim)
	}
	return bestW, bestH, nil
}
