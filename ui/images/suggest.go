package images

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/gift"
	"github.com/muesli/smartcrop"

	"github.com/soocke/print-prep-go/domain/crop"
)

var ErrNoSuggestion = errors.New("no crop suggestion")

// giftResizer adapts gift to the resizer smartcrop uses for its analysis
// pass. A zero width or height keeps the aspect ratio.
type giftResizer struct {
	resampling gift.Resampling
}

func (r giftResizer) Resize(img image.Image, w, h uint) image.Image {
	g := gift.New(gift.Resize(int(w), int(h), r.resampling))
	dst := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// SuggestCrop returns the most salient region of img with the given
// width/height ratio, as large as the image allows.
func SuggestCrop(img image.Image, ratio float64) (crop.Pixels, error) {
	if img == nil {
		return crop.Pixels{}, errors.New("nil image")
	}
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return crop.Pixels{}, fmt.Errorf("%w: ratio %v", ErrNoSuggestion, ratio)
	}
	b := img.Bounds()
	w, h := fitRatio(b.Dx(), b.Dy(), ratio)
	if w < 1 || h < 1 {
		return crop.Pixels{}, fmt.Errorf("%w: image %v too small", ErrNoSuggestion, b)
	}
	analyzer := smartcrop.NewAnalyzer(giftResizer{resampling: gift.LinearResampling})
	r, err := analyzer.FindBestCrop(img, w, h)
	if err != nil {
		return crop.Pixels{}, fmt.Errorf("%w: %v", ErrNoSuggestion, err)
	}
	r = r.Sub(b.Min)
	if r.Empty() {
		return crop.Pixels{}, ErrNoSuggestion
	}
	// The analyzer may settle on a smaller scale; keep its center but use the
	// full w×h.
	cx, cy := (r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2
	x := clampInt(cx-w/2, 0, b.Dx()-w)
	y := clampInt(cy-h/2, 0, b.Dy()-h)
	return crop.Pixels{X: x, Y: y, Width: w, Height: h}, nil
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// fitRatio returns the largest w×h inside iw×ih with w/h == ratio.
func fitRatio(iw, ih int, ratio float64) (int, int) {
	if float64(iw)/float64(ih) > ratio {
		return int(math.Round(float64(ih) * ratio)), ih
	}
	return iw, int(math.Round(float64(iw) / ratio))
}
