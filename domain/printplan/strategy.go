package printplan

import "fmt"

// Strategy names how an image has to be outpainted to reach a ratio.
type Strategy string

const (
	NoExtension                 Strategy = "no_extension_needed"
	LandscapeExtendWidth        Strategy = "landscape_extend_width"
	LandscapeExtendHeight       Strategy = "landscape_extend_height"
	PortraitExtendHeight        Strategy = "portrait_extend_height"
	PortraitExtendWidth         Strategy = "portrait_extend_width"
	PortraitToSquareToLandscape Strategy = "portrait_to_square_to_landscape"
	LandscapeToSquareToPortrait Strategy = "landscape_to_square_to_portrait"
	SquareToLandscape           Strategy = "square_to_landscape"
	SquareToPortrait            Strategy = "square_to_portrait"
	LandscapeToSquare           Strategy = "landscape_to_square"
	PortraitToSquare            Strategy = "portrait_to_square"
)

// ClassifyStrategy picks the extension strategy for an image of ratio
// current (width/height) that must become desired.
func ClassifyStrategy(current, desired float64) (Strategy, error) {
	if desired > MaxRatio || desired < MinRatio {
		return "", fmt.Errorf("%w: desired %.4f outside [%g, %g]", ErrRatioOutOfRange, desired, MinRatio, MaxRatio)
	}
	switch {
	case desired > 1:
		switch {
		case current > 1:
			if current < desired {
				return LandscapeExtendWidth, nil
			}
			if current > desired {
				return LandscapeExtendHeight, nil
			}
			return NoExtension, nil
		case current < 1:
			return PortraitToSquareToLandscape, nil
		default:
			return SquareToLandscape, nil
		}
	case desired < 1:
		switch {
		case current < 1:
			if current > desired {
				return PortraitExtendHeight, nil
			}
			if current < desired {
				return PortraitExtendWidth, nil
			}
			return NoExtension, nil
		case current > 1:
			return LandscapeToSquareToPortrait, nil
		default:
			return SquareToPortrait, nil
		}
	default:
		switch {
		case current > 1:
			return LandscapeToSquare, nil
		case current < 1:
			return PortraitToSquare, nil
		default:
			return NoExtension, nil
		}
	}
}

// ExtendPlan is the outpainting request derived from a strategy.
type ExtendPlan struct {
	Strategy Strategy
	// Steps lists successive target sizes; two-step strategies pass through
	// a square first.
	Steps []ExtendStep
}

// ExtendStep is one outpainting pass.
type ExtendStep struct {
	Width, Height        int
	Horizontal, Vertical bool
	OverlapPercentage    int
}

const defaultOverlap = 10

// PlanExtension turns an image size and target ratio into outpainting steps.
func PlanExtension(actualW, actualH int, desired float64) (ExtendPlan, error) {
	if actualW <= 0 || actualH <= 0 {
		return ExtendPlan{}, fmt.Errorf("%w: image %dx%d", ErrInvalidTarget, actualW, actualH)
	}
	s, err := ClassifyStrategy(float64(actualW)/float64(actualH), desired)
	if err != nil {
		return ExtendPlan{}, err
	}
	plan := ExtendPlan{Strategy: s}
	square := func(h, v bool) ExtendStep {
		return ExtendStep{Width: SquareSide, Height: SquareSide, Horizontal: h, Vertical: v, OverlapPercentage: defaultOverlap}
	}
	constrained := func(h, v bool) (ExtendStep, error) {
		w, hh, err := ConstrainedDimensions(desired, MinDimension, MaxDimension, RatioTolerance)
		if err != nil {
			return ExtendStep{}, err
		}
		return ExtendStep{Width: w, Height: hh, Horizontal: h, Vertical: v, OverlapPercentage: defaultOverlap}, nil
	}
	switch s {
	case NoExtension:
		return plan, nil
	case LandscapeToSquare:
		plan.Steps = []ExtendStep{square(false, true)}
		return plan, nil
	case PortraitToSquare:
		plan.Steps = []ExtendStep{square(true, false)}
		return plan, nil
	case PortraitToSquareToLandscape, LandscapeToSquareToPortrait:
		// both passes grow the same axis: a portrait widens to a square and
		// then to a landscape, a landscape heightens twice.
		h, v := true, false
		if s == LandscapeToSquareToPortrait {
			h, v = false, true
		}
		first := square(h, v)
		second, err := constrained(h, v)
		if err != nil {
			return ExtendPlan{}, err
		}
		plan.Steps = []ExtendStep{first, second}
		return plan, nil
	case SquareToPortrait, LandscapeExtendHeight, PortraitExtendHeight:
		step, err := constrained(false, true)
		if err != nil {
			return ExtendPlan{}, err
		}
		plan.Steps = []ExtendStep{step}
		return plan, nil
	default:
		step, err := constrained(true, false)
		if err != nil {
			return ExtendPlan{}, err
		}
		plan.Steps = []ExtendStep{step}
		return plan, nil
	}
}
