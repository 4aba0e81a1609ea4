package backend

import (
	"fmt"

	"github.com/soocke/print-prep-go/domain/printplan"
)

// Params carries everything the typed builders may need. Zero fields fall
// back to the builder defaults.
type Params struct {
	Target    printplan.Target
	SpotColor string
	UseCase   string
	Page      int
	BleedPx   int
	// Size of the uploaded image, used to plan outpainting.
	ImageWidth  int
	ImageHeight int
}

// Upscale is the factor by which the upload must grow to reach the trimmed
// print size. Zero when the image size is unknown.
func (p Params) Upscale() float64 {
	w, h := p.Target.PixelSize()
	return printplan.ScalingFactor(w, h, p.ImageWidth, p.ImageHeight)
}

// Build assembles the request for ep from a staged upload.
func Build(ep Endpoint, file Upload, p Params) (Request, error) {
	switch ep {
	case EndpointProcessForPrint:
		if err := p.Target.Validate(); err != nil {
			return Request{}, err
		}
		return ProcessForPrint(file, p.Target), nil
	case EndpointAIExtendWithMask:
		opts, err := planExtend(p)
		if err != nil {
			return Request{}, err
		}
		return AIExtendWithMask(file, opts), nil
	case EndpointResize:
		if err := p.Target.Validate(); err != nil {
			return Request{}, err
		}
		return Resize(file, p.Target), nil
	case EndpointImageToPDF:
		return ImageToPDF(file, p.SpotColor, p.Target), nil
	case EndpointRemoveBackground:
		return RemoveBackground(file), nil
	case EndpointPDFToImage:
		return PDFToImage(file, p.Page, p.Target.DPI), nil
	case EndpointAnalyze:
		return Analyze(file, p.UseCase), nil
	case EndpointAnalyzePDF:
		return AnalyzePDF(file, p.UseCase), nil
	case EndpointProcess:
		bleed := p.BleedPx
		if bleed == 0 {
			bleed = p.Target.BleedPixels()
		}
		return Process(file, bleed), nil
	default:
		return Request{}, fmt.Errorf("endpoint %q does not accept uploads", ep)
	}
}

// planExtend sends the final size of the plan; two-pass strategies are
// carried out by the service from the strategy name.
func planExtend(p Params) (ExtendOptions, error) {
	if err := p.Target.Validate(); err != nil {
		return ExtendOptions{}, err
	}
	plan, err := printplan.PlanExtension(p.ImageWidth, p.ImageHeight, p.Target.Ratio())
	if err != nil {
		return ExtendOptions{}, err
	}
	if len(plan.Steps) == 0 {
		return ExtendOptions{
			TargetWidth:  p.ImageWidth,
			TargetHeight: p.ImageHeight,
			Strategy:     plan.Strategy,
		}, nil
	}
	return ExtendOptionsFromStep(plan.Strategy, plan.Steps[len(plan.Steps)-1]), nil
}
