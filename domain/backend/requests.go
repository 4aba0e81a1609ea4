package backend

import (
	"sort"
	"strconv"

	"github.com/soocke/print-prep-go/domain/printplan"
)

// ExtendOptions are the outpainting parameters of /ai_extend_with_mask.
type ExtendOptions struct {
	TargetWidth       int
	TargetHeight      int
	OverlapPercentage int
	Alignment         string
	OverlapLeft       bool
	OverlapRight      bool
	OverlapTop        bool
	OverlapBottom     bool
	ResizeOption      string
	Strategy          printplan.Strategy
}

// ExtendOptionsFromStep fills outpainting options from a planned step.
func ExtendOptionsFromStep(s printplan.Strategy, step printplan.ExtendStep) ExtendOptions {
	return ExtendOptions{
		TargetWidth:       step.Width,
		TargetHeight:      step.Height,
		OverlapPercentage: step.OverlapPercentage,
		Alignment:         "Middle",
		OverlapLeft:       step.Horizontal,
		OverlapRight:      step.Horizontal,
		OverlapTop:        step.Vertical,
		OverlapBottom:     step.Vertical,
		ResizeOption:      "Full",
		Strategy:          s,
	}
}

// ProcessForPrint builds the full print pipeline request.
func ProcessForPrint(file Upload, t printplan.Target) Request {
	w, h := t.PixelSize()
	return Request{Endpoint: EndpointProcessForPrint, File: file, Fields: map[string]string{
		"width_mm":  formatFloat(t.WidthMM),
		"height_mm": formatFloat(t.HeightMM),
		"dpi":       formatFloat(t.DPI),
		"bleed_mm":  formatFloat(t.BleedMM),
		"width_px":  strconv.Itoa(w),
		"height_px": strconv.Itoa(h),
		"bleed_px":  strconv.Itoa(t.BleedPixels()),
	}}
}

// AIExtendWithMask builds an outpainting request.
func AIExtendWithMask(file Upload, o ExtendOptions) Request {
	overlap := o.OverlapPercentage
	if overlap <= 0 {
		overlap = 10
	}
	alignment := o.Alignment
	if alignment == "" {
		alignment = "Middle"
	}
	resize := o.ResizeOption
	if resize == "" {
		resize = "Full"
	}
	fields := map[string]string{
		"target_width":       strconv.Itoa(o.TargetWidth),
		"target_height":      strconv.Itoa(o.TargetHeight),
		"overlap_percentage": strconv.Itoa(overlap),
		"alignment":          alignment,
		"overlap_left":       strconv.FormatBool(o.OverlapLeft),
		"overlap_right":      strconv.FormatBool(o.OverlapRight),
		"overlap_top":        strconv.FormatBool(o.OverlapTop),
		"overlap_bottom":     strconv.FormatBool(o.OverlapBottom),
		"resize_option":      resize,
	}
	if o.Strategy != "" {
		fields["strategy"] = string(o.Strategy)
	}
	return Request{Endpoint: EndpointAIExtendWithMask, File: file, Fields: fields}
}

// Resize builds a DPI upscaling request for the trimmed print size.
func Resize(file Upload, t printplan.Target) Request {
	w, h := t.PixelSize()
	return Request{Endpoint: EndpointResize, File: file, Fields: map[string]string{
		"width_px":  strconv.Itoa(w),
		"height_px": strconv.Itoa(h),
		"dpi":       formatFloat(t.DPI),
	}}
}

// ImageToPDF builds a PDF conversion request with a cut-contour spot color.
func ImageToPDF(file Upload, spotColor string, t printplan.Target) Request {
	if spotColor == "" {
		spotColor = "CutContour"
	}
	return Request{Endpoint: EndpointImageToPDF, File: file, Fields: map[string]string{
		"spot_color": spotColor,
		"bleed_mm":   formatFloat(t.BleedMM),
		"dpi":        formatFloat(t.DPI),
	}}
}

// RemoveBackground builds a background removal request.
func RemoveBackground(file Upload) Request {
	return Request{Endpoint: EndpointRemoveBackground, File: file}
}

// PDFToImage rasterises one zero-based page of a PDF.
func PDFToImage(file Upload, page int, dpi float64) Request {
	if page < 0 {
		page = 0
	}
	return Request{Endpoint: EndpointPDFToImage, File: file, Fields: map[string]string{
		"page": strconv.Itoa(page),
		"dpi":  formatFloat(dpi),
	}}
}

// Analyze asks for a print-suitability report of an image.
func Analyze(file Upload, useCase string) Request {
	return Request{Endpoint: EndpointAnalyze, File: file, Fields: map[string]string{"use_case": useCase}}
}

// AnalyzePDF asks for a report on the first page of a PDF.
func AnalyzePDF(file Upload, useCase string) Request {
	return Request{Endpoint: EndpointAnalyzePDF, File: file, Fields: map[string]string{"use_case": useCase}}
}

// Process adds a mirror bleed of bleedPx and draws the cut line.
func Process(file Upload, bleedPx int) Request {
	if bleedPx < 0 {
		bleedPx = 0
	}
	return Request{Endpoint: EndpointProcess, File: file, Fields: map[string]string{"bleed_px": strconv.Itoa(bleedPx)}}
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
