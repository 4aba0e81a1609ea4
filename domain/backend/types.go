package backend

import (
	"strings"
	"time"
)

// Endpoint is a backend route name without the leading slash.
type Endpoint string

const (
	EndpointProcessForPrint  Endpoint = "process_for_print"
	EndpointAIExtendWithMask Endpoint = "ai_extend_with_mask"
	EndpointResize           Endpoint = "resize"
	EndpointImageToPDF       Endpoint = "image_to_pdf"
	EndpointRemoveBackground Endpoint = "remove_background"
	EndpointPDFToImage       Endpoint = "pdf_to_image"
	EndpointAnalyze          Endpoint = "analyze"
	EndpointAnalyzePDF       Endpoint = "analyze_pdf"
	EndpointProcess          Endpoint = "process"
	EndpointHealth           Endpoint = "health"
)

// UploadEndpoints lists the routes that accept a file, in menu order.
var UploadEndpoints = []Endpoint{
	EndpointProcessForPrint,
	EndpointAIExtendWithMask,
	EndpointResize,
	EndpointImageToPDF,
	EndpointRemoveBackground,
	EndpointPDFToImage,
	EndpointAnalyze,
	EndpointAnalyzePDF,
	EndpointProcess,
}

// ParseEndpoint accepts "resize" or "/resize".
func ParseEndpoint(s string) (Endpoint, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "/")
	for _, e := range UploadEndpoints {
		if string(e) == s {
			return e, true
		}
	}
	if s == string(EndpointHealth) {
		return EndpointHealth, true
	}
	return "", false
}

// Path returns the URL path of the endpoint.
func (e Endpoint) Path() string { return "/" + string(e) }

// AcceptsPDF reports whether the endpoint expects a PDF upload.
func (e Endpoint) AcceptsPDF() bool {
	return e == EndpointPDFToImage || e == EndpointAnalyzePDF
}

// Upload is the single file part of a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Request is one call to an upload endpoint.
type Request struct {
	Endpoint Endpoint
	File     Upload
	Fields   map[string]string
}

// Result is the raw response of a successful call.
type Result struct {
	Endpoint    Endpoint
	ContentType string
	Body        []byte
	RequestID   string
	Elapsed     time.Duration
}

// IsImage reports whether the response body is an image.
func (r *Result) IsImage() bool {
	return r != nil && strings.HasPrefix(r.ContentType, "image/")
}

// IsPDF reports whether the response body is a PDF document.
func (r *Result) IsPDF() bool {
	return r != nil && strings.HasPrefix(r.ContentType, "application/pdf")
}

// IsJSON reports whether the response body is JSON.
func (r *Result) IsJSON() bool {
	return r != nil && strings.HasPrefix(r.ContentType, "application/json")
}

// Extension suggests a file extension for saving the body.
func (r *Result) Extension() string {
	switch {
	case r == nil:
		return ".bin"
	case r.IsPDF():
		return ".pdf"
	case strings.HasPrefix(r.ContentType, "image/png"):
		return ".png"
	case strings.HasPrefix(r.ContentType, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(r.ContentType, "image/webp"):
		return ".webp"
	case r.IsJSON():
		return ".json"
	default:
		return ".bin"
	}
}

type analysisResponse struct {
	Result string `json:"result"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Detail any `json:"detail"`
}
