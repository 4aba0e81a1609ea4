package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soocke/print-prep-go/domain/printplan"
)

var pngUpload = Upload{Filename: "crop.png", ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\nfake")}

func newTestClient(t *testing.T, h http.Handler, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/", Timeout: 2 * time.Second, Retries: retries})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNoBaseURL) {
		t.Fatalf("expected ErrNoBaseURL got %v", err)
	}
	if _, err := New(Options{BaseURL: "ftp://example.com"}); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/health" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	}), 0)
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestHealth_Unhealthy(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"degraded"}`)
	}), 0)
	if err := c.Health(context.Background()); !errors.Is(err, ErrUnhealthy) {
		t.Fatalf("expected ErrUnhealthy got %v", err)
	}
}

func TestDo_SendsMultipartFileAndFields(t *testing.T) {
	var gotID string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/process_for_print" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotID = r.Header.Get("X-Request-ID")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if got := r.FormValue("width_px"); got != "1771" {
			t.Errorf("width_px: %q", got)
		}
		if got := r.FormValue("bleed_px"); got != "17" {
			t.Errorf("bleed_px: %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "crop.png" || string(data) != string(pngUpload.Data) {
			t.Errorf("unexpected file %q (%d bytes)", hdr.Filename, len(data))
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("file content type %q", ct)
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.7")
	}), 0)
	target := printplan.Target{WidthMM: 300, HeightMM: 360, DPI: 150, BleedMM: 3}
	res, err := c.Do(context.Background(), ProcessForPrint(pngUpload, target))
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if !res.IsPDF() || res.Extension() != ".pdf" || string(res.Body) != "%PDF-1.7" {
		t.Fatalf("unexpected result %+v", res)
	}
	if gotID == "" || gotID != res.RequestID {
		t.Fatalf("request id mismatch: header %q result %q", gotID, res.RequestID)
	}
}

func TestDo_EmptyUpload(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), 0)
	_, err := c.Do(context.Background(), RemoveBackground(Upload{Filename: "x.png"}))
	if !errors.Is(err, ErrEmptyUpload) {
		t.Fatalf("expected ErrEmptyUpload got %v", err)
	}
}

func TestDo_StatusErrorCarriesDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Unsupported file type"}`)
	}), 3)
	_, err := c.Do(context.Background(), Analyze(pngUpload, "poster"))
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError got %v", err)
	}
	if se.StatusCode != http.StatusBadRequest || se.Detail != "Unsupported file type" || se.Endpoint != EndpointAnalyze {
		t.Fatalf("unexpected status error %+v", se)
	}
	if !strings.Contains(se.Error(), "/analyze") {
		t.Fatalf("error should name the endpoint: %v", se)
	}
}

func TestDo_RetriesTemporaryFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngUpload.Data)
	}), 2)
	res, err := c.Do(context.Background(), RemoveBackground(pngUpload))
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if calls.Load() != 3 || !res.IsImage() {
		t.Fatalf("expected 3 calls and an image, got %d %q", calls.Load(), res.ContentType)
	}
}

func TestDo_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), 1)
	_, err := c.Do(context.Background(), RemoveBackground(pngUpload))
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 StatusError got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts got %d", calls.Load())
	}
}

func TestAnalyze_DecodesResult(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("use_case"); got != "business card" {
			t.Errorf("use_case %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result":"looks printable"}`)
	}), 0)
	res, err := c.Do(context.Background(), Analyze(pngUpload, "business card"))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	text, err := DecodeAnalysis(res)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if text != "looks printable" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}), 3)
	defer close(block)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Do(ctx, RemoveBackground(pngUpload)); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
}
