package presenter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soocke/print-prep-go/domain/backend"
)

// ResultWriter persists a backend response and returns where it went.
type ResultWriter interface {
	Write(source string, res *backend.Result) (string, error)
}

// DirWriter saves results next to each other in Dir as
// <source>_<endpoint><ext>, never overwriting an existing file.
type DirWriter struct{ Dir string }

func (w DirWriter) Write(source string, res *backend.Result) (string, error) {
	if res == nil {
		return "", fmt.Errorf("nil result")
	}
	dir := w.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "result"
	}
	name := base + "_" + string(res.Endpoint)
	ext := res.Extension()
	path := filepath.Join(dir, name+ext)
	for i := 1; fileExists(path); i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, i, ext))
	}
	if err := os.WriteFile(path, res.Body, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
