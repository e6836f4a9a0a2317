package pdfparse

import (
	"os"

	"github.com/google/uuid"
)

// tempPDF is a scratch file backing a single-page blob so ledongthuc/pdf
// (which reads from a path, not an in-memory buffer) can parse it.
type tempPDF struct {
	path string
	file *os.File
}

func writeTempPDF(b []byte) (*tempPDF, error) {
	f, err := os.CreateTemp("", "docindex-page-"+uuid.NewString()+"-*.pdf")
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}
	return &tempPDF{path: f.Name(), file: f}, nil
}

func (t *tempPDF) cleanup() {
	os.Remove(t.path)
}
