package docpipe

import (
	"fmt"
	"log/slog"
	"os"
)

// Config tunes the reader. Zero value is usable after defaults().
type Config struct {
	// MaxFileSize caps accepted input, in bytes.
	MaxFileSize int64
	Logger      *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxFileSize == 0 {
		c.MaxFileSize = 32 << 20
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
}

// Reader converts document bytes into positioned text blocks.
type Reader struct {
	cfg Config
}

// New builds a Reader.
func New(cfg Config) *Reader {
	cfg.defaults()
	return &Reader{cfg: cfg}
}

// Parse reads a single-page PDF and returns its blocks in reading order plus
// the plain-text rendering. Multi-page input is not rejected, but only the
// first page is read; a warning is logged since learned statistics assume
// one layout per document.
func (r *Reader) Parse(data []byte) (*Document, error) {
	if int64(len(data)) > r.cfg.MaxFileSize {
		return nil, fmt.Errorf("document too large: %d bytes (max %d)", len(data), r.cfg.MaxFileSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	doc, pages, err := extractPDF(data)
	if err != nil {
		return nil, err
	}
	if pages > 1 {
		r.cfg.Logger.Warn("multi-page document, reading first page only", "pages", pages)
	}
	preprocess(doc)
	if len(doc.Blocks) == 0 {
		return nil, fmt.Errorf("no text content found")
	}
	return doc, nil
}
