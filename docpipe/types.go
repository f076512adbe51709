// Package docpipe is the document reader: it turns raw PDF bytes into an
// ordered list of positioned text blocks plus a plain-text rendering of the
// page, normalized so downstream position statistics are comparable across
// documents.
package docpipe

// BBox is a bounding box in PDF user-space units, origin bottom-left.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Block is a span of page text with its box and normalized center. PX and PY
// are in [0,1] with PY growing downward (reading order), regardless of the
// PDF's bottom-left origin.
type Block struct {
	Text string  `json:"text"`
	BBox BBox    `json:"bbox"`
	PX   float64 `json:"px"`
	PY   float64 `json:"py"`
}

// Document is the reader's output for one page.
type Document struct {
	Blocks     []Block `json:"blocks"`
	RawText    string  `json:"raw_text"`
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
}
