// CLAUDE:SUMMARY Position-aware PDF block extractor using pdfcpu content streams.
// CLAUDE:DEPENDS docpipe/preprocess.go
// CLAUDE:EXPORTS extractPDF
package docpipe

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const defaultFontSize = 12

// extractPDF parses PDF bytes and returns the first page's blocks with raw
// positions, plus the total page count.
func extractPDF(data []byte) (*Document, int, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	if ctx.PageCount == 0 {
		return nil, 0, fmt.Errorf("pdf has no pages")
	}

	dims, err := ctx.PageDims()
	if err != nil || len(dims) == 0 {
		return nil, 0, fmt.Errorf("pdf page dimensions: %w", err)
	}

	doc := &Document{
		PageWidth:  dims[0].Width,
		PageHeight: dims[0].Height,
	}

	r, err := pdfcpu.ExtractPageContent(ctx, 1)
	if err != nil {
		return nil, 0, fmt.Errorf("pdf page content: %w", err)
	}
	stream, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("pdf page content: %w", err)
	}

	doc.Blocks = scanContentStream(stream)
	return doc, ctx.PageCount, nil
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// blockBuilder accumulates one text run at a tracked position.
type blockBuilder struct {
	text   strings.Builder
	x, y   float64
	size   float64
	hasPos bool
}

func (b *blockBuilder) flush(out []Block) []Block {
	text := strings.TrimSpace(b.text.String())
	b.text.Reset()
	if text == "" {
		return out
	}
	size := b.size
	if size == 0 {
		size = defaultFontSize
	}
	// The stream gives a baseline origin, not a box. Approximate: one line
	// tall, half an em per rune wide.
	width := 0.5 * size * float64(len([]rune(text)))
	return append(out, Block{
		Text: text,
		BBox: BBox{X0: b.x, Y0: b.y, X1: b.x + width, Y1: b.y + size},
	})
}

// scanContentStream walks the page content stream operator by operator,
// tracking the text position so every emitted block carries the origin it
// was shown at. A position move after accumulated text starts a new block,
// so each visual line becomes its own block.
func scanContentStream(data []byte) []Block {
	var blocks []Block
	var cur blockBuilder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		fields := strings.Fields(string(line))
		op := fields[len(fields)-1]

		switch op {
		case "BT":
			blocks = cur.flush(blocks)
			cur.x, cur.y, cur.hasPos = 0, 0, false

		case "ET":
			blocks = cur.flush(blocks)

		case "Tm":
			// a b c d e f Tm — e,f is the new text origin.
			if len(fields) >= 7 {
				e, errE := strconv.ParseFloat(fields[len(fields)-3], 64)
				f, errF := strconv.ParseFloat(fields[len(fields)-2], 64)
				if errE == nil && errF == nil {
					blocks = cur.flush(blocks)
					cur.x, cur.y, cur.hasPos = e, f, true
				}
			}

		case "Td", "TD":
			// tx ty Td — translate the line origin.
			if len(fields) >= 3 {
				tx, errX := strconv.ParseFloat(fields[len(fields)-3], 64)
				ty, errY := strconv.ParseFloat(fields[len(fields)-2], 64)
				if errX == nil && errY == nil {
					blocks = cur.flush(blocks)
					cur.x += tx
					cur.y += ty
					cur.hasPos = true
				}
			}

		case "T*":
			blocks = cur.flush(blocks)
			cur.y -= cur.lineHeight()

		case "Tf":
			// /F1 12 Tf — capture the font size for box estimation.
			if len(fields) >= 3 {
				if size, err := strconv.ParseFloat(fields[len(fields)-2], 64); err == nil {
					cur.size = size
				}
			}

		case "Tj", "TJ":
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				cur.text.WriteString(decodePDFString(m[1]))
			}

		case "'":
			// Move to next line and show text.
			blocks = cur.flush(blocks)
			cur.y -= cur.lineHeight()
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				cur.text.WriteString(decodePDFString(m[1]))
			}
		}
	}
	return cur.flush(blocks)
}

func (b *blockBuilder) lineHeight() float64 {
	if b.size > 0 {
		return b.size * 1.2
	}
	return defaultFontSize * 1.2
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				// Octal escape (e.g. \040 for space).
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}
