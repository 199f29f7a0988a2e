// Package convert turns compiler output into the requested delivery
// format: PDF pages into SVG via MuPDF, PNG into flattened JPEG, and
// SVG documents into browser-safe SVG with explicit dimensions.
package convert

import (
	"os"

	"github.com/gen2brain/go-fitz"

	"github.com/tikzkit/tikzkit/pkg/errors"
)

// PDFToSVG renders the first page of the PDF at pdfPath as SVG and
// writes it to svgPath.
func PDFToSVG(pdfPath, svgPath string) error {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConvertFailed, err, "open %s", pdfPath)
	}
	defer doc.Close()

	svg, err := doc.SVG(0)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConvertFailed, err, "render page 0 of %s", pdfPath)
	}

	if err := os.WriteFile(svgPath, []byte(svg), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeConvertFailed, err, "write %s", svgPath)
	}
	return nil
}
