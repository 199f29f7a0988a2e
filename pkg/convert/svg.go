package convert

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/tikzkit/tikzkit/pkg/errors"
)

// EnsureSVGSize returns svg with explicit width and height attributes
// on the root element. Some SVG producers emit only a viewBox, which
// breaks scaling in embedding browsers.
//
// When width and height are positive they override whatever the
// document declares; otherwise the dimensions are copied from the
// viewBox. An SVG with neither an override nor a viewBox is returned
// unchanged along with an error.
func EnsureSVGSize(svg []byte, width, height int) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(svg); err != nil {
		return svg, errors.Wrap(errors.ErrCodeConvertFailed, err, "parse SVG")
	}

	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return svg, errors.New(errors.ErrCodeConvertFailed, "document root is not <svg>")
	}

	w, h := float64(width), float64(height)
	if width <= 0 || height <= 0 {
		var err error
		w, h, err = viewBoxSize(root)
		if err != nil {
			return svg, err
		}
	}

	root.CreateAttr("width", formatPx(w))
	root.CreateAttr("height", formatPx(h))

	out, err := doc.WriteToBytes()
	if err != nil {
		return svg, errors.Wrap(errors.ErrCodeConvertFailed, err, "serialize SVG")
	}
	return out, nil
}

// viewBoxSize extracts width and height from the viewBox attribute.
func viewBoxSize(root *etree.Element) (float64, float64, error) {
	vb := root.SelectAttrValue("viewBox", "")
	fields := strings.Fields(vb)
	if len(fields) != 4 {
		return 0, 0, errors.New(errors.ErrCodeConvertFailed, "SVG has no usable viewBox (%q)", vb)
	}
	w, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeConvertFailed, err, "viewBox width")
	}
	h, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeConvertFailed, err, "viewBox height")
	}
	return w, h, nil
}

// formatPx renders a dimension as a px length, trimming trailing zeros.
func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
