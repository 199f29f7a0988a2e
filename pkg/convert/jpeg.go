package convert

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/tikzkit/tikzkit/pkg/errors"
)

// PNGToJPEG re-encodes the PNG at pngPath as a maximum-quality JPEG at
// jpgPath. Any alpha channel is flattened onto a white background,
// since JPEG has no transparency.
func PNGToJPEG(pngPath, jpgPath string) error {
	img, err := imaging.Open(pngPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConvertFailed, err, "open %s", pngPath)
	}

	flat := flatten(img)
	if err := imaging.Save(flat, jpgPath, imaging.JPEGQuality(100)); err != nil {
		return errors.Wrap(errors.ErrCodeConvertFailed, err, "write %s", jpgPath)
	}
	return nil
}

// flatten composites img over an opaque white canvas of the same size.
func flatten(img image.Image) image.Image {
	bounds := img.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}
