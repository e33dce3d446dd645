package yoloprep

import (
	"image"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// resizeImage resamples the image so that its longer side has longerSide pixels, keeping the
// aspect ratio.
func resizeImage(img image.Image, longerSide int,
	downsamplingFilter, upsamplingFilter imaging.ResampleFilter) image.Image {

	imgBounds := img.Bounds()
	imgWidth := imgBounds.Dx()
	imgHeight := imgBounds.Dy()

	imgLonger := imgWidth
	imgShorter := imgHeight
	isLandscape := true
	if imgHeight > imgWidth {
		imgLonger = imgHeight
		imgShorter = imgWidth
		isLandscape = false
	}
	shorterSide := int(math.Round(float64(longerSide) * (float64(imgShorter) / float64(imgLonger))))

	// Select the filter based on the direction of the rescaling operation.
	filter := upsamplingFilter
	if longerSide < imgLonger {
		filter = downsamplingFilter
	}

	if isLandscape {
		return imaging.Resize(img, longerSide, shorterSide, filter)
	}
	return imaging.Resize(img, shorterSide, longerSide, filter)
}

// resampleFilter returns the imaging filter called name.
func resampleFilter(name string) (imaging.ResampleFilter, error) {
	switch name {
	case "nearest":
		return imaging.NearestNeighbor, nil
	case "box":
		return imaging.Box, nil
	case "linear":
		return imaging.Linear, nil
	case "gaussian":
		return imaging.Gaussian, nil
	case "lanczos":
		return imaging.Lanczos, nil
	}
	return imaging.ResampleFilter{}, errors.Errorf("unknown resampling filter %q", name)
}

// imageResizer re-encodes images with their longer side scaled to longerSide pixels.
type imageResizer struct {
	longerSide  int
	downsample  imaging.ResampleFilter
	upsample    imaging.ResampleFilter
	jpegQuality int
}

// defaultJPEGQuality is used when no valid JPEG quality is configured.
const defaultJPEGQuality = 92

// newImageResizer selects the resampling filters by name ("box" and "linear" if empty).
func newImageResizer(longerSide int, downsamplingFilter, upsamplingFilter string,
	jpegQuality int) (*imageResizer, error) {

	if downsamplingFilter == "" {
		downsamplingFilter = "box"
	}
	if upsamplingFilter == "" {
		upsamplingFilter = "linear"
	}
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = defaultJPEGQuality
	}

	r := &imageResizer{longerSide: longerSide, jpegQuality: jpegQuality}
	var err error
	if r.downsample, err = resampleFilter(downsamplingFilter); err != nil {
		return nil, err
	}
	if r.upsample, err = resampleFilter(upsamplingFilter); err != nil {
		return nil, err
	}
	return r, nil
}

// resizeFile decodes the image at src, resizes it and encodes it to dst. The encoding follows the
// file extension of dst.
//
// YOLO labels are normalised to the image size and stay valid.
func (r *imageResizer) resizeFile(src, dst string) error {
	img, err := imaging.Open(src)
	if err != nil {
		return errors.Wrapf(err, "cannot decode image %q", src)
	}

	resized := resizeImage(img, r.longerSide, r.downsample, r.upsample)

	// Do not write through a symlink left over from an earlier run.
	if info, err := os.Lstat(dst); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(dst); err != nil {
			return errors.Wrapf(err, "cannot replace %q", dst)
		}
	}

	if err := imaging.Save(resized, dst, imaging.JPEGQuality(r.jpegQuality)); err != nil {
		return errors.Wrapf(err, "cannot encode image %q", dst)
	}
	return nil
}

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}
