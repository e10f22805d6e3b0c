package gateway

import (
	"bytes"
	"errors"

	"github.com/sunshineplan/imgconv"

	"github.com/zapkit/zapctl/pkg/env"
)

// MediaOptions controls outbound image preprocessing. The gateway applies the
// same pipeline server-side; preparing uploads locally keeps payloads inside
// its limits and gives recipients an instant preview thumbnail.
type MediaOptions struct {
	// ConvertWebP re-encodes webp input as PNG before upload.
	ConvertWebP bool
	// Compress resizes oversized images down to MaxWidth.
	Compress bool
	// MaxWidth is the resize target when Compress is set. Default 1024.
	MaxWidth int
	// ThumbnailWidth sizes the JPEG preview attached to image sends. Default 72.
	ThumbnailWidth int
}

const (
	defaultMediaMaxWidth  = 1024
	defaultThumbnailWidth = 72
)

// DefaultMediaOptions reads the preprocessing flags from the environment.
func DefaultMediaOptions() MediaOptions {
	return MediaOptions{
		ConvertWebP:    env.GetEnvBoolOrDefault("ZAPCTL_MEDIA_IMAGE_CONVERT_WEBP", false),
		Compress:       env.GetEnvBoolOrDefault("ZAPCTL_MEDIA_IMAGE_COMPRESSION", false),
		MaxWidth:       defaultMediaMaxWidth,
		ThumbnailWidth: defaultThumbnailWidth,
	}
}

func (o MediaOptions) withDefaults() MediaOptions {
	if o.MaxWidth <= 0 {
		o.MaxWidth = defaultMediaMaxWidth
	}
	if o.ThumbnailWidth <= 0 {
		o.ThumbnailWidth = defaultThumbnailWidth
	}
	return o
}

// PrepareImage runs the outbound image pipeline: optional webp→png
// conversion, optional max-width resize, and always a small JPEG thumbnail
// for the message preview. It returns the processed bytes, the (possibly
// changed) mimetype, and the thumbnail.
func PrepareImage(data []byte, mimetype string, opts MediaOptions) ([]byte, string, []byte, error) {
	opts = opts.withDefaults()

	if mimetype == "image/webp" && opts.ConvertWebP {
		decoded, err := imgconv.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", nil, errors.New("Error While Decoding Convert Image Stream")
		}
		encoded := new(bytes.Buffer)
		if err := imgconv.Write(encoded, decoded, &imgconv.FormatOption{Format: imgconv.PNG}); err != nil {
			return nil, "", nil, errors.New("Error While Encoding Convert Image Stream")
		}
		data = encoded.Bytes()
		mimetype = "image/png"
	}

	if opts.Compress {
		decoded, err := imgconv.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", nil, errors.New("Error While Decoding Resize Image Stream")
		}
		encoded := new(bytes.Buffer)
		err = imgconv.Write(encoded,
			imgconv.Resize(decoded, &imgconv.ResizeOption{Width: opts.MaxWidth}),
			&imgconv.FormatOption{Format: imgconv.JPEG})
		if err != nil {
			return nil, "", nil, errors.New("Error While Encoding Resize Image Stream")
		}
		data = encoded.Bytes()
		mimetype = "image/jpeg"
	}

	thumbDecoded, err := imgconv.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", nil, errors.New("Error While Decoding Thumbnail Image Stream")
	}
	thumbEncoded := new(bytes.Buffer)
	err = imgconv.Write(thumbEncoded,
		imgconv.Resize(thumbDecoded, &imgconv.ResizeOption{Width: opts.ThumbnailWidth}),
		&imgconv.FormatOption{Format: imgconv.JPEG})
	if err != nil {
		return nil, "", nil, errors.New("Error While Encoding Thumbnail Image Stream")
	}

	return data, mimetype, thumbEncoded.Bytes(), nil
}
