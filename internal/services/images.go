package services

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"

	appErr "github.com/recipebook/api/pkg/errors"
)

const invalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

type uploadedImage struct {
	data   []byte
	format string
}

func (u uploadedImage) reader() io.Reader { return bytes.NewReader(u.data) }

func (u uploadedImage) contentType() string { return "image/" + u.format }

// readImage buffers body and checks that it decodes as a JPEG, PNG or GIF.
// The caller bounds the body size.
func readImage(body io.Reader) (uploadedImage, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return uploadedImage{}, appErr.Wrap(err, appErr.CodeInvalid, "read upload failed").WithField("image", invalidImage)
	}
	if len(data) == 0 {
		return uploadedImage{}, appErr.Invalid("image", "The submitted file is empty.")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return uploadedImage{}, appErr.Invalid("image", invalidImage)
	}
	return uploadedImage{data: data, format: format}, nil
}

// imageFilename keeps the client's extension when it has one, otherwise
// derives it from the decoded format.
func imageFilename(name, format string) string {
	if path.Ext(strings.ReplaceAll(name, `\`, "/")) != "" {
		return name
	}
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	return "image." + ext
}
