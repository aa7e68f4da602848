package utils

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// UploadKey returns dir/<uuid><ext>, keeping only the extension of the client file name.
func UploadKey(dir, original string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(original, `\`, "/")))
	return path.Join(dir, uuid.NewString()+ext)
}
