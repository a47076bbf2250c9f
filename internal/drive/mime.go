package drive

import (
	"path/filepath"
	"strings"
)

// DefaultMimeType is used when neither the extension table nor the caller
// provides one.
const DefaultMimeType = "text/plain"

var extensionMimeTypes = map[string]string{
	".apk":  "application/vnd.android.package-archive",
	".ipa":  "application/octet-stream",
	".zip":  "application/zip",
	".pdf":  "application/pdf",
	".json": "application/json",
}

// DetectMimeType returns the MIME type for a local file. Known extensions win
// over fallback; fallback wins over DefaultMimeType.
func DetectMimeType(path, fallback string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := extensionMimeTypes[ext]; ok {
		return mt
	}
	if fallback != "" {
		return fallback
	}
	return DefaultMimeType
}
