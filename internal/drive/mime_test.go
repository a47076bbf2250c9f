package drive

import (
	"testing"
)

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		path     string
		fallback string
		want     string
	}{
		{"photo.apk", "", "application/vnd.android.package-archive"},
		{"build/app.ipa", "", "application/octet-stream"},
		{"archive.zip", "", "application/zip"},
		{"report.pdf", "", "application/pdf"},
		{"config.json", "", "application/json"},
		{"UPPER.PDF", "", "application/pdf"},
		{"photo.apk", "text/markdown", "application/vnd.android.package-archive"},
		{"doc.unknownext", "", "text/plain"},
		{"doc.unknownext", "text/markdown", "text/markdown"},
		{"noextension", "", "text/plain"},
		{"multiple.dots.json", "", "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path+"|"+tt.fallback, func(t *testing.T) {
			got := DetectMimeType(tt.path, tt.fallback)
			if got != tt.want {
				t.Errorf("DetectMimeType(%q, %q) = %q, want %q", tt.path, tt.fallback, got, tt.want)
			}
		})
	}
}
