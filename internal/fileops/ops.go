// Package fileops implements the upload and update operations on top of the
// Drive facade. Failures are reported in the Result, never as Go errors.
package fileops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gdrive-mcp/internal/drive"

	driveapi "google.golang.org/api/drive/v3"
)

// FileAPI is the subset of the Drive facade used by Operations.
type FileAPI interface {
	CreateFile(ctx context.Context, name string, media io.Reader, mimeType, parentID string) (*driveapi.File, error)
	UpdateContent(ctx context.Context, fileID string, media io.Reader, mimeType string) (*driveapi.File, error)
}

// FileRef identifies a Drive file. Empty links are absent.
type FileRef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ViewLink     string `json:"webViewLink,omitempty"`
	DownloadLink string `json:"webContentLink,omitempty"`
}

// Result is the outcome of an operation: either Success with File set, or a
// failure Message.
type Result struct {
	Success bool
	File    *FileRef
	Message string
}

func failure(msg string) *Result {
	return &Result{Message: msg}
}

// UploadRequest creates a new file from inline content, or from Media when
// it is set. Size is the length of Media if known.
type UploadRequest struct {
	FileName string
	Content  string
	Media    io.Reader
	Size     int64
	FolderID string
	MimeType string
}

// UpdateRequest replaces the content of an existing file. LocalFilePath wins
// over Content.
type UpdateRequest struct {
	FileID        string
	Content       string
	LocalFilePath string
	MimeType      string
}

// ProgressFunc wraps a local file reader, e.g. with a progress bar.
type ProgressFunc func(r io.Reader, size int64, name string) io.Reader

// Operations runs file operations against a FileAPI.
type Operations struct {
	api      FileAPI
	logger   *slog.Logger
	progress ProgressFunc
}

// Option customises Operations.
type Option func(*Operations)

// WithProgress reports progress while streaming local files.
func WithProgress(p ProgressFunc) Option {
	return func(o *Operations) { o.progress = p }
}

// New creates Operations bound to api.
func New(api FileAPI, logger *slog.Logger, opts ...Option) *Operations {
	o := &Operations{api: api, logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Upload creates a new file. Without a folder the file lands in the Drive root.
func (o *Operations) Upload(ctx context.Context, req UploadRequest) *Result {
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = drive.DefaultMimeType
	}

	var media io.Reader = strings.NewReader(req.Content)
	if req.Media != nil {
		media = req.Media
		if o.progress != nil && req.Size > 0 {
			media = o.progress(req.Media, req.Size, req.FileName)
		}
	}

	file, err := o.api.CreateFile(ctx, req.FileName, media, mimeType, req.FolderID)
	if err != nil {
		o.logger.Error("upload failed", "file_name", req.FileName, "error", err)
		return failure(fmt.Sprintf("Error uploading file: %v", err))
	}

	o.logger.Info("file uploaded", "file_id", file.Id, "file_name", file.Name, "mime_type", mimeType)
	return &Result{Success: true, File: refFromFile(file, "")}
}

// Update replaces a file's content from a local file or inline content.
func (o *Operations) Update(ctx context.Context, req UpdateRequest) *Result {
	var (
		media    io.Reader
		mimeType string
	)

	switch {
	case req.LocalFilePath != "":
		f, err := os.Open(req.LocalFilePath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return failure(fmt.Sprintf("File not found: %s", req.LocalFilePath))
			}
			return failure(fmt.Sprintf("Error updating file: %v", err))
		}
		defer f.Close()

		media = f
		if o.progress != nil {
			if info, err := f.Stat(); err == nil {
				media = o.progress(f, info.Size(), info.Name())
			}
		}
		mimeType = drive.DetectMimeType(req.LocalFilePath, req.MimeType)

	case req.Content != "":
		media = strings.NewReader(req.Content)
		mimeType = req.MimeType
		if mimeType == "" {
			mimeType = drive.DefaultMimeType
		}

	default:
		return failure("Either content or localFilePath must be provided")
	}

	file, err := o.api.UpdateContent(ctx, req.FileID, media, mimeType)
	if err != nil {
		o.logger.Error("update failed", "file_id", req.FileID, "error", err)
		return failure(fmt.Sprintf("Error updating file: %v", err))
	}

	o.logger.Info("file updated", "file_id", req.FileID, "mime_type", mimeType)
	return &Result{Success: true, File: refFromFile(file, req.FileID)}
}

// refFromFile converts a Drive response. A non-empty id overrides the
// response ID.
func refFromFile(file *driveapi.File, id string) *FileRef {
	ref := &FileRef{
		ID:           file.Id,
		Name:         file.Name,
		ViewLink:     file.WebViewLink,
		DownloadLink: file.WebContentLink,
	}
	if id != "" {
		ref.ID = id
	}
	return ref
}
