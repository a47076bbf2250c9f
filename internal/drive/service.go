// Package drive provides the Google Drive API operations used by the MCP tools.
package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const (
	// Google Drive special IDs
	DriveRootID = "root"

	// Google Drive MIME types
	DriveFolderMimeType = "application/vnd.google-apps.folder"

	// fileFields are requested on every create and update.
	fileFields = "id, name, webViewLink, webContentLink"
)

// Service wraps the Google Drive service.
type Service struct {
	API *drive.Service
}

// NewService creates a new Service.
func NewService(service *drive.Service) *Service {
	return &Service{API: service}
}

// CreateFile uploads media as a new file. An empty parentID places the file
// in the Drive root. mimeType only describes the media, so Drive never
// converts the upload.
func (ds *Service) CreateFile(ctx context.Context, name string, media io.Reader, mimeType, parentID string) (*drive.File, error) {
	fileMetadata := &drive.File{Name: name}
	if parentID != "" {
		fileMetadata.Parents = []string{parentID}
	}

	return ds.API.Files.Create(fileMetadata).
		Media(media, googleapi.ContentType(mimeType)).
		Fields(fileFields).
		Context(ctx).
		Do()
}

// UpdateContent replaces the content of an existing file. Metadata is left
// unchanged.
func (ds *Service) UpdateContent(ctx context.Context, fileID string, media io.Reader, mimeType string) (*drive.File, error) {
	return ds.API.Files.Update(fileID, &drive.File{}).
		Media(media, googleapi.ContentType(mimeType)).
		Fields(fileFields).
		Context(ctx).
		Do()
}

// ParseRemotePath parses a remote path into folder components.
func (ds *Service) ParseRemotePath(remotePath string) []string {
	path := strings.Trim(remotePath, "/")
	if path == "" {
		return []string{}
	}
	return strings.Split(path, "/")
}

// FindItemByName finds an item by name in a parent folder.
func (ds *Service) FindItemByName(ctx context.Context, name, parentID, mimeType string) (*drive.File, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), escapeQuery(parentID))
	if mimeType != "" {
		query += fmt.Sprintf(" and mimeType = '%s'", mimeType)
	}

	fileList, err := ds.API.Files.List().Q(query).
		Fields("files(id, name, mimeType)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	if len(fileList.Files) == 0 {
		return nil, nil
	}
	return fileList.Files[0], nil
}

// ResolveFolder resolves a human-readable folder path to a folder ID.
func (ds *Service) ResolveFolder(ctx context.Context, remotePath string) (string, error) {
	parts := ds.ParseRemotePath(remotePath)
	if len(parts) == 0 {
		return DriveRootID, nil
	}

	currentID := DriveRootID
	for _, part := range parts {
		item, err := ds.FindItemByName(ctx, part, currentID, DriveFolderMimeType)
		if err != nil {
			return "", err
		}
		if item == nil {
			return "", fmt.Errorf("path not found: %s", remotePath)
		}
		currentID = item.Id
	}

	return currentID, nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
