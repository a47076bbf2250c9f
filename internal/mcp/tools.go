package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gdrive-mcp/internal/fileops"
	"gdrive-mcp/internal/instrumentation"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names.
const (
	ToolUploadFile  = "upload-file"
	ToolUpdateFile  = "update-file"
	ToolReauthorize = "reauthorize"
)

const (
	uploadSuccess  = "File uploaded successfully!"
	updateSuccess  = "File updated successfully!"
	reauthComplete = "Authorization completed and token saved."
	notAvailable   = "N/A"
)

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolUploadFile,
				mcp.WithDescription("Upload a new file to Google Drive"),
				mcp.WithString("fileName", mcp.Required(), mcp.Description("Name of the file to create")),
				mcp.WithString("content", mcp.Required(), mcp.Description("Content of the file")),
				mcp.WithString("folderId", mcp.Description("ID of the parent folder (default: My Drive root)")),
				mcp.WithString("mimeType", mcp.Description("MIME type of the file (default: text/plain)")),
			),
			Handler: s.handleUploadFile,
		},
		{
			Tool: mcp.NewTool(ToolUpdateFile,
				mcp.WithDescription("Replace the content of an existing Google Drive file, from inline content or a local file"),
				mcp.WithString("fileId", mcp.Required(), mcp.Description("ID of the file to update")),
				mcp.WithString("content", mcp.Description("New content of the file")),
				mcp.WithString("localFilePath", mcp.Description("Path of a local file whose content replaces the Drive file (takes precedence over content)")),
				mcp.WithString("mimeType", mcp.Description("MIME type of the new content (detected from the extension for known local files)")),
			),
			Handler: s.handleUpdateFile,
		},
		{
			Tool: mcp.NewTool(ToolReauthorize,
				mcp.WithDescription("Discard the stored Google credential and run the browser authorization flow again"),
			),
			Handler: s.handleReauthorize,
		},
	}
}

func (s *Server) handleUploadFile(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
	start := time.Now()
	ctx, span := instrumentation.StartToolSpan(ctx, s.tracer, ToolUploadFile)
	defer func() {
		if r := recover(); r != nil {
			result = mcp.NewToolResultError(fmt.Sprintf("Error uploading file: %v", r))
		}
		s.logToolCall(ToolUploadFile, start, result)
		instrumentation.EndToolSpan(span, result.IsError, resultText(result))
	}()

	fileName, err := req.RequireString("fileName")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := s.files.Upload(ctx, fileops.UploadRequest{
		FileName: fileName,
		Content:  content,
		FolderID: req.GetString("folderId", ""),
		MimeType: req.GetString("mimeType", ""),
	})
	return fileResult(uploadSuccess, res), nil
}

func (s *Server) handleUpdateFile(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
	start := time.Now()
	ctx, span := instrumentation.StartToolSpan(ctx, s.tracer, ToolUpdateFile)
	defer func() {
		if r := recover(); r != nil {
			result = mcp.NewToolResultError(fmt.Sprintf("Error updating file: %v", r))
		}
		s.logToolCall(ToolUpdateFile, start, result)
		instrumentation.EndToolSpan(span, result.IsError, resultText(result))
	}()

	fileID, err := req.RequireString("fileId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := s.files.Update(ctx, fileops.UpdateRequest{
		FileID:        fileID,
		Content:       req.GetString("content", ""),
		LocalFilePath: req.GetString("localFilePath", ""),
		MimeType:      req.GetString("mimeType", ""),
	})
	return fileResult(updateSuccess, res), nil
}

func (s *Server) handleReauthorize(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
	start := time.Now()
	ctx, span := instrumentation.StartToolSpan(ctx, s.tracer, ToolReauthorize)
	defer func() {
		if r := recover(); r != nil {
			result = mcp.NewToolResultError(fmt.Sprintf("Error during reauthorization: %v", r))
		}
		s.logToolCall(ToolReauthorize, start, result)
		instrumentation.EndToolSpan(span, result.IsError, resultText(result))
	}()

	scopes, err := s.auth.Reauthorize(ctx)
	if err != nil {
		return mcp.NewToolResultError("Reauthorization failed: " + err.Error()), nil
	}

	scopeText := notAvailable
	if len(scopes) > 0 {
		scopeText = strings.Join(scopes, ", ")
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reauthorization successful!\n\n%s\n\nNew scopes: %s", reauthComplete, scopeText)), nil
}

// fileResult renders an operation result as tool text.
func fileResult(headline string, res *fileops.Result) *mcp.CallToolResult {
	if !res.Success {
		return mcp.NewToolResultError(res.Message)
	}

	f := res.File
	return mcp.NewToolResultText(fmt.Sprintf("%s\n\nFile Name: %s\nFile ID: %s\nView Link: %s\nDownload Link: %s",
		headline, orNA(f.Name), orNA(f.ID), orNA(f.ViewLink), orNA(f.DownloadLink)))
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// resultText returns the text of the first text content item.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			return tc.Text
		case *mcp.TextContent:
			return tc.Text
		}
	}
	return ""
}

// logToolCall logs a tool invocation.
func (s *Server) logToolCall(toolName string, start time.Time, result *mcp.CallToolResult) {
	duration := time.Since(start)
	if result.IsError {
		s.logger.Error("tool call failed", "tool", toolName, "duration", duration, "error", resultText(result))
	} else {
		s.logger.Info("tool call", "tool", toolName, "duration", duration)
	}
}
