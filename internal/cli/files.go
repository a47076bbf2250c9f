package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gdrive-mcp/internal/drive"
	"gdrive-mcp/internal/fileops"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// UploadCmd returns the upload command.
func UploadCmd() *cobra.Command {
	var (
		content    string
		fromFile   string
		folderID   string
		folderPath string
		mimeType   string
		noBar      bool
	)

	cmd := &cobra.Command{
		Use:   "upload FILE_NAME",
		Short: "Upload a new file to Google Drive",
		Long: `Upload a new file to Google Drive from inline content or a local file.

Examples:
  gdrive-mcp upload readme.txt --content "hello"
  gdrive-mcp upload notes.md --from ./notes.md --folder Documents/Notes
  gdrive-mcp upload report.pdf --from ./report.pdf --folder-id 1a2b3c4d5e`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := fileops.UploadRequest{
				FileName: args[0],
				Content:  content,
				MimeType: mimeType,
			}
			if fromFile != "" {
				f, err := os.Open(fromFile)
				if err != nil {
					return fmt.Errorf("open %s: %w", fromFile, err)
				}
				defer f.Close()
				info, err := f.Stat()
				if err != nil {
					return fmt.Errorf("stat %s: %w", fromFile, err)
				}
				req.Media = f
				req.Size = info.Size()
				req.MimeType = drive.DetectMimeType(fromFile, mimeType)
			}

			a, err := newApp(cmd.Context(), progressOptions(noBar)...)
			if err != nil {
				return err
			}

			if folderPath != "" && folderID == "" {
				folderID, err = a.drive.ResolveFolder(cmd.Context(), folderPath)
				if err != nil {
					color.Red("Remote folder does not exist: %s", folderPath)
					return err
				}
			}

			req.FolderID = folderID
			res := a.files.Upload(cmd.Context(), req)
			return printResult(cmd.OutOrStdout(), "✓ File uploaded successfully", res)
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "File content")
	cmd.Flags().StringVar(&fromFile, "from", "", "Read the content from a local file")
	cmd.Flags().StringVar(&folderID, "folder-id", "", "Parent folder ID")
	cmd.Flags().StringVar(&folderPath, "folder", "", "Parent folder path (e.g. Documents/Notes)")
	cmd.Flags().StringVar(&mimeType, "mime-type", "", "MIME type (default: text/plain)")
	cmd.Flags().BoolVar(&noBar, "no-progress", false, "Disable the upload progress bar")
	cmd.MarkFlagsMutuallyExclusive("content", "from")
	cmd.MarkFlagsMutuallyExclusive("folder-id", "folder")

	return cmd
}

// UpdateCmd returns the update command.
func UpdateCmd() *cobra.Command {
	var (
		content   string
		localFile string
		mimeType  string
		noBar     bool
	)

	cmd := &cobra.Command{
		Use:   "update FILE_ID",
		Short: "Replace the content of an existing Google Drive file",
		Long: `Replace the content of an existing Google Drive file. A local file takes
precedence over inline content.

Examples:
  gdrive-mcp update 1a2b3c4d5e --content "new content"
  gdrive-mcp update 1a2b3c4d5e --local-file ./build/app.apk`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), progressOptions(noBar)...)
			if err != nil {
				return err
			}

			res := a.files.Update(cmd.Context(), fileops.UpdateRequest{
				FileID:        args[0],
				Content:       content,
				LocalFilePath: localFile,
				MimeType:      mimeType,
			})
			return printResult(cmd.OutOrStdout(), "✓ File updated successfully", res)
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "New file content")
	cmd.Flags().StringVar(&localFile, "local-file", "", "Local file whose content replaces the Drive file")
	cmd.Flags().StringVar(&mimeType, "mime-type", "", "MIME type (detected from the extension for known local files)")
	cmd.Flags().BoolVar(&noBar, "no-progress", false, "Disable the upload progress bar")

	return cmd
}

// progressOptions draws a byte progress bar on stderr for local files.
func progressOptions(disabled bool) []fileops.Option {
	if disabled {
		return nil
	}
	return []fileops.Option{fileops.WithProgress(func(r io.Reader, size int64, name string) io.Reader {
		return drive.ProgressReader(r, size, fmt.Sprintf("Uploading %s", name), os.Stderr)
	})}
}

// printResult prints a file result. A failed result is returned as an error.
func printResult(out io.Writer, headline string, res *fileops.Result) error {
	if !res.Success {
		return errors.New(res.Message)
	}

	f := res.File
	color.New(color.FgGreen).Fprintln(out, headline)
	fmt.Fprintf(out, "  Name:     %s\n", valueOrNA(f.Name))
	fmt.Fprintf(out, "  ID:       %s\n", f.ID)
	fmt.Fprintf(out, "  View:     %s\n", valueOrNA(f.ViewLink))
	fmt.Fprintf(out, "  Download: %s\n", valueOrNA(f.DownloadLink))
	return nil
}

func valueOrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
