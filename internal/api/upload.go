package api

import (
	"mime/multipart" // Uploaded file headers
	"os"             // Directory creation and cleanup
	"path/filepath"  // Path joins and extensions
	"strings"        // Extension normalisation

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/google/uuid"   // Collision-free file names
)

const maxScreenshotBytes = 5 << 20 // 5 MiB

var screenshotExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}

// uploadError is a problem with the submitted evidence file
type uploadError string

func (e uploadError) Error() string { return string(e) }

// saveScreenshot stores a deposit screenshot under dir and returns the
// public URL and the file path on disk.
func saveScreenshot(c *gin.Context, file *multipart.FileHeader, dir string) (string, string, error) {
	if file.Size > maxScreenshotBytes {
		return "", "", uploadError("screenshot must be 5 MiB or smaller")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !screenshotExts[ext] {
		return "", "", uploadError("screenshot must be a png, jpg, jpeg or webp image")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	name := uuid.NewString() + ext
	path := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", "", err
	}
	return "/uploads/" + name, path, nil
}
