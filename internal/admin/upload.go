package admin

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/feddict/feddict/internal/model"
)

// Upload settings
const (
	FieldFile          = "file"
	MaxUploadSize      = 10 << 20 // 10MB
	UploadRefreshDelay = 2 * time.Second
)

var allowedUploadExts = map[string]bool{
	".csv":  true,
	".json": true,
}

// CheckUploadFile accepts only .csv and .json names (case-insensitive).
// This is a convenience check before sending; the backend validates content.
func CheckUploadFile(name string) error {
	if strings.TrimSpace(name) == "" {
		return model.NewValidationError(FieldFile, "Please choose a file to upload")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedUploadExts[ext] {
		return model.NewValidationError(FieldFile, "Only .csv and .json files are supported")
	}
	return nil
}
