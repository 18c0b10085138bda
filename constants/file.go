package constants

import "strings"

// SourceType values reported by the OCR adapter.
const (
	IMAGE = "IMAGE"
	TEXT  = "TEXT"
)

// AllowedExtensions holds the photo extensions accepted for intake.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"heic": {},
	"heif": {},
	"webp": {},
	"tif":  {},
	"tiff": {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns IMAGE, TEXT or "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	ext = NormalizeExt(ext)
	if _, ok := AllowedExtensions[ext]; !ok {
		return ""
	}
	if ext == "txt" {
		return TEXT
	}
	return IMAGE
}

// IsHEICExt reports extensions that need conversion before tesseract can read them.
func IsHEICExt(ext string) bool {
	ext = NormalizeExt(ext)
	return ext == "heic" || ext == "heif"
}
