package constants

import "strings"

// AllowedExtensions holds the file extensions accepted as job-posting documents.
var AllowedExtensions = map[string]struct{}{
	"html": {},
	"htm":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsHTMLExt reports whether ext names a posting document.
func IsHTMLExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
