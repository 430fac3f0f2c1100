package ingestion

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// InferredMetadata holds the doc type inferred from a source location's
// structure. Explicit CLI flags take precedence over inferred values — this
// is the best-effort fallback when the user doesn't specify metadata.
type InferredMetadata struct {
	// DocType classifies the document kind (text, markdown, html, code).
	DocType string
}

// docTypeByExtension maps file extensions to our canonical doc type labels.
var docTypeByExtension = map[string]string{
	".txt":      "text",
	".md":       "markdown",
	".markdown": "markdown",
	".rst":      "text",
	".html":     "html",
	".htm":      "html",
	".go":       "code",
	".py":       "code",
	".js":       "code",
	".ts":       "code",
	".yaml":     "code",
	".yml":      "code",
	".json":     "code",
}

// SourceTag derives the canonical source tag for a location: the base
// filename (or last URL path segment) without its extension. A document
// ingested from "corpus/Robert-bio.txt" carries the tag "Robert-bio".
func SourceTag(location string) string {
	base := location
	if isURL(location) {
		if parsed, err := url.Parse(location); err == nil && parsed.Path != "" {
			base = path.Base(parsed.Path)
		}
	} else {
		base = filepath.Base(location)
	}
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == "/" {
		return location
	}
	return base
}

// InferMetadata inspects the source location and returns best-effort
// metadata. Unknown extensions default to "text".
func InferMetadata(location string) InferredMetadata {
	m := InferredMetadata{DocType: "text"}

	name := location
	if isURL(location) {
		if parsed, err := url.Parse(location); err == nil {
			name = parsed.Path
		}
		// Bare URLs with no file extension are almost always HTML pages.
		if filepath.Ext(name) == "" {
			m.DocType = "html"
			return m
		}
	}

	if dt, ok := docTypeByExtension[strings.ToLower(filepath.Ext(name))]; ok {
		m.DocType = dt
	}
	return m
}

// isURL reports whether the location is an HTTP(S) URL rather than a file path.
func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// isTextFile reports whether a directory entry looks like an ingestable text
// file based on its extension.
func isTextFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	_, ok := docTypeByExtension[ext]
	return ok
}
