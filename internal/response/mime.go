package response

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const defaultMimeType = "application/octet-stream"

// ErrUnsupportedMediaType is returned for MIME main types that have no
// content root. It is a routing error, not a missing file.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

var mimeTypes = map[string]string{
	// text
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".xml":  "text/xml",
	".md":   "text/markdown",

	// application
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".json": "application/json",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".wasm": "application/wasm",

	// image
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/vnd.microsoft.icon",
	".webp": "image/webp",
	".bmp":  "image/bmp",

	// video
	".mp4":  "video/mp4",
	".mpeg": "video/mpeg",
	".webm": "video/webm",
	".mov":  "video/quicktime",

	// no content root for these
	".mp3":   "audio/mpeg",
	".wav":   "audio/wav",
	".ogg":   "audio/ogg",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
}

// MimeType resolves a MIME type from the path's extension. Unknown or
// missing extensions resolve to application/octet-stream.
func MimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return defaultMimeType
}

// contentRoot maps a MIME type to the directory its files live in, relative
// to baseDir, plus any extra headers that type is served with.
func contentRoot(mimeType, baseDir string) (string, map[string]string, error) {
	mainType, subType, _ := strings.Cut(mimeType, "/")

	switch mainType {
	case "text":
		switch subType {
		case "html":
			return filepath.Join(baseDir, "www"), nil, nil
		case "css":
			// CSS requests carry their directory in the URL
			return baseDir, nil, nil
		default:
			return filepath.Join(baseDir, "static"), nil, nil
		}
	case "image":
		return baseDir, map[string]string{
			"Cache-Control": "public, max-age=31536000",
			"Accept-Ranges": "bytes",
		}, nil
	case "application":
		return filepath.Join(baseDir, "apps"), nil, nil
	case "video":
		return filepath.Join(baseDir, "static"), nil, nil
	}

	return "", nil, fmt.Errorf("%w: main_type=%s sub_type=%s", ErrUnsupportedMediaType, mainType, subType)
}
