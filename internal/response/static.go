package response

import (
	"os"
	"path/filepath"
	"strings"
)

const indexFile = "index.html"

// staticRelPath maps a request path to a path relative to a content root.
// The HTML root already points inside www/, so one leading www/ is dropped.
func staticRelPath(requestPath string) string {
	rel := strings.TrimLeft(requestPath, "/")
	if rel == "" {
		rel = indexFile
	}
	return strings.TrimPrefix(rel, "www/")
}

// LoadStatic reads the file requestPath maps to under root. An empty result
// means not found; read errors are reported the same way.
//
// The joined path is not checked against root.
func LoadStatic(requestPath, root string) []byte {
	data, err := os.ReadFile(filepath.Join(root, staticRelPath(requestPath)))
	if err != nil {
		return nil
	}
	return data
}
