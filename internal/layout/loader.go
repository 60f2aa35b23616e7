package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a layout description from disk. JSON is the
// canonical format; .yml/.yaml files are accepted for hand-written layouts.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Reason: "unreadable", Err: err}
	}

	var l Layout
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &l)
	default:
		err = json.Unmarshal(data, &l)
	}
	if err != nil {
		return nil, &Error{Path: path, Reason: "malformed", Err: err}
	}

	if err := l.Validate(); err != nil {
		lerr := err.(*Error)
		lerr.Path = path
		return nil, lerr
	}
	return &l, nil
}

// Parse validates a layout description held in memory. Used by tests and by
// callers that fetch layouts from somewhere other than the filesystem.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, &Error{Reason: "malformed", Err: err}
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}
