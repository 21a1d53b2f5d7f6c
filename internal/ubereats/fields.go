package ubereats

import (
	"strconv"
	"strings"
)

// FieldPaths locates values in a store detail payload using dot notation.
// Numeric segments index into arrays: "heroImageUrls.1.url".
type FieldPaths struct {
	Title  string
	Image  string
	Status string
}

// DefaultFieldPaths matches the getStoreV1 response shape.
var DefaultFieldPaths = FieldPaths{
	Title:  "title",
	Image:  "heroImageUrls.1.url",
	Status: "storeInfoMetadata.storeAvailablityStatus.state",
}

func (f FieldPaths) withDefaults() FieldPaths {
	if f.Title == "" {
		f.Title = DefaultFieldPaths.Title
	}
	if f.Image == "" {
		f.Image = DefaultFieldPaths.Image
	}
	if f.Status == "" {
		f.Status = DefaultFieldPaths.Status
	}
	return f
}

// lookup walks a decoded JSON value along a dot-separated path.
func lookup(data any, path string) (any, bool) {
	current := data

	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}

	return current, true
}

// lookupString resolves path to a scalar rendered as a string.
func lookupString(data any, path string) (string, bool) {
	value, ok := lookup(data, path)
	if !ok {
		return "", false
	}

	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}
