package cart

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResolveImageURL extracts a usable image URL from whatever shape the
// catalogue endpoint returned. Observed shapes: a plain URL string, a
// JSON-encoded string holding an object or array, a decoded object with a
// url-ish field, and an array whose first element is any of the above.
// Anything unrecognized falls back to its string form rather than failing
// the add. A broken thumbnail beats a lost cart line.
func ResolveImageURL(v interface{}) string {
	return resolveImage(v, 0)
}

func resolveImage(v interface{}, depth int) string {
	if depth > 4 || v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		trimmed := strings.TrimSpace(val)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			var decoded interface{}
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				if url := resolveImage(decoded, depth+1); url != "" {
					return url
				}
			}
		}
		return val
	case map[string]interface{}:
		for _, key := range []string{"url", "imageUrl", "src", "path"} {
			if inner, ok := val[key]; ok {
				if url := resolveImage(inner, depth+1); url != "" {
					return url
				}
			}
		}
		return ""
	case []interface{}:
		if len(val) == 0 {
			return ""
		}
		return resolveImage(val[0], depth+1)
	default:
		return fmt.Sprint(val)
	}
}
