// Package linkpath rewrites relative asset references against a document
// base path.
package linkpath

import "strings"

// Resolve joins ref onto base using purely lexical rules:
//
//   - an empty base, an absolute ref ("/...") or an http(s) ref is returned unchanged;
//   - "./x" becomes base + "/x";
//   - each leading "../" drops one trailing segment of base;
//   - anything else is appended to base.
//
// The result is not normalised any further and the filesystem is never
// consulted.
func Resolve(ref, base string) string {
	if base == "" || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "http") {
		return ref
	}
	base = strings.TrimRight(base, "/")

	if rest, ok := strings.CutPrefix(ref, "./"); ok {
		return base + "/" + rest
	}

	if strings.HasPrefix(ref, "../") {
		segments := splitSegments(base)
		rest := ref
		for strings.HasPrefix(rest, "../") {
			rest = rest[len("../"):]
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		}
		if len(segments) == 0 {
			return "/" + rest
		}
		return "/" + strings.Join(segments, "/") + "/" + rest
	}

	return base + "/" + ref
}

func splitSegments(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsExternal reports whether href points outside the document set.
func IsExternal(href string) bool {
	return strings.HasPrefix(href, "http")
}
