package util

import "strings"

// IsLocalPath reports whether p is a path on this site that is safe to
// redirect to. Protocol relative and absolute URLs are rejected
func IsLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") {
		return false
	}

	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}

	return !strings.ContainsAny(p, "\r\n")
}
