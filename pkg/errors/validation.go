package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageID validates a configured package identifier for safety.
// Identifiers end up in log lines and report headings, so control characters
// and path traversal sequences are rejected.
func ValidatePackageID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "package id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "package id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "package id contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "\x00", "\\"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "package id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// slugSegmentRegex matches one owner or repository name segment.
var slugSegmentRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateSlug validates an "owner/name" package slug. Slugs become directory
// names in the artifact store and URL segments in the catalog, so each segment
// must be a plain name.
func ValidateSlug(slug string) error {
	owner, name, ok := strings.Cut(slug, "/")
	if !ok || strings.Contains(name, "/") {
		return New(ErrCodeInvalidInput, "slug must have the form owner/name: %q", slug)
	}
	for _, seg := range []string{owner, name} {
		if seg == "." || seg == ".." || !slugSegmentRegex.MatchString(seg) {
			return New(ErrCodeInvalidInput, "invalid slug segment %q in %q", seg, slug)
		}
	}
	return nil
}

// ValidatePath validates a file path within a repository or artifact
// namespace for safety. It prevents path traversal attacks and ensures
// reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateEmail performs a light sanity check on an owner contact address.
// Delivery is the notifier's business; this only rejects values that can
// never be an address.
func ValidateEmail(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidInput, "owner contact cannot be empty")
	}
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 || strings.ContainsAny(addr, " \t\r\n<>") {
		return New(ErrCodeInvalidInput, "invalid owner contact: %q", addr)
	}
	return nil
}
