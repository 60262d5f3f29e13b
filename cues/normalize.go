package cues

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeAudioURL rewrites an upstream audio path into a playable URL:
// the first "/public/" segment collapses to "/", one trailing slash is
// dropped, and defaultExt is appended when the last path segment has no
// extension. Only the path is touched and it is never re-escaped, so
// scheme, host, query, fragment and percent-encoding come back as given.
func NormalizeAudioURL(raw, defaultExt string) string {
	if raw == "" {
		return ""
	}
	prefix, p, suffix := splitURL(raw)
	return prefix + normalizeAudioPath(p, defaultExt) + suffix
}

// splitURL cuts raw into the part before its path (scheme and authority),
// the escaped path, and the query/fragment suffix.
func splitURL(raw string) (prefix, p, suffix string) {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw, suffix = raw[:i], raw[i:]
	}

	authority := -1
	if strings.HasPrefix(raw, "//") {
		authority = 2
	} else if i := strings.Index(raw, "://"); i > 0 && !strings.Contains(raw[:i], "/") {
		authority = i + 3
	}
	if authority < 0 {
		return "", raw, suffix
	}

	if i := strings.IndexByte(raw[authority:], '/'); i >= 0 {
		return raw[:authority+i], raw[authority+i:], suffix
	}
	return raw, "", suffix
}

func normalizeAudioPath(p, defaultExt string) string {
	p = strings.Replace(p, "/public/", "/", 1)
	p = strings.TrimSuffix(p, "/")

	segment := p[strings.LastIndex(p, "/")+1:]
	if segment != "" && path.Ext(segment) == "" {
		p += defaultExt
	}
	return p
}

// NormalizeExt returns ext with a leading dot, or "" for an empty value.
func NormalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

// Tags splits a genre string into its distinct lowercase, trimmed tags in
// first-seen order.
func Tags(genre string) []string {
	parts := strings.Split(genre, ",")
	tags := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		tag := lower(strings.TrimSpace(part))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// HasTag reports whether genre contains tag as an exact, case-insensitive tag.
func HasTag(genre, tag string) bool {
	want := lower(strings.TrimSpace(tag))
	if want == "" {
		return false
	}
	for _, t := range Tags(genre) {
		if t == want {
			return true
		}
	}
	return false
}

// casers are stateful and must not be shared between goroutines
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func fold(s string) string {
	return cases.Fold().String(s)
}
