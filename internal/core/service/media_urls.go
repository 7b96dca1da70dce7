package service

import (
	"strings"
)

const uploadsSegment = "/uploads/"

// MediaURLs converts between stored object names and the public URLs that
// serve them.
type MediaURLs struct {
	base string
}

// NewMediaURLs builds URLs of the form baseURL + apiPrefix + "/uploads/<name>".
func NewMediaURLs(baseURL, apiPrefix string) MediaURLs {
	base := strings.TrimRight(baseURL, "/") + "/" + strings.Trim(apiPrefix, "/")
	return MediaURLs{base: strings.TrimRight(base, "/") + uploadsSegment}
}

// URL renders name as a public URL. Absolute URLs pass through unchanged.
func (m MediaURLs) URL(name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	return m.base + name
}

// URLs renders every name. The result is never nil.
func (m MediaURLs) URLs(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, m.URL(n))
	}
	return out
}

// Name extracts the stored object name from a URL. Input without an uploads
// segment is returned as is, so callers may pass bare names.
func (m MediaURLs) Name(url string) string {
	if i := strings.Index(url, uploadsSegment); i >= 0 {
		return url[i+len(uploadsSegment):]
	}
	return url
}
