package normalisers

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// TitleFromName derives a title from a file name, or from the last URL path
// segment when there is no file name. "my_notes-v2.md" becomes "my notes v2".
func TitleFromName(filename, pageURL string) string {
	name := filename
	if name == "" || name == "-" {
		name = ""
		if u, err := url.Parse(pageURL); err == nil && pageURL != "" {
			name = path.Base(u.Path)
			if name == "/" || name == "." {
				return u.Hostname()
			}
		}
	}
	if name == "" {
		return ""
	}

	name = filepath.Base(name)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}
