package web

import (
	"bufio"
	"strings"

	"git.sr.ht/~jakintosh/portal/internal/domain"
)

// ParseBulkLinks reads one link per line in the form
//
//	title | url | icon | badge | memo
//
// Trailing fields may be omitted. A line holding a single field is taken as
// a URL and doubles as the title. Blank lines and lines starting with # are
// skipped.
func ParseBulkLinks(text string) []domain.LinkData {
	var out []domain.LinkData
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) == 1 {
			out = append(out, domain.LinkData{Title: parts[0], URL: parts[0]})
			continue
		}

		field := func(i int) string {
			if i < len(parts) {
				return parts[i]
			}
			return ""
		}
		d := domain.LinkData{
			Title: field(0),
			URL:   field(1),
			Icon:  field(2),
			Badge: field(3),
			Memo:  strings.Join(parts[min(4, len(parts)):], " | "),
		}
		if d.Title == "" {
			d.Title = d.URL
		}
		out = append(out, d)
	}
	return out
}
