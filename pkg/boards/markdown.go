package boards

import (
	"regexp"
	"strings"

	"github.com/matt-steen/takma/pkg/db"
)

// markdownImage matches ![alt](target) and ![alt](<target> "title"); group 1 is the target.
var markdownImage = regexp.MustCompile(`!\[[^\]]*\]\(\s*(<[^>]*>|[^)\s]+)(?:\s+"[^"]*")?\s*\)`)

func imageTarget(raw string) string {
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "<"), ">")

	return strings.ReplaceAll(raw, "\\", "/")
}

// MarkdownImages returns the distinct image targets of a markdown text in
// order of appearance, with forward slashes.
func MarkdownImages(markdown string) []string {
	var targets []string

	seen := map[string]struct{}{}

	for _, m := range markdownImage.FindAllStringSubmatch(markdown, -1) {
		target := imageTarget(m[1])
		if _, ok := seen[target]; ok || target == "" {
			continue
		}

		seen[target] = struct{}{}
		targets = append(targets, target)
	}

	return targets
}

// LocalMarkdownImages returns the images embedded in the description of card
// that live in directories owned by the app. Remote images and files
// elsewhere on disk are left out: they are never copied or deleted.
func (r *Repository) LocalMarkdownImages(card db.Card) []string {
	var local []string

	for _, target := range MarkdownImages(card.Description) {
		if r.files.IsManaged(target) {
			local = append(local, target)
		}
	}

	return local
}

// rewriteMarkdownImages replaces each image target for which replace returns
// a non-empty path. Text outside image targets is kept byte for byte.
func rewriteMarkdownImages(markdown string, replace func(target string) string) string {
	var (
		b    strings.Builder
		last int
	)

	for _, m := range markdownImage.FindAllStringSubmatchIndex(markdown, -1) {
		start, end := m[2], m[3]
		raw := markdown[start:end]

		b.WriteString(markdown[last:start])

		repl := replace(imageTarget(raw))

		switch {
		case repl == "":
			b.WriteString(raw)
		case strings.HasPrefix(raw, "<"):
			b.WriteString("<" + repl + ">")
		default:
			b.WriteString(repl)
		}

		last = end
	}

	b.WriteString(markdown[last:])

	return b.String()
}
