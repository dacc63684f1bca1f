package notes

import (
	"regexp"
	"strings"
)

// LinkScheme prefixes the target of links produced by TransformWikiLinks.
const LinkScheme = "compendium:"

var (
	wikiLinkPattern = regexp.MustCompile(`\[\[([\w\s\-,'".!?#/]+?)(?:\|([\w\-]+))?\]\]`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// TransformWikiLinks rewrites [[Title|id]] and [[id]] into markdown links
// pointing at compendium entries.
func TransformWikiLinks(md string) string {
	return wikiLinkPattern.ReplaceAllStringFunc(md, func(match string) string {
		groups := wikiLinkPattern.FindStringSubmatch(match)
		title := strings.TrimSpace(groups[1])
		id := groups[2]
		if id == "" {
			id = groups[1]
		}
		id = whitespace.ReplaceAllString(strings.TrimSpace(id), "-")
		return "[" + title + "](" + LinkScheme + id + ")"
	})
}

// LinkTarget returns the compendium id or slug a transformed link points at.
func LinkTarget(href string) (string, bool) {
	if !strings.HasPrefix(href, LinkScheme) {
		return "", false
	}
	target := strings.TrimPrefix(href, LinkScheme)
	return target, target != ""
}
