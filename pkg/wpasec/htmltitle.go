package wpasec

import (
	"strings"

	"golang.org/x/net/html"
)

// htmlTitleSuffix formats the <title> of an HTML error body for
// inclusion in an error message, or returns "" when there is none. The
// service answers auth failures with an HTML page, and its title is the
// only part worth showing the operator.
func htmlTitleSuffix(body []byte) string {
	title, ok := htmlTitle(string(body))
	if !ok || title == "" {
		return ""
	}
	return " (" + title + ")"
}

func htmlTitle(body string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", false
	}
	title, ok := traverse(doc)
	return strings.TrimSpace(title), ok
}

func isTitleElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "title"
}

func traverse(n *html.Node) (string, bool) {
	if isTitleElement(n) {
		if n.FirstChild != nil {
			return n.FirstChild.Data, true
		}
		return "", true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result, ok := traverse(c)
		if ok {
			return result, ok
		}
	}

	return "", false
}
