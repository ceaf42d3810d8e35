package capture

import (
	"context"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/styleatelier/atelier/internal/errors"
)

// bodyClass marks the element holding the prompt body in the gallery markup.
const bodyClass = "break-word"

// paramContainerClasses are tried, nearest first, when looking for the
// element whose text holds the parameter flags.
var paramContainerClasses = []string{"overflow-clip", "group"}

// bodyNoiseTags are removed before reading the prompt body; they hold
// action buttons, links and thumbnails rather than prompt text.
var bodyNoiseTags = []string{"button", "a", "img"}

// blockTags get line breaks around their text, approximating rendered text.
var blockTags = []string{"div", "p", "br", "li", "section", "article", "header", "footer"}

// HTMLExtractor reads a captured job-card fragment.
type HTMLExtractor struct {
	R io.Reader
}

// NewHTMLExtractor returns an extractor over an HTML fragment.
func NewHTMLExtractor(fragment string) *HTMLExtractor {
	return &HTMLExtractor{R: strings.NewReader(fragment)}
}

// Extract implements Extractor.
//
// The prompt body is the text of the first .break-word element with buttons,
// links, images and hidden elements removed. Parameters are collected from
// the nearest enclosing container. The job ID comes from the nearest link
// around the image.
func (e *HTMLExtractor) Extract(ctx context.Context) (*RawCapture, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("extract")
	}
	doc, err := html.Parse(e.R)
	if err != nil {
		return nil, errors.NewInvalidRequest("invalid html fragment: " + err.Error())
	}

	raw := &RawCapture{}
	img := findFirst(doc, func(n *html.Node) bool { return isElement(n, "img") })
	if img != nil {
		raw.ImageURL = attr(img, "src")
		raw.Alt = attr(img, "alt")
		if link := closest(img, func(n *html.Node) bool { return isElement(n, "a") && attr(n, "href") != "" }); link != nil {
			raw.PageURL = attr(link, "href")
		}
	}
	if raw.PageURL == "" {
		// Fall back to any job link in the fragment.
		if link := findFirst(doc, func(n *html.Node) bool {
			_, ok := ExtractJobID(attr(n, "href"))
			return isElement(n, "a") && ok
		}); link != nil {
			raw.PageURL = attr(link, "href")
		}
	}
	if id, ok := ExtractJobID(raw.PageURL); ok {
		raw.JobID = id
	}

	if body := findFirst(doc, func(n *html.Node) bool { return hasClass(n, bodyClass) }); body != nil {
		container := closest(body, func(n *html.Node) bool {
			return slices.ContainsFunc(paramContainerClasses, func(c string) bool { return hasClass(n, c) })
		})
		if container == nil {
			container = body.Parent
		}
		if container == nil {
			container = body
		}
		raw.Text = Assemble(bodyText(body), renderedText(container))
	}
	return raw, nil
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func isHidden(n *html.Node) bool {
	return hasClass(n, "hidden") || attr(n, "aria-hidden") == "true"
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// closest walks up from n's parent and returns the first matching ancestor.
func closest(n *html.Node, match func(*html.Node) bool) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if match(p) {
			return p
		}
	}
	return nil
}

// bodyText returns the text content of n, skipping noise elements.
func bodyText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && (slices.Contains(bodyNoiseTags, node.Data) || isHidden(node)) {
			return
		}
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// renderedText returns the text of n with line breaks around block elements
// and spaces between inline ones, so parameter values stop where the page
// visually breaks them.
func renderedText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			if isHidden(node) {
				return
			}
			if slices.Contains(blockTags, node.Data) {
				sb.WriteString("\n")
				defer sb.WriteString("\n")
			} else {
				sb.WriteString(" ")
				defer sb.WriteString(" ")
			}
		}
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
