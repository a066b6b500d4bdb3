package plati

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	itmIDRx    = regexp.MustCompile(`/itm/(?:[^/]+/)*?(\d+)/?$`)
	priceNumRx = regexp.MustCompile(`[\d][\d\s.,]*`)
)

// parseCategoryBlock extracts listing references from a category block
// HTML fragment. Each row holds a link to /itm/<slug>/<id>, a price
// cell and a seller link; rows without a resolvable product id are
// skipped.
func parseCategoryBlock(body []byte) ([]SearchItem, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid category block HTML: %w", err)
	}

	var items []SearchItem
	seen := make(map[int64]struct{})

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := attrValue(n, "href")
			if m := itmIDRx.FindStringSubmatch(href); m != nil {
				id, _ := strconv.ParseInt(m[1], 10, 64)
				if _, dup := seen[id]; id > 0 && !dup {
					seen[id] = struct{}{}
					row := rowAncestor(n)
					items = append(items, SearchItem{
						ProductID:  id,
						SellerName: findClassText(row, "seller"),
						Price:      parsePriceText(findClassText(row, "price")),
						Name:       []NameEntry{{Value: collapseSpace(textContent(n))}},
						Link:       href,
					})
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return items, nil
}

// rowAncestor climbs to the nearest enclosing row-like container so
// price and seller cells of the same listing can be located.
func rowAncestor(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		switch p.Data {
		case "tr", "li", "article":
			return p
		case "div":
			cls := attrValue(p, "class")
			if strings.Contains(cls, "item") || strings.Contains(cls, "good") || strings.Contains(cls, "row") {
				return p
			}
		}
	}
	return n.Parent
}

// findClassText returns the text of the first descendant whose class
// attribute contains the given fragment.
func findClassText(root *html.Node, classFragment string) string {
	if root == nil {
		return ""
	}
	var found string
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && strings.Contains(attrValue(n, "class"), classFragment) {
			found = collapseSpace(textContent(n))
			return true
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if walk(child) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parsePriceText pulls a numeric price out of a display string like
// "1 200,50 руб." Group separators (spaces, thin spaces) are dropped;
// a trailing comma or dot group of one or two digits is the fraction.
func parsePriceText(text string) float64 {
	m := priceNumRx.FindString(text)
	if m == "" {
		return 0
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, m)

	// Normalize a decimal comma; leftover commas/dots are group marks.
	if idx := strings.LastIndexAny(cleaned, ",."); idx >= 0 && len(cleaned)-idx-1 <= 2 {
		cleaned = strings.Map(func(r rune) rune {
			if r == ',' || r == '.' {
				return -1
			}
			return r
		}, cleaned[:idx]) + "." + cleaned[idx+1:]
	} else {
		cleaned = strings.Map(func(r rune) rune {
			if r == ',' || r == '.' {
				return -1
			}
			return r
		}, cleaned)
	}

	value, err := strconv.ParseFloat(strings.TrimSuffix(cleaned, "."), 64)
	if err != nil {
		return 0
	}
	return value
}
