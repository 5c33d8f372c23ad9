// Package locator describes how to find a field on a page and resolves a
// field by trying an ordered chain of candidate locators.
package locator

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Kind int

const (
	KindCSS Kind = iota
	KindAttribute
	KindClassName
	KindRole
	KindXPath
)

func (k Kind) String() string {
	switch k {
	case KindCSS:
		return "css"
	case KindAttribute:
		return "attribute"
	case KindClassName:
		return "class"
	case KindRole:
		return "role"
	case KindXPath:
		return "xpath"
	}
	return "unknown"
}

// Locator finds one element. Every kind except XPath compiles to a CSS
// selector. Attr names the attribute to read; empty means visible text.
type Locator struct {
	Kind  Kind
	Query string
	Attr  string
}

func ByCSS(selector string) Locator {
	return Locator{Kind: KindCSS, Query: selector}
}

// ByAttribute matches tag[name<op>'value'], op being one of = ^= $= *= ~=.
func ByAttribute(tag, name, op, value string) Locator {
	if op == "" {
		op = "="
	}
	return Locator{Kind: KindAttribute, Query: fmt.Sprintf("%s[%s%s%s]", tag, name, op, cssString(value))}
}

func ByClassName(tag, class string) Locator {
	return Locator{Kind: KindClassName, Query: tag + "." + strings.Join(strings.Fields(class), ".")}
}

// ByRole matches an ARIA role, optionally narrowed by an aria-label fragment.
func ByRole(role, labelContains string) Locator {
	q := "[role=" + cssString(role) + "]"
	if labelContains != "" {
		q += "[aria-label*=" + cssString(labelContains) + "]"
	}
	return Locator{Kind: KindRole, Query: q}
}

func ByXPath(expr string) Locator {
	return Locator{Kind: KindXPath, Query: expr}
}

// Read returns a copy of l that yields the named attribute instead of text.
func (l Locator) Read(attr string) Locator {
	l.Attr = attr
	return l
}

func (l Locator) String() string {
	if l.Attr != "" {
		return fmt.Sprintf("%s(%s)@%s", l.Kind, l.Query, l.Attr)
	}
	return fmt.Sprintf("%s(%s)", l.Kind, l.Query)
}

// FindJS renders a JS expression evaluating to the first matching element
// under root, or null.
func (l Locator) FindJS(root string) string {
	if l.Kind == KindXPath {
		return fmt.Sprintf("document.evaluate(%s, %s, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", JSString(l.Query), root)
	}
	return fmt.Sprintf("%s.querySelector(%s)", root, JSString(l.Query))
}

// FindAllJS renders a JS expression evaluating to an array of every
// matching element under root.
func (l Locator) FindAllJS(root string) string {
	if l.Kind == KindXPath {
		return fmt.Sprintf("((r) => { const s = document.evaluate(%s, r, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null); const out = []; for (let i = 0; i < s.snapshotLength; i++) out.push(s.snapshotItem(i)); return out; })(%s)", JSString(l.Query), root)
	}
	return fmt.Sprintf("Array.from(%s.querySelectorAll(%s))", root, JSString(l.Query))
}

// JSString quotes s as a JavaScript string literal.
func JSString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func cssString(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}
