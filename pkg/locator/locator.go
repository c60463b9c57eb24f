// Package locator defines element locators and ordered locator sets for page objects.
package locator

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy is the way a locator finds an element.
type Strategy string

// Strategy constants, named after the classic webdriver "By" strategies.
const (
	ByID              Strategy = "id"
	ByName            Strategy = "name"
	ByXPath           Strategy = "xpath"
	ByCSS             Strategy = "css selector"
	ByLinkText        Strategy = "link text"
	ByPartialLinkText Strategy = "partial link text"
	ByTag             Strategy = "tag name"
)

// ErrEmptySet is returned when a locator set has no locators.
var ErrEmptySet = errors.New("locator set is empty")

// Locator is a (strategy, selector) pair identifying how to find one element.
type Locator struct {
	By    Strategy
	Value string
}

// ID locates by element id.
func ID(id string) Locator { return Locator{By: ByID, Value: id} }

// Name locates by the name attribute.
func Name(name string) Locator { return Locator{By: ByName, Value: name} }

// XPath locates by xpath expression.
func XPath(expr string) Locator { return Locator{By: ByXPath, Value: expr} }

// XPathf builds an xpath locator from format, quoting every argument as an xpath string literal.
// Use it for expressions holding runtime values such as ticket ids.
func XPathf(format string, args ...string) Locator {
	quoted := make([]any, len(args))
	for i, a := range args {
		quoted[i] = xpathLiteral(a)
	}
	return XPath(fmt.Sprintf(format, quoted...))
}

// CSS locates by css selector.
func CSS(sel string) Locator { return Locator{By: ByCSS, Value: sel} }

// LinkText locates an anchor by its exact (whitespace-normalized) text.
func LinkText(text string) Locator { return Locator{By: ByLinkText, Value: text} }

// PartialLinkText locates an anchor whose text contains the value.
func PartialLinkText(text string) Locator { return Locator{By: ByPartialLinkText, Value: text} }

// Tag locates by tag name.
func Tag(name string) Locator { return Locator{By: ByTag, Value: name} }

// String returns "strategy=value" form used in logs.
func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.By, l.Value)
}

// Selector translates the locator into a playwright selector string.
func (l Locator) Selector() (string, error) {
	if strings.TrimSpace(l.Value) == "" {
		return "", fmt.Errorf("empty selector for %s", l.By)
	}
	switch l.By {
	case ByID:
		return "id=" + l.Value, nil
	case ByName:
		return fmt.Sprintf(`css=[name="%s"]`, cssEscape(l.Value)), nil
	case ByXPath:
		return "xpath=" + l.Value, nil
	case ByCSS:
		return "css=" + l.Value, nil
	case ByLinkText:
		return fmt.Sprintf("xpath=//a[normalize-space(.)=%s]", xpathLiteral(strings.TrimSpace(l.Value))), nil
	case ByPartialLinkText:
		return fmt.Sprintf("xpath=//a[contains(normalize-space(.), %s)]", xpathLiteral(strings.TrimSpace(l.Value))), nil
	case ByTag:
		return "css=" + l.Value, nil
	default:
		return "", fmt.Errorf("unknown locator strategy %q", l.By)
	}
}

// Set is an ordered list of alternative locators for one logical element.
// Earlier entries are preferred; the first one that matches wins.
type Set struct {
	Name     string
	Locators []Locator
}

// New makes a named set from locators, most specific first.
func New(name string, locs ...Locator) Set {
	return Set{Name: name, Locators: locs}
}

// Validate checks the set is usable for resolution.
func (s Set) Validate() error {
	if len(s.Locators) == 0 {
		return fmt.Errorf("%s: %w", s.label(), ErrEmptySet)
	}
	for i, l := range s.Locators {
		if _, err := l.Selector(); err != nil {
			return fmt.Errorf("%s: locator #%d: %w", s.label(), i, err)
		}
	}
	return nil
}

// Primary returns the first (most specific) locator, which names an unnamed set.
func (s Set) Primary() Locator {
	if len(s.Locators) == 0 {
		return Locator{}
	}
	return s.Locators[0]
}

// String returns the set name, or the primary locator when unnamed.
func (s Set) String() string {
	return s.label()
}

func (s Set) label() string {
	if s.Name != "" {
		return s.Name
	}
	if len(s.Locators) == 0 {
		return "(empty set)"
	}
	return s.Primary().String()
}

// xpathLiteral quotes a string as an xpath 1.0 literal.
// xpath has no escape sequences, so values holding both quote kinds go through concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

var cssEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func cssEscape(s string) string {
	return cssEscaper.Replace(s)
}
