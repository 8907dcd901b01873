// Package filter holds the two kinds of filtering a transfer applies: glob
// rules that keep objects out of a scan, and format converters that rewrite
// file contents by extension on the way to the destination.
package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Rule represents a single include or exclude glob rule.
type Rule struct {
	Pattern string
	Include bool // true=include, false=exclude
	dirOnly bool // pattern ended with /
	base    bool // pattern has no /, so it matches the base name at any depth
}

// Chain holds an ordered list of rules. The first matching rule wins.
type Chain struct {
	rules []Rule
}

// NewChain creates an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude adds an exclude rule for the given pattern.
func (c *Chain) AddExclude(pattern string) error {
	return c.add(pattern, false)
}

// AddInclude adds an include rule for the given pattern.
func (c *Chain) AddInclude(pattern string) error {
	return c.add(pattern, true)
}

func (c *Chain) add(pattern string, include bool) error {
	r := Rule{Include: include}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	pattern = strings.TrimPrefix(pattern, "/")
	if pattern == "" {
		return fmt.Errorf("empty filter pattern")
	}
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid filter pattern %q", pattern)
	}
	r.Pattern = pattern
	r.base = !strings.Contains(pattern, "/")
	c.rules = append(c.rules, r)
	return nil
}

// Empty reports whether the chain has no rules.
func (c *Chain) Empty() bool {
	return c == nil || len(c.rules) == 0
}

// Match returns true if the path should be INCLUDED. relPath is relative to
// the directory being scanned and slash-separated.
func (c *Chain) Match(relPath string, isDir bool) bool {
	if c == nil {
		return true
	}
	for _, rule := range c.rules {
		if rule.match(relPath, isDir) {
			return rule.Include
		}
	}
	return true
}

func (r Rule) match(relPath string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	subject := relPath
	if r.base {
		subject = path.Base(relPath)
	}
	ok, err := doublestar.Match(r.Pattern, subject)
	return err == nil && ok
}
