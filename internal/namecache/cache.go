// Package namecache holds the request-scoped dictionary of patient names
// collected during pass 1 and consumed by the pass-2 recognizer. A cache is
// owned by exactly one redaction request: it is populated after pass 1,
// read-only during pass 2, and discarded when the request ends.
package namecache

import (
	"sort"
	"strings"

	"github.com/savegress/cliniredact/internal/textutil"
)

// minPartLength is the shortest name fragment worth dictionary matching.
const minPartLength = 3

// Cache is the per-request name dictionary. All entries are casefolded.
type Cache struct {
	fullNames   map[string]struct{}
	parts       map[string]struct{}
	initialized bool
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		fullNames: make(map[string]struct{}),
		parts:     make(map[string]struct{}),
	}
}

// Add records one patient name surface form: the casefolded,
// punctuation-trimmed full name plus every whitespace-separated part of
// length >= 3 that is not a stop word.
func (c *Cache) Add(surface string, stopWords map[string]struct{}) {
	name := strings.Trim(textutil.Fold(surface), " \t\n.,;:!?'\"()-")
	if name == "" {
		return
	}

	c.fullNames[name] = struct{}{}
	c.initialized = true

	for _, part := range strings.Fields(name) {
		part = strings.Trim(part, ".,;:!?'\"()-")
		if len(part) < minPartLength {
			continue
		}
		if _, stop := stopWords[part]; stop {
			continue
		}
		c.parts[part] = struct{}{}
	}
}

// Initialized reports whether any name was recorded.
func (c *Cache) Initialized() bool {
	return c.initialized
}

// FullNames returns the casefolded full names in sorted order.
func (c *Cache) FullNames() []string {
	return sortedKeys(c.fullNames)
}

// Parts returns the casefolded name parts in sorted order.
func (c *Cache) Parts() []string {
	return sortedKeys(c.parts)
}

// HasFullName reports whether the casefolded name is cached.
func (c *Cache) HasFullName(name string) bool {
	_, ok := c.fullNames[name]
	return ok
}

// HasPart reports whether the casefolded part is cached.
func (c *Cache) HasPart(part string) bool {
	_, ok := c.parts[part]
	return ok
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
