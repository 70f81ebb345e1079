// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug builds URL-friendly slugs from category names.
package slug

import (
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space, or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// separators matches runs of whitespace and hyphens.
	separators = regexp.MustCompile(`[\s-]+`)
)

// Generate creates a URL-friendly slug from a single name.
// Example: "Home & Garden" → "home-garden"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Path slugs each segment of a root-to-node lineage and joins them with "/".
// Segments that slug to nothing are dropped.
// Example: ["Electronics", "Phones"] → "electronics/phones"
func Path(names []string) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if s := Generate(n); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}
