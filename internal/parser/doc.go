// Package parser turns agency markup into records: it canonicalizes column
// headers, converts HTML tables to rows, picks the most relevant table on a
// page, coerces free-text dates to ISO form, and discovers pagination links.
package parser
