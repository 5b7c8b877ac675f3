package services

import (
	"context"
	"strings"
	"unicode"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// slugify derives a URL-safe slug from a display name: lower-cased, with every
// run of non-alphanumeric characters collapsed into a single hyphen.
func slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))

	var b strings.Builder
	b.Grow(len(value))
	pendingHyphen := false
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// siblingOrder sorts listings folders-first, then by manual position, then name.
const siblingOrder = "CASE WHEN kind = 'folder' THEN 0 ELSE 1 END, position ASC, name ASC"
