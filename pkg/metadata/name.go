package metadata

import "strings"

// classificationPrefix is the built-in category enum prefix some sources leak
// into display names.
const classificationPrefix = "OST_"

// Sanitize turns a free-form classification or attribute name into a schema
// identifier: the classification prefix is dropped, only ASCII letters and
// digits are kept, the first character is lowercased, and an underscore is
// prepended when the result is empty or starts with a digit.
func Sanitize(name string) string {
	name = strings.TrimPrefix(name, classificationPrefix)

	var b strings.Builder
	b.Grow(len(name) + 1)
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !isDigit {
			continue
		}
		if b.Len() == 0 && c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}

	out := b.String()
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		return "_" + out
	}
	return out
}

// CompoundName joins a category and a family into the display name of the
// family-level class.
func CompoundName(category, family string) string {
	return category + ": " + family
}

// ClassKey returns the sanitized class key for a category/family pair.
func ClassKey(category, family string) string {
	return Sanitize(CompoundName(category, family))
}
