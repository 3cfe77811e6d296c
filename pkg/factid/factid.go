package factid

import "unicode/utf16"

// Bound is the number of distinct display ids the hash can produce.
const Bound = 234

// ID maps fact text to a display id in [1, Bound]. Different texts may share
// an id; it is never used to look a fact up.
func ID(text string) int {
	var h int32
	for _, code := range utf16.Encode([]rune(text)) {
		h = (h << 5) - h + int32(code)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v%Bound) + 1
}

// DisplayID prefers the stored primary key and falls back to the text hash
// for facts that were never persisted.
func DisplayID(id uint, text string) int {
	if id != 0 {
		return int(id)
	}
	return ID(text)
}
