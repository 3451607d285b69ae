package internal

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
	"unicode"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// FriendlyAlphabet leaves out characters that are easy to confuse
	FriendlyAlphabet = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ"
	// FriendlyLength fits every uint64 in base 54
	FriendlyLength = 12
	// SlugMaxLength is the longest slug that will be generated
	SlugMaxLength = 100
)

// FriendlyID derives the external reference of an entity from its kind and
// primary key. The same input always yields the same output
func FriendlyID(kind string, id uuid.UUID) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{':'})
	h.Write(id.Bytes())
	n := binary.BigEndian.Uint64(h.Sum(nil)[:8])

	base := uint64(len(FriendlyAlphabet))
	out := make([]byte, FriendlyLength)
	for i := FriendlyLength - 1; i >= 0; i-- {
		out[i] = FriendlyAlphabet[n%base]
		n /= base
	}
	return string(out)
}

// IsFriendlyID checks whether s could have been produced by FriendlyID
func IsFriendlyID(s string) bool {
	if len(s) != FriendlyLength {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(FriendlyAlphabet, r) {
			return false
		}
	}
	return true
}

// Slug builds a url safe name prefixed by the first 8 characters of the id
func Slug(name string, id uuid.UUID) string {
	prefix := strings.ReplaceAll(id.String(), "-", "")[:8]
	var b strings.Builder
	b.WriteString(prefix)
	dash := true
	for _, r := range fold(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if dash {
				b.WriteByte('-')
				dash = false
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		dash = true
	}
	slug := b.String()
	if len(slug) > SlugMaxLength {
		slug = strings.TrimRight(slug[:SlugMaxLength], "-")
	}
	return slug
}

// SearchDocument normalizes text for the search columns
func SearchDocument(parts ...string) string {
	doc := strings.ToLower(fold(strings.Join(parts, " ")))
	return strings.Join(strings.Fields(doc), " ")
}

// fold strips diacritics
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
