package content

import (
	"strings"

	"github.com/google/uuid"
)

// keyArity is the number of identity key fields per content type.
var keyArity = map[ContentType]int{
	TypeAudio: 1,
	TypeText:  3,
	TypeImage: 3,
	TypeTable: 2,
}

var keyFieldNames = map[ContentType][]string{
	TypeAudio: {PropURL},
	TypeText:  {PropSourceDocument, PropPageNumber, PropParagraphNumber},
	TypeImage: {PropSourceDocument, PropPageNumber, PropImagePath},
	TypeTable: {PropSourceDocument, PropPageNumber},
}

const keySeparator = "|"

var keyEscaper = strings.NewReplacer(`\`, `\\`, keySeparator, `\`+keySeparator)

// BuildID derives the deterministic identity of an item from its content type
// and key fields. The seed is the content type followed by the escaped key
// fields, so different types or field splits never share a seed. The id is a
// version 5 UUID over the DNS namespace.
func BuildID(t ContentType, fields []string) (string, error) {
	if !t.Valid() {
		return "", &InvalidKeyError{ContentType: t, Reason: "unknown content type"}
	}
	if len(fields) != keyArity[t] {
		return "", &InvalidKeyError{ContentType: t, Reason: "wrong number of key fields"}
	}

	var b strings.Builder
	b.WriteString(string(t))
	for i, f := range fields {
		if strings.TrimSpace(f) == "" {
			return "", &InvalidKeyError{ContentType: t, Field: keyFieldNames[t][i], Reason: "is empty"}
		}
		b.WriteString(keySeparator)
		keyEscaper.WriteString(&b, f)
	}

	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(b.String())).String(), nil
}

// ID is BuildID applied to an item's own type and key fields.
func ID(item Item) (string, error) {
	return BuildID(item.Type(), item.KeyFields())
}
