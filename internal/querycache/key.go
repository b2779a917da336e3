package querycache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key is an ordered list of parts, e.g. K("orders", id) or K("orders", map[string]any{"archived": true}).
// Parts are JSON encoded, so maps come out with sorted keys.
type Key []any

func K(parts ...any) Key { return Key(parts) }

const sep = "|"

// Encode renders the key as `"orders"|"<id>"|`. Each part ends with the separator,
// which makes the encoding of a key a string prefix of the encoding of every key it prefixes.
func (k Key) Encode() (string, error) {
	if len(k) == 0 {
		return "", fmt.Errorf("empty key")
	}
	var b strings.Builder
	for i, p := range k {
		raw, err := json.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("key part %d: %w", i, err)
		}
		b.Write(raw)
		b.WriteString(sep)
	}
	return b.String(), nil
}

func (k Key) String() string {
	s, err := k.Encode()
	if err != nil {
		return fmt.Sprintf("%v", []any(k))
	}
	return s
}
