package inspector

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// parsePlist decodes an XML property list into a generic map. Only the
// subset of types Info.plist actually uses (string, integer, boolean,
// nested dict) is handled; that is all the bundle-identifier / version
// accessors below need. A binary-format plist (bplist00 magic) is reported
// as unsupported rather than guessed at — no plist library appears
// anywhere in the reference corpus, so this is a minimal hand-rolled
// decoder over the standard library's encoding/xml, not a reimplementation
// of CoreFoundation's property list format.
func parsePlist(data []byte) (map[string]any, error) {
	if bytes.HasPrefix(data, []byte("bplist00")) {
		return nil, fmt.Errorf("binary plist format not supported")
	}

	var doc plistDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal plist xml: %w", err)
	}
	if len(doc.Dict) == 0 {
		return map[string]any{}, nil
	}
	return decodeDict(doc.Dict[0]), nil
}

// plistDocument mirrors just enough of the Apple PLIST DTD to read
// Info.plist's top-level dict.
type plistDocument struct {
	XMLName xml.Name    `xml:"plist"`
	Dict    []plistDict `xml:"dict"`
}

type plistDict struct {
	Keys []string    `xml:"key"`
	Vals []plistNode `xml:",any"`
}

// plistNode captures one <string>/<integer>/<true/false/>/<dict> value
// positionally aligned with the preceding <key>.
type plistNode struct {
	XMLName xml.Name
	Content string      `xml:",chardata"`
	Keys    []string    `xml:"key"` // children of a nested <dict>
	Vals    []plistNode `xml:",any"`
}

func decodeDict(d plistDict) map[string]any {
	out := make(map[string]any, len(d.Keys))
	// Keys holds the <key> elements and Vals the value elements, each in
	// document order; pair them positionally.
	vals := valuesOnly(d)
	for i, key := range d.Keys {
		if i >= len(vals) {
			break
		}
		out[key] = vals[i]
	}
	return out
}

// valuesOnly extracts just the value nodes (skipping <key> elements,
// which are captured separately in plistDict.Keys) in document order.
func valuesOnly(d plistDict) []any {
	vals := make([]any, 0, len(d.Vals))
	for _, v := range d.Vals {
		if v.XMLName.Local == "key" {
			continue
		}
		vals = append(vals, decodeNode(v))
	}
	return vals
}

func decodeNode(n plistNode) any {
	switch n.XMLName.Local {
	case "true":
		return true
	case "false":
		return false
	case "dict":
		return decodeDict(plistDict{Keys: n.Keys, Vals: n.Vals})
	default: // string, integer, real, date — treat as trimmed text
		return n.Content
	}
}
