package extractor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// SyntaxExtractor parses the source as JavaScript and reads the field from
// object literals only, so look-alikes in comments or strings are ignored.
type SyntaxExtractor struct {
	field string
}

// NewSyntaxExtractor creates a tree-sitter backed extractor.
func NewSyntaxExtractor(field string) *SyntaxExtractor {
	return &SyntaxExtractor{field: field}
}

// Name implements Extractor.
func (s *SyntaxExtractor) Name() string {
	return "syntax"
}

// Extract walks the syntax tree in source order and collects string values of
// `field` properties. Non-string values (numbers, template literals, identifiers)
// are skipped.
func (s *SyntaxExtractor) Extract(content []byte) ([]string, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JavaScript source: %w", err)
	}
	defer tree.Close()

	ids := []string{}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "pair" {
			if id, ok := s.pairValue(n, content); ok {
				ids = append(ids, id)
			}
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())

	return ids, nil
}

func (s *SyntaxExtractor) pairValue(pair *sitter.Node, content []byte) (string, bool) {
	key := pair.ChildByFieldName("key")
	value := pair.ChildByFieldName("value")

	if key == nil || value == nil || value.Type() != "string" {
		return "", false
	}

	var name string

	switch key.Type() {
	case "property_identifier":
		name = key.Content(content)
	case "string":
		name = unquote(key.Content(content))
	default:
		return "", false
	}

	if name != s.field {
		return "", false
	}

	id := unquote(value.Content(content))
	if id == "" {
		return "", false
	}

	return id, true
}

// unquote strips the quotes of a JS string literal and decodes its escape
// sequences. Malformed escapes are kept as written.
func unquote(lit string) string {
	if len(lit) < 2 {
		return ""
	}

	body := lit[1 : len(lit)-1]
	if !strings.Contains(body, `\`) {
		return body
	}

	var sb strings.Builder

	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			sb.WriteByte(c)
			continue
		}

		i++

		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case '\n':
			// Line continuation.
		case '\r':
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case 'x':
			r, n := hexRune(body[i+1:], 2)
			if n == 0 {
				sb.WriteString(`\x`)
				continue
			}

			sb.WriteRune(r)
			i += n
		case 'u':
			r, n := unicodeEscape(body[i+1:])
			if n == 0 {
				sb.WriteString(`\u`)
				continue
			}

			sb.WriteRune(r)
			i += n
		default:
			// \' \" \\ and any other character stand for themselves.
			r, size := utf8.DecodeRuneInString(body[i:])
			sb.WriteRune(r)
			i += size - 1
		}
	}

	return sb.String()
}

// unicodeEscape decodes the part after \u: either XXXX, optionally followed by
// a \uXXXX low surrogate, or {X...}. It returns the rune and the bytes consumed.
func unicodeEscape(s string) (rune, int) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 || end > 7 {
			return 0, 0
		}

		r, n := hexRune(s[1:end], end-1)
		if n == 0 || r > unicode.MaxRune {
			return 0, 0
		}

		return r, end + 1
	}

	r, n := hexRune(s, 4)
	if n == 0 {
		return 0, 0
	}

	if utf16.IsSurrogate(r) && strings.HasPrefix(s[4:], `\u`) {
		if low, m := hexRune(s[6:], 4); m == 4 {
			if pair := utf16.DecodeRune(r, low); pair != utf8.RuneError {
				return pair, 10
			}
		}
	}

	return r, 4
}

// hexRune parses exactly n hex digits from the start of s.
func hexRune(s string, n int) (rune, int) {
	if len(s) < n {
		return 0, 0
	}

	v, err := strconv.ParseUint(s[:n], 16, 32)
	if err != nil {
		return 0, 0
	}

	return rune(v), n
}
