package rageval

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FormatList encodes strings as a list literal that both JSON and Python parsers accept.
func FormatList(items []string) string {
	if items == nil {
		items = []string{}
	}
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(items)
	return strings.TrimSuffix(sb.String(), "\n")
}

// ParseList decodes a JSON array of strings or a Python list literal of strings, which is how
// pandas writes list columns to CSV. An empty or blank string is an empty list.
func ParseList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}, nil
	}

	var items []string
	if err := json.Unmarshal([]byte(s), &items); err == nil {
		if items == nil {
			items = []string{}
		}
		return items, nil
	}

	p := listParser{input: s}
	return p.parse()
}

type listParser struct {
	input string
	pos   int
}

func (p *listParser) parse() ([]string, error) {
	items := []string{}

	p.skipSpace()
	if !p.consume('[') {
		return nil, p.errorf("expected '['")
	}

	for {
		p.skipSpace()
		if p.consume(']') {
			break
		}

		item, err := p.parseString()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(']') {
			break
		}
		return nil, p.errorf("expected ',' or ']'")
	}

	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, p.errorf("unexpected trailing input")
	}

	return items, nil
}

func (p *listParser) parseString() (string, error) {
	if p.pos >= len(p.input) {
		return "", p.errorf("unexpected end of input")
	}

	quote := p.input[p.pos]
	if quote != '\'' && quote != '"' {
		return "", p.errorf("expected string")
	}
	p.pos++

	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == quote:
			p.pos++
			return sb.String(), nil
		case c == '\\':
			if err := p.parseEscape(&sb); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.input[p.pos:])
			sb.WriteRune(r)
			p.pos += size
		}
	}

	return "", p.errorf("unterminated string")
}

func (p *listParser) parseEscape(sb *strings.Builder) error {
	p.pos++
	if p.pos >= len(p.input) {
		return p.errorf("unterminated escape")
	}

	c := p.input[p.pos]
	p.pos++

	switch c {
	case '\\', '\'', '"':
		sb.WriteByte(c)
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'x', 'u', 'U':
		width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
		if p.pos+width > len(p.input) {
			return p.errorf("short \\%c escape", c)
		}
		code, err := strconv.ParseUint(p.input[p.pos:p.pos+width], 16, 32)
		if err != nil {
			return p.errorf("invalid \\%c escape", c)
		}
		sb.WriteRune(rune(code))
		p.pos += width
	default:
		// Python keeps unknown escapes verbatim
		sb.WriteByte('\\')
		sb.WriteByte(c)
	}

	return nil
}

func (p *listParser) skipSpace() {
	for p.pos < len(p.input) && strings.IndexByte(" \t\r\n", p.input[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *listParser) consume(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *listParser) errorf(format string, args ...any) error {
	return fmt.Errorf("list literal at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}
