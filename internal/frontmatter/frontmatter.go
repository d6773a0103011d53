// Package frontmatter splits content files into YAML attributes and a body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a parsed content file.
type Document struct {
	Attributes map[string]any
	Body       string
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Parse separates and decodes the front matter of raw.
//
// Documents without a leading `---` line have no attributes and raw as body.
func Parse(raw []byte) (Document, error) {
	fm, body, had, err := Split(raw)
	if err != nil {
		return Document{}, err
	}
	if !had {
		return Document{Attributes: map[string]any{}, Body: string(raw)}, nil
	}
	attrs, err := ParseYAML(fm)
	if err != nil {
		return Document{}, fmt.Errorf("parse front matter: %w", err)
	}
	return Document{Attributes: attrs, Body: string(body)}, nil
}

// Split separates YAML frontmatter (`---` delimited) from the body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input. A closing delimiter at the very end of the input
// (without a trailing newline) is accepted.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	rest := content[start:]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}
	if bytes.Equal(rest, []byte("---")) {
		return []byte{}, []byte{}, true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
	}

	closeEOF := []byte(nl + "---")
	if bytes.HasSuffix(rest, closeEOF) {
		return rest[:len(rest)-len("---")], []byte{}, true, nil
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
