package frontmatter

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Compose renders attributes as `---` delimited YAML followed by body.
//
// Keys are sorted recursively so the output is stable. Without attributes
// Compose returns body unchanged.
func Compose(attrs map[string]any, body string) ([]byte, error) {
	if len(attrs) == 0 {
		return []byte(body), nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(sortedNode(attrs)); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, buf.Len()+len(body)+8)
	out = append(out, "---\n"...)
	out = append(out, buf.Bytes()...)
	out = append(out, "---\n"...)
	out = append(out, body...)
	return out, nil
}

// sortedNode converts maps into mapping nodes with sorted keys; other values
// are left for the encoder.
func sortedNode(v any) any {
	var m map[string]any
	switch vv := v.(type) {
	case map[string]any:
		m = vv
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			seq.Content = append(seq.Content, toNode(sortedNode(item)))
		}
		return seq
	default:
		return v
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			toNode(sortedNode(m[k])),
		)
	}
	return n
}

func toNode(v any) *yaml.Node {
	if n, ok := v.(*yaml.Node); ok {
		return n
	}
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(v)}
	}
	return &n
}
