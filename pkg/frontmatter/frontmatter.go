// Package frontmatter reads and writes YAML front matter blocks at the top of
// Markdown documents.
//
// A front matter block is a YAML mapping fenced by lines containing only
// "---", starting on the first line of the document.
package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// Field is one front matter key with its default value.
type Field struct {
	Key   string
	Value string
}

// Split separates the front matter block from the body. When src has no
// front matter, meta is nil and body is src. An opening fence without a
// closing one is treated as plain Markdown.
func Split(src []byte) (meta *yaml.Node, body []byte, err error) {
	first, _ := nextLine(src)
	if !isFence(first) {
		return nil, src, nil
	}

	start := len(first)
	for off := start; off < len(src); {
		line, _ := nextLine(src[off:])
		if isFence(line) {
			meta, err := parseBlock(src[start:off])
			if err != nil {
				return nil, nil, err
			}
			return meta, src[off+len(line):], nil
		}
		off += len(line)
	}
	return nil, src, nil
}

func parseBlock(block []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}
	if doc.Kind == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	if len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse front matter: expected a mapping")
	}
	return doc.Content[0], nil
}

// Merge prepends a front matter block to src built from defaults. Keys the
// document already declares keep their value. The defaults come first in the
// given order, followed by the document's other keys in their original order.
func Merge(src []byte, defaults []Field) ([]byte, error) {
	existing, body, err := Split(src)
	if err != nil {
		return nil, err
	}

	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	seen := map[string]bool{}
	for _, f := range defaults {
		seen[f.Key] = true
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key}
		if v := Lookup(existing, f.Key); v != nil {
			out.Content = append(out.Content, key, v)
			continue
		}
		out.Content = append(out.Content, key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Value})
	}
	if existing != nil {
		for i := 0; i+1 < len(existing.Content); i += 2 {
			if !seen[existing.Content[i].Value] {
				out.Content = append(out.Content, existing.Content[i], existing.Content[i+1])
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString(fence + "\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// Lookup returns the value node for key in a mapping node, or nil.
func Lookup(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func isFence(line []byte) bool {
	return string(bytes.TrimRight(line, "\r\n")) == fence
}

func nextLine(b []byte) (line, rest []byte) {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i+1], b[i+1:]
	}
	return b, nil
}
