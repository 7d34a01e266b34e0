package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Origin identifies where a document was read from.
type Origin struct {
	// Live is true for documents returned by a cluster listing.
	Live bool
	// Name is the file path, or the resource type for live documents.
	Name string
}

func (o Origin) String() string {
	if o.Live {
		return "cluster:" + o.Name
	}
	return o.Name
}

// Document is a single YAML document together with where it came from.
type Document struct {
	Origin Origin
	// Index is the position of the document within its origin, starting at 0.
	Index int

	root *yaml.Node
}

// NewDocument wraps an already decoded mapping node.
func NewDocument(origin Origin, index int, root *yaml.Node) Document {
	return Document{Origin: origin, Index: index, root: root}
}

// Decode reads every YAML document from r. Empty documents are dropped and
// documents of kind List are flattened into their items, so the result
// looks the same whether it came from a file or a cluster listing.
func Decode(r io.Reader, origin Origin) ([]Document, error) {
	dec := yaml.NewDecoder(r)

	var docs []Document
	for {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode %s document %d: %w", origin, len(docs), err)
		}

		root := documentRoot(&node)
		if root == nil {
			continue
		}

		if root.Kind == yaml.MappingNode && scalarValue(root, "kind") == ListKind {
			items := mappingValue(root, "items")
			if items == nil || items.Kind != yaml.SequenceNode {
				continue
			}
			for _, item := range items.Content {
				docs = append(docs, NewDocument(origin, len(docs), item))
			}
			continue
		}

		docs = append(docs, NewDocument(origin, len(docs), root))
	}

	return docs, nil
}

// DecodeBytes is Decode over an in-memory stream.
func DecodeBytes(data []byte, origin Origin) ([]Document, error) {
	return Decode(bytes.NewReader(data), origin)
}

// Kind returns the document's top-level kind, or "" if absent.
func (d Document) Kind() string {
	return scalarValue(d.root, "kind")
}

// Name returns metadata.name, or "" if absent.
func (d Document) Name() string {
	return scalarValue(mappingValue(d.root, "metadata"), "name")
}

// Manifest decodes the typed view of the document. It fails with
// ErrMalformedManifest when metadata.name is missing or the document is
// not a mapping.
func (d Document) Manifest() (Manifest, error) {
	if d.root == nil || d.root.Kind != yaml.MappingNode {
		return Manifest{}, fmt.Errorf("%s document %d: %w: not a mapping", d.Origin, d.Index, ErrMalformedManifest)
	}
	if d.Name() == "" {
		return Manifest{}, fmt.Errorf("%s document %d: %w: missing metadata.name", d.Origin, d.Index, ErrMalformedManifest)
	}

	var m Manifest
	if err := d.root.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("%s document %d: %w: %v", d.Origin, d.Index, ErrMalformedManifest, err)
	}
	return m, nil
}

// Bytes re-encodes the full document, including fields the merge ignores.
func (d Document) Bytes() ([]byte, error) {
	if d.root == nil {
		return nil, errors.New("empty document")
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// documentRoot unwraps a document node and returns nil for empty documents.
func documentRoot(node *yaml.Node) *yaml.Node {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil
	}
	return node
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func scalarValue(node *yaml.Node, key string) string {
	v := mappingValue(node, key)
	if v == nil || v.Kind != yaml.ScalarNode {
		return ""
	}
	return v.Value
}
