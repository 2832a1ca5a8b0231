package feed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"
)

// Namespace URLs the decoder reports as element prefixes.
var namespacePrefixes = map[string]string{
	"http://purl.org/dc/elements/1.1/":            "dc",
	"http://purl.org/rss/1.0/modules/content/":    "content",
	"http://rssnamespace.org/feedburner/ext/1.0":  "feedburner",
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#": "rdf",
	"http://www.w3.org/2005/Atom":                 "",
	"http://purl.org/rss/1.0/":                    "",
}

type node struct {
	name     string
	attrs    map[string]string
	text     strings.Builder
	children []*node
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *node) childrenNamed(name string) []*node {
	var out []*node
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// value flattens a node to plain text: its own text, an href attribute, a
// text-wrapper child, or all descendant text.
func (n *node) value() string {
	if t := strings.TrimSpace(n.text.String()); t != "" {
		return t
	}
	if href := n.attrs["href"]; href != "" {
		return href
	}
	for _, wrapper := range []string{"name", "text", "_", "value"} {
		if c := n.child(wrapper); c != nil {
			if v := c.value(); v != "" {
				return v
			}
		}
	}
	var parts []string
	for _, c := range n.children {
		if v := c.value(); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

type shapeKind int

const (
	shapeAbsent shapeKind = iota
	shapeSingle
	shapeList
)

// entrySet is the entry container of an envelope: nothing, one entry, or many.
type entrySet struct {
	kind   shapeKind
	single *node
	list   []*node
}

func shapeOf(nodes []*node) entrySet {
	switch len(nodes) {
	case 0:
		return entrySet{kind: shapeAbsent}
	case 1:
		return entrySet{kind: shapeSingle, single: nodes[0]}
	default:
		return entrySet{kind: shapeList, list: nodes}
	}
}

func (s entrySet) nodes() []*node {
	switch s.kind {
	case shapeSingle:
		return []*node{s.single}
	case shapeList:
		return s.list
	default:
		return nil
	}
}

// decodeEnvelope reads markup gofeed could not classify and extracts entries
// from rss.channel.item, feed.entry, rdf:RDF.item or a bare channel.item.
func decodeEnvelope(data []byte) ([]RawEntry, error) {
	root, err := decodeTree(data)
	if err != nil {
		return nil, err
	}

	set := locateEntries(root)
	nodes := set.nodes()
	entries := make([]RawEntry, 0, len(nodes))
	for _, n := range nodes {
		if entry := entryFromNode(n); len(entry) > 0 {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func locateEntries(root *node) entrySet {
	if rss := root.child("rss"); rss != nil {
		if channel := rss.child("channel"); channel != nil {
			return shapeOf(channel.childrenNamed("item"))
		}
		return entrySet{kind: shapeAbsent}
	}
	if atom := root.child("feed"); atom != nil {
		return shapeOf(atom.childrenNamed("entry"))
	}
	if rdf := root.child("rdf:RDF"); rdf != nil {
		return shapeOf(rdf.childrenNamed("item"))
	}
	if channel := root.child("channel"); channel != nil {
		return shapeOf(channel.childrenNamed("item"))
	}
	return entrySet{kind: shapeAbsent}
}

func entryFromNode(n *node) RawEntry {
	entry := RawEntry{}
	linkRank := 0

	for _, c := range n.children {
		v := c.value()
		if v == "" {
			continue
		}

		if c.name == "link" {
			rank := 1
			if rel := c.attrs["rel"]; rel == "" || rel == "alternate" {
				rank = 2
			}
			if rank > linkRank {
				entry["link"] = v
				linkRank = rank
			}
			continue
		}

		if _, seen := entry[c.name]; !seen {
			entry[c.name] = v
		}
	}

	return entry
}

func decodeTree(data []byte) (*node, error) {
	p := xpp.NewXMLPullParser(bytes.NewReader(data), false, charset.NewReaderLabel)

	root := &node{name: "#document"}
	stack := []*node{root}

	for {
		event, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode markup: %w", err)
		}

		switch event {
		case xpp.StartTag:
			n := &node{name: qualifiedName(p.Space, p.Name), attrs: make(map[string]string, len(p.Attrs))}
			for _, a := range p.Attrs {
				n.attrs[a.Name.Local] = a.Value
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
			stack = append(stack, n)
		case xpp.EndTag:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xpp.Text:
			stack[len(stack)-1].text.WriteString(p.Text)
		}

		if event == xpp.EndDocument {
			break
		}
	}

	if len(root.children) == 0 {
		return nil, fmt.Errorf("no elements found")
	}

	return root, nil
}

// qualifiedName renders an element name with its conventional prefix.
// The decoder reports a namespace URL for declared prefixes and the bare
// prefix for undeclared ones.
func qualifiedName(space, local string) string {
	if space == "" {
		return local
	}
	if prefix, ok := namespacePrefixes[space]; ok {
		if prefix == "" {
			return local
		}
		return prefix + ":" + local
	}
	if strings.Contains(space, "/") {
		return local
	}
	return space + ":" + local
}
