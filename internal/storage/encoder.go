package storage

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/provinspector-io/provinspector/internal/prov"
)

// Property-graph encoding constants. Every encoded node carries the primary
// label, and the primary key property holds the PROV identifier that node
// merges are keyed on.
const (
	PrimaryLabel  = "provinspector:node"
	PrimaryKey    = "provinspector:identifier"
	BundleLabel   = "Bundle"
	BundledInType = "provinspector:bundledIn"
)

// ClassLabels lists the secondary node labels that receive a uniqueness
// constraint on the primary key property.
var ClassLabels = []string{"Activity", "Agent", BundleLabel, "Entity"}

type (
	// Node is one property-graph node of an encoded subgraph.
	Node struct {
		Labels     []string
		Properties map[string]any
	}

	// Relationship is one typed, directed edge of an encoded subgraph.
	Relationship struct {
		Type       string
		Start      *Node
		End        *Node
		Properties map[string]any
	}

	// Subgraph is the property-graph image of one PROV document.
	Subgraph struct {
		Nodes         []*Node
		Relationships []*Relationship
	}
)

// Identifier returns the node's primary key property.
func (n *Node) Identifier() string {
	id, _ := n.Properties[PrimaryKey].(string)

	return id
}

// HasLabel reports whether the node carries the label.
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}

	return false
}

// EncodeDocument renders a PROV document as a property-graph subgraph.
//
// Each distinct identifier becomes exactly one node; an identifier declared
// as an element more than once keeps the last declaration's properties.
// Elements are labeled with the primary label plus their PROV class, bundles
// with the primary label plus Bundle, and edge endpoints never declared as
// elements become bare stub nodes. Edges whose target is a literal fold into
// a property on the source node keyed by the edge label. Within one node or
// edge, repeated property keys collapse into list values in encounter order.
// Every element inside a bundle additionally points at its containing bundle
// with a provinspector:bundledIn edge.
func EncodeDocument(doc *prov.Document) *Subgraph {
	e := &encoder{
		nodes: make(map[string]*pendingNode),
		seen:  make(map[string]bool),
	}

	e.collectNodes(doc)
	e.collectEdges(doc)
	e.collectBundleEdges(doc)

	return e.finish()
}

type encoder struct {
	order []string
	nodes map[string]*pendingNode
	edges []pendingEdge
	seen  map[string]bool
}

type pendingNode struct {
	labels []string
	pairs  []pair
}

type pendingEdge struct {
	source string
	target string
	label  string
	pairs  []pair
}

// pair is one coerced property key-value pair. Coerced values are scalar and
// comparable, so pair sets can be deduplicated with plain equality.
type pair struct {
	key   string
	value any
}

func (e *encoder) collectNodes(doc *prov.Document) {
	for _, el := range doc.Elements() {
		e.setElementNode(el)
	}

	for _, b := range doc.Bundles() {
		e.setBundleNode(b)
	}
}

func (e *encoder) setElementNode(el *prov.Element) {
	id := el.Identifier.String()

	pn := e.ensureNode(id)
	pn.labels = []string{PrimaryLabel, el.Kind.String()}
	pn.pairs = appendPair(nil, PrimaryKey, id)

	for _, attr := range el.Attributes {
		pn.pairs = appendPair(pn.pairs, attr.Key, coerceValue(attr.Value))
	}
}

func (e *encoder) setBundleNode(b *prov.Bundle) {
	id := b.Identifier.String()

	pn := e.ensureNode(id)
	pn.labels = []string{PrimaryLabel, BundleLabel}
	pn.pairs = appendPair(nil, PrimaryKey, id)

	for _, el := range b.Elements() {
		e.setElementNode(el)
	}

	for _, nested := range b.Bundles() {
		e.setBundleNode(nested)
	}
}

func (e *encoder) collectEdges(doc *prov.Document) {
	for _, rel := range allRelations(doc) {
		src := rel.Source.String()

		target, ok := rel.Target.(prov.QualifiedName)
		if !ok {
			// A literal endpoint folds into a property on the source node.
			pn := e.ensureNode(src)
			pn.pairs = appendPair(pn.pairs, rel.Kind.Label(), coerceValue(rel.Target))

			continue
		}

		e.addEdge(src, target.String(), rel.Kind.Label(), rel.Attributes)
	}
}

func (e *encoder) collectBundleEdges(doc *prov.Document) {
	for _, b := range doc.Bundles() {
		e.addBundleEdges(b)
	}
}

// addBundleEdges links every element of the bundle to the bundle node.
// Nested bundle nodes themselves are not linked, only their elements, each
// to its innermost containing bundle.
func (e *encoder) addBundleEdges(b *prov.Bundle) {
	bundleID := b.Identifier.String()

	for _, el := range b.Elements() {
		e.addEdge(el.Identifier.String(), bundleID, BundledInType, nil)
	}

	for _, nested := range b.Bundles() {
		e.addBundleEdges(nested)
	}
}

// addEdge records one edge, creating stub endpoints as needed. Edges are
// identified by source, label and target; duplicates are dropped.
func (e *encoder) addEdge(source, target, label string, attrs []prov.Attribute) {
	e.ensureNode(source)
	e.ensureNode(target)

	key := source + "\x00" + label + "\x00" + target
	if e.seen[key] {
		return
	}

	e.seen[key] = true

	var pairs []pair

	for _, attr := range attrs {
		pairs = appendPair(pairs, attr.Key, coerceValue(attr.Value))
	}

	e.edges = append(e.edges, pendingEdge{source: source, target: target, label: label, pairs: pairs})
}

// ensureNode returns the pending node for the identifier, creating a bare
// stub when the identifier has not appeared as an element or bundle.
func (e *encoder) ensureNode(id string) *pendingNode {
	if pn, ok := e.nodes[id]; ok {
		return pn
	}

	pn := &pendingNode{
		labels: []string{PrimaryLabel},
		pairs:  appendPair(nil, PrimaryKey, id),
	}

	e.nodes[id] = pn
	e.order = append(e.order, id)

	return pn
}

func (e *encoder) finish() *Subgraph {
	sg := &Subgraph{}

	final := make(map[string]*Node, len(e.order))

	for _, id := range e.order {
		pn := e.nodes[id]

		node := &Node{
			Labels:     pn.labels,
			Properties: collapsePairs(pn.pairs),
		}

		final[id] = node
		sg.Nodes = append(sg.Nodes, node)
	}

	for _, pe := range e.edges {
		sg.Relationships = append(sg.Relationships, &Relationship{
			Type:       pe.label,
			Start:      final[pe.source],
			End:        final[pe.target],
			Properties: collapsePairs(pe.pairs),
		})
	}

	return sg
}

// allRelations flattens the document's relations with those of all bundles,
// recursively.
func allRelations(doc *prov.Document) []*prov.Relation {
	rels := append([]*prov.Relation(nil), doc.Relations()...)

	for _, b := range doc.Bundles() {
		rels = append(rels, allRelations(&b.Document)...)
	}

	return rels
}

// appendPair adds a key-value pair unless an identical pair is already
// present.
func appendPair(pairs []pair, key string, value any) []pair {
	for _, p := range pairs {
		if p.key == key && p.value == value {
			return pairs
		}
	}

	return append(pairs, pair{key: key, value: value})
}

// collapsePairs groups pairs by key: a key seen once maps to its value, a
// key seen more than once maps to the list of its values in encounter order.
func collapsePairs(pairs []pair) map[string]any {
	counts := make(map[string]int, len(pairs))

	for _, p := range pairs {
		counts[p.key]++
	}

	props := make(map[string]any, len(counts))

	for _, p := range pairs {
		if counts[p.key] == 1 {
			props[p.key] = p.value

			continue
		}

		list, _ := props[p.key].([]any)
		props[p.key] = append(list, p.value)
	}

	return props
}

// coerceValue maps an attribute value to a type the graph store accepts.
// Qualified names render in their unquoted PROV-N form, literals keep the
// quoted form, and durations are truncated to second resolution. Times pass
// through unchanged; the Bolt driver stores them as zoned datetimes.
func coerceValue(value any) any {
	switch v := value.(type) {
	case prov.QualifiedName:
		return v.String()
	case prov.Literal:
		return v.ProvN()
	case time.Duration:
		return dbtype.Duration{Seconds: int64(v / time.Second)}
	default:
		return value
	}
}
