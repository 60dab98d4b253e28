package prov

import "fmt"

// Kind is the PROV class of an element.
type Kind int

const (
	Entity Kind = iota
	Activity
	Agent
)

// String returns the PROV class name, which doubles as the node label in the
// property-graph encoding.
func (k Kind) String() string {
	switch k {
	case Entity:
		return "Entity"
	case Activity:
		return "Activity"
	case Agent:
		return "Agent"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// RelationKind is the PROV type of an edge. Revision is the derivation
// specialization that additionally asserts the prov:Revision type.
type RelationKind int

const (
	Generation RelationKind = iota
	Usage
	Communication
	Derivation
	Revision
	Invalidation
	Membership
	Specialization
)

// Label returns the PROV-N name of the relation kind. A revision edge is a
// derivation at the PROV level, so it shares the derivation label.
func (k RelationKind) Label() string {
	switch k {
	case Generation:
		return "wasGeneratedBy"
	case Usage:
		return "used"
	case Communication:
		return "wasInformedBy"
	case Derivation, Revision:
		return "wasDerivedFrom"
	case Invalidation:
		return "wasInvalidatedBy"
	case Membership:
		return "hadMember"
	case Specialization:
		return "specializationOf"
	default:
		return fmt.Sprintf("RelationKind(%d)", int(k))
	}
}

// hasIdentifier reports whether edges of this kind carry a deterministic
// identifier. Membership and specialization edges are anonymous.
func (k RelationKind) hasIdentifier() bool {
	return k != Membership && k != Specialization
}

// Attribute is one key-value pair on an element or relation. Values are
// native scalars, time.Time, QualifiedName, or Literal; the graph encoder
// coerces them to graph-primitive types.
type Attribute struct {
	Key   string
	Value any
}

// Element is a PROV node.
type Element struct {
	Kind       Kind
	Identifier QualifiedName
	Attributes []Attribute
}

// Subject is any domain record that can appear in a PROV document.
type Subject interface {
	// ProvIdentifier returns the record's stable qualified name.
	ProvIdentifier() QualifiedName

	// ProvElement returns the record's full PROV representation.
	ProvElement() Element
}

// Relation is a typed PROV edge. Target is a QualifiedName for true edges; a
// literal target is legal and folded into the source node by the encoder.
type Relation struct {
	Kind       RelationKind
	Identifier QualifiedName // zero for membership and specialization
	Source     QualifiedName
	Target     any
	Attributes []Attribute
}

// Document accumulates elements, relations, and bundles in insertion order.
// Zero-value documents are not usable; construct with NewDocument.
type Document struct {
	elements  []*Element
	relations []*Relation
	bundles   []*Bundle
	index     map[string]*Element
}

// Bundle is a named sub-document.
type Bundle struct {
	Identifier QualifiedName
	Document
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{index: make(map[string]*Element)}
}

// Elements returns the document's elements in insertion order. The returned
// slice is the live backing store; callers must not mutate it.
func (d *Document) Elements() []*Element {
	return d.elements
}

// Relations returns the document's relations in insertion order.
func (d *Document) Relations() []*Relation {
	return d.relations
}

// Bundles returns the document's bundles in insertion order.
func (d *Document) Bundles() []*Bundle {
	return d.bundles
}

// Element returns the first element recorded under the identifier, or nil.
func (d *Document) Element(id QualifiedName) *Element {
	return d.index[id.String()]
}

// AddElement appends the subject's element to the document and returns it.
// With dedupe set, an element already present under the same identifier is
// returned instead of appending a duplicate.
func (d *Document) AddElement(sub Subject, dedupe bool) *Element {
	el := sub.ProvElement()
	key := el.Identifier.String()

	if dedupe {
		if existing, ok := d.index[key]; ok {
			return existing
		}
	}

	added := &el
	d.elements = append(d.elements, added)

	if _, ok := d.index[key]; !ok {
		d.index[key] = added
	}

	return added
}

// AddRelation appends a typed edge from source to target and returns it.
// Kinds other than membership and specialization carry the deterministic
// identifier relation:<source>:<target>. A revision edge additionally
// asserts the prov:Revision type. With dedupe set, an existing edge with the
// same kind and endpoints is returned instead of appending a duplicate.
func (d *Document) AddRelation(source, target Subject, kind RelationKind, extra []Attribute, dedupe bool) *Relation {
	src := source.ProvIdentifier()
	dst := target.ProvIdentifier()

	if dedupe {
		if existing := d.findRelation(kind, src.String(), dst.String()); existing != nil {
			return existing
		}
	}

	rel := &Relation{
		Kind:       kind,
		Source:     src,
		Target:     dst,
		Attributes: append([]Attribute(nil), extra...),
	}

	if kind.hasIdentifier() {
		rel.Identifier = QualifiedName{
			Namespace: relationNamespace,
			Local:     "relation:" + src.String() + ":" + dst.String(),
		}
	}

	if kind == Revision {
		rel.Attributes = append(rel.Attributes, Attribute{Key: AttrType, Value: RevisionType})
	}

	d.relations = append(d.relations, rel)

	return rel
}

// AddLiteralRelation appends an edge whose target is a literal value rather
// than a node. The graph encoder folds such edges into a property on the
// source node.
func (d *Document) AddLiteralRelation(source Subject, value any, kind RelationKind, extra []Attribute) *Relation {
	rel := &Relation{
		Kind:       kind,
		Source:     source.ProvIdentifier(),
		Target:     value,
		Attributes: append([]Attribute(nil), extra...),
	}

	d.relations = append(d.relations, rel)

	return rel
}

// NewBundle appends a named bundle to the document and returns it.
func (d *Document) NewBundle(id QualifiedName) *Bundle {
	b := &Bundle{
		Identifier: id,
		Document:   Document{index: make(map[string]*Element)},
	}

	d.bundles = append(d.bundles, b)

	return b
}

func (d *Document) findRelation(kind RelationKind, src, dst string) *Relation {
	for _, rel := range d.relations {
		if rel.Kind != kind || rel.Source.String() != src {
			continue
		}

		if qn, ok := rel.Target.(QualifiedName); ok && qn.String() == dst {
			return rel
		}
	}

	return nil
}
