// Package prov implements the in-memory W3C PROV document model that the
// sub-model builders produce and the graph encoder consumes.
//
// A document accumulates typed elements (entities, activities, agents) and
// typed relations between them, optionally grouped into named bundles.
// Identifiers are qualified names under a namespace; the zoo of PROV relation
// kinds is reduced to the eight the translator emits.
package prov

// Attribute keys shared by elements and relations.
const (
	AttrType      = "prov:type"
	AttrRole      = "prov:role"
	AttrTime      = "prov:time"
	AttrStartTime = "prov:startTime"
	AttrEndTime   = "prov:endTime"
)

// Namespace groups qualified names under a common URI.
type Namespace struct {
	Prefix string
	URI    string
}

// DefaultNamespace anchors every element identifier. Names under the default
// namespace render without a prefix.
var DefaultNamespace = &Namespace{
	URI: "https://github.com/provinspector-io/provinspector/",
}

// relationNamespace anchors the deterministic relation identifiers.
var relationNamespace = &Namespace{
	Prefix: "ex",
	URI:    "example.org",
}

// w3c is the PROV namespace itself, used for asserted types such as Revision.
var w3c = &Namespace{
	Prefix: "prov",
	URI:    "http://www.w3.org/ns/prov#",
}

// RevisionType is the asserted type carried by revision edges.
var RevisionType = QualifiedName{Namespace: w3c, Local: "Revision"}

// QualifiedName names a PROV record within a namespace.
type QualifiedName struct {
	Namespace *Namespace
	Local     string
}

// Name returns a qualified name under the default namespace.
func Name(local string) QualifiedName {
	return QualifiedName{Namespace: DefaultNamespace, Local: local}
}

// String renders the name the way PROV-N does, unquoted: prefix:local when
// the namespace carries a prefix, the bare local part otherwise.
func (q QualifiedName) String() string {
	if q.Namespace != nil && q.Namespace.Prefix != "" {
		return q.Namespace.Prefix + ":" + q.Local
	}

	return q.Local
}

// ProvN returns the quoted PROV-N representation of the name.
func (q QualifiedName) ProvN() string {
	return "'" + q.String() + "'"
}

// IsZero reports whether the name is unset.
func (q QualifiedName) IsZero() bool {
	return q.Namespace == nil && q.Local == ""
}

// Literal is a typed PROV literal value with an optional language tag.
type Literal struct {
	Value    string
	Datatype QualifiedName
	LangTag  string
}

// ProvN returns the PROV-N representation of the literal.
func (l Literal) ProvN() string {
	if l.LangTag != "" {
		return `"` + l.Value + `"@` + l.LangTag
	}

	return `"` + l.Value + `" %% ` + l.Datatype.String()
}
