package domain

import (
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/provinspector-io/provinspector/internal/prov"
)

// TimeFromSeconds converts a fractional unix timestamp, as carried by the
// event wire format, to a time.Time.
func TimeFromSeconds(sec float64) time.Time {
	whole, frac := math.Modf(sec)

	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}

// name builds a record identifier under the default namespace. Only the
// values interpolated into the template are percent-encoded; the template
// punctuation stays literal.
func name(local string) prov.QualifiedName {
	return prov.Name(local)
}

func escape(s string) string {
	return url.QueryEscape(s)
}

// PipelineVersion is an entity representing one history branch of the
// pipeline. A pipeline initially has a single version; every history split
// creates another with a parent pointer.
type PipelineVersion struct {
	ID       int
	ParentID *int
}

// ProvIdentifier implements prov.Subject.
func (v PipelineVersion) ProvIdentifier() prov.QualifiedName {
	return name("PipelineVersion?id=" + escape(strconv.Itoa(v.ID)))
}

// ProvElement implements prov.Subject.
func (v PipelineVersion) ProvElement() prov.Element {
	return prov.Element{
		Kind:       prov.Entity,
		Identifier: v.ProvIdentifier(),
		Attributes: []prov.Attribute{
			{Key: "id", Value: v.ID},
			{Key: prov.AttrType, Value: TypePipelineVersion},
		},
	}
}

// PipelineVersionRevision is an entity representing a snapshot of one branch:
// the operator revisions and connections present after a pipeline change.
// The member sets are immutable once the revision is constructed.
type PipelineVersionRevision struct {
	UUID            string
	ID              int
	PipelineVersion PipelineVersion
	ParentUUID      string // empty for the genesis revision of branch 0
	Operators       []OperatorRevision
	Connections     []Connection
}

// ProvIdentifier implements prov.Subject.
func (r PipelineVersionRevision) ProvIdentifier() prov.QualifiedName {
	return name("PipelineVersionRevision?uuid=" + escape(r.UUID))
}

// ProvElement implements prov.Subject.
func (r PipelineVersionRevision) ProvElement() prov.Element {
	return prov.Element{
		Kind:       prov.Entity,
		Identifier: r.ProvIdentifier(),
		Attributes: []prov.Attribute{
			{Key: "uuid", Value: r.UUID},
			{Key: "id", Value: r.ID},
			{Key: prov.AttrType, Value: TypePipelineVersionRevision},
		},
	}
}

// Operator is an entity representing one operator of the pipeline,
// independent of any particular parameter configuration.
type Operator struct {
	ID   int
	Name string
}

// ProvIdentifier implements prov.Subject.
func (o Operator) ProvIdentifier() prov.QualifiedName {
	return name("Operator?id=" + escape(strconv.Itoa(o.ID)))
}

// ProvElement implements prov.Subject.
func (o Operator) ProvElement() prov.Element {
	return prov.Element{
		Kind:       prov.Entity,
		Identifier: o.ProvIdentifier(),
		Attributes: []prov.Attribute{
			{Key: "id", Value: o.ID},
			{Key: "name", Value: o.Name},
			{Key: prov.AttrType, Value: TypeOperator},
		},
	}
}

// OperatorRevision is an entity representing one parameter configuration of
// an operator. Creation and modification events each produce a fresh one.
type OperatorRevision struct {
	UUID       string
	ID         int
	Operator   Operator
	Parameters []Parameter
	ParentUUID string // empty for the first revision of an operator
}

// ProvIdentifier implements prov.Subject.
func (r OperatorRevision) ProvIdentifier() prov.QualifiedName {
	return name("OperatorRevision?uuid=" + escape(r.UUID))
}

// ProvElement implements prov.Subject.
func (r OperatorRevision) ProvElement() prov.Element {
	return prov.Element{
		Kind:       prov.Entity,
		Identifier: r.ProvIdentifier(),
		Attributes: []prov.Attribute{
			{Key: "uuid", Value: r.UUID},
			{Key: "id", Value: r.ID},
			{Key: prov.AttrType, Value: TypeOperatorRevision},
		},
	}
}

// Parameter is an entity representing one named parameter of an operator
// revision. Its identity is content-addressed: the identifier embeds a
// digest of the value, so equal (name, value) pairs merge to one node.
type Parameter struct {
	Name  string
	Value any
}

// ProvIdentifier implements prov.Subject.
func (p Parameter) ProvIdentifier() prov.QualifiedName {
	return name("Parameter?name=" + escape(p.Name) + "&value=" + HashValue(p.Value))
}

// ProvElement implements prov.Subject.
func (p Parameter) ProvElement() prov.Element {
	return prov.Element{
		Kind:       prov.Entity,
		Identifier: p.ProvIdentifier(),
		Attributes: []prov.Attribute{
			{Key: "name", Value: p.Name},
			{Key: "value", Value: HashValue(p.Value)},
			{Key: prov.AttrType, Value: TypeParameter},
		},
	}
}

// OperatorRun is an entity collecting everything one execution of an operator
// revision produced. It is both a plain entity and a PROV collection of its
// metrics.
type OperatorRun struct {
	ID        string
	CreatedAt time.Time
	Metrics   []Metric
}

// ProvIdentifier implements prov.Subject.
func (r OperatorRun) ProvIdentifier() prov.QualifiedName {
	return name("OperatorRun?id=" + escape(r.ID))
}

// ProvElement implements prov.Subject.
func (r OperatorRun) ProvElement() prov.Element {
	return prov.Element{
		Kind:       prov.Entity,
		Identifier: r.ProvIdentifier(),
		Attributes: []prov.Attribute{
			{Key: "id", Value: r.ID},
			{Key: "time", Value: r.CreatedAt},
			{Key: prov.AttrType, Value: TypeOperatorRun},
			{Key: prov.AttrType, Value: TypeCollection},
		},
	}
}

// Metric is an entity representing one named measurement produced by an
// operator run. Its identifier embeds the stringified value, so runs that
// reproduce the same measurement merge to one node.
type Metric struct {
	Name  string
	Value float64
}

// ProvIdentifier implements prov.Subject.
func (m Metric) ProvIdentifier() prov.QualifiedName {
	return name("Metric?name=" + escape(m.Name) + "&value=" + FormatMetricValue(m.Value))
}

// ProvElement implements prov.Subject.
func (m Metric) ProvElement() prov.Element {
	return prov.Element{
		Kind:       prov.Entity,
		Identifier: m.ProvIdentifier(),
		Attributes: []prov.Attribute{
			{Key: "name", Value: m.Name},
			{Key: "value", Value: m.Value},
			{Key: prov.AttrType, Value: TypeMetric},
		},
	}
}

// FormatMetricValue renders a metric value for use in identifiers.
func FormatMetricValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Connection is an entity representing a directed link between two operators.
type Connection struct {
	ID             int
	FromOperatorID int
	ToOperatorID   int
}

// ProvIdentifier implements prov.Subject.
func (c Connection) ProvIdentifier() prov.QualifiedName {
	return name("Connection?id=" + escape(strconv.Itoa(c.ID)))
}

// ProvElement implements prov.Subject.
func (c Connection) ProvElement() prov.Element {
	return prov.Element{
		Kind:       prov.Entity,
		Identifier: c.ProvIdentifier(),
		Attributes: []prov.Attribute{
			{Key: "id", Value: c.ID},
			{Key: "from_operator_id", Value: strconv.Itoa(c.FromOperatorID)},
			{Key: "to_operator_id", Value: strconv.Itoa(c.ToOperatorID)},
			{Key: prov.AttrType, Value: TypeConnection},
		},
	}
}

// PipelineVersionCreation is the activity that brought a pipeline version
// into existence, either at genesis or at a branch split.
type PipelineVersionCreation struct {
	UUID       string
	Revision   PipelineVersionRevision
	ParentUUID string // empty when no parent creation is known
	Time       time.Time
}

// ProvIdentifier implements prov.Subject.
func (c PipelineVersionCreation) ProvIdentifier() prov.QualifiedName {
	return name("PipelineVersionCreation?uuid=" + escape(c.UUID))
}

// ProvElement implements prov.Subject.
func (c PipelineVersionCreation) ProvElement() prov.Element {
	return prov.Element{
		Kind:       prov.Activity,
		Identifier: c.ProvIdentifier(),
		Attributes: []prov.Attribute{
			{Key: "uuid", Value: c.UUID},
			{Key: prov.AttrStartTime, Value: c.Time},
			{Key: prov.AttrEndTime, Value: c.Time},
			{Key: prov.AttrType, Value: TypePipelineVersionCreation},
		},
	}
}

// PipelineChange is the activity that produced a new pipeline version
// revision. The subtype payload is a discriminated union: the three operator
// subtypes carry an OperatorRevision, the two connection subtypes a
// Connection.
type PipelineChange struct {
	UUID             string
	Type             PipelineChangeType
	Time             time.Time
	OperatorRevision *OperatorRevision
	Connection       *Connection
	Revision         PipelineVersionRevision
	ParentUUID       string // empty when no prior change on the parent revision is known
}

// ProvIdentifier implements prov.Subject.
func (c PipelineChange) ProvIdentifier() prov.QualifiedName {
	return name("PipelineChange?uuid=" + escape(c.UUID))
}

// ProvElement implements prov.Subject.
func (c PipelineChange) ProvElement() prov.Element {
	return prov.Element{
		Kind:       prov.Activity,
		Identifier: c.ProvIdentifier(),
		Attributes: []prov.Attribute{
			{Key: "uuid", Value: c.UUID},
			{Key: "pipeline_change_type", Value: string(c.Type)},
			{Key: prov.AttrStartTime, Value: c.Time},
			{Key: prov.AttrEndTime, Value: c.Time},
			{Key: prov.AttrType, Value: TypePipelineChange},
		},
	}
}

// OperatorExecution is the activity representing one execution of an
// operator revision, producing an OperatorRun.
type OperatorExecution struct {
	UUID             string
	OperatorRevision OperatorRevision
	Run              OperatorRun
	StepType         OperatorStepType
	Time             time.Time
}

// ProvIdentifier implements prov.Subject.
func (e OperatorExecution) ProvIdentifier() prov.QualifiedName {
	return name("OperatorExecution?uuid=" + escape(e.UUID))
}

// ProvElement implements prov.Subject.
//
// The step type is recorded under the pipeline_change_type property key, the
// same key PipelineChange activities use for their subtype.
func (e OperatorExecution) ProvElement() prov.Element {
	return prov.Element{
		Kind:       prov.Activity,
		Identifier: e.ProvIdentifier(),
		Attributes: []prov.Attribute{
			{Key: "uuid", Value: e.UUID},
			{Key: "pipeline_change_type", Value: string(e.StepType)},
			{Key: prov.AttrStartTime, Value: e.Time},
			{Key: prov.AttrEndTime, Value: e.Time},
			{Key: prov.AttrType, Value: TypeOperatorExecution},
		},
	}
}

var (
	_ prov.Subject = PipelineVersion{}
	_ prov.Subject = PipelineVersionRevision{}
	_ prov.Subject = Operator{}
	_ prov.Subject = OperatorRevision{}
	_ prov.Subject = Parameter{}
	_ prov.Subject = OperatorRun{}
	_ prov.Subject = Metric{}
	_ prov.Subject = Connection{}
	_ prov.Subject = PipelineVersionCreation{}
	_ prov.Subject = PipelineChange{}
	_ prov.Subject = OperatorExecution{}
)
