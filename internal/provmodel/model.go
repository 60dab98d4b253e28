// Package provmodel contains the seven sub-model builders, one per event
// shape. Each builder is a pure value: it borrows domain records and renders
// a fresh PROV document fragment describing that single event. The translator
// picks the builder, the storage layer encodes and merges the fragment.
package provmodel

import (
	"time"

	"github.com/provinspector-io/provinspector/internal/domain"
	"github.com/provinspector-io/provinspector/internal/prov"
)

// Model is a provenance sub-model: one buildable PROV fragment.
type Model interface {
	Build() *prov.Document
}

// timed returns the prov:time and prov:role attribute pair carried by
// generation, usage, and invalidation edges.
func timed(t time.Time, role string) []prov.Attribute {
	return []prov.Attribute{
		{Key: prov.AttrTime, Value: t},
		{Key: prov.AttrRole, Value: role},
	}
}

// addChangeActivity adds the triggering change activity and, when a parent
// change is known, the parent plus a communication edge from child to parent.
func addChangeActivity(doc *prov.Document, change domain.PipelineChange, parent *domain.PipelineChange) {
	doc.AddElement(change, false)

	if parent != nil {
		doc.AddElement(*parent, false)
		doc.AddRelation(change, *parent, prov.Communication, nil, false)
	}
}

// addRevisionLineage adds the pipeline-version revision produced by a change,
// membership edges for every operator revision and connection in it, the
// generation edge back to the change activity, the owning pipeline version
// with its specialization edge, and, when a parent revision is known, the
// revision edge plus the usage edge from the activity to the parent.
func addRevisionLineage(doc *prov.Document, change domain.PipelineChange, parentRevision *domain.PipelineVersionRevision) {
	revision := change.Revision
	doc.AddElement(revision, false)

	for _, operatorRevision := range revision.Operators {
		doc.AddElement(operatorRevision, false)
		doc.AddRelation(revision, operatorRevision, prov.Membership, nil, false)
	}

	for _, connection := range revision.Connections {
		doc.AddElement(connection, false)
		doc.AddRelation(revision, connection, prov.Membership, nil, false)
	}

	doc.AddRelation(revision, change, prov.Generation,
		timed(change.Time, domain.RoleCreatedPipelineVersionRevision), false)

	doc.AddElement(revision.PipelineVersion, false)
	doc.AddRelation(revision, revision.PipelineVersion, prov.Specialization, nil, false)

	if parentRevision != nil {
		doc.AddElement(*parentRevision, false)
		doc.AddRelation(revision, *parentRevision, prov.Revision, nil, false)
		doc.AddRelation(change, *parentRevision, prov.Usage,
			timed(change.Time, domain.RoleUsedParentPipelineVersionRevision), false)
	}
}
