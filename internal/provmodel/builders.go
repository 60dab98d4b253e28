package provmodel

import (
	"github.com/provinspector-io/provinspector/internal/domain"
	"github.com/provinspector-io/provinspector/internal/prov"
)

// PipelineVersionCreationModel renders the birth of a pipeline version: at
// genesis from an initialization event, at a split from the first step seen
// on a new branch. The parent fields are nil at genesis.
type PipelineVersionCreationModel struct {
	Creation       domain.PipelineVersionCreation
	ParentRevision *domain.PipelineVersionRevision
	ParentCreation *domain.PipelineVersionCreation
}

// Build implements Model.
func (m PipelineVersionCreationModel) Build() *prov.Document {
	doc := prov.NewDocument()

	doc.AddElement(m.Creation, false)

	if m.ParentCreation != nil {
		doc.AddElement(*m.ParentCreation, false)
		doc.AddRelation(m.Creation, *m.ParentCreation, prov.Communication, nil, false)
	}

	revision := m.Creation.Revision
	doc.AddElement(revision, false)

	// Unlike the change models, the birth of a version also spells out the
	// operator behind every member operator revision.
	for _, operatorRevision := range revision.Operators {
		doc.AddElement(operatorRevision, false)
		doc.AddRelation(revision, operatorRevision, prov.Membership, nil, false)

		doc.AddElement(operatorRevision.Operator, false)
		doc.AddRelation(operatorRevision, operatorRevision.Operator, prov.Specialization, nil, false)
	}

	for _, connection := range revision.Connections {
		doc.AddElement(connection, false)
		doc.AddRelation(revision, connection, prov.Membership, nil, false)
	}

	doc.AddRelation(revision, m.Creation, prov.Generation,
		timed(m.Creation.Time, domain.RoleCreatedPipelineVersionRevision), false)

	if m.ParentRevision != nil {
		doc.AddElement(*m.ParentRevision, false)
		doc.AddRelation(revision, *m.ParentRevision, prov.Derivation, nil, false)
		doc.AddRelation(m.Creation, *m.ParentRevision, prov.Usage,
			timed(m.Creation.Time, domain.RoleUsedParentPipelineVersionRevision), false)
	}

	version := revision.PipelineVersion
	doc.AddElement(version, false)
	doc.AddRelation(revision, version, prov.Specialization, nil, false)
	doc.AddRelation(version, m.Creation, prov.Generation,
		timed(m.Creation.Time, domain.RoleCreatedPipelineVersion), false)

	if m.ParentCreation != nil {
		parentVersion := m.ParentCreation.Revision.PipelineVersion
		doc.AddElement(parentVersion, false)

		if m.ParentRevision != nil {
			doc.AddRelation(*m.ParentRevision, parentVersion, prov.Specialization, nil, false)
		}

		doc.AddRelation(version, parentVersion, prov.Derivation, nil, false)
		doc.AddRelation(m.Creation, parentVersion, prov.Usage,
			timed(m.Creation.Time, domain.RoleUsedParentPipelineVersion), false)
	}

	return doc
}

// OperatorCreationModel renders an operator creation change. The change's
// payload must be the freshly created operator revision.
type OperatorCreationModel struct {
	Change         domain.PipelineChange
	ParentChange   *domain.PipelineChange
	ParentRevision *domain.PipelineVersionRevision
}

// Build implements Model.
func (m OperatorCreationModel) Build() *prov.Document {
	doc := prov.NewDocument()

	addChangeActivity(doc, m.Change, m.ParentChange)

	operatorRevision := *m.Change.OperatorRevision
	doc.AddElement(operatorRevision, false)
	doc.AddRelation(operatorRevision, m.Change, prov.Generation,
		timed(m.Change.Time, domain.RoleCreatedOperator), false)

	doc.AddElement(operatorRevision.Operator, false)
	doc.AddRelation(operatorRevision, operatorRevision.Operator, prov.Specialization, nil, false)

	for _, parameter := range operatorRevision.Parameters {
		doc.AddElement(parameter, false)
		doc.AddRelation(operatorRevision, parameter, prov.Membership, nil, false)
	}

	addRevisionLineage(doc, m.Change, m.ParentRevision)

	return doc
}

// OperatorModificationModel renders an operator modification change: a fresh
// operator revision chained onto the revision it supersedes.
type OperatorModificationModel struct {
	Change                 domain.PipelineChange
	ParentChange           *domain.PipelineChange
	ParentOperatorRevision *domain.OperatorRevision
	ParentRevision         *domain.PipelineVersionRevision
}

// Build implements Model.
func (m OperatorModificationModel) Build() *prov.Document {
	doc := prov.NewDocument()

	addChangeActivity(doc, m.Change, m.ParentChange)

	operatorRevision := *m.Change.OperatorRevision
	doc.AddElement(operatorRevision, false)
	doc.AddRelation(operatorRevision, m.Change, prov.Generation,
		timed(m.Change.Time, domain.RoleModifiedOperator), false)

	if m.ParentOperatorRevision != nil {
		doc.AddElement(*m.ParentOperatorRevision, false)
		doc.AddRelation(operatorRevision, *m.ParentOperatorRevision, prov.Revision, nil, false)
		doc.AddRelation(m.Change, *m.ParentOperatorRevision, prov.Usage,
			timed(m.Change.Time, domain.RoleUsedParentOperatorRevision), false)
	}

	doc.AddElement(operatorRevision.Operator, false)
	doc.AddRelation(operatorRevision, operatorRevision.Operator, prov.Specialization, nil, false)

	for _, parameter := range operatorRevision.Parameters {
		doc.AddElement(parameter, false)
		doc.AddRelation(operatorRevision, parameter, prov.Membership, nil, false)
	}

	addRevisionLineage(doc, m.Change, m.ParentRevision)

	return doc
}

// OperatorDeletionModel renders an operator deletion change. The deleted
// revision is invalidated by the change; its parameters are not restated.
type OperatorDeletionModel struct {
	Change         domain.PipelineChange
	ParentChange   *domain.PipelineChange
	ParentRevision *domain.PipelineVersionRevision
}

// Build implements Model.
func (m OperatorDeletionModel) Build() *prov.Document {
	doc := prov.NewDocument()

	addChangeActivity(doc, m.Change, m.ParentChange)

	operatorRevision := *m.Change.OperatorRevision
	doc.AddElement(operatorRevision, false)
	doc.AddRelation(operatorRevision, m.Change, prov.Invalidation,
		timed(m.Change.Time, domain.RoleDeletedOperator), false)

	doc.AddElement(operatorRevision.Operator, false)
	doc.AddRelation(operatorRevision, operatorRevision.Operator, prov.Specialization, nil, false)

	addRevisionLineage(doc, m.Change, m.ParentRevision)

	return doc
}

// ConnectionCreationModel renders a connection creation change.
type ConnectionCreationModel struct {
	Change         domain.PipelineChange
	ParentChange   *domain.PipelineChange
	ParentRevision *domain.PipelineVersionRevision
}

// Build implements Model.
func (m ConnectionCreationModel) Build() *prov.Document {
	doc := prov.NewDocument()

	addChangeActivity(doc, m.Change, m.ParentChange)

	connection := *m.Change.Connection
	doc.AddElement(connection, false)
	doc.AddRelation(connection, m.Change, prov.Generation,
		timed(m.Change.Time, domain.RoleCreatedConnection), false)

	addRevisionLineage(doc, m.Change, m.ParentRevision)

	return doc
}

// ConnectionDeletionModel renders a connection deletion change.
type ConnectionDeletionModel struct {
	Change         domain.PipelineChange
	ParentChange   *domain.PipelineChange
	ParentRevision *domain.PipelineVersionRevision
}

// Build implements Model.
func (m ConnectionDeletionModel) Build() *prov.Document {
	doc := prov.NewDocument()

	addChangeActivity(doc, m.Change, m.ParentChange)

	connection := *m.Change.Connection
	doc.AddElement(connection, false)
	doc.AddRelation(connection, m.Change, prov.Invalidation,
		timed(m.Change.Time, domain.RoleDeletedConnection), false)

	addRevisionLineage(doc, m.Change, m.ParentRevision)

	return doc
}

// OperatorExecutionModel renders one operator execution: the run it produced,
// the metrics collected into the run, and the revision it exercised.
type OperatorExecutionModel struct {
	Execution domain.OperatorExecution
}

// Build implements Model.
func (m OperatorExecutionModel) Build() *prov.Document {
	doc := prov.NewDocument()

	doc.AddElement(m.Execution, false)

	operatorRevision := m.Execution.OperatorRevision
	for _, parameter := range operatorRevision.Parameters {
		doc.AddElement(parameter, false)
		doc.AddRelation(operatorRevision, parameter, prov.Membership, nil, false)
	}

	doc.AddElement(operatorRevision, false)
	doc.AddRelation(m.Execution, operatorRevision, prov.Usage,
		timed(m.Execution.Time, domain.RoleUsedOperatorRevision), false)

	run := m.Execution.Run
	doc.AddElement(run, false)
	doc.AddRelation(run, m.Execution, prov.Generation,
		timed(m.Execution.Time, domain.RoleCreatedOperatorRun), false)

	// Metrics are members of both the run that produced them and the
	// revision that was running.
	for _, metric := range run.Metrics {
		doc.AddElement(metric, false)
		doc.AddRelation(run, metric, prov.Membership, nil, false)
		doc.AddRelation(operatorRevision, metric, prov.Membership, nil, false)
	}

	return doc
}

var (
	_ Model = PipelineVersionCreationModel{}
	_ Model = OperatorCreationModel{}
	_ Model = OperatorModificationModel{}
	_ Model = OperatorDeletionModel{}
	_ Model = ConnectionCreationModel{}
	_ Model = ConnectionDeletionModel{}
	_ Model = OperatorExecutionModel{}
)
