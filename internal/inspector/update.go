package inspector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/provinspector-io/provinspector/internal/domain"
	"github.com/provinspector-io/provinspector/internal/ingestion"
	"github.com/provinspector-io/provinspector/internal/provmodel"
	"github.com/provinspector-io/provinspector/internal/storage"
)

// Update applies one debug step: it resolves the branch the step ran on
// (creating it if the step announces a fork), applies the step's pipeline
// changes one after another, each producing a new revision derived from the
// previous one, and records an operator execution when the step carries
// metrics. Any error aborts this step only and leaves earlier state intact.
func (i *Inspector) Update(ctx context.Context, step ingestion.DebugStep) error {
	if err := i.applyStep(ctx, step); err != nil {
		return fmt.Errorf("update step %s: %w", step.ID, err)
	}

	return nil
}

func (i *Inspector) applyStep(ctx context.Context, step ingestion.DebugStep) error {
	stepTime := domain.TimeFromSeconds(step.Timestamp)

	version, revision, err := i.resolveBranch(ctx, step, stepTime)
	if err != nil {
		return err
	}

	i.lastVersionID = version.ID
	i.lastRevisionID = revision.ID

	parent := revision

	for idx, change := range step.Changes {
		next, err := i.applyChange(ctx, change, parent, stepTime)
		if err != nil {
			return fmt.Errorf("change %d: %w", idx, err)
		}

		parent = next
		i.lastRevisionID = next.ID
	}

	if len(step.Metrics) > 0 {
		if err := i.applyExecution(ctx, step, parent, stepTime); err != nil {
			return err
		}
	}

	i.logger.Debug("step applied",
		slog.String("step_id", step.ID),
		slog.Int("branch_id", version.ID),
		slog.Int("revision_id", i.lastRevisionID),
		slog.Int("changes", len(step.Changes)),
	)

	return nil
}

// resolveBranch returns the version and revision the step applies to. A
// step arriving before any version exists creates branch zero on the fly;
// a step naming an unknown branch forks it off the parent branch's latest
// revision.
func (i *Inspector) resolveBranch(
	ctx context.Context,
	step ingestion.DebugStep,
	stepTime time.Time,
) (domain.PipelineVersion, domain.PipelineVersionRevision, error) {
	if !i.initialized && len(storage.ListAll[domain.PipelineVersion](i.repo)) == 0 {
		return i.createGenesis(ctx, stepTime)
	}

	version, ok := storage.Get[domain.PipelineVersion](i.repo, storage.WithID(step.BranchID))
	if !ok {
		return i.createBranch(ctx, step, stepTime)
	}

	if version.ID == i.lastVersionID {
		revision, ok := storage.Get[domain.PipelineVersionRevision](i.repo,
			storage.WithPipelineVersion(version.ID), storage.WithID(i.lastRevisionID))
		if !ok {
			return domain.PipelineVersion{}, domain.PipelineVersionRevision{},
				fmt.Errorf("%w: revision %d of branch %d", ErrRevisionMissing, i.lastRevisionID, version.ID)
		}

		return version, revision, nil
	}

	revisions := storage.ListAll[domain.PipelineVersionRevision](i.repo, storage.WithPipelineVersion(version.ID))
	if len(revisions) == 0 {
		return domain.PipelineVersion{}, domain.PipelineVersionRevision{},
			fmt.Errorf("%w: branch %d has no revisions", ErrRevisionMissing, version.ID)
	}

	return version, revisions[len(revisions)-1], nil
}

// createGenesis builds branch zero with an empty revision for a step that
// arrived before initialization. The creation time is the step time, not the
// canonical initial timestamp.
func (i *Inspector) createGenesis(
	ctx context.Context,
	stepTime time.Time,
) (domain.PipelineVersion, domain.PipelineVersionRevision, error) {
	version := domain.PipelineVersion{ID: i.consts.PipelineVersionID}

	revision := domain.PipelineVersionRevision{
		UUID:            i.newID(),
		ID:              i.consts.RevisionID,
		PipelineVersion: version,
	}

	creation := domain.PipelineVersionCreation{
		UUID:     i.newID(),
		Revision: revision,
		Time:     stepTime,
	}

	i.repo.Add(version)
	i.repo.Add(revision)
	i.repo.Add(creation)

	if err := i.AddModel(ctx, provmodel.PipelineVersionCreationModel{Creation: creation}); err != nil {
		return domain.PipelineVersion{}, domain.PipelineVersionRevision{}, err
	}

	return version, revision, nil
}

// createBranch forks a new branch off the parent branch's latest revision.
// The fork revision copies the parent revision's member sets and starts the
// branch-local sequence over at the initial revision id.
func (i *Inspector) createBranch(
	ctx context.Context,
	step ingestion.DebugStep,
	stepTime time.Time,
) (domain.PipelineVersion, domain.PipelineVersionRevision, error) {
	var (
		zeroVersion  domain.PipelineVersion
		zeroRevision domain.PipelineVersionRevision
	)

	if step.ParentBranchID == nil {
		return zeroVersion, zeroRevision,
			fmt.Errorf("%w: branch %d names no parent branch", ErrBranchParentMissing, step.BranchID)
	}

	parentVersion, ok := storage.Get[domain.PipelineVersion](i.repo, storage.WithID(*step.ParentBranchID))
	if !ok {
		return zeroVersion, zeroRevision,
			fmt.Errorf("%w: parent branch %d", ErrBranchParentMissing, *step.ParentBranchID)
	}

	parentRevisions := storage.ListAll[domain.PipelineVersionRevision](i.repo,
		storage.WithPipelineVersion(parentVersion.ID))
	if len(parentRevisions) == 0 {
		return zeroVersion, zeroRevision,
			fmt.Errorf("%w: parent branch %d has no revisions", ErrRevisionMissing, parentVersion.ID)
	}

	parentRevision := parentRevisions[len(parentRevisions)-1]

	parentID := parentVersion.ID
	version := domain.PipelineVersion{ID: step.BranchID, ParentID: &parentID}

	revision := domain.PipelineVersionRevision{
		UUID:            i.newID(),
		ID:              i.consts.RevisionID,
		PipelineVersion: version,
		ParentUUID:      parentRevision.UUID,
		Operators:       copyOperators(parentRevision.Operators),
		Connections:     copyConnections(parentRevision.Connections),
	}

	creation := domain.PipelineVersionCreation{
		UUID:     i.newID(),
		Revision: revision,
		Time:     stepTime,
	}

	// The creation that opened the parent branch. Keyed by version because
	// the parent branch may have advanced past its genesis revision.
	var parentCreationRef *domain.PipelineVersionCreation

	parentCreation, ok := storage.Get[domain.PipelineVersionCreation](i.repo,
		storage.WithPipelineVersion(parentVersion.ID))
	if ok {
		creation.ParentUUID = parentCreation.UUID
		parentCreationRef = &parentCreation
	}

	i.repo.Add(version)
	i.repo.Add(revision)
	i.repo.Add(creation)

	model := provmodel.PipelineVersionCreationModel{
		Creation:       creation,
		ParentRevision: &parentRevision,
		ParentCreation: parentCreationRef,
	}
	if err := i.AddModel(ctx, model); err != nil {
		return zeroVersion, zeroRevision, err
	}

	i.logger.Info("branch created",
		slog.Int("branch_id", version.ID),
		slog.Int("parent_branch_id", parentVersion.ID),
	)

	return version, revision, nil
}

// applyChange applies one pipeline change on top of the parent revision and
// returns the revision it produced.
func (i *Inspector) applyChange(
	ctx context.Context,
	change ingestion.PipelineChange,
	parent domain.PipelineVersionRevision,
	stepTime time.Time,
) (domain.PipelineVersionRevision, error) {
	switch change.Type {
	case domain.OperatorCreation:
		return i.applyOperatorCreation(ctx, change, parent, stepTime)
	case domain.OperatorModification:
		return i.applyOperatorModification(ctx, change, parent, stepTime)
	case domain.OperatorDeletion:
		return i.applyOperatorDeletion(ctx, change, parent, stepTime)
	case domain.ConnectionCreation:
		return i.applyConnectionCreation(ctx, change, parent, stepTime)
	case domain.ConnectionDeletion:
		return i.applyConnectionDeletion(ctx, change, parent, stepTime)
	default:
		return domain.PipelineVersionRevision{}, fmt.Errorf("%w: %q", domain.ErrUnknownChangeType, change.Type)
	}
}

func (i *Inspector) applyOperatorCreation(
	ctx context.Context,
	change ingestion.PipelineChange,
	parent domain.PipelineVersionRevision,
	stepTime time.Time,
) (domain.PipelineVersionRevision, error) {
	operator := domain.Operator{ID: change.OperatorID, Name: change.OperatorName}

	operatorRevision := domain.OperatorRevision{
		UUID:       i.newID(),
		ID:         i.consts.OperatorRevisionID,
		Operator:   operator,
		Parameters: parametersFromData(change.OperatorData),
	}

	operators := append(copyOperators(parent.Operators), operatorRevision)
	revision := i.nextRevision(parent, operators, copyConnections(parent.Connections))

	record := domain.PipelineChange{
		UUID:             i.newID(),
		Type:             domain.OperatorCreation,
		Time:             stepTime,
		OperatorRevision: &operatorRevision,
		Revision:         revision,
	}

	parentChange := i.latestChange(parent)
	if parentChange != nil {
		record.ParentUUID = parentChange.UUID
	}

	i.repo.Add(operator)
	i.repo.Add(operatorRevision)
	i.repo.Add(revision)
	i.repo.Add(record)

	model := provmodel.OperatorCreationModel{
		Change:         record,
		ParentChange:   parentChange,
		ParentRevision: &parent,
	}
	if err := i.AddModel(ctx, model); err != nil {
		return domain.PipelineVersionRevision{}, err
	}

	return revision, nil
}

func (i *Inspector) applyOperatorModification(
	ctx context.Context,
	change ingestion.PipelineChange,
	parent domain.PipelineVersionRevision,
	stepTime time.Time,
) (domain.PipelineVersionRevision, error) {
	parentOperatorRevision, ok := lastOperatorRevision(parent.Operators, change.OperatorID)
	if !ok {
		return domain.PipelineVersionRevision{},
			fmt.Errorf("%w: operator %d", ErrOperatorRevisionMissing, change.OperatorID)
	}

	// The edited parameter moves to the end of the parameter list; the rest
	// keep the parent revision's order.
	parameters := make([]domain.Parameter, 0, len(parentOperatorRevision.Parameters)+1)
	for _, p := range parentOperatorRevision.Parameters {
		if p.Name != change.ChangedParameter {
			parameters = append(parameters, p)
		}
	}

	parameters = append(parameters, domain.Parameter{
		Name:  change.ChangedParameter,
		Value: change.ChangedValue,
	})

	operatorRevision := domain.OperatorRevision{
		UUID:       i.newID(),
		ID:         parentOperatorRevision.ID + 1,
		Operator:   domain.Operator{ID: change.OperatorID, Name: change.OperatorName},
		Parameters: parameters,
		ParentUUID: parentOperatorRevision.UUID,
	}

	// The superseded operator revision stays a member; the set only grows.
	operators := append(copyOperators(parent.Operators), operatorRevision)
	revision := i.nextRevision(parent, operators, copyConnections(parent.Connections))

	record := domain.PipelineChange{
		UUID:             i.newID(),
		Type:             domain.OperatorModification,
		Time:             stepTime,
		OperatorRevision: &operatorRevision,
		Revision:         revision,
	}

	parentChange := i.latestChange(parent)
	if parentChange != nil {
		record.ParentUUID = parentChange.UUID
	}

	i.repo.Add(operatorRevision)
	i.repo.Add(revision)
	i.repo.Add(record)

	model := provmodel.OperatorModificationModel{
		Change:                 record,
		ParentChange:           parentChange,
		ParentOperatorRevision: &parentOperatorRevision,
		ParentRevision:         &parent,
	}
	if err := i.AddModel(ctx, model); err != nil {
		return domain.PipelineVersionRevision{}, err
	}

	return revision, nil
}

func (i *Inspector) applyOperatorDeletion(
	ctx context.Context,
	change ingestion.PipelineChange,
	parent domain.PipelineVersionRevision,
	stepTime time.Time,
) (domain.PipelineVersionRevision, error) {
	idx := firstOperatorRevisionIndex(parent.Operators, change.OperatorID)
	if idx < 0 {
		return domain.PipelineVersionRevision{},
			fmt.Errorf("%w: operator %d", ErrOperatorRevisionMissing, change.OperatorID)
	}

	deleted := parent.Operators[idx]

	operators := make([]domain.OperatorRevision, 0, len(parent.Operators)-1)
	operators = append(operators, parent.Operators[:idx]...)
	operators = append(operators, parent.Operators[idx+1:]...)

	revision := i.nextRevision(parent, operators, copyConnections(parent.Connections))

	record := domain.PipelineChange{
		UUID:             i.newID(),
		Type:             domain.OperatorDeletion,
		Time:             stepTime,
		OperatorRevision: &deleted,
		Revision:         revision,
	}

	parentChange := i.latestChange(parent)
	if parentChange != nil {
		record.ParentUUID = parentChange.UUID
	}

	i.repo.Add(revision)
	i.repo.Add(record)

	model := provmodel.OperatorDeletionModel{
		Change:         record,
		ParentChange:   parentChange,
		ParentRevision: &parent,
	}
	if err := i.AddModel(ctx, model); err != nil {
		return domain.PipelineVersionRevision{}, err
	}

	return revision, nil
}

func (i *Inspector) applyConnectionCreation(
	ctx context.Context,
	change ingestion.PipelineChange,
	parent domain.PipelineVersionRevision,
	stepTime time.Time,
) (domain.PipelineVersionRevision, error) {
	connection := domain.Connection{
		ID:             change.ConnectionID,
		FromOperatorID: change.FromOperatorID,
		ToOperatorID:   change.ToOperatorID,
	}

	connections := append(copyConnections(parent.Connections), connection)
	revision := i.nextRevision(parent, copyOperators(parent.Operators), connections)

	record := domain.PipelineChange{
		UUID:       i.newID(),
		Type:       domain.ConnectionCreation,
		Time:       stepTime,
		Connection: &connection,
		Revision:   revision,
	}

	parentChange := i.latestChange(parent)
	if parentChange != nil {
		record.ParentUUID = parentChange.UUID
	}

	i.repo.Add(connection)
	i.repo.Add(revision)
	i.repo.Add(record)

	model := provmodel.ConnectionCreationModel{
		Change:         record,
		ParentChange:   parentChange,
		ParentRevision: &parent,
	}
	if err := i.AddModel(ctx, model); err != nil {
		return domain.PipelineVersionRevision{}, err
	}

	return revision, nil
}

func (i *Inspector) applyConnectionDeletion(
	ctx context.Context,
	change ingestion.PipelineChange,
	parent domain.PipelineVersionRevision,
	stepTime time.Time,
) (domain.PipelineVersionRevision, error) {
	connection := domain.Connection{
		ID:             change.ConnectionID,
		FromOperatorID: change.FromOperatorID,
		ToOperatorID:   change.ToOperatorID,
	}

	// Deletion grows the member set too: the reconstructed connection is
	// appended, never removed.
	connections := append(copyConnections(parent.Connections), connection)
	revision := i.nextRevision(parent, copyOperators(parent.Operators), connections)

	record := domain.PipelineChange{
		UUID:       i.newID(),
		Type:       domain.ConnectionDeletion,
		Time:       stepTime,
		Connection: &connection,
		Revision:   revision,
	}

	parentChange := i.latestChange(parent)
	if parentChange != nil {
		record.ParentUUID = parentChange.UUID
	}

	i.repo.Add(connection)
	i.repo.Add(revision)
	i.repo.Add(record)

	model := provmodel.ConnectionDeletionModel{
		Change:         record,
		ParentChange:   parentChange,
		ParentRevision: &parent,
	}
	if err := i.AddModel(ctx, model); err != nil {
		return domain.PipelineVersionRevision{}, err
	}

	return revision, nil
}

// applyExecution records an operator execution with its metrics. The
// operator is resolved in the revision the step's changes produced (or the
// resolved revision when the step changed nothing).
func (i *Inspector) applyExecution(
	ctx context.Context,
	step ingestion.DebugStep,
	revision domain.PipelineVersionRevision,
	stepTime time.Time,
) error {
	idx := firstOperatorRevisionIndex(revision.Operators, step.OperatorID)
	if idx < 0 {
		return fmt.Errorf("%w: operator %d", ErrOperatorRevisionMissing, step.OperatorID)
	}

	metrics := make([]domain.Metric, 0, len(step.Metrics))
	for _, m := range step.Metrics {
		metrics = append(metrics, domain.Metric{Name: m.Name, Value: m.Value})
	}

	run := domain.OperatorRun{
		ID:        i.newID(),
		CreatedAt: stepTime,
		Metrics:   metrics,
	}

	execution := domain.OperatorExecution{
		UUID:             i.newID(),
		OperatorRevision: revision.Operators[idx],
		Run:              run,
		StepType:         step.StepType,
		Time:             stepTime,
	}

	i.repo.Add(run)
	i.repo.Add(execution)

	return i.AddModel(ctx, provmodel.OperatorExecutionModel{Execution: execution})
}

// nextRevision derives the follow-up revision: sequence id one past the
// parent's, same pipeline version, parent handle set.
func (i *Inspector) nextRevision(
	parent domain.PipelineVersionRevision,
	operators []domain.OperatorRevision,
	connections []domain.Connection,
) domain.PipelineVersionRevision {
	return domain.PipelineVersionRevision{
		UUID:            i.newID(),
		ID:              parent.ID + 1,
		PipelineVersion: parent.PipelineVersion,
		ParentUUID:      parent.UUID,
		Operators:       operators,
		Connections:     connections,
	}
}

// latestChange returns the most recent change whose produced revision is the
// given one, or nil if the revision came from a creation instead.
func (i *Inspector) latestChange(revision domain.PipelineVersionRevision) *domain.PipelineChange {
	changes := storage.ListAll[domain.PipelineChange](i.repo,
		storage.WithPipelineVersionRevision(revision.UUID))
	if len(changes) == 0 {
		return nil
	}

	last := changes[len(changes)-1]

	return &last
}

// parametersFromData flattens an operator's initial parameter map in key
// order, so equal maps always yield the same parameter list.
func parametersFromData(data map[string]any) []domain.Parameter {
	if len(data) == 0 {
		return nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parameters := make([]domain.Parameter, 0, len(keys))
	for _, k := range keys {
		parameters = append(parameters, domain.Parameter{Name: k, Value: data[k]})
	}

	return parameters
}

// lastOperatorRevision finds the newest member revision of the given
// operator.
func lastOperatorRevision(operators []domain.OperatorRevision, operatorID int) (domain.OperatorRevision, bool) {
	for idx := len(operators) - 1; idx >= 0; idx-- {
		if operators[idx].Operator.ID == operatorID {
			return operators[idx], true
		}
	}

	return domain.OperatorRevision{}, false
}

// firstOperatorRevisionIndex finds the oldest member revision of the given
// operator, or -1.
func firstOperatorRevisionIndex(operators []domain.OperatorRevision, operatorID int) int {
	for idx := range operators {
		if operators[idx].Operator.ID == operatorID {
			return idx
		}
	}

	return -1
}

func copyOperators(operators []domain.OperatorRevision) []domain.OperatorRevision {
	if operators == nil {
		return nil
	}

	return append([]domain.OperatorRevision(nil), operators...)
}

func copyConnections(connections []domain.Connection) []domain.Connection {
	if connections == nil {
		return nil
	}

	return append([]domain.Connection(nil), connections...)
}
