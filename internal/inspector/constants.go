package inspector

import "time"

// Constants seeds the identifiers and timestamp used for genesis records:
// the first pipeline version, its first revision, the first revision of
// every operator created at initialization, and the canonical creation time
// of a pipeline initialized before any debug step arrived.
type Constants struct {
	PipelineVersionID  int
	RevisionID         int
	OperatorRevisionID int
	Time               time.Time
}

// DefaultConstants returns the canonical seeds: all ids zero, creation time
// at the unix epoch.
func DefaultConstants() Constants {
	return Constants{Time: time.Unix(0, 0)}
}
