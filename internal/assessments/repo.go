package assessments

import "context"

// Repo persists assessments and their submissions. Every read and write is
// scoped by the owning user.
type Repo interface {
	Create(ctx context.Context, a Assessment) error
	// Get returns the assessment with its answer key and submissions.
	Get(ctx context.Context, userID, id string) (Assessment, error)
	// ListByUser returns the user's assessments, newest first.
	ListByUser(ctx context.Context, userID string) ([]Assessment, error)
	AddSubmission(ctx context.Context, userID, assessmentID string, sub Submission) error
	// LatestResult returns the submission with the greatest evaluation time
	// across all of the user's assessments.
	LatestResult(ctx context.Context, userID string) (LatestResult, error)
	// Reassign moves every assessment of fromUserID to toUserID.
	Reassign(ctx context.Context, fromUserID, toUserID string) (int, error)
}
