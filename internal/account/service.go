package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"cv-builder/internal/assessments"
	"cv-builder/internal/cv"
)

type Service struct {
	CVs         *cv.Service
	Assessments *assessments.Service
}

type ClaimResult struct {
	MigratedCVs         int `json:"migratedCvs"`
	MigratedAssessments int `json:"migratedAssessments"`
}

func NewService(cvs *cv.Service, assessmentSvc *assessments.Service) *Service {
	return &Service{CVs: cvs, Assessments: assessmentSvc}
}

// ClaimGuest moves every CV and assessment owned by the guest identity to the
// signed-in user. Running it twice is a no-op the second time.
func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	if strings.TrimSpace(guestUserID) == "" || strings.TrimSpace(authedUserID) == "" {
		return ClaimResult{}, errors.New("guestUserID and authedUserID are required")
	}
	if s.CVs == nil || s.Assessments == nil {
		return ClaimResult{}, errors.New("account service not configured")
	}

	if cvPG, ok := s.CVs.Repo.(*cv.PGRepo); ok && cvPG != nil && cvPG.DB != nil {
		if _, ok := s.Assessments.Repo.(*assessments.PGRepo); ok {
			return claimWithTx(ctx, cvPG.DB, guestUserID, authedUserID)
		}
	}

	cvCount, err := s.CVs.ClaimGuest(ctx, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	assessmentCount, err := s.Assessments.ClaimGuest(ctx, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{MigratedCVs: cvCount, MigratedAssessments: assessmentCount}, nil
}

func claimWithTx(ctx context.Context, db *sql.DB, guestUserID, authedUserID string) (ClaimResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ClaimResult{}, err
	}
	defer tx.Rollback()

	cvRes, err := tx.ExecContext(ctx, `UPDATE cvs SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	cvCount, _ := cvRes.RowsAffected()

	assessmentRes, err := tx.ExecContext(ctx, `UPDATE assessments SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	assessmentCount, _ := assessmentRes.RowsAffected()

	if _, err := tx.ExecContext(ctx, `UPDATE assessment_submissions SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID); err != nil {
		return ClaimResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{MigratedCVs: int(cvCount), MigratedAssessments: int(assessmentCount)}, nil
}
