package cv

import (
	"time"

	"cv-builder/resume/model"
)

// Record is a stored CV owned by one user.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Document  model.CV  `json:"document"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is the list view of a CV.
type Summary struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	FullName    string         `json:"fullName"`
	JobPosition string         `json:"jobPosition"`
	Template    model.Template `json:"template"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (r Record) Summarize() Summary {
	return Summary{
		ID:          r.ID,
		Title:       r.Document.Title,
		FullName:    r.Document.FullName(),
		JobPosition: r.Document.PersonalInfo.JobPosition,
		Template:    r.Document.Template,
		UpdatedAt:   r.UpdatedAt,
	}
}
