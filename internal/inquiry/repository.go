package inquiry

import (
	"context"
	"time"
)

// Query is the normalized list filter handed to repositories. The service is
// responsible for resolving "all" sentinels, sort fallbacks and pagination
// bounds before a Query reaches a repository.
type Query struct {
	Status     string
	Priority   string
	AssignedTo string

	// Search is matched case-insensitively as a substring of name, email,
	// subject or message.
	Search string

	SortBy     string
	Descending bool

	Offset int
	Limit  int
}

// Stats is the aggregate view used by the admin dashboard.
type Stats struct {
	Total      int              `json:"total"`
	ByStatus   map[Status]int   `json:"byStatus"`
	ByPriority map[Priority]int `json:"byPriority"`
	BySource   map[Source]int   `json:"bySource"`

	// Responded counts inquiries with a recorded response.
	Responded int `json:"responded"`

	// AverageAgeDays is the mean age of all inquiries at the time of the call.
	AverageAgeDays float64 `json:"averageAgeDays"`
}

// Repository is the persistence contract for inquiries.
//
// Implementations must return ErrNotFound from FindByID, Replace and Delete
// when the id does not resolve. Replace is a full-document overwrite; the
// service layer owns the last-writer-wins semantics.
type Repository interface {
	Insert(ctx context.Context, inq Inquiry) error
	FindByID(ctx context.Context, id string) (Inquiry, error)
	Find(ctx context.Context, q Query) ([]Inquiry, int, error)
	Replace(ctx context.Context, inq Inquiry) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, now time.Time) (Stats, error)
}
