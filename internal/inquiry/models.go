package inquiry

import "time"

// Inquiry is one customer contact-form submission tracked through to resolution.
//
// Invariants:
// - Notes is append-only; entries are never edited or removed.
// - Every mutating operation appends at least one note in the same persisted change.
// - Email is stored trimmed and lower-cased.
// - Name, Email, Subject and Message are immutable after creation; the update
//   path only exposes Status, Priority, AssignedTo, FollowUpDate and Tags.
type Inquiry struct {
	ID string `json:"id" db:"id"`

	Name    string `json:"name" db:"name"`
	Email   string `json:"email" db:"email"`
	Phone   string `json:"phone,omitempty" db:"phone"`
	Subject string `json:"subject" db:"subject"`
	Message string `json:"message" db:"message"`

	// Service is the free-text service category the customer asked about.
	Service string `json:"service,omitempty" db:"service"`

	Status   Status   `json:"status" db:"status"`
	Priority Priority `json:"priority" db:"priority"`
	Source   Source   `json:"source" db:"source"`

	AssignedTo string `json:"assignedTo,omitempty" db:"assigned_to"`

	// Response bookkeeping. Recording a response forces Status to completed.
	Response     string     `json:"response,omitempty" db:"response"`
	ResponseDate *time.Time `json:"responseDate,omitempty" db:"response_date"`

	Tags []string `json:"tags" db:"tags"`

	// Notes is the audit trail. Mutate only through AppendNote.
	Notes []Note `json:"notes" db:"notes"`

	FollowUpDate    *time.Time `json:"followUpDate,omitempty" db:"follow_up_date"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty" db:"last_contacted_at"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Note is an immutable, timestamped, attributed audit entry.
type Note struct {
	Note    string    `json:"note" db:"note"`
	AddedBy string    `json:"addedBy" db:"added_by"`
	AddedAt time.Time `json:"addedAt" db:"added_at"`
}

// AppendNote records an audit entry. There is intentionally no way to remove
// or rewrite an entry once appended.
func (i *Inquiry) AppendNote(text, addedBy string, at time.Time) {
	i.Notes = append(i.Notes, Note{Note: text, AddedBy: addedBy, AddedAt: at})
}

// AgeInDays is computed on read and never stored.
func (i *Inquiry) AgeInDays(now time.Time) int {
	if i.CreatedAt.IsZero() || now.Before(i.CreatedAt) {
		return 0
	}
	return int(now.Sub(i.CreatedAt).Hours() / 24)
}

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusClosed     Status = "closed"
)

// ValidStatus reports whether s is a member of the status enum.
// Transitions are unconstrained: any status may follow any other. The single
// hard rule (responding forces completed) lives in Service.Respond.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusInProgress, StatusCompleted, StatusClosed:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

type Source string

const (
	SourceWebsite  Source = "website"
	SourceEmail    Source = "email"
	SourcePhone    Source = "phone"
	SourceSocial   Source = "social"
	SourceReferral Source = "referral"
	SourceOther    Source = "other"
)

func ValidSource(s Source) bool {
	switch s {
	case SourceWebsite, SourceEmail, SourcePhone, SourceSocial, SourceReferral, SourceOther:
		return true
	default:
		return false
	}
}
