package inquiry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("inquiry not found")
	ErrInvalidID = errors.New("invalid inquiry id")
)

// ValidationError is malformed input: missing required field, bad email shape,
// empty response text. Always surfaced to the caller as 4xx, never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErr(msg string) error { return &ValidationError{Msg: msg} }

// Notifier sends the response email for a resolved inquiry.
// Failures are recorded as audit notes and never propagate to the caller.
type Notifier interface {
	SendResponse(ctx context.Context, inq Inquiry, responseText string) error
}

// Service owns the inquiry lifecycle: creation, queries, the general update
// path, the respond operation and deletion.
//
// Contract:
// - Validation is rejected before any persistence attempt.
// - Every state change appends at least one note in the same persisted write.
// - Updates are full-document overwrites; last writer wins.
type Service struct {
	repo     Repository
	notifier Notifier
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier, clock: time.Now}
}

// Matches the shape local@domain.tld with no embedded whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type CreateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Service string `json:"service"`

	// Priority and Source are optional; defaults are medium and website.
	Priority Priority `json:"priority"`
	Source   Source   `json:"source"`
}

// Create validates and persists a new inquiry in the new state with a single
// system note. No notification is sent on creation.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Inquiry, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)

	if name == "" || email == "" || subject == "" || message == "" {
		return Inquiry{}, validationErr("name, email, subject, and message are required")
	}
	if !emailPattern.MatchString(email) {
		return Inquiry{}, validationErr("invalid email format")
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !ValidPriority(priority) {
		return Inquiry{}, validationErr(fmt.Sprintf("invalid priority %q", priority))
	}
	source := req.Source
	if source == "" {
		source = SourceWebsite
	}
	if !ValidSource(source) {
		return Inquiry{}, validationErr(fmt.Sprintf("invalid source %q", source))
	}

	now := s.clock().UTC()
	inq := Inquiry{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		Subject:   subject,
		Message:   message,
		Service:   strings.TrimSpace(req.Service),
		Status:    StatusNew,
		Priority:  priority,
		Source:    source,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	inq.AppendNote("Inquiry created from website contact form", "system", now)

	if err := s.repo.Insert(ctx, inq); err != nil {
		return Inquiry{}, fmt.Errorf("insert inquiry: %w", err)
	}
	return inq, nil
}

// Get returns a single inquiry by id.
func (s *Service) Get(ctx context.Context, id string) (Inquiry, error) {
	if err := checkID(id); err != nil {
		return Inquiry{}, err
	}
	return s.repo.FindByID(ctx, id)
}

type ListRequest struct {
	// Filters. Empty or "all" means no filter; filters combine with AND.
	Status     string
	Priority   string
	AssignedTo string

	// Search matches case-insensitively as a substring against name, email,
	// subject or message.
	Search string

	Page  int
	Limit int

	SortBy    string
	SortOrder string
}

type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

type ListResult struct {
	Inquiries  []Inquiry
	Pagination Pagination
}

// Fields the list operation may sort on. Unknown fields fall back to createdAt.
var sortableFields = map[string]struct{}{
	"createdAt":       {},
	"updatedAt":       {},
	"name":            {},
	"email":           {},
	"subject":         {},
	"status":          {},
	"priority":        {},
	"lastContactedAt": {},
	"followUpDate":    {},
}

// List is read-only; it never mutates notes or any other field.
func (s *Service) List(ctx context.Context, req ListRequest) (ListResult, error) {
	q := Query{
		Status:     filterValue(req.Status),
		Priority:   filterValue(req.Priority),
		AssignedTo: filterValue(req.AssignedTo),
		Search:     strings.TrimSpace(req.Search),
		SortBy:     req.SortBy,
		Descending: req.SortOrder != "asc",
	}
	if _, ok := sortableFields[q.SortBy]; !ok {
		q.SortBy = "createdAt"
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 50
	}
	q.Offset = (page - 1) * limit
	q.Limit = limit

	items, total, err := s.repo.Find(ctx, q)
	if err != nil {
		return ListResult{}, fmt.Errorf("find inquiries: %w", err)
	}

	pages := (total + limit - 1) / limit
	return ListResult{
		Inquiries: items,
		Pagination: Pagination{
			Page:    page,
			Limit:   limit,
			Total:   total,
			Pages:   pages,
			HasNext: page*limit < total,
			HasPrev: page > 1,
		},
	}, nil
}

type UpdateRequest struct {
	Status       *Status    `json:"status"`
	Priority     *Priority  `json:"priority"`
	AssignedTo   *string    `json:"assignedTo"`
	FollowUpDate *time.Time `json:"followUpDate"`
	Tags         []string   `json:"tags"`

	UpdatedBy string `json:"updatedBy"`
}

// Update applies the recognized mutable fields and appends one note naming
// them. A request carrying zero recognized fields is a no-op: the record is
// returned unchanged with no note appended.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Inquiry, error) {
	if err := checkID(id); err != nil {
		return Inquiry{}, err
	}

	if req.Status != nil && !ValidStatus(*req.Status) {
		return Inquiry{}, validationErr(fmt.Sprintf("invalid status %q", *req.Status))
	}
	if req.Priority != nil && !ValidPriority(*req.Priority) {
		return Inquiry{}, validationErr(fmt.Sprintf("invalid priority %q", *req.Priority))
	}

	inq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Inquiry{}, err
	}

	var changed []string
	if req.Status != nil {
		inq.Status = *req.Status
		changed = append(changed, "status")
	}
	if req.Priority != nil {
		inq.Priority = *req.Priority
		changed = append(changed, "priority")
	}
	if req.AssignedTo != nil {
		inq.AssignedTo = strings.TrimSpace(*req.AssignedTo)
		changed = append(changed, "assignedTo")
	}
	if req.FollowUpDate != nil {
		d := req.FollowUpDate.UTC()
		inq.FollowUpDate = &d
		changed = append(changed, "followUpDate")
	}
	if req.Tags != nil {
		inq.Tags = req.Tags
		changed = append(changed, "tags")
	}

	if len(changed) == 0 {
		return inq, nil
	}

	now := s.clock().UTC()
	updatedBy := req.UpdatedBy
	if updatedBy == "" {
		updatedBy = "admin"
	}
	inq.AppendNote("Updated: "+strings.Join(changed, ", "), updatedBy, now)
	inq.LastContactedAt = &now
	inq.UpdatedAt = now

	if err := s.repo.Replace(ctx, inq); err != nil {
		return Inquiry{}, fmt.Errorf("update inquiry: %w", err)
	}
	return inq, nil
}

type RespondRequest struct {
	Response    string `json:"response"`
	RespondedBy string `json:"respondedBy"`
}

type RespondResult struct {
	Inquiry Inquiry

	// EmailError reports that the response was recorded but the notification
	// email could not be delivered. The caller should arrange manual follow-up.
	EmailError bool
}

// Respond records a human reply, forces status to completed and then attempts
// a notification email. The response state is committed before the email is
// attempted and is never rolled back when delivery fails; the email outcome is
// captured as a second audit note.
func (s *Service) Respond(ctx context.Context, id string, req RespondRequest) (RespondResult, error) {
	if err := checkID(id); err != nil {
		return RespondResult{}, err
	}
	text := strings.TrimSpace(req.Response)
	if text == "" {
		return RespondResult{}, validationErr("response text is required")
	}
	respondedBy := req.RespondedBy
	if respondedBy == "" {
		respondedBy = "admin"
	}

	inq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return RespondResult{}, err
	}

	now := s.clock().UTC()
	inq.Response = text
	inq.ResponseDate = &now
	inq.Status = StatusCompleted
	inq.LastContactedAt = &now
	inq.UpdatedAt = now
	inq.AppendNote("Response sent by "+respondedBy, respondedBy, now)

	if err := s.repo.Replace(ctx, inq); err != nil {
		return RespondResult{}, fmt.Errorf("record response: %w", err)
	}

	sendErr := s.sendResponseEmail(ctx, inq, text)

	// The outcome note is advisory; a crash between the two writes leaves the
	// response recorded without its email note, which is acceptable.
	noteAt := s.clock().UTC()
	if sendErr != nil {
		inq.AppendNote("Failed to send response email - manual follow-up required", "system", noteAt)
	} else {
		inq.AppendNote("Response email sent successfully", respondedBy, noteAt)
	}
	inq.UpdatedAt = noteAt
	if err := s.repo.Replace(ctx, inq); err != nil {
		return RespondResult{}, fmt.Errorf("record email outcome: %w", err)
	}

	return RespondResult{Inquiry: inq, EmailError: sendErr != nil}, nil
}

func (s *Service) sendResponseEmail(ctx context.Context, inq Inquiry, text string) error {
	if s.notifier == nil {
		return errors.New("notifier not configured")
	}
	return s.notifier.SendResponse(ctx, inq, text)
}

// Delete performs an unconditional, unrecoverable removal. No tombstone.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Summary aggregates inquiry counts for the admin dashboard.
func (s *Service) Summary(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx, s.clock().UTC())
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

func filterValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "all" {
		return ""
	}
	return v
}
