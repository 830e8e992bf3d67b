package inquiry

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeNotifier struct {
	err   error
	sent  []Inquiry
	texts []string
}

func (f *fakeNotifier) SendResponse(ctx context.Context, inq Inquiry, text string) error {
	_ = ctx
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, inq)
	f.texts = append(f.texts, text)
	return nil
}

func newTestService(t *testing.T, notifier Notifier) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	svc := NewService(repo, notifier)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return base }
	return svc, repo
}

func TestCreate_NormalizesAndDefaults(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	inq, err := svc.Create(context.Background(), CreateRequest{
		Name:    "  John  ",
		Email:   "JOHN@X.COM",
		Subject: "Hi",
		Message: "Test message",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if inq.Email != "john@x.com" {
		t.Fatalf("expected normalized email, got %q", inq.Email)
	}
	if inq.Name != "John" {
		t.Fatalf("expected trimmed name, got %q", inq.Name)
	}
	if inq.Status != StatusNew {
		t.Fatalf("expected status new, got %q", inq.Status)
	}
	if inq.Priority != PriorityMedium {
		t.Fatalf("expected default priority medium, got %q", inq.Priority)
	}
	if inq.Source != SourceWebsite {
		t.Fatalf("expected default source website, got %q", inq.Source)
	}
	if len(inq.Notes) != 1 {
		t.Fatalf("expected exactly one note, got %d", len(inq.Notes))
	}
	if inq.Notes[0].AddedBy != "system" {
		t.Fatalf("expected system note, got %q", inq.Notes[0].AddedBy)
	}
	if _, err := uuid.Parse(inq.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", inq.ID)
	}
}

func TestCreate_MissingRequiredFieldsPersistsNothing(t *testing.T) {
	svc, repo := newTestService(t, &fakeNotifier{})

	cases := []CreateRequest{
		{Email: "a@b.co", Subject: "s", Message: "m"},
		{Name: "n", Subject: "s", Message: "m"},
		{Name: "n", Email: "a@b.co", Message: "m"},
		{Name: "n", Email: "a@b.co", Subject: "s"},
		{Name: "   ", Email: "a@b.co", Subject: "s", Message: "m"},
	}
	for i, req := range cases {
		if _, err := svc.Create(context.Background(), req); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		} else {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("case %d: expected ValidationError, got %v", i, err)
			}
		}
	}
	if repo.Len() != 0 {
		t.Fatalf("expected no records persisted, got %d", repo.Len())
	}
}

func TestCreate_EmailShape(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	if _, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "not-an-email", Subject: "s", Message: "m",
	}); err == nil {
		t.Fatalf("expected invalid email error")
	} else if got := err.Error(); got != "invalid email format" {
		t.Fatalf("expected email format message, got %q", got)
	}

	if _, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m",
	}); err != nil {
		t.Fatalf("a@b.co should be accepted: %v", err)
	}

	if _, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a b@c.co", Subject: "s", Message: "m",
	}); err == nil {
		t.Fatalf("embedded whitespace should be rejected")
	}
}

func TestCreate_RejectsUnknownEnumValues(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	if _, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m", Priority: "extreme",
	}); err == nil {
		t.Fatalf("expected invalid priority error")
	}
	if _, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m", Source: "carrier-pigeon",
	}); err == nil {
		t.Fatalf("expected invalid source error")
	}
}

func TestGet_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	created, err := svc.Create(context.Background(), CreateRequest{
		Name: "Jane", Email: "jane@x.com", Phone: "+1 555 0100",
		Subject: "Branding", Message: "Branding services inquiry",
		Service: "branding", Priority: PriorityHigh, Source: SourceReferral,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(created, got) {
		t.Fatalf("round trip mismatch:\ncreated %+v\ngot     %+v", created, got)
	}
}

func TestGet_Errors(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := svc.Get(context.Background(), uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_AppliesFieldsAndAppendsOneNote(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	created, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	status := StatusInProgress
	priority := PriorityUrgent
	updated, err := svc.Update(context.Background(), created.ID, UpdateRequest{
		Status:   &status,
		Priority: &priority,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Status != StatusInProgress {
		t.Fatalf("expected in-progress, got %q", updated.Status)
	}
	if updated.Priority != PriorityUrgent {
		t.Fatalf("expected urgent, got %q", updated.Priority)
	}
	if len(updated.Notes) != len(created.Notes)+1 {
		t.Fatalf("expected exactly one new note, had %d now %d", len(created.Notes), len(updated.Notes))
	}
	last := updated.Notes[len(updated.Notes)-1]
	if last.Note != "Updated: status, priority" {
		t.Fatalf("unexpected note text %q", last.Note)
	}
	if last.AddedBy != "admin" {
		t.Fatalf("expected default attribution admin, got %q", last.AddedBy)
	}
	if updated.LastContactedAt == nil {
		t.Fatalf("expected lastContactedAt set")
	}
}

func TestUpdate_ZeroRecognizedFieldsIsNoOp(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	created, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Update(context.Background(), created.ID, UpdateRequest{UpdatedBy: "someone"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !reflect.DeepEqual(created, got) {
		t.Fatalf("no-op update must leave record unchanged:\nbefore %+v\nafter  %+v", created, got)
	}
	if got.LastContactedAt != nil {
		t.Fatalf("no-op update must not touch lastContactedAt")
	}
}

func TestUpdate_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	created, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bad := Status("archived")
	if _, err := svc.Update(context.Background(), created.ID, UpdateRequest{Status: &bad}); err == nil {
		t.Fatalf("expected validation error for unknown status")
	}
}

func TestUpdate_ClosedReachableFromCompleted(t *testing.T) {
	// Transitions are deliberately unconstrained, including completed -> closed
	// and closed -> new.
	svc, _ := newTestService(t, &fakeNotifier{})

	created, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, next := range []Status{StatusCompleted, StatusClosed, StatusNew} {
		st := next
		got, err := svc.Update(context.Background(), created.ID, UpdateRequest{Status: &st})
		if err != nil {
			t.Fatalf("transition to %q: %v", next, err)
		}
		if got.Status != next {
			t.Fatalf("expected %q, got %q", next, got.Status)
		}
	}
}

func TestRespond_ForcesCompletedAndNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, _ := newTestService(t, notifier)

	created, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.Respond(context.Background(), created.ID, RespondRequest{
		Response:    "  We will help  ",
		RespondedBy: "alice",
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if res.EmailError {
		t.Fatalf("expected email success")
	}

	inq := res.Inquiry
	if inq.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", inq.Status)
	}
	if inq.Response != "We will help" {
		t.Fatalf("expected trimmed response, got %q", inq.Response)
	}
	if inq.ResponseDate == nil || inq.LastContactedAt == nil {
		t.Fatalf("expected responseDate and lastContactedAt set")
	}
	// create note + response note + email outcome note
	if len(inq.Notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(inq.Notes))
	}
	if inq.Notes[1].Note != "Response sent by alice" {
		t.Fatalf("unexpected response note %q", inq.Notes[1].Note)
	}
	if inq.Notes[2].Note != "Response email sent successfully" {
		t.Fatalf("unexpected outcome note %q", inq.Notes[2].Note)
	}
	if len(notifier.texts) != 1 || notifier.texts[0] != "We will help" {
		t.Fatalf("expected notifier called with trimmed text, got %v", notifier.texts)
	}
}

func TestRespond_EmailFailureStillRecordsResponse(t *testing.T) {
	svc, repo := newTestService(t, &fakeNotifier{err: errors.New("smtp down")})

	created, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.Respond(context.Background(), created.ID, RespondRequest{Response: "We will help"})
	if err != nil {
		t.Fatalf("respond must not fail on email error: %v", err)
	}
	if !res.EmailError {
		t.Fatalf("expected emailError flag")
	}

	stored, err := repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != StatusCompleted {
		t.Fatalf("expected completed regardless of email outcome, got %q", stored.Status)
	}
	if stored.Response != "We will help" {
		t.Fatalf("expected response recorded, got %q", stored.Response)
	}
	last := stored.Notes[len(stored.Notes)-1]
	if last.Note != "Failed to send response email - manual follow-up required" {
		t.Fatalf("unexpected failure note %q", last.Note)
	}
	if last.AddedBy != "system" {
		t.Fatalf("failure note must be attributed to system, got %q", last.AddedBy)
	}
}

func TestRespond_EmptyTextRejectedBeforePersistence(t *testing.T) {
	svc, repo := newTestService(t, &fakeNotifier{})

	created, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Respond(context.Background(), created.ID, RespondRequest{Response: "   "}); err == nil {
		t.Fatalf("expected validation error for blank response")
	}

	stored, _ := repo.FindByID(context.Background(), created.ID)
	if stored.Status != StatusNew || len(stored.Notes) != 1 {
		t.Fatalf("rejected respond must not mutate record: %+v", stored)
	}
}

func TestNotes_MonotoneAcrossMutations(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	inq, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	prev := len(inq.Notes)

	status := StatusInProgress
	inq, err = svc.Update(context.Background(), inq.ID, UpdateRequest{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(inq.Notes) <= prev {
		t.Fatalf("notes must strictly grow on update")
	}
	prev = len(inq.Notes)

	res, err := svc.Respond(context.Background(), inq.ID, RespondRequest{Response: "done"})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if len(res.Inquiry.Notes) <= prev {
		t.Fatalf("notes must strictly grow on respond")
	}
}

func TestDelete(t *testing.T) {
	svc, repo := newTestService(t, &fakeNotifier{})

	created, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), "bad-id"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if err := svc.Delete(context.Background(), uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if repo.Len() != 1 {
		t.Fatalf("failed deletes must not change the store")
	}

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if repo.Len() != 0 {
		t.Fatalf("expected empty store after delete")
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted record must be gone, got %v", err)
	}
}

func TestList_SearchMatchesSubstringsCaseInsensitively(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	seed := []CreateRequest{
		{Name: "Acme", Email: "acme@x.com", Subject: "Web", Message: "Branding services inquiry"},
		{Name: "Beta", Email: "beta@x.com", Subject: "SEO", Message: "Need help with search"},
		{Name: "Gamma", Email: "gamma@x.com", Subject: "Rebranding push", Message: "other"},
	}
	for _, req := range seed {
		if _, err := svc.Create(context.Background(), req); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	res, err := svc.List(context.Background(), ListRequest{Search: "branding"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Pagination.Total != 2 {
		t.Fatalf("expected 2 matches across message and subject, got %d", res.Pagination.Total)
	}
}

func TestList_FiltersCombineWithAnd(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	a, _ := svc.Create(context.Background(), CreateRequest{Name: "a", Email: "a@x.co", Subject: "s", Message: "m", Priority: PriorityHigh})
	if _, err := svc.Create(context.Background(), CreateRequest{Name: "b", Email: "b@x.co", Subject: "s", Message: "m", Priority: PriorityHigh}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	status := StatusInProgress
	if _, err := svc.Update(context.Background(), a.ID, UpdateRequest{Status: &status}); err != nil {
		t.Fatalf("update: %v", err)
	}

	res, err := svc.List(context.Background(), ListRequest{Status: "in-progress", Priority: "high"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Pagination.Total != 1 || res.Inquiries[0].ID != a.ID {
		t.Fatalf("expected only the in-progress high record, got %+v", res.Pagination)
	}

	// "all" sentinel disables a filter
	res, err = svc.List(context.Background(), ListRequest{Status: "all", Priority: "high"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Pagination.Total != 2 {
		t.Fatalf(`expected "all" to disable the status filter, got %d`, res.Pagination.Total)
	}
}

func TestList_PaginationMetadata(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	for i := 0; i < 5; i++ {
		if _, err := svc.Create(context.Background(), CreateRequest{
			Name: "n", Email: "a@b.co", Subject: "s", Message: "m",
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	res, err := svc.List(context.Background(), ListRequest{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	p := res.Pagination
	if p.Page != 2 || p.Limit != 2 || p.Total != 5 || p.Pages != 3 {
		t.Fatalf("unexpected pagination %+v", p)
	}
	if !p.HasNext || !p.HasPrev {
		t.Fatalf("page 2 of 3 must have next and prev: %+v", p)
	}
	if len(res.Inquiries) != 2 {
		t.Fatalf("expected 2 items on page 2, got %d", len(res.Inquiries))
	}

	res, err = svc.List(context.Background(), ListRequest{Page: 3, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Pagination.HasNext || len(res.Inquiries) != 1 {
		t.Fatalf("last page should carry the remainder: %+v", res.Pagination)
	}
}

func TestList_DoesNotMutate(t *testing.T) {
	svc, repo := newTestService(t, &fakeNotifier{})

	created, err := svc.Create(context.Background(), CreateRequest{
		Name: "n", Email: "a@b.co", Subject: "s", Message: "m",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.List(context.Background(), ListRequest{Search: "anything"}); err != nil {
		t.Fatalf("list: %v", err)
	}

	stored, _ := repo.FindByID(context.Background(), created.ID)
	if !reflect.DeepEqual(created, stored) {
		t.Fatalf("list must be read-only")
	}
}

func TestSummary(t *testing.T) {
	svc, _ := newTestService(t, &fakeNotifier{})

	a, _ := svc.Create(context.Background(), CreateRequest{Name: "a", Email: "a@x.co", Subject: "s", Message: "m", Priority: PriorityHigh})
	if _, err := svc.Create(context.Background(), CreateRequest{Name: "b", Email: "b@x.co", Subject: "s", Message: "m", Source: SourceReferral}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Respond(context.Background(), a.ID, RespondRequest{Response: "done"}); err != nil {
		t.Fatalf("respond: %v", err)
	}

	stats, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if stats.Total != 2 {
		t.Fatalf("expected total 2, got %d", stats.Total)
	}
	if stats.Responded != 1 {
		t.Fatalf("expected 1 responded, got %d", stats.Responded)
	}
	if stats.ByStatus[StatusCompleted] != 1 || stats.ByStatus[StatusNew] != 1 {
		t.Fatalf("unexpected status counts %+v", stats.ByStatus)
	}
	if stats.ByPriority[PriorityHigh] != 1 || stats.ByPriority[PriorityMedium] != 1 {
		t.Fatalf("unexpected priority counts %+v", stats.ByPriority)
	}
	if stats.BySource[SourceReferral] != 1 {
		t.Fatalf("unexpected source counts %+v", stats.BySource)
	}
}

func TestAgeInDays(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inq := Inquiry{CreatedAt: created}

	if got := inq.AgeInDays(created.Add(23 * time.Hour)); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := inq.AgeInDays(created.Add(25 * time.Hour)); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := inq.AgeInDays(created.Add(10 * 24 * time.Hour)); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
}
