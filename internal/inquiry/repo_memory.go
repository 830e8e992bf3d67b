package inquiry

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is a mutex-guarded in-memory repository used by tests and local
// development. It implements the full filter/search/sort/paginate contract so
// service behavior can be exercised without Postgres.
type MemoryRepo struct {
	mu    sync.Mutex
	items map[string]Inquiry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Inquiry)}
}

func (r *MemoryRepo) Insert(ctx context.Context, inq Inquiry) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[inq.ID] = cloneInquiry(inq)
	return nil
}

func (r *MemoryRepo) FindByID(ctx context.Context, id string) (Inquiry, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	inq, ok := r.items[id]
	if !ok {
		return Inquiry{}, ErrNotFound
	}
	return cloneInquiry(inq), nil
}

func (r *MemoryRepo) Find(ctx context.Context, q Query) ([]Inquiry, int, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Inquiry
	for _, inq := range r.items {
		if !matches(inq, q) {
			continue
		}
		matched = append(matched, cloneInquiry(inq))
	}

	sortInquiries(matched, q.SortBy, q.Descending)

	total := len(matched)
	if q.Offset >= total {
		return []Inquiry{}, total, nil
	}
	end := q.Offset + q.Limit
	if q.Limit <= 0 || end > total {
		end = total
	}
	return matched[q.Offset:end], total, nil
}

func (r *MemoryRepo) Replace(ctx context.Context, inq Inquiry) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[inq.ID]; !ok {
		return ErrNotFound
	}
	r.items[inq.ID] = cloneInquiry(inq)
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepo) Stats(ctx context.Context, now time.Time) (Stats, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{
		ByStatus:   make(map[Status]int),
		ByPriority: make(map[Priority]int),
		BySource:   make(map[Source]int),
	}
	var ageSum float64
	for _, inq := range r.items {
		st.Total++
		st.ByStatus[inq.Status]++
		st.ByPriority[inq.Priority]++
		st.BySource[inq.Source]++
		if inq.Response != "" {
			st.Responded++
		}
		ageSum += now.Sub(inq.CreatedAt).Hours() / 24
	}
	if st.Total > 0 {
		st.AverageAgeDays = ageSum / float64(st.Total)
	}
	return st, nil
}

// Len reports the number of stored inquiries. Test helper.
func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func matches(inq Inquiry, q Query) bool {
	if q.Status != "" && string(inq.Status) != q.Status {
		return false
	}
	if q.Priority != "" && string(inq.Priority) != q.Priority {
		return false
	}
	if q.AssignedTo != "" && inq.AssignedTo != q.AssignedTo {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(inq.Name), needle) &&
			!strings.Contains(strings.ToLower(inq.Email), needle) &&
			!strings.Contains(strings.ToLower(inq.Subject), needle) &&
			!strings.Contains(strings.ToLower(inq.Message), needle) {
			return false
		}
	}
	return true
}

func sortInquiries(items []Inquiry, sortBy string, desc bool) {
	less := func(a, b Inquiry) bool {
		switch sortBy {
		case "name":
			return a.Name < b.Name
		case "email":
			return a.Email < b.Email
		case "subject":
			return a.Subject < b.Subject
		case "status":
			return a.Status < b.Status
		case "priority":
			return a.Priority < b.Priority
		case "updatedAt":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "lastContactedAt":
			return timePtrBefore(a.LastContactedAt, b.LastContactedAt)
		case "followUpDate":
			return timePtrBefore(a.FollowUpDate, b.FollowUpDate)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func timePtrBefore(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.Before(*b)
}

func cloneInquiry(inq Inquiry) Inquiry {
	out := inq
	out.Tags = append(inq.Tags[:0:0], inq.Tags...)
	out.Notes = append(inq.Notes[:0:0], inq.Notes...)
	return out
}
