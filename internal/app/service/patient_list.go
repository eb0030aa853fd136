package service

import (
	"sort"
	"strings"

	"clinic/internal/domain/model"
)

// Sortable list columns.
const (
	SortByName      = "name"
	SortByAge       = "age"
	SortByGender    = "gender"
	SortByPhone     = "phone"
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"
)

// ListOptions shapes a patient list for display. The zero value sorts by
// creation time, newest first.
type ListOptions struct {
	Query string
	Sort  string
	Desc  bool
}

// DefaultListOptions is what the list page uses when no sort is requested.
func DefaultListOptions() ListOptions {
	return ListOptions{Sort: SortByCreatedAt, Desc: true}
}

// Normalize replaces an unknown sort column with the default ordering.
func (o ListOptions) Normalize() ListOptions {
	o.Query = strings.TrimSpace(o.Query)
	switch o.Sort {
	case SortByName, SortByAge, SortByGender, SortByPhone, SortByCreatedAt, SortByUpdatedAt:
	default:
		o.Sort = SortByCreatedAt
		o.Desc = true
	}
	return o
}

// ApplyListOptions returns a filtered, sorted copy of patients.
func ApplyListOptions(patients []model.Patient, opts ListOptions) []model.Patient {
	opts = opts.Normalize()
	query := strings.ToLower(opts.Query)

	out := make([]model.Patient, 0, len(patients))
	for _, p := range patients {
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		out = append(out, p)
	}

	less := lessFunc(opts.Sort)
	sort.SliceStable(out, func(i, j int) bool {
		if opts.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(column string) func(a, b model.Patient) bool {
	switch column {
	case SortByName:
		return func(a, b model.Patient) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortByAge:
		return func(a, b model.Patient) bool { return a.Age < b.Age }
	case SortByGender:
		return func(a, b model.Patient) bool { return a.Gender < b.Gender }
	case SortByPhone:
		return func(a, b model.Patient) bool { return a.Phone < b.Phone }
	case SortByUpdatedAt:
		return func(a, b model.Patient) bool { return a.UpdatedAt.Before(b.UpdatedAt.Time) }
	default:
		return func(a, b model.Patient) bool { return a.CreatedAt.Before(b.CreatedAt.Time) }
	}
}

// TruncateNotes shortens notes for table cells.
func TruncateNotes(notes string, max int) string {
	r := []rune(notes)
	if max <= 0 || len(r) <= max {
		return notes
	}
	return string(r[:max]) + "..."
}
