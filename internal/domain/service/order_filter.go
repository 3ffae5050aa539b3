package service

import (
	"sort"
	"strings"
	"time"

	"rikoadmin/internal/domain/entity"
)

// AllStates disables the state filter.
const AllStates = "Todos"

// OrderFilter narrows the order board. Zero values match everything.
type OrderFilter struct {
	State    entity.OrderStatus
	Search   string
	Client   string
	Date     string // YYYY-MM-DD, compared in UTC
	MinTotal *float64
	MaxTotal *float64
}

func (f OrderFilter) Match(o *entity.Order) bool {
	if f.State != "" && f.State != AllStates && DisplayState(o) != f.State {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(o.Client.Name), q) &&
			!strings.Contains(strings.ToLower(o.Client.LastName), q) &&
			!strings.Contains(strings.ToLower(o.ID), q) {
			return false
		}
	}
	if f.Client != "" && f.Client != AllStates && o.Client.FullName() != f.Client {
		return false
	}
	if f.Date != "" && (o.CreatedAt.IsZero() || o.CreatedAt.UTC().Format(time.DateOnly) != f.Date) {
		return false
	}
	if f.MinTotal != nil && o.Total < *f.MinTotal {
		return false
	}
	if f.MaxTotal != nil && o.Total > *f.MaxTotal {
		return false
	}
	return true
}

// Apply returns the matching orders sorted by display priority.
func (f OrderFilter) Apply(orders []*entity.Order) []*entity.Order {
	out := make([]*entity.Order, 0, len(orders))
	for _, o := range orders {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	SortByPriority(out)
	return out
}

// ClientLabels lists the distinct client names on the board, sorted.
func ClientLabels(orders []*entity.Order) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, o := range orders {
		name := o.Client.FullName()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		labels = append(labels, name)
	}
	sort.Strings(labels)
	return labels
}

// InDateRange keeps orders created within [from, to]. A zero bound is open.
func InDateRange(orders []*entity.Order, from, to time.Time) []*entity.Order {
	if from.IsZero() && to.IsZero() {
		return orders
	}
	out := make([]*entity.Order, 0, len(orders))
	for _, o := range orders {
		if !from.IsZero() && o.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && o.CreatedAt.After(to) {
			continue
		}
		out = append(out, o)
	}
	return out
}
