// Package listing computes the paginated, role-visible set of repairs for a
// request. Column-level filters are pushed down to the store; filters that
// target data embedded in the phases document (repair type, technician
// attribution) are applied in memory over a capped, pre-sorted fetch.
package listing

import (
	"context"
	"fmt"

	"repairtrack-backend/internal/models"
)

// InMemoryFetchCap bounds how many role- and column-filtered rows the
// in-memory path will pull before applying phase-document predicates.
const InMemoryFetchCap = 10000

const DefaultLimit = 20

// RepairFilters are the caller-supplied filter criteria. Nil pointer fields
// and empty strings/slices mean "no filter".
type RepairFilters struct {
	ProjectID     *int64
	Status        string
	ElevationName string
	Drop          *int
	Level         *int
	RepairTypes   []string
	TechnicianID  *int64
}

// PageRequest is the pagination and ordering part of a list call.
type PageRequest struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// RepairQuery is the store-level query the engine builds: role scope,
// column predicates, ordering and an optional offset/limit window.
// A nil ProjectIDs means no role restriction.
type RepairQuery struct {
	ProjectIDs    []int64
	ProjectID     *int64
	Status        string
	ElevationName string
	Drop          *int
	Level         *int
	SortBy        string
	SortOrder     string
	Offset        int
	Limit         int
}

// RepairStore runs a query against the backing store and returns the rows
// plus the exact total count for the predicate (ignoring offset/limit).
type RepairStore interface {
	QueryRepairs(ctx context.Context, q RepairQuery) ([]models.Repair, int, error)
}

// ProjectLookup resolves which projects a caller may see.
type ProjectLookup interface {
	ProjectIDsByClient(ctx context.Context, clientID int64) ([]int64, error)
	ProjectIDsByTechnician(ctx context.Context, technicianID int64) ([]int64, error)
}

type Result struct {
	Repairs    []models.Repair
	Pagination models.Pagination
}

type Engine struct {
	repairs  RepairStore
	projects ProjectLookup
}

func NewEngine(repairs RepairStore, projects ProjectLookup) *Engine {
	return &Engine{repairs: repairs, projects: projects}
}

var sortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"id":         true,
	"status":     true,
	"project":    true,
}

// ListRepairs returns the page of repairs visible to caller under filters.
// A caller whose role-scoped project set is empty gets an explicit empty
// page without any repair query being issued.
func (e *Engine) ListRepairs(ctx context.Context, caller models.Caller, f RepairFilters, pr PageRequest) (Result, error) {
	pr = normalize(pr)

	scope, restricted, err := e.roleScope(ctx, caller)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve visible projects: %w", err)
	}
	if restricted && len(scope) == 0 {
		return emptyResult(pr), nil
	}

	// A project filter inside a restricted scope narrows to that single
	// project, or to nothing if the caller cannot see it.
	if restricted && f.ProjectID != nil {
		if !contains(scope, *f.ProjectID) {
			return emptyResult(pr), nil
		}
		scope = []int64{*f.ProjectID}
	}

	q := RepairQuery{
		ProjectID:     f.ProjectID,
		Status:        f.Status,
		ElevationName: f.ElevationName,
		Drop:          f.Drop,
		Level:         f.Level,
		SortBy:        pr.SortBy,
		SortOrder:     pr.SortOrder,
	}
	if restricted {
		q.ProjectIDs = scope
		q.ProjectID = nil
	}

	if len(f.RepairTypes) > 0 || f.TechnicianID != nil {
		return e.listInMemory(ctx, q, f, pr)
	}
	return e.listBackend(ctx, q, pr)
}

// listBackend pushes pagination to the store and trusts its exact count.
func (e *Engine) listBackend(ctx context.Context, q RepairQuery, pr PageRequest) (Result, error) {
	q.Offset = (pr.Page - 1) * pr.Limit
	q.Limit = pr.Limit

	rows, total, err := e.repairs.QueryRepairs(ctx, q)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch repairs: %w", err)
	}
	if rows == nil {
		rows = []models.Repair{}
	}
	return Result{Repairs: rows, Pagination: paginate(total, pr)}, nil
}

// listInMemory fetches up to InMemoryFetchCap pre-sorted rows, applies the
// phase-document predicates, then paginates the filtered slice. The total
// reported is the filtered count, not the store count, and the order is the
// store order with non-matching rows removed.
func (e *Engine) listInMemory(ctx context.Context, q RepairQuery, f RepairFilters, pr PageRequest) (Result, error) {
	q.Offset = 0
	q.Limit = InMemoryFetchCap

	rows, _, err := e.repairs.QueryRepairs(ctx, q)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch repairs: %w", err)
	}

	filtered := make([]models.Repair, 0, len(rows))
	for _, r := range rows {
		if len(f.RepairTypes) > 0 && !MatchesRepairTypes(&r, f.RepairTypes) {
			continue
		}
		if f.TechnicianID != nil && !MatchesTechnician(&r, *f.TechnicianID) {
			continue
		}
		filtered = append(filtered, r)
	}

	total := len(filtered)
	start := (pr.Page - 1) * pr.Limit
	if start > total {
		start = total
	}
	end := start + pr.Limit
	if end > total {
		end = total
	}

	return Result{Repairs: filtered[start:end], Pagination: paginate(total, pr)}, nil
}

// MatchesRepairTypes reports whether the repair's surveyed type, or any of
// its progress entries' types, is in the requested set.
func MatchesRepairTypes(r *models.Repair, types []string) bool {
	in := func(t string) bool {
		if t == "" {
			return false
		}
		for _, want := range types {
			if t == want {
				return true
			}
		}
		return false
	}
	if r.Phases.Survey != nil && in(r.Phases.Survey.RepairType) {
		return true
	}
	for _, p := range r.Phases.Progress {
		if p != nil && in(p.RepairType) {
			return true
		}
	}
	return false
}

// MatchesTechnician reports whether the technician authored any phase of
// the repair.
func MatchesTechnician(r *models.Repair, technicianID int64) bool {
	if r.Phases.Survey != nil && r.Phases.Survey.CreatedByUserID == technicianID {
		return true
	}
	for _, p := range r.Phases.Progress {
		if p != nil && p.CreatedByUserID == technicianID {
			return true
		}
	}
	if r.Phases.Finish != nil && r.Phases.Finish.CreatedByUserID == technicianID {
		return true
	}
	return false
}

// roleScope resolves the caller's visible project set. restricted is false
// for admin and manager, who see everything.
func (e *Engine) roleScope(ctx context.Context, caller models.Caller) (scope []int64, restricted bool, err error) {
	switch caller.Role {
	case models.RoleAdmin, models.RoleManager:
		return nil, false, nil
	case models.RoleClient:
		ids, err := e.projects.ProjectIDsByClient(ctx, caller.UserID)
		return ids, true, err
	case models.RoleTechnician:
		ids, err := e.projects.ProjectIDsByTechnician(ctx, caller.UserID)
		return ids, true, err
	}
	// Guests and unknown roles see nothing.
	return nil, true, nil
}

func normalize(pr PageRequest) PageRequest {
	if pr.Page < 1 {
		pr.Page = 1
	}
	if pr.Limit < 1 {
		pr.Limit = DefaultLimit
	}
	if !sortColumns[pr.SortBy] {
		pr.SortBy = "created_at"
	}
	if pr.SortOrder != "asc" {
		pr.SortOrder = "desc"
	}
	return pr
}

func paginate(total int, pr PageRequest) models.Pagination {
	return models.Pagination{
		Total:      total,
		Page:       pr.Page,
		Limit:      pr.Limit,
		TotalPages: (total + pr.Limit - 1) / pr.Limit,
	}
}

func emptyResult(pr PageRequest) Result {
	return Result{Repairs: []models.Repair{}, Pagination: paginate(0, pr)}
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
