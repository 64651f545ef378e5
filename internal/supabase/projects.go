package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"repairtrack-backend/internal/models"
)

const projectColumns = `id, name, client_name, client_id, status, elevations, repair_types, technicians, created_at, updated_at`

// ProjectListOptions narrows a project listing. Client and technician
// scoping are mutually exclusive in practice; both nil lists everything.
type ProjectListOptions struct {
	ClientID     *int64
	TechnicianID *int64
	Status       string
	Offset       int
	Limit        int
}

func (d *DatabaseClient) scanProject(row interface{ Scan(...any) error }, extra ...any) (*models.Project, error) {
	var p models.Project
	var elevations, repairTypes, technicians []byte
	dest := []any{
		&p.ID, &p.Name, &p.ClientName, &p.ClientID, &p.Status,
		&elevations, &repairTypes, &technicians, &p.CreatedAt, &p.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	for _, pair := range []struct {
		raw []byte
		out any
	}{
		{elevations, &p.Elevations},
		{repairTypes, &p.RepairTypes},
		{technicians, &p.Technicians},
	} {
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.out); err != nil {
				return nil, fmt.Errorf("failed to decode project %d configuration: %w", p.ID, err)
			}
		}
	}
	return &p, nil
}

func (d *DatabaseClient) projectJSON(p *models.Project) (elevations, repairTypes, technicians []byte, err error) {
	if elevations, err = json.Marshal(p.Elevations); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode elevations: %w", err)
	}
	if repairTypes, err = json.Marshal(p.RepairTypes); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode repair types: %w", err)
	}
	if technicians, err = json.Marshal(p.Technicians); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode technicians: %w", err)
	}
	return elevations, repairTypes, technicians, nil
}

func (d *DatabaseClient) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	elevations, repairTypes, technicians, err := d.projectJSON(p)
	if err != nil {
		return nil, err
	}

	row := d.db.QueryRowContext(ctx, `
		INSERT INTO projects (name, client_name, client_id, status, elevations, repair_types, technicians)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+projectColumns,
		p.Name, p.ClientName, p.ClientID, p.Status, elevations, repairTypes, technicians,
	)

	created, err := d.scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return created, nil
}

func (d *DatabaseClient) GetProject(ctx context.Context, projectID int64) (*models.Project, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1
	`, projectID)

	p, err := d.scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", projectID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (d *DatabaseClient) ListProjects(ctx context.Context, opts ProjectListOptions) ([]models.Project, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if opts.ClientID != nil {
		where = append(where, "client_id = "+arg(*opts.ClientID))
	}
	if opts.TechnicianID != nil {
		where = append(where, `EXISTS (
			SELECT 1 FROM jsonb_array_elements(technicians) AS t
			WHERE (t->>'technician_id')::bigint = `+arg(*opts.TechnicianID)+`)`)
	}
	if opts.Status != "" {
		where = append(where, "status = "+arg(opts.Status))
	}
	if opts.Limit < 1 {
		opts.Limit = 20
	}

	query := `
		SELECT ` + projectColumns + `, COUNT(*) OVER() AS total
		FROM projects
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC, id DESC
		LIMIT ` + arg(opts.Limit) + ` OFFSET ` + arg(opts.Offset)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	total := 0
	for rows.Next() {
		p, err := d.scanProject(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read projects: %w", err)
	}

	return projects, total, nil
}

func (d *DatabaseClient) UpdateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	elevations, repairTypes, technicians, err := d.projectJSON(p)
	if err != nil {
		return nil, err
	}

	row := d.db.QueryRowContext(ctx, `
		UPDATE projects
		SET name = $2, client_name = $3, client_id = $4, status = $5,
		    elevations = $6, repair_types = $7, technicians = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+projectColumns,
		p.ID, p.Name, p.ClientName, p.ClientID, p.Status, elevations, repairTypes, technicians,
	)

	updated, err := d.scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", p.ID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return updated, nil
}

func (d *DatabaseClient) DeleteProject(ctx context.Context, projectID int64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %d: %w", projectID, models.ErrNotFound)
	}
	return nil
}

// ProjectIDsByClient implements half of listing.ProjectLookup: the projects
// a client user owns.
func (d *DatabaseClient) ProjectIDsByClient(ctx context.Context, clientID int64) ([]int64, error) {
	return d.projectIDs(ctx, `SELECT id FROM projects WHERE client_id = $1`, clientID)
}

// ProjectIDsByTechnician returns the projects a technician is assigned to
// through the technicians JSONB list.
func (d *DatabaseClient) ProjectIDsByTechnician(ctx context.Context, technicianID int64) ([]int64, error) {
	return d.projectIDs(ctx, `
		SELECT id FROM projects
		WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(technicians) AS t
			WHERE (t->>'technician_id')::bigint = $1
		)`, technicianID)
}

func (d *DatabaseClient) projectIDs(ctx context.Context, query string, id int64) ([]int64, error) {
	rows, err := d.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var pid int64
		if err := rows.Scan(&pid); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, pid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read project ids: %w", err)
	}
	return ids, nil
}
