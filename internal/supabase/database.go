package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"repairtrack-backend/internal/listing"
	"repairtrack-backend/internal/models"
)

// DatabaseClient is the privileged store: a direct PostgreSQL connection
// using the service-role credentials. Role scoping is applied by the
// listing engine on top of it, never assumed by it.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

const repairColumns = `id, project_id, project_name, elevation_name, drop_num, level_num,
	repair_index, status, phases, created_by_user_id, created_by_user_name, created_at, updated_at`

func (d *DatabaseClient) scanRepair(row interface{ Scan(...any) error }, extra ...any) (*models.Repair, error) {
	var r models.Repair
	var phases []byte
	dest := []any{
		&r.ID, &r.ProjectID, &r.ProjectName, &r.ElevationName, &r.Drop, &r.Level,
		&r.RepairIndex, &r.Status, &phases, &r.CreatedByUserID, &r.CreatedByUserName,
		&r.CreatedAt, &r.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if len(phases) > 0 {
		if err := json.Unmarshal(phases, &r.Phases); err != nil {
			return nil, fmt.Errorf("failed to decode phases for repair %d: %w", r.ID, err)
		}
	}
	return &r, nil
}

func (d *DatabaseClient) CreateRepair(ctx context.Context, r *models.Repair) (*models.Repair, error) {
	phases, err := json.Marshal(r.Phases)
	if err != nil {
		return nil, fmt.Errorf("failed to encode phases: %w", err)
	}

	row := d.db.QueryRowContext(ctx, `
		INSERT INTO repairs (project_id, project_name, elevation_name, drop_num, level_num,
			repair_index, status, phases, created_by_user_id, created_by_user_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+repairColumns,
		r.ProjectID, r.ProjectName, r.ElevationName, r.Drop, r.Level,
		r.RepairIndex, r.Status, phases, r.CreatedByUserID, r.CreatedByUserName,
	)

	created, err := d.scanRepair(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create repair: %w", err)
	}
	return created, nil
}

func (d *DatabaseClient) GetRepair(ctx context.Context, repairID int64) (*models.Repair, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+repairColumns+`
		FROM repairs
		WHERE id = $1
	`, repairID)

	r, err := d.scanRepair(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("repair %d: %w", repairID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repair: %w", err)
	}
	return r, nil
}

// QueryRepairs implements listing.RepairStore. The count returned is the
// exact predicate count regardless of the offset/limit window.
func (d *DatabaseClient) QueryRepairs(ctx context.Context, q listing.RepairQuery) ([]models.Repair, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.ProjectIDs != nil {
		where = append(where, "project_id = ANY("+arg(pq.Array(q.ProjectIDs))+")")
	}
	if q.ProjectID != nil {
		where = append(where, "project_id = "+arg(*q.ProjectID))
	}
	if q.Status != "" {
		where = append(where, "status = "+arg(q.Status))
	}
	if q.ElevationName != "" {
		where = append(where, "elevation_name ILIKE "+arg(q.ElevationName))
	}
	if q.Drop != nil {
		where = append(where, "drop_num = "+arg(*q.Drop))
	}
	if q.Level != nil {
		where = append(where, "level_num = "+arg(*q.Level))
	}

	orderCols := map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"id":         "id",
		"status":     "status",
		"project":    "project_name",
	}
	col, ok := orderCols[q.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if q.SortOrder == "asc" {
		dir = "ASC"
	}

	query := `
		SELECT ` + repairColumns + `, COUNT(*) OVER() AS total
		FROM repairs
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ` + col + ` ` + dir + `, id ` + dir + `
		LIMIT ` + arg(q.Limit) + ` OFFSET ` + arg(q.Offset)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query repairs: %w", err)
	}
	defer rows.Close()

	var repairs []models.Repair
	total := 0
	for rows.Next() {
		r, err := d.scanRepair(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan repair: %w", err)
		}
		repairs = append(repairs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read repairs: %w", err)
	}

	return repairs, total, nil
}

// MaxRepairIndex returns the highest repair_index in the location+type
// group, or 0 when the group is empty. The repair type lives inside the
// survey phase document, so the predicate reads into the JSONB column.
func (d *DatabaseClient) MaxRepairIndex(ctx context.Context, projectID int64, elevationName string, drop, level int, repairType string) (int, error) {
	var max int
	err := d.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(repair_index), 0)
		FROM repairs
		WHERE project_id = $1 AND elevation_name = $2 AND drop_num = $3 AND level_num = $4
		  AND phases->'survey'->>'repair_type' = $5
	`, projectID, elevationName, drop, level, repairType).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to compute max repair index: %w", err)
	}
	return max, nil
}

// FindRepairByIndex loads the repair a technician resumes when picking an
// existing index at a location.
func (d *DatabaseClient) FindRepairByIndex(ctx context.Context, projectID int64, elevationName string, drop, level int, repairType string, repairIndex int) (*models.Repair, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+repairColumns+`
		FROM repairs
		WHERE project_id = $1 AND elevation_name = $2 AND drop_num = $3 AND level_num = $4
		  AND phases->'survey'->>'repair_type' = $5 AND repair_index = $6
	`, projectID, elevationName, drop, level, repairType, repairIndex)

	r, err := d.scanRepair(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find repair: %w", err)
	}
	return r, nil
}

// Phase updates are targeted jsonb_set mutations of the single slot, so two
// technicians submitting different phases of the same repair cannot clobber
// each other's entries.

// SetSurveyPhase rewrites the survey slot and pads the stored progress
// array with nulls up to progressSlots entries. Existing progress entries
// are read from the row inside the statement, not from the caller, so a
// progress phase submitted concurrently with a resurvey survives.
func (d *DatabaseClient) SetSurveyPhase(ctx context.Context, repairID int64, survey *models.SurveyPhase, progressSlots int) (*models.Repair, error) {
	surveyJSON, err := json.Marshal(survey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode survey phase: %w", err)
	}

	row := d.db.QueryRowContext(ctx, `
		UPDATE repairs
		SET phases = jsonb_set(
		        jsonb_set(phases, '{survey}', $2::jsonb),
		        '{progress}',
		        (SELECT COALESCE(jsonb_agg(COALESCE(phases->'progress'->i, 'null'::jsonb)), '[]'::jsonb)
		         FROM generate_series(0, GREATEST(jsonb_array_length(phases->'progress'), $3) - 1) AS i)),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+repairColumns,
		repairID, surveyJSON, progressSlots,
	)
	return d.phaseUpdateResult(row, repairID)
}

// SetProgressPhase pads the stored progress array to at least progressIndex
// entries before setting the slot. Without the padding jsonb_set appends
// out-of-range indexes at the array end, which would misplace the entry
// when the catalog's phase count grew after the survey.
func (d *DatabaseClient) SetProgressPhase(ctx context.Context, repairID int64, progressIndex int, phase *models.ProgressPhase) (*models.Repair, error) {
	phaseJSON, err := json.Marshal(phase)
	if err != nil {
		return nil, fmt.Errorf("failed to encode progress phase: %w", err)
	}

	path := pq.Array([]string{"progress", fmt.Sprintf("%d", progressIndex-1)})
	row := d.db.QueryRowContext(ctx, `
		UPDATE repairs
		SET phases = jsonb_set(
		        jsonb_set(phases, '{progress}',
		            (SELECT COALESCE(jsonb_agg(COALESCE(phases->'progress'->i, 'null'::jsonb)), '[]'::jsonb)
		             FROM generate_series(0, GREATEST(jsonb_array_length(phases->'progress'), $2) - 1) AS i)),
		        $3, $4::jsonb),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+repairColumns,
		repairID, progressIndex, path, phaseJSON,
	)
	return d.phaseUpdateResult(row, repairID)
}

func (d *DatabaseClient) SetFinishPhase(ctx context.Context, repairID int64, phase *models.FinishPhase) (*models.Repair, error) {
	phaseJSON, err := json.Marshal(phase)
	if err != nil {
		return nil, fmt.Errorf("failed to encode finish phase: %w", err)
	}

	row := d.db.QueryRowContext(ctx, `
		UPDATE repairs
		SET phases = jsonb_set(phases, '{finish}', $2::jsonb),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+repairColumns,
		repairID, phaseJSON,
	)
	return d.phaseUpdateResult(row, repairID)
}

func (d *DatabaseClient) UpdateRepairStatus(ctx context.Context, repairID int64, status string) (*models.Repair, error) {
	row := d.db.QueryRowContext(ctx, `
		UPDATE repairs
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+repairColumns,
		repairID, status,
	)
	return d.phaseUpdateResult(row, repairID)
}

func (d *DatabaseClient) phaseUpdateResult(row interface{ Scan(...any) error }, repairID int64) (*models.Repair, error) {
	r, err := d.scanRepair(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("repair %d: %w", repairID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update repair: %w", err)
	}
	return r, nil
}
