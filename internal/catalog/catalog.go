// Package catalog resolves the per-project configuration (elevation grids,
// repair-type catalog, technician assignments) that the repair lifecycle
// validates against. It is a read-only view: only the project handlers
// mutate this data.
package catalog

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"repairtrack-backend/internal/models"
)

const (
	MinElevations = 1
	MaxElevations = 6
	MinPhases     = 3
	MaxPhases     = 10
)

var validate = validator.New()

// Bounds is the valid coordinate range for one elevation. Drops and levels
// are 1-based.
type Bounds struct {
	MinDrop  int
	MaxDrop  int
	MinLevel int
	MaxLevel int
}

// ResolveElevationBounds looks up the named elevation. ok is false for an
// unknown elevation, in which case no repair may be logged against it.
func ResolveElevationBounds(p *models.Project, elevationName string) (Bounds, bool) {
	for _, e := range p.Elevations {
		if e.Name == elevationName {
			return Bounds{MinDrop: 1, MaxDrop: e.Drops, MinLevel: 1, MaxLevel: e.Levels}, true
		}
	}
	return Bounds{}, false
}

// ResolvePhaseCount returns the total phase count for a repair type, survey
// and finish included. ok is false when the type is not in the catalog.
func ResolvePhaseCount(p *models.Project, repairType string) (int, bool) {
	for _, rt := range p.RepairTypes {
		if rt.RepairType == repairType || rt.RepairTypeID == repairType {
			return rt.Phases, true
		}
	}
	return 0, false
}

// AssignedTechnicians returns the technicians assigned to the project.
func AssignedTechnicians(p *models.Project) []models.Technician {
	return p.Technicians
}

// CheckCoordinates validates a repair location against the project's
// elevation configuration.
func CheckCoordinates(p *models.Project, elevationName string, drop, level int) error {
	b, ok := ResolveElevationBounds(p, elevationName)
	if !ok {
		return &models.PhaseValidationError{Field: "elevation_name", Reason: "unknown elevation"}
	}
	if drop < b.MinDrop || drop > b.MaxDrop {
		return &models.PhaseValidationError{Field: "drop", Reason: fmt.Sprintf("must be between %d and %d", b.MinDrop, b.MaxDrop)}
	}
	if level < b.MinLevel || level > b.MaxLevel {
		return &models.PhaseValidationError{Field: "level", Reason: fmt.Sprintf("must be between %d and %d", b.MinLevel, b.MaxLevel)}
	}
	return nil
}

// ValidateProject checks the catalog bounds before a project is written:
// 1-6 elevations with positive grids, 3-10 phases and a positive price per
// repair type.
func ValidateProject(p *models.Project) error {
	if err := validate.Struct(p); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return &models.PhaseValidationError{
				Field:  e.Field(),
				Reason: fmt.Sprintf("failed %s validation", e.Tag()),
			}
		}
		return err
	}
	seen := make(map[string]bool, len(p.RepairTypes))
	for _, rt := range p.RepairTypes {
		if seen[rt.RepairTypeID] {
			return &models.PhaseValidationError{Field: "repair_type_id", Reason: "duplicate id " + rt.RepairTypeID}
		}
		seen[rt.RepairTypeID] = true
	}
	return nil
}
