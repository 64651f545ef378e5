package models

import "time"

const (
	ProjectStatusPending    = "pending"
	ProjectStatusInProgress = "in-progress"
	ProjectStatusCompleted  = "completed"
)

type Project struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name" validate:"required"`
	ClientName  string       `json:"client_name"`
	ClientID    int64        `json:"client_id"`
	Status      string       `json:"status" validate:"oneof=pending in-progress completed"`
	Elevations  []Elevation  `json:"elevations" validate:"min=1,max=6,dive"`
	RepairTypes []RepairType `json:"repair_types" validate:"dive"`
	Technicians []Technician `json:"technicians" validate:"dive"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Elevation is one named face of the building. Drops and levels bound the
// grid coordinates a repair may be logged against.
type Elevation struct {
	Name   string `json:"name" validate:"required"`
	Drops  int    `json:"drops" validate:"min=1"`
	Levels int    `json:"levels" validate:"min=1"`
}

// RepairType is one catalog entry. Phases is the total phase count for a
// repair of this type, including survey and finish, so the number of
// progress slots is Phases-2.
type RepairType struct {
	RepairTypeID string  `json:"repair_type_id" validate:"required"`
	RepairType   string  `json:"repair_type" validate:"required"`
	Phases       int     `json:"phases" validate:"min=3,max=10"`
	Price        float64 `json:"price" validate:"gt=0"`
	UnitToCharge string  `json:"unit_to_charge"`
}

type Technician struct {
	TechnicianID     int64  `json:"technician_id" validate:"required"`
	TechnicianName   string `json:"technician_name"`
	TechnicianAvatar string `json:"technician_avatar"`
}
