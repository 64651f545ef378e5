package models

type CreateProjectRequest struct {
	Name        string       `json:"name" binding:"required"`
	ClientName  string       `json:"client_name"`
	ClientID    int64        `json:"client_id"`
	Status      string       `json:"status"`
	Elevations  []Elevation  `json:"elevations" binding:"required"`
	RepairTypes []RepairType `json:"repair_types"`
	Technicians []Technician `json:"technicians"`
}

type UpdateProjectRequest struct {
	Name        *string      `json:"name,omitempty"`
	ClientName  *string      `json:"client_name,omitempty"`
	ClientID    *int64       `json:"client_id,omitempty"`
	Status      *string      `json:"status,omitempty"`
	Elevations  []Elevation  `json:"elevations,omitempty"`
	RepairTypes []RepairType `json:"repair_types,omitempty"`
	Technicians []Technician `json:"technicians,omitempty"`
}

// CreateRepairRequest starts a new repair at a grid location with its survey
// submission. RepairIndex is optional: when omitted the next free index for
// the location+type group is assigned.
type CreateRepairRequest struct {
	ProjectID     int64             `json:"project_id" binding:"required"`
	ElevationName string            `json:"elevation_name" binding:"required"`
	Drop          int               `json:"drop" binding:"required,min=1"`
	Level         int               `json:"level" binding:"required,min=1"`
	RepairIndex   int               `json:"repair_index,omitempty"`
	RepairType    string            `json:"repair_type" binding:"required"`
	Measurements  map[string]string `json:"measurements"`
	Comments      string            `json:"comments"`
	Photos        []string          `json:"photos"`
}

// SubmitPhaseRequest adds a progress or finish entry to an existing repair.
// ProgressIndex is 1-based and only meaningful for slot "progress".
type SubmitPhaseRequest struct {
	Slot          string            `json:"slot" binding:"required"`
	ProgressIndex int               `json:"progress_index,omitempty"`
	Measurements  map[string]string `json:"measurements"`
	Comments      string            `json:"comments"`
	Photos        []string          `json:"photos"`
}

type ReviewRepairRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

type CreateUserRequest struct {
	AuthUID string `json:"auth_uid" binding:"required,uuid"`
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Role    string `json:"role" binding:"required,oneof=admin manager technician client guest"`
	Status  string `json:"status"`
	Avatar  string `json:"avatar"`
}

type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty" binding:"omitempty,email"`
	Role   *string `json:"role,omitempty" binding:"omitempty,oneof=admin manager technician client guest"`
	Status *string `json:"status,omitempty" binding:"omitempty,oneof=active inactive"`
	Avatar *string `json:"avatar,omitempty"`
}

// SignUploadRequest asks for signed direct-upload parameters. An omitted
// public_id gets a generated one.
type SignUploadRequest struct {
	PublicID string `json:"public_id"`
	Folder   string `json:"folder"`
}
