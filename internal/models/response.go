package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// Pagination describes one page of a list response. TotalPages is always
// ceil(Total/Limit).
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type RepairListResponse struct {
	Repairs    []Repair   `json:"repairs"`
	Pagination Pagination `json:"pagination"`
}

type ProjectListResponse struct {
	Projects   []Project  `json:"projects"`
	Pagination Pagination `json:"pagination"`
}

type UserListResponse struct {
	Users []User `json:"users"`
}

type NextRepairIndexResponse struct {
	NextRepairIndex int `json:"next_repair_index"`
}

// SignedUploadResponse carries everything a client needs to upload a photo
// straight to the asset host.
type SignedUploadResponse struct {
	APIKey    string `json:"api_key"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	UploadURL string `json:"upload_url"`
	PublicID  string `json:"public_id"`
}

type PhotoUploadResponse struct {
	PublicID    string `json:"public_id"`
	SecureURL   string `json:"secure_url"`
	StoragePath string `json:"storage_path,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
