package dto

import "github.com/ahmetcoskunkizilkaya/photowall/internal/repository"

type ModerationResponse struct {
	Message string `json:"message"`
	PhotoID string `json:"photo_id"`
}

type ReportListResponse struct {
	Reports []repository.ReportView `json:"reports"`
	Total   int                     `json:"total"`
}

type SetSettingRequest struct {
	Value string `json:"value" validate:"max=4096"`
}

type SystemStatusResponse struct {
	Uptime            string         `json:"uptime"`
	GoVersion         string         `json:"go_version"`
	Goroutines        int            `json:"goroutines"`
	HeapAllocBytes    uint64         `json:"heap_alloc_bytes"`
	DBDriver          string         `json:"db_driver"`
	DBOpenConnections int            `json:"db_open_connections"`
	RevocationBackend string         `json:"revocation_backend"`
	StorageBackend    string         `json:"storage_backend"`
	Environment       string         `json:"environment"`
	Host              map[string]any `json:"host,omitempty"`
}
