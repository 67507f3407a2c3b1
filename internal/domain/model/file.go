package model

import "time"

// StoredFile is the database record for an uploaded file. Filename is the
// name on disk (unique per upload), OriginalName what the client sent.
type StoredFile struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	FileType     string    `json:"file_type"`
	OwnerID      string    `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
}
