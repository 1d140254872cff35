package model

type Document struct {
	ID string `gorm:"primaryKey" json:"id"`

	// Set once at creation from the authenticated caller and never
	// updated afterwards
	OwnerID string `gorm:"index;not null" json:"owner"`

	Title string `json:"title"`

	// Text extracted by the OCR engine. Empty when the scan contained
	// no recognizable text, never null
	Content string `json:"content"`

	// Key of the raw scan in the file store, not the bytes themselves.
	// Since we want to allow different users to upload scans with the
	// same name the object is kept under a random key
	FileKey string `gorm:"not null" json:"fileRef"`

	// Unix second timestamps
	CreatedAt int64 `gorm:"not null" json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}
