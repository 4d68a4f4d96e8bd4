package types

import "time"

// Record is a form submission as exposed by the records API.
// The same shape is used by all collections; fields that a collection
// does not support are omitted from the JSON encoding.
type Record struct {
	// ID is the server-assigned identifier of the record. It never changes
	// after creation.
	ID string `json:"_id"`

	// Name is the display name entered in the form.
	Name string `json:"name"`

	// Email is the e-mail address entered in the form.
	Email string `json:"email"`

	// Image is the public URL of the uploaded image for collections that
	// accept a single image.
	Image string `json:"image,omitempty"`

	// Images are the public URLs of the uploaded images, in upload order,
	// for collections that accept multiple images.
	Images []string `json:"images,omitempty"`

	// Content holds the free-text entries submitted alongside the images.
	Content []string `json:"content,omitempty"`
}

// RecordResponse is the payload returned by create and update calls.
type RecordResponse struct {
	User Record `json:"user"`
}

// StoredRecord is the persisted form of a record.
type StoredRecord struct {
	// ID is the unique identifier of the record.
	ID string `json:"id" db:"id"`

	// Collection is the API path segment of the collection owning the record.
	Collection string `json:"collection" db:"collection"`

	// Name is the display name entered in the form.
	Name string `json:"name" db:"name"`

	// Email is the e-mail address entered in the form.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the submitted password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// ImageKeys are the object storage keys of the uploaded images, in
	// upload order.
	ImageKeys []string `json:"image_keys" db:"image_keys"`

	// Content holds the free-text entries of the record.
	Content []string `json:"content" db:"content"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the record.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
