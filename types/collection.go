package types

import "strings"

const (
	// FieldName is the multipart field carrying the record name.
	FieldName = "name"
	// FieldEmail is the multipart field carrying the record e-mail.
	FieldEmail = "email"
	// FieldPassword is the multipart field carrying the write-only password.
	FieldPassword = "password"
	// FieldContent is the repeated multipart field carrying content entries.
	FieldContent = "content"
)

// Collection describes the record schema of one form screen: which image
// field it uses, how many images it accepts and whether it carries content
// entries. Client screens and server routes are both built from it.
type Collection struct {
	// Name is the logical screen name, e.g. "MultipleImage".
	Name string

	// Title is the human-readable label shown on the dashboard.
	Title string

	// Path is the API path segment under /api.
	Path string

	// ImageField is the multipart field name of the uploaded images.
	ImageField string

	// MultipleImages reports whether more than one image may be uploaded.
	MultipleImages bool

	// Content reports whether the collection accepts content entries.
	Content bool
}

var (
	// SingleImage is a record with one optional image.
	SingleImage = Collection{
		Name:       "SingleImage",
		Title:      "Single Image",
		Path:       "single",
		ImageField: "image",
	}

	// MultipleImage is a record with any number of images.
	MultipleImage = Collection{
		Name:           "MultipleImage",
		Title:          "Multiple Images",
		Path:           "multiple",
		ImageField:     "images",
		MultipleImages: true,
	}

	// MultipleImageContent is a record with any number of images and
	// free-text content entries.
	MultipleImageContent = Collection{
		Name:           "MultipleImageContent",
		Title:          "Multiple content",
		Path:           "content",
		ImageField:     "images",
		MultipleImages: true,
		Content:        true,
	}
)

// Collections returns the known collections in dashboard order.
func Collections() []Collection {
	return []Collection{SingleImage, MultipleImage, MultipleImageContent}
}

// LookupCollection finds a collection by screen name or API path,
// ignoring case.
func LookupCollection(name string) (Collection, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Collections() {
		if strings.EqualFold(c.Name, name) || strings.EqualFold(c.Path, name) {
			return c, true
		}
	}
	return Collection{}, false
}

// View converts a stored record into its API representation, mapping
// object keys to URLs with urlFor.
func (c Collection) View(rec StoredRecord, urlFor func(key string) string) Record {
	out := Record{
		ID:    rec.ID,
		Name:  rec.Name,
		Email: rec.Email,
	}
	if c.MultipleImages {
		out.Images = make([]string, 0, len(rec.ImageKeys))
		for _, key := range rec.ImageKeys {
			out.Images = append(out.Images, urlFor(key))
		}
	} else if len(rec.ImageKeys) > 0 {
		out.Image = urlFor(rec.ImageKeys[0])
	}
	if c.Content && len(rec.Content) > 0 {
		out.Content = append([]string(nil), rec.Content...)
	}
	return out
}
