package form

import (
	"github.com/jjudge-oj/imageforms/internal/crudclient"
	"github.com/jjudge-oj/imageforms/types"
)

// Draft is the uncommitted state of a form.
type Draft struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string

	// Image is the attachment of single-image collections.
	Image *crudclient.Attachment

	// Files are the attachment slots of multi-image collections.
	Files Slots[*crudclient.Attachment]

	// Content are the free-text slots of collections with content.
	Content Slots[string]
}

// emptyDraft returns the initial form state: blank fields and one empty
// slot in each slot list.
func emptyDraft() Draft {
	return Draft{
		Files:   NewSlots[*crudclient.Attachment](1),
		Content: NewSlots[string](1),
	}
}

func (d Draft) clone() Draft {
	out := d
	out.Files = Slots[*crudclient.Attachment]{items: d.Files.Values()}
	out.Content = Slots[string]{items: d.Content.Values()}
	return out
}

// payload builds the multipart body for the draft. Text fields are always
// present; each non-empty file slot and content entry adds one part.
func (d Draft) payload(c types.Collection) crudclient.Payload {
	var p crudclient.Payload
	p.AddField(types.FieldName, d.Name)
	p.AddField(types.FieldEmail, d.Email)
	p.AddField(types.FieldPassword, d.Password)

	if c.MultipleImages {
		for _, f := range d.Files.Filled(func(a *crudclient.Attachment) bool { return a != nil }) {
			p.AddFile(c.ImageField, f)
		}
	} else if d.Image != nil {
		p.AddFile(c.ImageField, d.Image)
	}

	if c.Content {
		for _, text := range d.Content.Filled(func(s string) bool { return s != "" }) {
			p.AddField(types.FieldContent, text)
		}
	}
	return p
}
