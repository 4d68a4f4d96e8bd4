package screen

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jjudge-oj/imageforms/internal/crudclient"
	"github.com/jjudge-oj/imageforms/types"
)

// Render writes the record table of the screen to w.
func (s *Screen) Render(w io.Writer) error {
	return RenderRecords(w, s.collection, s.list.Records())
}

// RenderRecords writes records as a table with the columns of collection.
func RenderRecords(w io.Writer, collection types.Collection, records []types.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"ID", "NAME", "EMAIL", strings.ToUpper(collection.ImageField)}
	if collection.Content {
		header = append(header, "CONTENT")
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, rec := range records {
		row := []string{rec.ID, rec.Name, rec.Email, imageCell(collection, rec)}
		if collection.Content {
			row = append(row, joinOr(rec.Content, "No content"))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// RenderForm writes the draft and edit state of the screen's form to w.
func (s *Screen) RenderForm(w io.Writer) error {
	c := s.form
	d := c.Draft()
	col := s.collection

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if id, ok := c.Editing(); ok {
		fmt.Fprintf(tw, "Editing\t%s\n", id)
	} else {
		fmt.Fprintf(tw, "Creating\t%s\n", col.Title)
	}
	fmt.Fprintf(tw, "name\t%s\n", d.Name)
	fmt.Fprintf(tw, "email\t%s\n", d.Email)
	fmt.Fprintf(tw, "password\t%s\n", strings.Repeat("*", len(d.Password)))

	if col.MultipleImages {
		for i, f := range d.Files.Values() {
			fmt.Fprintf(tw, "%s[%d]\t%s\n", col.ImageField, i, attachmentName(f))
		}
	} else {
		fmt.Fprintf(tw, "%s\t%s\n", col.ImageField, attachmentName(d.Image))
	}
	if col.Content {
		for i, text := range d.Content.Values() {
			fmt.Fprintf(tw, "%s[%d]\t%s\n", types.FieldContent, i, text)
		}
	}
	if c.Busy() {
		fmt.Fprintln(tw, "status\tsubmitting...")
	}
	if msg := s.Message(); msg != "" {
		fmt.Fprintf(tw, "message\t%s\n", msg)
	}
	return tw.Flush()
}

func imageCell(collection types.Collection, rec types.Record) string {
	if collection.MultipleImages {
		return joinOr(rec.Images, "No images")
	}
	if rec.Image == "" {
		return "No image"
	}
	return rec.Image
}

func joinOr(values []string, empty string) string {
	if len(values) == 0 {
		return empty
	}
	return strings.Join(values, ", ")
}

func attachmentName(a *crudclient.Attachment) string {
	if a == nil {
		return "-"
	}
	return a.Filename
}
