// Package cli implements the interactive dashboard: a REPL that navigates
// between record screens and drives their forms.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/apex/log"
	"github.com/jjudge-oj/imageforms/internal/crudclient"
	"github.com/jjudge-oj/imageforms/internal/form"
	"github.com/jjudge-oj/imageforms/internal/navigator"
	"github.com/jjudge-oj/imageforms/internal/screen"
)

// ErrNoScreen is returned by screen commands while the dashboard is active.
var ErrNoScreen = errors.New("no screen is open")

// App wires the navigator to terminal input and output.
type App struct {
	nav     *navigator.Navigator
	out     io.Writer
	logTags log.Fields

	// pending tracks background submissions.
	pending sync.WaitGroup
}

// NewApp returns an App writing tables and forms to out.
func NewApp(nav *navigator.Navigator, out io.Writer) *App {
	if out == nil {
		out = os.Stdout
	}
	return &App{
		nav:     nav,
		out:     out,
		logTags: log.Fields{"module": "cli", "component": "app"},
	}
}

// Run starts the REPL on in and returns once the user exits and every
// background submission has finished.
func (a *App) Run(ctx context.Context, in io.Reader) {
	printlnFn("Welcome to imageforms. Type 'help' for commands.")
	runREPL(ctx, a, a.status, bufio.NewScanner(in))
	a.Wait()
}

// Wait blocks until background submissions have finished.
func (a *App) Wait() {
	a.pending.Wait()
}

func (a *App) status() string {
	s := a.nav.Active()
	if s == nil {
		return navigator.DashboardPath
	}
	if s.Form().Busy() {
		return a.nav.Current() + " (submitting)"
	}
	if id, ok := s.Form().Editing(); ok {
		return a.nav.Current() + " (editing " + id + ")"
	}
	return a.nav.Current()
}

func (a *App) onDashboard() bool {
	return a.nav.Active() == nil
}

func (a *App) screen() (*screen.Screen, error) {
	s := a.nav.Active()
	if s == nil {
		return nil, ErrNoScreen
	}
	return s, nil
}

// Screens prints the navigable screens.
func (a *App) Screens(_ context.Context) error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCREEN\tPATH\tTITLE")
	for _, r := range a.nav.Routes() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Path, r.Title)
	}
	return tw.Flush()
}

// Open navigates to a screen and prints its records.
func (a *App) Open(ctx context.Context, name string) error {
	s, err := a.nav.Navigate(ctx, name)
	if s == nil {
		return err
	}
	if err != nil {
		log.WithFields(a.logTags).WithError(err).Warn("Screen opened without records")
		printlnFn(s.Message())
	}
	return s.Render(a.out)
}

// List prints the records of the active screen.
func (a *App) List(_ context.Context) error {
	s, err := a.screen()
	if err != nil {
		return err
	}
	if msg := s.Message(); msg == screen.MessageLoadFailed {
		printlnFn(msg)
	}
	return s.Render(a.out)
}

// ShowForm prints the draft of the active screen.
func (a *App) ShowForm(_ context.Context) error {
	s, err := a.screen()
	if err != nil {
		return err
	}
	return s.RenderForm(a.out)
}

// SetField sets a text field of the draft.
func (a *App) SetField(_ context.Context, name, value string) error {
	s, err := a.screen()
	if err != nil {
		return err
	}
	return s.Form().SetField(name, value)
}

// Password prompts for the password without echo.
func (a *App) Password(_ context.Context) error {
	s, err := a.screen()
	if err != nil {
		return err
	}
	pw, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	return s.Form().SetField("password", pw)
}

// Image sets the attachment of a single-image screen. "-" clears it.
func (a *App) Image(_ context.Context, path string) error {
	s, err := a.screen()
	if err != nil {
		return err
	}
	if path == "-" {
		return s.Form().SetImage(nil)
	}
	att, err := crudclient.FileAttachment(path)
	if err != nil {
		return err
	}
	return s.Form().SetImage(att)
}

// File edits the file slots: add, set <i> <path> or rm <i>.
func (a *App) File(_ context.Context, args []string) error {
	s, err := a.screen()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: file add|set <i> <path>|rm <i>")
	}
	f := s.Form()

	switch args[0] {
	case "add":
		i, err := f.AddFileSlot()
		if err != nil {
			return err
		}
		printlnFn(fmt.Sprintf("Added file slot %d", i))
		return nil
	case "set":
		i, path, err := splitIndex(args[1:])
		if err != nil {
			return err
		}
		att, err := crudclient.FileAttachment(path)
		if err != nil {
			return err
		}
		return f.SetFileAt(i, att)
	case "rm":
		i, _, err := splitIndex(args[1:])
		if err != nil {
			return err
		}
		return f.RemoveFileSlot(i)
	default:
		return fmt.Errorf("unknown file action %q", args[0])
	}
}

// Content edits the content slots: add, set <i> <text> or rm <i>.
func (a *App) Content(_ context.Context, args []string) error {
	s, err := a.screen()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: content add|set <i> <text>|rm <i>")
	}
	f := s.Form()

	switch args[0] {
	case "add":
		i, err := f.AddContentSlot()
		if err != nil {
			return err
		}
		printlnFn(fmt.Sprintf("Added content slot %d", i))
		return nil
	case "set":
		i, text, err := splitIndex(args[1:])
		if err != nil {
			return err
		}
		return f.SetContentAt(i, text)
	case "rm":
		i, _, err := splitIndex(args[1:])
		if err != nil {
			return err
		}
		return f.RemoveContentSlot(i)
	default:
		return fmt.Errorf("unknown content action %q", args[0])
	}
}

// Edit loads a listed record into the form.
func (a *App) Edit(_ context.Context, id string) error {
	s, err := a.screen()
	if err != nil {
		return err
	}
	if err := s.Edit(id); err != nil {
		return err
	}
	return s.RenderForm(a.out)
}

// Reset clears the form.
func (a *App) Reset(_ context.Context) error {
	s, err := a.screen()
	if err != nil {
		return err
	}
	s.Form().Reset()
	return nil
}

// Submit sends the form in the background. The prompt stays usable while
// the request is in flight; a second submit is refused until it resolves.
func (a *App) Submit(ctx context.Context) error {
	s, err := a.screen()
	if err != nil {
		return err
	}
	f := s.Form()
	if f.Busy() {
		printlnFn("A submission is already in progress.")
		return nil
	}
	if err := f.Validate(); err != nil {
		return err
	}

	printlnFn("Submitting...")
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()

		rec, err := s.Submit(ctx)
		var verr *form.ValidationError
		switch {
		case errors.Is(err, form.ErrBusy):
			printlnFn("A submission is already in progress.")
		case errors.As(err, &verr):
			printlnFn("Error:", verr)
		case err != nil:
			printlnFn(f.Message())
		default:
			printlnFn(f.Message(), rec.ID)
		}
	}()
	return nil
}

// Delete removes a record on the server and from the list.
func (a *App) Delete(ctx context.Context, id string) error {
	s, err := a.screen()
	if err != nil {
		return err
	}
	_ = s.Delete(ctx, id)
	printlnFn(s.Message())
	return nil
}

// Back returns to the dashboard.
func (a *App) Back(_ context.Context) error {
	a.nav.Back()
	return nil
}
