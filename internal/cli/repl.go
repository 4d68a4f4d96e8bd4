package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App satisfies it.
type execIface interface {
	onDashboard() bool
	Screens(ctx context.Context) error
	Open(ctx context.Context, name string) error
	List(ctx context.Context) error
	ShowForm(ctx context.Context) error
	SetField(ctx context.Context, name, value string) error
	Password(ctx context.Context) error
	Image(ctx context.Context, path string) error
	File(ctx context.Context, args []string) error
	Content(ctx context.Context, args []string) error
	Edit(ctx context.Context, id string) error
	Reset(ctx context.Context) error
	Submit(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Back(ctx context.Context) error
}

const (
	dashboardHelp = "Available commands: screens, open <screen>, exit"
	screenHelp    = "Available commands: list, form, name <v>, email <v>, password, image <path>, " +
		"file add|set <i> <path>|rm <i>, content add|set <i> <text>|rm <i>, edit <id>, reset, submit, delete <id>, back, exit"
)

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit". Handler errors are reported and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("imageforms %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		if cmd == "help" {
			if a.onDashboard() {
				printlnFn(dashboardHelp)
			} else {
				printlnFn(screenHelp)
			}
			continue
		}

		var err error
		if a.onDashboard() {
			err = dispatchDashboard(ctx, a, cmd, args)
		} else {
			err = dispatchScreen(ctx, a, cmd, args)
		}
		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatchDashboard(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "screens", "ls":
		return a.Screens(ctx)
	case "open":
		if len(args) != 1 {
			return fmt.Errorf("usage: open <screen>")
		}
		return a.Open(ctx, args[0])
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}

func dispatchScreen(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "l", "list":
		return a.List(ctx)
	case "form":
		return a.ShowForm(ctx)
	case "name", "email":
		return a.SetField(ctx, cmd, strings.Join(args, " "))
	case "password":
		return a.Password(ctx)
	case "image":
		if len(args) != 1 {
			return fmt.Errorf("usage: image <path>")
		}
		return a.Image(ctx, args[0])
	case "file":
		return a.File(ctx, args)
	case "content":
		return a.Content(ctx, args)
	case "edit":
		if len(args) != 1 {
			return fmt.Errorf("usage: edit <id>")
		}
		return a.Edit(ctx, args[0])
	case "reset":
		return a.Reset(ctx)
	case "submit":
		return a.Submit(ctx)
	case "delete", "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete <id>")
		}
		return a.Delete(ctx, args[0])
	case "back":
		return a.Back(ctx)
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}
