/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jjudge-oj/imageforms/internal/cli"
	"github.com/jjudge-oj/imageforms/internal/crudclient"
	"github.com/jjudge-oj/imageforms/internal/form"
	"github.com/jjudge-oj/imageforms/internal/screen"
	"github.com/jjudge-oj/imageforms/types"
	"github.com/spf13/cobra"
)

var (
	recordScreen   string
	recordName     string
	recordEmail    string
	recordPassword string
	recordImages   []string
	recordContent  []string
	recordYes      bool
	recordTable    bool
)

// recordsCmd represents the records command
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Non-interactive record operations",
	Long: `List, create, update and delete the records of one screen without
the dashboard. Records are printed as JSON. Usage:

	imageforms records list --screen MultipleImage
	imageforms records create --screen single --name Ann --email a@x.com --password pw --image a.png
`,
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the records of a screen",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := mountedScreen(cmd)
		if err != nil {
			return err
		}
		if recordTable {
			return s.Render(cmd.OutOrStdout())
		}
		return printJSON(cmd.OutOrStdout(), s.Records())
	},
}

var recordsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a record",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := selectedCollection()
		if err != nil {
			return err
		}
		s := screen.New(c, newRecordClient(clientConfig(), c))
		if err := fillForm(cmd, s.Form()); err != nil {
			return err
		}
		rec, err := s.Submit(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

var recordsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a record; unset flags keep their current values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := mountedScreen(cmd)
		if err != nil {
			return err
		}
		if err := s.Edit(args[0]); err != nil {
			return err
		}
		if err := fillForm(cmd, s.Form()); err != nil {
			return err
		}
		rec, err := s.Submit(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := selectedCollection()
		if err != nil {
			return err
		}
		if !recordYes {
			answer, err := cli.GetSimpleText(bufio.NewReader(cmd.InOrStdin()), fmt.Sprintf("Delete record %s? [y/N]", args[0]), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}

		s := screen.New(c, newRecordClient(clientConfig(), c))
		if err := s.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("%s: %w", s.Message(), err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.Message())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd, recordsCreateCmd, recordsUpdateCmd, recordsDeleteCmd)

	recordsCmd.PersistentFlags().StringVarP(&recordScreen, "screen", "s", types.SingleImage.Name, "screen name or API path")

	recordsListCmd.Flags().BoolVar(&recordTable, "table", false, "print a table instead of JSON")

	addRecordFlags(recordsCreateCmd)
	addRecordFlags(recordsUpdateCmd)

	recordsDeleteCmd.Flags().BoolVarP(&recordYes, "yes", "y", false, "skip the confirmation prompt")
}

func addRecordFlags(c *cobra.Command) {
	c.Flags().StringVar(&recordName, "name", "", "record name")
	c.Flags().StringVar(&recordEmail, "email", "", "record e-mail")
	c.Flags().StringVar(&recordPassword, "password", "", "record password; prompted when set to -")
	c.Flags().StringArrayVar(&recordImages, "image", nil, "image file to upload, repeatable on multi-image screens")
	c.Flags().StringArrayVar(&recordContent, "content", nil, "content entry, repeatable")
}

func selectedCollection() (types.Collection, error) {
	c, ok := types.LookupCollection(recordScreen)
	if !ok {
		return types.Collection{}, fmt.Errorf("unknown screen %q", recordScreen)
	}
	return c, nil
}

func mountedScreen(cmd *cobra.Command) (*screen.Screen, error) {
	c, err := selectedCollection()
	if err != nil {
		return nil, err
	}
	s := screen.New(c, newRecordClient(clientConfig(), c))
	if err := s.Mount(cmd.Context()); err != nil {
		return nil, err
	}
	return s, nil
}

// fillForm copies the flags that were set onto f.
func fillForm(cmd *cobra.Command, f *form.Controller) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		if err := f.SetField(types.FieldName, recordName); err != nil {
			return err
		}
	}
	if flags.Changed("email") {
		if err := f.SetField(types.FieldEmail, recordEmail); err != nil {
			return err
		}
	}
	if flags.Changed("password") {
		password := recordPassword
		if password == "-" {
			var err error
			if password, err = cli.GetPassword(cmd.ErrOrStderr()); err != nil {
				return err
			}
		}
		if err := f.SetField(types.FieldPassword, password); err != nil {
			return err
		}
	}

	if err := attachImages(f, recordImages); err != nil {
		return err
	}

	for i, text := range recordContent {
		if i > 0 {
			if _, err := f.AddContentSlot(); err != nil {
				return err
			}
		}
		if err := f.SetContentAt(i, text); err != nil {
			return err
		}
	}
	return nil
}

func attachImages(f *form.Controller, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	c := f.Collection()
	if !c.MultipleImages {
		if len(paths) > 1 {
			return fmt.Errorf("%s accepts a single image", c.Name)
		}
		file, err := crudclient.FileAttachment(paths[0])
		if err != nil {
			return err
		}
		return f.SetImage(file)
	}

	for i, path := range paths {
		file, err := crudclient.FileAttachment(path)
		if err != nil {
			return err
		}
		if i > 0 {
			if _, err := f.AddFileSlot(); err != nil {
				return err
			}
		}
		if err := f.SetFileAt(i, file); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
