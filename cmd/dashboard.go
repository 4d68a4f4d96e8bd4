/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/jjudge-oj/imageforms/config"
	"github.com/jjudge-oj/imageforms/internal/cli"
	"github.com/jjudge-oj/imageforms/internal/crudclient"
	"github.com/jjudge-oj/imageforms/internal/navigator"
	"github.com/jjudge-oj/imageforms/internal/screen"
	"github.com/jjudge-oj/imageforms/types"
	"github.com/spf13/cobra"
)

// dashboardCmd represents the dashboard command
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Opens the interactive record screens",
	Long: `Opens the interactive dashboard. From there each record screen can
be opened to list, create, edit and delete records. Usage:

	imageforms dashboard --api-url http://localhost:8080
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := clientConfig()
		nav := navigator.ForCollections(types.Collections(), func(c types.Collection) screen.API {
			return newRecordClient(cfg, c)
		})
		cli.NewApp(nav, os.Stdout).Run(cmd.Context(), os.Stdin)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func newRecordClient(cfg config.ClientConfig, c types.Collection) *crudclient.Client {
	ep, ok := cfg.Endpoint(c.Name)
	if !ok {
		ep = config.EndpointConfig{BaseURL: fmt.Sprintf("%s/api/%s", cfg.APIURL, c.Path)}
	}
	return crudclient.New(crudclient.Endpoint{BaseURL: ep.BaseURL, ListPath: ep.ListPath}, crudclient.WithTimeout(cfg.Timeout))
}
