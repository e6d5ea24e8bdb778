package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bbayvault/vault-rbac-processor/azure"
	"github.com/bbayvault/vault-rbac-processor/global"
	"github.com/bbayvault/vault-rbac-processor/graph"
	"github.com/bbayvault/vault-rbac-processor/rbac"
	"github.com/bbayvault/vault-rbac-processor/server"
)

var version = "0.0.0"

var rootCmd = &cobra.Command{
	Use:     "vault-rbac-processor",
	Short:   "Grants vault and storage RBAC roles to a vault's creator after creation",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP trigger endpoint",
	Long: `Run the HTTP trigger endpoint.

Requires the environment variables AZURE_TENANT_ID, AZURE_CLIENT_ID and
AZURE_CLIENT_SECRET for the app registration the role assignments are made
with. LISTEN_ADDRESS and RUN_TIMEOUT are optional.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := global.ConfigFromEnv()
		if err != nil {
			return err
		}

		cred, err := cfg.Credential()
		if err != nil {
			return err
		}

		directory := graph.NewClient(cred)

		factory := func(subscriptionId string) server.Processor {
			clients := azure.NewClients(cred, subscriptionId)

			return rbac.NewProcessor(
				azure.NewAuthorizationClient(clients),
				directory,
				azure.NewInventoryClient(clients),
			)
		}

		return server.New(cfg.ListenAddress, server.NewAssignRolesHandler(factory, cfg.RunTimeout), cfg.RunTimeout).Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
