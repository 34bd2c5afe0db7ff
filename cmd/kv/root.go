package kv

import (
	"github.com/adrodb/adrodb/cmd/util"
	"github.com/adrodb/adrodb/rest/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	restClient *client.Client
	restColl   *client.RemoteCollection

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform collection operations against a running server",
		PersistentPreRunE: setupKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common connection flags to the KV command
	util.SetupClientFlags(KeyValueCommands)

	// All KV operations address one collection
	KeyValueCommands.PersistentFlags().String("collection", "kv", util.WrapString("Name of the collection to operate on"))

	// Add subcommands
	KeyValueCommands.AddCommand(createCmd)
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the REST client and the collection handle
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Create the client from the bound configuration
	var err error
	restClient, err = client.New(*util.GetClientConfig())
	if err != nil {
		return err
	}

	restColl = restClient.Collection(viper.GetString("collection"))
	return nil
}
