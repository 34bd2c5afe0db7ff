package cmd

import (
	"fmt"
	"github.com/adrodb/adrodb/cmd/kv"
	"github.com/adrodb/adrodb/cmd/serve"
	"github.com/adrodb/adrodb/cmd/util"
	"github.com/adrodb/adrodb/rest/common"
	"github.com/spf13/cobra"
	"os"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "adrodb",
		Short: "typed key-value store over a relational engine",
		Long: fmt.Sprintf(`adrodb (v%s)

A typed key-value store backed by a relational engine. Collections map
onto tables, values keep a scalar type (text, integer, float, bool) and
can be read back as any type they convert to. The store is served over
a REST interface.`, common.Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of adrodb",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("adrodb v%s\n", common.Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "codec"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("codec to use for request and response bodies (json, msgpack, gob)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
