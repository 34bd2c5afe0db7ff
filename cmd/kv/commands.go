package kv

import (
	"fmt"
	"github.com/adrodb/adrodb/lib/collection"
	"github.com/spf13/cobra"
)

var (
	createCmd = &cobra.Command{
		Use:   "create",
		Short: "Materializes the collection on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restClient.CreateCollection(cmd.Context(), restColl.Name()); err != nil {
				return err
			}
			fmt.Printf("collection %s created\n", restColl.Name())
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key (fails if the key exists)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			kindName, _ := cmd.Flags().GetString("type")
			value, err := parseScalar(kindName, args[1])
			if err != nil {
				return err
			}
			if err := restColl.Set(cmd.Context(), key, value); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			kindName, _ := cmd.Flags().GetString("type")

			value, err := restColl.Get(cmd.Context(), key)
			if err != nil {
				return err
			}
			if kindName != "" {
				kind, err := collection.ParseScalarKind(kindName)
				if err != nil {
					return err
				}
				if value, err = value.Coerce(kind); err != nil {
					return err
				}
			}
			fmt.Printf("key=%s, type=%s, value=%s\n", key, value.Kind(), value)
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			found, err := restColl.Has(cmd.Context(), key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v\n", key, found)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Removes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			removed, err := restColl.Remove(cmd.Context(), key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, removed=%d\n", key, removed)
			return nil
		},
	}
)

func init() {
	setCmd.Flags().String("type", "", "type to store the value as (text, integer, float, bool - default text)")
	getCmd.Flags().String("type", "", "type to convert the value to before printing (text, integer, float, bool)")
}

// parseScalar builds the scalar to store from the CLI's string arguments.
func parseScalar(kindName, raw string) (collection.Scalar, error) {
	value := collection.Text(raw)
	if kindName == "" {
		return value, nil
	}
	kind, err := collection.ParseScalarKind(kindName)
	if err != nil {
		return collection.Scalar{}, err
	}
	return value.Coerce(kind)
}
