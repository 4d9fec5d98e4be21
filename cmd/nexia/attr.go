package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/nexia"
	"github.com/aretw0/nexia/pkg/core"
)

var attrCmd = &cobra.Command{
	Use:   "attr",
	Short: "Manage note attributes",
}

var attrSetCmd = &cobra.Command{
	Use:   "set <id> <key> <value>",
	Short: "Set an attribute",
	Long: `Set an attribute. The value is parsed as JSON when possible
(42, true, [1,2], {"a":1}); anything else is stored as a string.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := openService()
		if err != nil {
			return err
		}
		id, err := resolveID(ctx, svc, args[0])
		if err != nil {
			return err
		}
		value, err := parseValue(args[2])
		if err != nil {
			return err
		}
		if _, err := svc.SetAttribute(ctx, id, args[1], value); err != nil {
			return err
		}
		return save(ctx, svc, fmt.Sprintf("set %s on %s", args[1], id))
	},
}

var attrGetCmd = &cobra.Command{
	Use:   "get <id> <key>",
	Short: "Print an attribute as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := openService(nexia.WithReadOnly(true))
		if err != nil {
			return err
		}
		id, err := resolveID(ctx, svc, args[0])
		if err != nil {
			return err
		}
		v, ok, err := svc.Attribute(ctx, id, args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("attribute %q not set", args[1])
		}
		return printJSON(v.Any())
	},
}

var attrRmCmd = &cobra.Command{
	Use:   "rm <id> <key>",
	Short: "Remove an attribute",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := openService()
		if err != nil {
			return err
		}
		id, err := resolveID(ctx, svc, args[0])
		if err != nil {
			return err
		}
		if _, err := svc.DeleteAttribute(ctx, id, args[1]); err != nil {
			return err
		}
		return save(ctx, svc, fmt.Sprintf("remove %s from %s", args[1], id))
	},
}

func parseValue(raw string) (core.Value, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil || dec.More() {
		return core.String(raw), nil
	}
	return core.FromAny(x)
}

func init() {
	rootCmd.AddCommand(attrCmd)
	attrCmd.AddCommand(attrSetCmd, attrGetCmd, attrRmCmd)
}
