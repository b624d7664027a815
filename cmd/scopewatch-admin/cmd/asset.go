package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "Inspect assets and scan decisions",
}

var assetGetCmd = &cobra.Command{
	Use:   "get <asset-id>",
	Short: "Show one asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := apiClient().Get("/api/v1/assets/" + args[0])
		if err != nil {
			return err
		}

		var a map[string]any
		if err := unmarshal(data, &a); err != nil {
			return err
		}

		switch flagOutput {
		case outputYAML:
			printYAML(a)
		default:
			printJSON(a)
		}
		return nil
	},
}

var assetDecideCmd = &cobra.Command{
	Use:   "decide <asset-id>",
	Short: "Evaluate the scan policy for an asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := "/api/v1/assets/" + args[0] + "/scan-decision"
		if flagForce {
			path += "?force=true"
		}
		data, err := apiClient().Get(path)
		if err != nil {
			return err
		}

		var d struct {
			Scan   bool   `json:"scan"`
			Reason string `json:"reason"`
		}
		if err := unmarshal(data, &d); err != nil {
			return err
		}

		switch flagOutput {
		case outputJSON, outputYAML:
			printJSON(d)
		default:
			verdict := "skip"
			if d.Scan {
				verdict = "scan"
			}
			fmt.Printf("%s: %s\n", verdict, d.Reason)
		}
		return nil
	},
}

var assetChangesCmd = &cobra.Command{
	Use:   "changes <asset-id>",
	Short: "Show an asset's change log",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := apiClient().Get("/api/v1/assets/" + args[0] + "/changes")
		if err != nil {
			return err
		}

		var changes []struct {
			Type       string  `json:"type"`
			FieldName  string  `json:"field_name"`
			OldValue   *string `json:"old_value"`
			NewValue   *string `json:"new_value"`
			DetectedAt string  `json:"detected_at"`
		}
		if err := unmarshal(data, &changes); err != nil {
			return err
		}

		switch flagOutput {
		case outputJSON:
			printJSON(changes)
		case outputYAML:
			printYAML(changes)
		default:
			t := newTable("DETECTED AT", "TYPE", "FIELD", "OLD", "NEW")
			for _, c := range changes {
				t.AddRow(c.DetectedAt, c.Type, c.FieldName, deref(c.OldValue), deref(c.NewValue))
			}
			t.Flush()
		}
		return nil
	},
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func init() {
	assetDecideCmd.Flags().BoolVar(&flagForce, "force", false, "Force a scan decision")

	assetCmd.AddCommand(assetGetCmd)
	assetCmd.AddCommand(assetDecideCmd)
	assetCmd.AddCommand(assetChangesCmd)
}
