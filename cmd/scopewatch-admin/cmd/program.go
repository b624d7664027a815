package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	flagProgramName string
	flagProgramURL  string
	flagForce       bool
)

var programCmd = &cobra.Command{
	Use:   "program",
	Short: "Manage monitored programs",
}

// programJSON mirrors the API's program response.
type programJSON struct {
	ID             string   `json:"id"`
	Platform       string   `json:"platform"`
	Handle         string   `json:"handle"`
	Name           string   `json:"name"`
	URL            string   `json:"url"`
	InScope        []string `json:"in_scope"`
	OutOfScope     []string `json:"out_of_scope"`
	IsActive       bool     `json:"is_active"`
	LastScopeCheck *string  `json:"last_scope_check"`
}

var programListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored programs",
	RunE: func(_ *cobra.Command, _ []string) error {
		data, err := apiClient().Get("/api/v1/programs?per_page=100")
		if err != nil {
			return err
		}

		var res struct {
			Data  []programJSON `json:"data"`
			Total int64         `json:"total"`
		}
		if err := unmarshal(data, &res); err != nil {
			return err
		}

		switch flagOutput {
		case outputJSON:
			printJSON(res.Data)
		case outputYAML:
			printYAML(res.Data)
		default:
			t := newTable("ID", "PLATFORM", "HANDLE", "ACTIVE", "IN SCOPE", "OUT OF SCOPE", "LAST CHECK")
			for _, p := range res.Data {
				last := "-"
				if p.LastScopeCheck != nil {
					last = *p.LastScopeCheck
				}
				t.AddRow(p.ID, p.Platform, p.Handle,
					strconv.FormatBool(p.IsActive),
					strconv.Itoa(len(p.InScope)),
					strconv.Itoa(len(p.OutOfScope)),
					last,
				)
			}
			t.Flush()
		}
		return nil
	},
}

var programGetCmd = &cobra.Command{
	Use:   "get <program-id>",
	Short: "Show one program",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := apiClient().Get("/api/v1/programs/" + args[0])
		if err != nil {
			return err
		}

		var p programJSON
		if err := unmarshal(data, &p); err != nil {
			return err
		}

		switch flagOutput {
		case outputYAML:
			printYAML(p)
		default:
			printJSON(p)
		}
		return nil
	},
}

var programAddCmd = &cobra.Command{
	Use:   "add <platform> <handle>",
	Short: "Register a program for monitoring",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		body := map[string]string{
			"platform": args[0],
			"handle":   args[1],
			"name":     flagProgramName,
			"url":      flagProgramURL,
		}
		data, err := apiClient().Post("/api/v1/programs", body)
		if err != nil {
			return err
		}

		var p programJSON
		if err := unmarshal(data, &p); err != nil {
			return err
		}
		fmt.Printf("program %s/%s registered (%s)\n", p.Platform, p.Handle, p.ID)
		return nil
	},
}

var programDeleteCmd = &cobra.Command{
	Use:   "delete <program-id>",
	Short: "Remove a program",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := apiClient().Delete("/api/v1/programs/" + args[0]); err != nil {
			return err
		}
		fmt.Println("program deleted")
		return nil
	},
}

var programScanQueueCmd = &cobra.Command{
	Use:   "scan-queue <program-id>",
	Short: "Show assets due for a scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := "/api/v1/programs/" + args[0] + "/scan-queue"
		if flagForce {
			path += "?force=true"
		}
		data, err := apiClient().Get(path)
		if err != nil {
			return err
		}

		var assets []struct {
			ID      string `json:"id"`
			Type    string `json:"type"`
			Value   string `json:"value"`
			IsAlive bool   `json:"is_alive"`
		}
		if err := unmarshal(data, &assets); err != nil {
			return err
		}

		switch flagOutput {
		case outputJSON:
			printJSON(assets)
		case outputYAML:
			printYAML(assets)
		default:
			t := newTable("ID", "TYPE", "VALUE", "ALIVE")
			for _, a := range assets {
				t.AddRow(a.ID, a.Type, a.Value, strconv.FormatBool(a.IsAlive))
			}
			t.Flush()
		}
		return nil
	},
}

func init() {
	programAddCmd.Flags().StringVar(&flagProgramName, "name", "", "Display name (defaults to handle)")
	programAddCmd.Flags().StringVar(&flagProgramURL, "url", "", "Program page URL")
	programScanQueueCmd.Flags().BoolVar(&flagForce, "force", false, "Ignore the scan policy and list every asset")

	programCmd.AddCommand(programListCmd)
	programCmd.AddCommand(programGetCmd)
	programCmd.AddCommand(programAddCmd)
	programCmd.AddCommand(programDeleteCmd)
	programCmd.AddCommand(programScanQueueCmd)
}
