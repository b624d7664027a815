package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scopewatch/api/pkg/domain/scope"
)

var (
	flagInScopeFile     string
	flagOutOfScopeFile  string
	flagPrevInScopeFile string
	flagPrevOutFile     string
)

var scopeCmd = &cobra.Command{
	Use:   "scope",
	Short: "Offline scope tools and scope check triggers",
}

var scopeValidateCmd = &cobra.Command{
	Use:   "validate [values...]",
	Short: "Classify values against scope rule lists",
	Long: `Classify one or more values against in-scope and out-of-scope rule
lists read from files (one rule per line, '#' comments allowed).

Runs entirely offline using the same matching rules as the server.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScopeValidate,
}

var scopeCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Diff two scope rule list pairs",
	Long: `Compare a previous scope (--prev-in/--prev-out) against a current one
(--in/--out) and print additions, removals and moves.`,
	RunE: runScopeCompare,
}

var scopeCheckCmd = &cobra.Command{
	Use:   "check <program-id>",
	Short: "Queue a scope check for a program",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := apiClient().Post("/api/v1/programs/"+args[0]+"/scope/check", nil)
		if err != nil {
			return err
		}
		var res map[string]string
		if err := unmarshal(data, &res); err != nil {
			return err
		}
		fmt.Printf("scope check %s for program %s\n", res["status"], res["program_id"])
		return nil
	},
}

var scopeHistoryCmd = &cobra.Command{
	Use:   "history <program-id>",
	Short: "Show a program's scope check history",
	Args:  cobra.ExactArgs(1),
	RunE:  runScopeHistory,
}

func init() {
	scopeValidateCmd.Flags().StringVar(&flagInScopeFile, "in", "", "File with in-scope rules (required)")
	scopeValidateCmd.Flags().StringVar(&flagOutOfScopeFile, "out", "", "File with out-of-scope rules")
	_ = scopeValidateCmd.MarkFlagRequired("in")

	scopeCompareCmd.Flags().StringVar(&flagInScopeFile, "in", "", "File with current in-scope rules (required)")
	scopeCompareCmd.Flags().StringVar(&flagOutOfScopeFile, "out", "", "File with current out-of-scope rules")
	scopeCompareCmd.Flags().StringVar(&flagPrevInScopeFile, "prev-in", "", "File with previous in-scope rules (required)")
	scopeCompareCmd.Flags().StringVar(&flagPrevOutFile, "prev-out", "", "File with previous out-of-scope rules")
	_ = scopeCompareCmd.MarkFlagRequired("in")
	_ = scopeCompareCmd.MarkFlagRequired("prev-in")

	scopeCmd.AddCommand(scopeValidateCmd)
	scopeCmd.AddCommand(scopeCompareCmd)
	scopeCmd.AddCommand(scopeCheckCmd)
	scopeCmd.AddCommand(scopeHistoryCmd)
}

func runScopeValidate(_ *cobra.Command, args []string) error {
	inScope, err := readRuleFile(flagInScopeFile)
	if err != nil {
		return err
	}
	outOfScope, err := readRuleFile(flagOutOfScopeFile)
	if err != nil {
		return err
	}

	v := scope.NewValidatorFromLists(inScope, outOfScope)
	results := v.ValidateBatch(args)

	switch flagOutput {
	case outputJSON:
		printJSON(results)
	case outputYAML:
		printYAML(results)
	default:
		t := newTable("VALUE", "IN SCOPE", "REASON", "MATCHED RULE")
		for _, r := range results {
			t.AddRow(r.Asset, strconv.FormatBool(r.InScope), r.Reason, r.MatchedRule)
		}
		t.Flush()
	}
	return nil
}

func runScopeCompare(_ *cobra.Command, _ []string) error {
	prevIn, err := readRuleFile(flagPrevInScopeFile)
	if err != nil {
		return err
	}
	prevOut, err := readRuleFile(flagPrevOutFile)
	if err != nil {
		return err
	}
	currIn, err := readRuleFile(flagInScopeFile)
	if err != nil {
		return err
	}
	currOut, err := readRuleFile(flagOutOfScopeFile)
	if err != nil {
		return err
	}

	previous := scope.NewSnapshot(prevIn, prevOut, scope.SnapshotMeta{})
	current := scope.NewSnapshot(currIn, currOut, scope.SnapshotMeta{})
	cmp := scope.Compare(&previous, current)

	switch flagOutput {
	case outputJSON:
		printJSON(cmp)
	case outputYAML:
		printYAML(cmp)
	default:
		fmt.Println(cmp.Summary())
		for _, line := range cmp.FormatChanges() {
			fmt.Println("  " + line)
		}
	}
	return nil
}

func runScopeHistory(_ *cobra.Command, args []string) error {
	data, err := apiClient().Get("/api/v1/programs/" + args[0] + "/scope/history")
	if err != nil {
		return err
	}

	var rows []struct {
		ID        string `json:"id"`
		Checksum  string `json:"checksum"`
		Source    string `json:"source"`
		CheckedAt string `json:"checked_at"`
		Changes   []any  `json:"changes"`
	}
	if err := unmarshal(data, &rows); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(rows)
	case outputYAML:
		printYAML(rows)
	default:
		t := newTable("CHECKED AT", "SOURCE", "CHANGES", "CHECKSUM")
		for _, r := range rows {
			t.AddRow(r.CheckedAt, r.Source, strconv.Itoa(len(r.Changes)), shortChecksum(r.Checksum))
		}
		t.Flush()
	}
	return nil
}

func shortChecksum(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

// readRuleFile reads one rule per line, skipping blanks and '#' comments.
// An empty path yields an empty list.
func readRuleFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rule file: %w", err)
	}
	defer f.Close()

	var rules []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return rules, nil
}
