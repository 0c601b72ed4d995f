// Package main is the entry point for the scotbudget binary.
// It provides CLI access to the budget calculator and the mansion tax
// constituency allocator.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/holyrood-analytics/scotbudget/pkg/budget"
	"github.com/holyrood-analytics/scotbudget/pkg/mansiontax"
	"github.com/holyrood-analytics/scotbudget/pkg/reform"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for scotbudget
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scotbudget",
		Short: "Scottish Budget 2026-27 policy toolkit",
		Long: `Command line tools around the Scottish Budget 2026-27 model.

Run the mansion tax constituency allocation, inspect the modelled reforms,
or compute the impact of the budget measures on a single household.`,
	}

	rootCmd.AddCommand(newAllocateCmd())
	rootCmd.AddCommand(newReformsCmd())
	rootCmd.AddCommand(newImpactCmd())

	return rootCmd
}

// newAllocateCmd creates the mansion tax allocation command
func newAllocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate mansion tax revenue across constituencies",
		Long: `Distributes the expected mansion tax revenue across the 73 Scottish
constituencies, weighting population by council wealth factors.

Example:
  scotbudget allocate --format csv --output allocation.csv --band-j 9000`,
		RunE: runAllocate,
	}

	cmd.Flags().String("format", "pretty", "Output format (pretty, csv)")
	cmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().Float64("band-i", 0, "Band I surcharge in pounds (default 2000)")
	cmd.Flags().Float64("band-j", 0, "Band J surcharge in pounds (default 7500)")

	return cmd
}

func runAllocate(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	bandI, err := cmd.Flags().GetFloat64("band-i")
	if err != nil {
		return fmt.Errorf("failed to get band-i flag: %w", err)
	}
	bandJ, err := cmd.Flags().GetFloat64("band-j")
	if err != nil {
		return fmt.Errorf("failed to get band-j flag: %w", err)
	}

	analysis, err := mansiontax.AnalyzeWith(mansiontax.Options{
		BandISurcharge: bandI,
		BandJSurcharge: bandJ,
	})
	if err != nil {
		return fmt.Errorf("allocation failed: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "pretty":
		return analysis.WriteTable(w)
	case "csv":
		return analysis.WriteCSV(w)
	default:
		return fmt.Errorf("unknown format %q, supported formats: pretty, csv", format)
	}
}

// newReformsCmd creates the reform listing command
func newReformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reforms",
		Short: "List the modelled budget reforms",
		RunE:  runReforms,
	}
}

func runReforms(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	for _, r := range reform.BudgetReforms() {
		fmt.Fprintf(w, "%s\n", r.ID)
		fmt.Fprintf(w, "    %s\n", r.Name)
		fmt.Fprintf(w, "    %s\n\n", r.Description)
	}
	return nil
}

// newImpactCmd creates the single household impact command
func newImpactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Compute the budget impact for one household",
		Long: `Runs the two budget measures against a described household and prints
the annual net income changes as JSON.

Example:
  scotbudget impact --income 25000 --married --child-age 3 --child-age 0`,
		RunE: runImpact,
	}

	cmd.Flags().Float64("income", budget.DefaultEmploymentIncome, "Employment income of the primary adult")
	cmd.Flags().Bool("married", false, "Household has a second adult")
	cmd.Flags().Float64("partner-income", 0, "Employment income of the partner")
	cmd.Flags().IntSlice("child-age", nil, "Age of a child (repeat per child)")

	return cmd
}

func runImpact(cmd *cobra.Command, args []string) error {
	married, err := cmd.Flags().GetBool("married")
	if err != nil {
		return fmt.Errorf("failed to get married flag: %w", err)
	}
	partnerIncome, err := cmd.Flags().GetFloat64("partner-income")
	if err != nil {
		return fmt.Errorf("failed to get partner-income flag: %w", err)
	}
	childAges, err := cmd.Flags().GetIntSlice("child-age")
	if err != nil {
		return fmt.Errorf("failed to get child-age flag: %w", err)
	}

	in := budget.HouseholdInput{
		IsMarried:     married,
		PartnerIncome: partnerIncome,
		ChildrenAges:  childAges,
	}
	// Only pin earnings when the flag was given, so an explicit zero is
	// distinguishable from the default household.
	if cmd.Flags().Changed("income") {
		income, err := cmd.Flags().GetFloat64("income")
		if err != nil {
			return fmt.Errorf("failed to get income flag: %w", err)
		}
		in.EmploymentIncome = &income
	}

	calc, err := budget.NewCalculator()
	if err != nil {
		return err
	}
	impact, err := calc.Calculate(in)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(impact, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
