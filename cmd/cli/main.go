package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docmerge/adapters/docx"
	"docmerge/adapters/spreadsheet"
	"docmerge/app"
	"docmerge/domain/core"
	"docmerge/domain/mapping"
	"docmerge/domain/tabular"
	"docmerge/ports"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "dev"

const unboundOption = "(leave unbound)"

func main() {
	rootCmd := &cobra.Command{
		Use:   "docmerge",
		Short: "Generate one document per spreadsheet row from a placeholder template",
	}

	rootCmd.AddCommand(
		newPlaceholdersCmd(),
		newColumnsCmd(),
		newMapCmd(),
		newGenerateCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newPlaceholdersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "placeholders [template]",
		Short: "List the placeholders found in a template",
		Long: `Parse a .docx template and list its placeholders in document order.

Example: docmerge placeholders letter.docx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlaceholders(args[0])
		},
	}
}

func newColumnsCmd() *cobra.Command {
	var showStats bool

	cmd := &cobra.Command{
		Use:   "columns [data-file]",
		Short: "List the columns found in a data file",
		Long: `Read a spreadsheet or delimited file and list its columns.

With --stats each column also gets a small numeric profile.

Example: docmerge columns orders.xlsx --stats`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runColumns(args[0], showStats)
		},
	}

	cmd.Flags().BoolVar(&showStats, "stats", false, "Show per-column value statistics")

	return cmd
}

func newMapCmd() *cobra.Command {
	var out string
	var interactive bool

	cmd := &cobra.Command{
		Use:   "map [template] [data-file]",
		Short: "Propose and save a placeholder-to-column mapping",
		Long: `Match template placeholders against data columns by normalized name and
save the result as a mapping file for the generate command.

With --interactive every placeholder can be rebound by hand before saving.

Example: docmerge map letter.docx orders.xlsx --out mapping.yaml --interactive`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(args[0], args[1], out, interactive)
		},
	}

	cmd.Flags().StringVar(&out, "out", "mapping.yaml", "Where to save the mapping file")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Review and adjust every binding before saving")

	return cmd
}

func newGenerateCmd() *cobra.Command {
	opts := generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [template] [data-file]",
		Short: "Generate one document per data row",
		Long: `Render the template once per data row and write the results to the
output directory. Placeholders are bound to columns by normalized name
unless a mapping file or --set overrides are given.

Rows that are missing a value for a bound column are skipped and
reported; the rest of the batch still runs.

Example: docmerge generate letter.docx orders.xlsx --mapping mapping.yaml --name-column order_id`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.mappingPath, "mapping", "", "Mapping file produced by the map command")
	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "Override one binding as placeholder=column (repeatable; empty column unbinds)")
	cmd.Flags().StringVar(&opts.nameColumn, "name-column", "", "Column whose value names each output file (default: mapping file, then first column)")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "output_documents", "Directory the documents are written to")
	cmd.Flags().BoolVar(&opts.yes, "yes", false, "Skip confirmation prompts")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the docmerge version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("docmerge " + version)
		},
	}
}

type generateOptions struct {
	mappingPath string
	nameColumn  string
	outDir      string
	sets        []string
	yes         bool
}

func runPlaceholders(templatePath string) error {
	tmpl, data, err := loadTemplate(templatePath)
	if err != nil {
		return err
	}

	fmt.Printf("Template: %s (sha256 %s)\n", filepath.Base(templatePath), core.NewTemplateHash(data).Short())

	placeholders := tmpl.Placeholders()
	if len(placeholders) == 0 {
		color.Yellow("⚠️  No placeholders found. Every generated document would be identical.")
		return nil
	}

	fmt.Printf("\nPlaceholders (%d):\n", len(placeholders))
	for i, name := range placeholders {
		fmt.Printf("  %d. {%s}\n", i+1, name)
	}

	return nil
}

func runColumns(dataPath string, showStats bool) error {
	table, err := spreadsheet.NewReader().ReadFile(dataPath)
	if err != nil {
		return err
	}

	fmt.Printf("Data: %s (%d columns, %d rows)\n", filepath.Base(dataPath), len(table.Columns), table.RowCount())
	for _, warning := range table.Warnings {
		color.Yellow("⚠️  %s", warning)
	}

	fmt.Printf("\nColumns:\n")
	if !showStats {
		for i, column := range table.Columns {
			fmt.Printf("  %d. %s\n", i+1, column)
		}
		return nil
	}

	for i, profile := range tabular.Profile(table) {
		if profile.Numeric {
			fmt.Printf("  %d. %s: %d non-empty, %d distinct | min %.4g  max %.4g  mean %.4g  median %.4g\n",
				i+1, profile.Column, profile.NonEmpty, profile.Distinct,
				profile.Min, profile.Max, profile.Mean, profile.Median)
			continue
		}
		fmt.Printf("  %d. %s: %d non-empty, %d distinct\n", i+1, profile.Column, profile.NonEmpty, profile.Distinct)
	}

	return nil
}

func runMap(templatePath, dataPath, out string, interactive bool) error {
	tmpl, _, err := loadTemplate(templatePath)
	if err != nil {
		return err
	}
	table, err := spreadsheet.NewReader().ReadFile(dataPath)
	if err != nil {
		return err
	}

	placeholders := tmpl.Placeholders()
	if len(placeholders) == 0 {
		color.Yellow("⚠️  The template has no placeholders; there is nothing to map.")
	}

	proposal := mapping.Propose(placeholders, table.Columns)
	bindings := proposal.Bindings

	fmt.Printf("Proposed bindings (%d of %d matched):\n", len(bindings), len(placeholders))
	for _, name := range placeholders {
		if column, ok := bindings.Bound(name); ok {
			fmt.Printf("  ✅ {%s} → %s\n", name, column)
			continue
		}
		color.Yellow("  ⚠️  {%s} is unbound", name)
	}
	for _, warning := range proposal.Warnings {
		color.Yellow("⚠️  %s", warning)
	}

	nameColumn := ""
	if len(table.Columns) > 0 {
		nameColumn = table.Columns[0]
	}

	if interactive {
		options := append([]string{}, table.Columns...)
		options = append(options, unboundOption)

		for _, name := range placeholders {
			choice := unboundOption
			if column, ok := bindings.Bound(name); ok {
				choice = column
			}
			prompt := &survey.Select{
				Message: fmt.Sprintf("Column for {%s}:", name),
				Options: options,
				Default: choice,
			}
			if err := survey.AskOne(prompt, &choice); err != nil {
				return err
			}
			if choice == unboundOption {
				bindings.Unbind(name)
			} else {
				bindings.Bind(name, choice)
			}
		}

		namePrompt := &survey.Select{
			Message: "Column that names each output file:",
			Options: table.Columns,
			Default: nameColumn,
		}
		if err := survey.AskOne(namePrompt, &nameColumn); err != nil {
			return err
		}
	}

	var unbound []string
	for _, name := range placeholders {
		if _, ok := bindings.Bound(name); !ok {
			unbound = append(unbound, name)
		}
	}

	f := &mapping.File{
		Template:   filepath.Base(templatePath),
		NameColumn: nameColumn,
		Bindings:   bindings,
		Unbound:    unbound,
	}
	if err := f.Save(out); err != nil {
		return err
	}

	color.Green("💾 Mapping saved to %s", out)
	return nil
}

func runGenerate(ctx context.Context, templatePath, dataPath string, opts generateOptions) error {
	tmpl, _, err := loadTemplate(templatePath)
	if err != nil {
		return err
	}
	table, err := spreadsheet.NewReader().ReadFile(dataPath)
	if err != nil {
		return err
	}
	for _, warning := range table.Warnings {
		color.Yellow("⚠️  %s", warning)
	}

	bindings := mapping.Propose(tmpl.Placeholders(), table.Columns).Bindings
	nameColumn := opts.nameColumn

	if opts.mappingPath != "" {
		f, err := mapping.LoadFile(opts.mappingPath)
		if err != nil {
			return err
		}
		bindings = f.Mapping()
		if nameColumn == "" {
			nameColumn = f.NameColumn
		}
	}

	for _, pair := range opts.sets {
		name, column, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q (expected placeholder=column)", pair)
		}
		if column == "" {
			bindings.Unbind(name)
		} else {
			bindings.Bind(name, column)
		}
	}

	if nameColumn == "" && len(table.Columns) > 0 {
		nameColumn = table.Columns[0]
	}

	if len(tmpl.Placeholders()) == 0 && !opts.yes {
		color.Yellow("⚠️  The template has no placeholders; every document will be identical.")
		proceed := false
		if err := survey.AskOne(&survey.Confirm{Message: "Generate anyway?"}, &proceed); err != nil {
			return err
		}
		if !proceed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Printf("Generating %d documents into %s...\n", table.RowCount(), opts.outDir)

	summary, err := app.NewGenerationService(nil).Generate(ctx, app.GenerateRequest{
		Template:       tmpl,
		Table:          table,
		Bindings:       bindings,
		FilenameColumn: nameColumn,
		OutputDir:      opts.outDir,
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	fmt.Printf("\n=== GENERATION SUMMARY ===\n")
	fmt.Printf("Run ID: %s\n", summary.RunID)
	fmt.Printf("Output: %s\n", summary.OutputDir)
	fmt.Printf("Rows: %d | Succeeded: %d | Failed: %d | Elapsed: %.2fs\n",
		summary.Total, summary.Succeeded, summary.Failed, summary.Elapsed.Seconds())

	if summary.Failed > 0 {
		fmt.Printf("\nSkipped rows:\n")
		shown := min(len(summary.Failures), 10)
		for _, failure := range summary.Failures[:shown] {
			color.Red("  ❌ %s", failure.Reason)
		}
		if len(summary.Failures) > shown {
			fmt.Printf("  ... and %d more\n", len(summary.Failures)-shown)
		}
		color.Yellow("\n⚠️  %d of %d documents generated", summary.Succeeded, summary.Total)
		return nil
	}

	color.Green("\n✅ All %d documents generated", summary.Succeeded)
	return nil
}

func loadTemplate(path string) (ports.DocumentTemplate, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read template: %w", err)
	}
	tmpl, err := docx.NewCodec().Parse(filepath.Base(path), data)
	if err != nil {
		return nil, nil, err
	}
	return tmpl, data, nil
}
