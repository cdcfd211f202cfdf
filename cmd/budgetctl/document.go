package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"budget-engine/internal/budget"
	"budget-engine/internal/export"
	"budget-engine/internal/flow"
	"budget-engine/internal/handler"
	"budget-engine/internal/model"
	"budget-engine/internal/ratecard"
	"budget-engine/internal/schema"
	"budget-engine/internal/store"
	"budget-engine/internal/style"
	"budget-engine/internal/view"
)

var (
	newBudget float64
	newForce  bool

	showFilters []string
	showSort    string
	showDesc    bool
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create an empty budget document",
	Args:  cobra.NoArgs,
	RunE:  runNew,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show records and totals",
	Long: `Show the records of the document with their derived costs, followed
by the document totals.

Filters match a case-insensitive substring of a field and may be repeated:
  budgetctl show --filter role=lecturer --filter name=an
Sorting never changes the stored order:
  budgetctl show --sort publicFunds --desc`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "List how the budget flows into cost categories",
	Args:  cobra.NoArgs,
	RunE:  runFlow,
}

var exportCmd = &cobra.Command{
	Use:   "export <out.xlsx>",
	Short: "Export the document as an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "List known hourly rates",
	Args:  cobra.NoArgs,
	RunE:  runRates,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the document over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := handler.Open(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Serving %s on :%s\n", cfg.BudgetFile, cfg.Port)
		return srv.ListenAndServe(":" + cfg.Port)
	},
}

func init() {
	newCmd.Flags().Float64Var(&newBudget, "budget", 0, "Total budget in CHF")
	newCmd.Flags().BoolVar(&newForce, "force", false, "Overwrite an existing document")

	showCmd.Flags().StringArrayVar(&showFilters, "filter", nil, "Filter as field=text (repeatable)")
	showCmd.Flags().StringVar(&showSort, "sort", "", "Sort by field")
	showCmd.Flags().BoolVar(&showDesc, "desc", false, "Sort descending")

	rootCmd.AddCommand(newCmd, showCmd, flowCmd, exportCmd, ratesCmd, serveCmd)
}

func loadSession() (*budget.Session, error) {
	defaults, err := settings()
	if err != nil {
		return nil, err
	}
	doc, err := store.Load(cfg.BudgetFile, defaults)
	if err != nil {
		return nil, err
	}
	s := budget.NewSession(doc.Settings)
	s.Replace(doc)
	return s, nil
}

func runNew(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfg.BudgetFile); err == nil && !newForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfg.BudgetFile)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if newBudget < 0 {
		return fmt.Errorf("budget must not be negative")
	}
	s, err := settings()
	if err != nil {
		return err
	}
	doc := model.Document{TotalBudget: newBudget, Settings: s, Employees: []model.Employee{}}
	if err := store.Save(cfg.BudgetFile, doc); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", style.Success.Render("Created"), cfg.BudgetFile)
	return nil
}

func parseQuery() (view.Query, error) {
	q := view.Query{Filters: map[schema.Key]string{}}
	for _, f := range showFilters {
		name, text, ok := strings.Cut(f, "=")
		if !ok {
			return q, fmt.Errorf("invalid filter %q (want field=text)", f)
		}
		field, found := schema.LookupColumn(strings.TrimSpace(name))
		if !found {
			return q, fmt.Errorf("unknown field %q", name)
		}
		q.Filters[field.Key] = text
	}
	if showSort != "" {
		field, found := schema.LookupColumn(showSort)
		if !found {
			return q, fmt.Errorf("unknown field %q", showSort)
		}
		q.Sort = field.Key
		q.Order = view.Ascending
		if showDesc {
			q.Order = view.Descending
		}
	}
	return q, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	q, err := parseQuery()
	if err != nil {
		return err
	}
	s, err := loadSession()
	if err != nil {
		return err
	}

	records := s.Records()
	rows, err := q.Apply(records)
	if err != nil {
		return err
	}
	position := make(map[string]int, len(records))
	for i, r := range records {
		position[r.ID] = i + 1
	}

	fields := schema.Columns(s.Settings())
	cols := []style.Column{{Name: "#", Align: style.AlignRight}}
	for _, f := range fields {
		c := style.Column{Name: f.Column, MaxWidth: 24}
		if f.IsNumeric() {
			c.Align = style.AlignRight
		}
		cols = append(cols, c)
	}
	tbl := style.NewTable(cols...)
	for i := range rows {
		values := []string{fmt.Sprint(position[rows[i].ID])}
		for _, f := range fields {
			values = append(values, f.Display(&rows[i]))
		}
		tbl.AddRow(values...)
	}
	fmt.Print(tbl.Render())
	if len(rows) < len(records) {
		fmt.Println(style.Dim.Render(fmt.Sprintf("  %d of %d records shown", len(rows), len(records))))
	}
	fmt.Println()
	printTotals(s)
	return nil
}

func printTotals(s *budget.Session) {
	agg := s.Aggregates()
	tbl := style.NewTable(style.Column{Name: "Total"}, style.Column{Name: "CHF", Align: style.AlignRight})
	tbl.AddRow("Budget", schema.FormatAmount(s.TotalBudget()))
	tbl.AddRow("Acquisition costs", schema.FormatAmount(agg.TotalAcquisitionCosts))
	tbl.AddRow("Administration costs", schema.FormatAmount(agg.TotalAdministrationCosts))
	if agg.TotalManagementCosts != nil {
		tbl.AddRow("Management costs", schema.FormatAmount(*agg.TotalManagementCosts))
	}
	if agg.TotalVacationCosts != nil {
		tbl.AddRow("Vacation costs", schema.FormatAmount(*agg.TotalVacationCosts))
	}
	tbl.AddRow("Public funds", schema.FormatAmount(agg.TotalPublicFunds))
	tbl.AddRow("Remaining", formatSigned(agg.RemainingBudget))
	fmt.Print(tbl.Render())
}

// formatSigned highlights an overspent budget.
func formatSigned(v float64) string {
	if v < 0 {
		return style.Error.Render(schema.FormatAmount(v))
	}
	return schema.FormatAmount(v)
}

func runFlow(cmd *cobra.Command, args []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	d := flow.Build(s.Document())

	tbl := style.NewTable(
		style.Column{Name: "From"},
		style.Column{Name: "To", MaxWidth: 30},
		style.Column{Name: "CHF", Align: style.AlignRight},
	)
	for _, l := range d.Links {
		amount, _ := l.Amount.Float64()
		tbl.AddRow(d.Label(l.Source), d.Label(l.Target), schema.FormatAmount(amount))
	}
	fmt.Print(tbl.Render())
	fmt.Printf("\nUtilization: %s%%\n", d.Utilization.StringFixed(1))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	f, err := export.Workbook(s.Document(), s.Aggregates())
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(args[0]); err != nil {
		return fmt.Errorf("saving %s: %w", args[0], err)
	}
	fmt.Printf("%s %s\n", style.Success.Render("Exported"), args[0])
	return nil
}

func runRates(cmd *cobra.Command, args []string) error {
	c := ratecard.New(cfg.RateCatalog.URL, cfg.RateCatalog.Timeout)
	byRole := c.Rates(model.Roles...)
	tbl := style.NewTable(style.Column{Name: "Role"}, style.Column{Name: "Hourly rates (CHF)"})
	for _, r := range model.Roles {
		tbl.AddRow(schema.RoleLabel(r), strings.Join(byRole[r], ", "))
	}
	fmt.Print(tbl.Render())
	return nil
}
