package main

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"budget-engine/internal/budget"
	"budget-engine/internal/engine"
	"budget-engine/internal/model"
	"budget-engine/internal/store"
	"budget-engine/internal/style"
)

var (
	addName        string
	addRole        string
	addRate        string
	addEmployment  float64
	addResearch    float64
	addAcquisition float64
	addManagement  bool
	addILV         bool
	addBirthdate   string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an employee record",
	Long: `Add an employee record. Omitted flags keep the input defaults:
role Scientific Staff, no hourly rate, 80% employment, 50% research.`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

var setCmd = &cobra.Command{
	Use:   "set <row> <field> <value>",
	Short: "Edit one field of a record",
	Long: `Edit one field of the record at <row> (1-based, canonical order).
<field> is a field key such as hourlyRate or a column name such as
"Hourly Rate (CHF)". Derived fields cannot be set.`,
	Args: cobra.ExactArgs(3),
	RunE: runSet,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <row>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var budgetCmd = &cobra.Command{
	Use:   "budget <amount>",
	Short: "Set the total budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudget,
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "Employee name")
	addCmd.Flags().StringVar(&addRole, "role", "", "Role (Lecturer, Scientific Staff, Research Assistant)")
	addCmd.Flags().StringVar(&addRate, "rate", "", "Hourly rate in CHF (integer)")
	addCmd.Flags().Float64Var(&addEmployment, "employment", 80, "Employment percentage")
	addCmd.Flags().Float64Var(&addResearch, "research", 50, "Research percentage")
	addCmd.Flags().Float64Var(&addAcquisition, "acquisition", 0, "Acquisition hours")
	addCmd.Flags().BoolVar(&addManagement, "management", false, "Holds a management position")
	addCmd.Flags().BoolVar(&addILV, "ilv", false, "Externally funded (no vacation costs)")
	addCmd.Flags().StringVar(&addBirthdate, "birthdate", "", "Birthdate (YYYY-MM-DD)")

	rootCmd.AddCommand(addCmd, setCmd, deleteCmd, budgetCmd)
}

// mutate applies one named mutation to the document file. props receives
// the loaded session so row numbers can be resolved to record ids. Nothing
// is written when the mutation fails.
func mutate(name string, props func(s *budget.Session) (any, error)) error {
	defaults, err := settings()
	if err != nil {
		return err
	}
	return store.Update(cfg.BudgetFile, defaults, func(doc model.Document) (model.Document, error) {
		s := budget.NewSession(doc.Settings)
		s.Replace(doc)

		p, err := props(s)
		if err != nil {
			return doc, err
		}
		raw, err := json.Marshal(p)
		if err != nil {
			return doc, err
		}
		resp := engine.Process(s, &model.CalculationRequest{Mutations: []model.Mutation{{
			MutationID:             "1",
			MutationDefinitionName: name,
			MutationProperties:     raw,
		}}})

		for _, m := range resp.CalculationResult.Messages {
			if m.Level == model.LevelWarning {
				style.PrintWarning("%s", m.Message)
			}
		}
		if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
			for _, m := range resp.CalculationResult.Messages {
				if m.Level == model.LevelCritical {
					return doc, fmt.Errorf("%s: %s", m.Code, m.Message)
				}
			}
			return doc, fmt.Errorf("%s failed", name)
		}

		for _, pm := range resp.CalculationResult.Mutations {
			if len(pm.ChangedFields) > 0 {
				fmt.Printf("%s %s: %v\n", style.Success.Render("Updated"), name, pm.ChangedFields)
			} else {
				fmt.Printf("%s %s\n", style.Success.Render("Applied"), name)
			}
		}
		agg := s.Aggregates()
		fmt.Printf("Remaining budget: %s CHF\n", formatSigned(agg.RemainingBudget))
		return s.Document(), nil
	})
}

// recordID resolves a 1-based row number in canonical order.
func recordID(s *budget.Session, arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return "", fmt.Errorf("invalid row %q", arg)
	}
	records := s.Records()
	if n < 1 || n > len(records) {
		return "", fmt.Errorf("row %d out of range (1-%d)", n, len(records))
	}
	return records[n-1].ID, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	props := map[string]any{
		"name":                  addName,
		"employment_percentage": addEmployment,
		"research_percentage":   addResearch,
		"acquisition_hours":     addAcquisition,
		"is_management":         addManagement,
		"is_externally_funded":  addILV,
	}
	if addRole != "" {
		props["role"] = addRole
	}
	if addRate != "" {
		props["hourly_rate"] = addRate
	}
	if addBirthdate != "" {
		props["birthdate"] = addBirthdate
	}
	return mutate("add_record", func(*budget.Session) (any, error) {
		return props, nil
	})
}

func runSet(cmd *cobra.Command, args []string) error {
	return mutate("update_field", func(s *budget.Session) (any, error) {
		id, err := recordID(s, args[0])
		if err != nil {
			return nil, err
		}
		return map[string]any{"record_id": id, "field": args[1], "value": args[2]}, nil
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	return mutate("delete_record", func(s *budget.Session) (any, error) {
		id, err := recordID(s, args[0])
		if err != nil {
			return nil, err
		}
		return map[string]any{"record_id": id}, nil
	})
}

func runBudget(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[0])
	}
	return mutate("set_total_budget", func(*budget.Session) (any, error) {
		return map[string]any{"total_budget": amount}, nil
	})
}
