// Package flow turns a budget document into the links of a flow diagram:
// total budget to personnel costs and remaining budget, personnel costs to
// cost categories, and each category to the employees that incur it.
package flow

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"budget-engine/internal/model"
)

const (
	NodeTotalBudget    = "total_budget"
	NodePersonnelCosts = "personnel_costs"
	NodeAcquisition    = "acquisition"
	NodeAdministration = "administration"
	NodeManagement     = "management"
	NodeVacation       = "vacation"
	NodeRemaining      = "remaining"
)

type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

type Link struct {
	Source string          `json:"source"`
	Target string          `json:"target"`
	Amount decimal.Decimal `json:"amount"`
}

type Diagram struct {
	Budget      decimal.Decimal `json:"budget"`
	Spent       decimal.Decimal `json:"spent"`
	Utilization decimal.Decimal `json:"utilization"`
	Nodes       []Node          `json:"nodes"`
	Links       []Link          `json:"links"`
}

const employeeColor = "#D8E4E8"

var categoryNodes = []Node{
	{ID: NodeTotalBudget, Label: "Total Budget", Color: "#C76A2A"},
	{ID: NodePersonnelCosts, Label: "Personnel Costs", Color: "#E6B98C"},
	{ID: NodeAcquisition, Label: "Acquisition", Color: "#5BAE6E"},
	{ID: NodeAdministration, Label: "Administration", Color: "#9E9E9E"},
	{ID: NodeManagement, Label: "Management", Color: "#4A6FA5"},
	{ID: NodeVacation, Label: "Vacation", Color: "#FFC067"},
	{ID: NodeRemaining, Label: "Remaining", Color: "#3C8D5A"},
}

func amount(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Build reads already-derived values only. Employees are ordered by public
// funds, largest first; links with a zero amount are omitted.
func Build(doc model.Document) Diagram {
	budget := amount(doc.TotalBudget)

	employees := make([]model.Employee, len(doc.Employees))
	copy(employees, doc.Employees)
	sort.SliceStable(employees, func(i, j int) bool {
		return employees[i].PublicFunds > employees[j].PublicFunds
	})

	var acquisition, administration, management, vacation, spent decimal.Decimal
	for _, e := range employees {
		acquisition = acquisition.Add(amount(e.AcquisitionCosts))
		administration = administration.Add(amount(e.AdministrationCosts))
		management = management.Add(amount(e.ManagementCosts))
		vacation = vacation.Add(amount(e.VacationCosts))
		spent = spent.Add(amount(e.PublicFunds))
	}
	remaining := decimal.Max(decimal.Zero, budget.Sub(spent))

	d := Diagram{
		Budget: budget,
		Spent:  spent,
		Nodes:  append([]Node(nil), categoryNodes...),
	}
	if budget.IsPositive() {
		d.Utilization = spent.Div(budget).Mul(decimal.NewFromInt(100)).Round(1)
	}

	d.link(NodeTotalBudget, NodePersonnelCosts, spent)
	d.link(NodeTotalBudget, NodeRemaining, remaining)
	d.link(NodePersonnelCosts, NodeAcquisition, acquisition)
	d.link(NodePersonnelCosts, NodeAdministration, administration)
	d.link(NodePersonnelCosts, NodeVacation, vacation)
	d.link(NodePersonnelCosts, NodeManagement, management)

	for i, e := range employees {
		id := e.ID
		if id == "" {
			id = "employee-" + strconv.Itoa(i)
		}
		label := e.Name
		if label == "" {
			label = "(unnamed)"
		}
		d.Nodes = append(d.Nodes, Node{ID: id, Label: label, Color: employeeColor})
		d.link(NodeAcquisition, id, amount(e.AcquisitionCosts))
		d.link(NodeAdministration, id, amount(e.AdministrationCosts))
		d.link(NodeManagement, id, amount(e.ManagementCosts))
		d.link(NodeVacation, id, amount(e.VacationCosts))
	}
	return d
}

func (d *Diagram) link(source, target string, v decimal.Decimal) {
	if !v.IsPositive() {
		return
	}
	d.Links = append(d.Links, Link{Source: source, Target: target, Amount: v})
}

// Label returns the label of node id, or id itself when unknown.
func (d Diagram) Label(id string) string {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n.Label
		}
	}
	return id
}
