package mutations

var registry = map[string]MutationHandler{
	"add_record":       &AddRecordHandler{},
	"update_field":     &UpdateFieldHandler{},
	"delete_record":    &DeleteRecordHandler{},
	"set_total_budget": &SetTotalBudgetHandler{},
	"update_settings":  &UpdateSettingsHandler{},
}

func Get(name string) (MutationHandler, bool) {
	h, ok := registry[name]
	return h, ok
}

// Names returns the registered mutation names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
