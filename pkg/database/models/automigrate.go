package models

type Model interface{}

var models = []Model{}

// All lists every model which needs a table.
func All() []interface{} {
	all := make([]interface{}, 0, len(models))
	for _, m := range models {
		all = append(all, m)
	}
	return all
}

func registerForAutomigration(m Model) {
	models = append(models, m)
}
