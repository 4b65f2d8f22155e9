package feature

import (
	"strings"

	"github.com/boardspec/extractor/internal/model"
)

// maxQueryLength caps the search query handed to the web-search collaborator.
const maxQueryLength = 400

// BuildSearchQuery composes a web-search query from the identifying
// attributes already extracted plus the names of the attributes still
// needed. Clauses whose value is empty or "not available" are omitted.
// Queries longer than maxQueryLength are truncated with a trailing ellipsis.
func BuildSearchQuery(tree *model.Tree, targetPaths []string) string {
	name := leafValue(tree, "name")
	manufacturer := leafValue(tree, "manufacturer")
	formFactor := leafValue(tree, "form_factor")
	processorArch := leafValue(tree, "processor_architecture")

	var query string
	if usable(name) {
		query = name
	}
	if usable(manufacturer) {
		if query != "" {
			query += " by " + manufacturer
		} else {
			query = manufacturer
		}
	}
	if usable(formFactor) {
		query += ", form factor " + formFactor
	}
	if usable(processorArch) {
		query += ", processor architecture " + processorArch
	}

	targets := make([]string, len(targetPaths))
	for i, path := range targetPaths {
		targets[i] = strings.ReplaceAll(path, ".", " ")
	}
	query += ". Find product specs: " + strings.Join(targets, ", ") + "."

	if len(query) > maxQueryLength {
		query = query[:maxQueryLength-3] + "..."
	}
	return strings.TrimSpace(query)
}

func usable(value string) bool {
	return value != "" && !strings.EqualFold(value, model.NotAvailable)
}

func leafValue(tree *model.Tree, path string) string {
	leaf := tree.Lookup(path)
	if leaf == nil {
		return ""
	}
	return leaf.Value
}
