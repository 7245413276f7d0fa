package fflogs

import (
	"embed"
	"io/fs"
	"text/template"
)

//go:embed query/*.tmpl
var queryFS embed.FS

var (
	tmplFightSummary      = template.Must(template.ParseFS(queryFS, "query/FightSummary.tmpl"))
	tmplDamageTakenEvents = template.Must(template.ParseFS(queryFS, "query/DamageTakenEvents.tmpl"))
)

// Queries exposes the GraphQL query sources, used to invalidate cached responses
// whenever a query changes.
func Queries() fs.FS {
	return queryFS
}
