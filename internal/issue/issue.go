// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	ModuleNotFoundId Id = iota + 1
	MetadataNotFoundId
	MetadataInvalidId
	ConfigLoadFailedId
	DatabaseUnavailableId
	DuplicateModuleId
	RequirementCycleId
	LifecycleFailedId
	PermissionDeniedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guide as terminal Markdown using the glamour style at stylePath
// ("dark", "light", "notty", or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "\n- [" + string(link) + "](" + string(link) + ")"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- [" + string(link) + "](" + string(link) + ")"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found!

No module with that name is registered in the catalog.

## Things you can try:
- List the registered modules:
~~~
$ modcat list
~~~

- Module names are case-sensitive: check the spelling
- Install the module from its directory:
~~~
$ modcat install ./modules/Shop
~~~`,
	}

	metadataNotFoundIssue = &Issue{
		id: MetadataNotFoundId,
		mdMsg: `
# No module metadata found!

The module directory has no metadata document.

## Files looked for (in order of precedence):
1. module.json
2. module.cue
3. module.toml

## Example module.json:
~~~json
{
  "name": "Shop",
  "alias": "shop",
  "order": 1,
  "requires": ["cart"],
  "providers": ["Shop.Provider"]
}
~~~`,
	}

	metadataInvalidIssue = &Issue{
		id: MetadataInvalidId,
		mdMsg: `
# Invalid module metadata!

The module metadata document does not match the expected schema.

## Common issues:
- Missing the required ` + "`name`" + ` field
- Names and aliases must start with a letter and contain only letters, digits, '-' and '_'
- ` + "`requires`" + ` must be a list of aliases
- ` + "`aliases`" + ` must map names to strings

## Things you can try:
- Check the file and line reported above
- Inspect what the catalog reads from the directory:
~~~
$ modcat show <name>
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or is invalid.

## Things you can try:
- Print the effective configuration:
~~~
$ modcat config show
~~~

- Write a fresh default configuration file:
~~~
$ modcat config init
~~~

## Example config.cue:
~~~cue
modules: {
  cache: {
    enabled:  true
    key:      "modcat"
    lifetime: 60
  }
  paths: {
    modules: "modules"
    assets:  "public/modules"
  }
}
database: {
  driver: "sqlite"
  dsn:    "modcat.db"
}
~~~`,
	}

	databaseUnavailableIssue = &Issue{
		id: DatabaseUnavailableId,
		mdMsg: `
# Module database unavailable!

The catalog could not open its database.

## Things you can try:
- Check ` + "`database.driver`" + ` (sqlite or postgres) and ` + "`database.dsn`" + `
- Override them from the environment:
~~~
$ MODCAT_DATABASE_DSN=./modcat.db modcat list
~~~

- For PostgreSQL, make sure the server is reachable and the user can create tables`,
	}

	duplicateModuleIssue = &Issue{
		id: DuplicateModuleId,
		mdMsg: `
# Module already installed!

Module names are unique across the catalog.

## Things you can try:
- Delete the existing module first:
~~~
$ modcat delete <name>
~~~

- Or rename the module in its metadata document`,
	}

	requirementCycleIssue = &Issue{
		id: RequirementCycleId,
		mdMsg: `
# Requirement cycle detected!

Two or more modules require each other through their ` + "`requires`" + ` lists.

## Things you can try:
- Inspect the requirements of each module in the cycle:
~~~
$ modcat requires <name> --transitive
~~~

- Remove one of the edges so the graph becomes acyclic`,
	}

	lifecycleFailedIssue = &Issue{
		id: LifecycleFailedId,
		mdMsg: `
# Module lifecycle failed!

A register or boot hook returned an error. Modules after the failing one were not processed.

## Things you can try:
- Disable the failing module and retry:
~~~
$ modcat disable <name>
$ modcat lifecycle
~~~

- Run with ` + "`--verbose`" + ` to see each hook as it runs`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- The module directory or database file is read-only
- The configuration directory belongs to another user

## Things you can try:
- Check file and directory permissions
- Point ` + "`database.dsn`" + ` at a location you own`,
	}

	issues = map[Id]*Issue{
		moduleNotFoundIssue.Id():      moduleNotFoundIssue,
		metadataNotFoundIssue.Id():    metadataNotFoundIssue,
		metadataInvalidIssue.Id():     metadataInvalidIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		databaseUnavailableIssue.Id(): databaseUnavailableIssue,
		duplicateModuleIssue.Id():     duplicateModuleIssue,
		requirementCycleIssue.Id():    requirementCycleIssue,
		lifecycleFailedIssue.Id():     lifecycleFailedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
