package rbac

const (
	PermKeyCreate      = "key:create"
	PermKeyView        = "key:view"
	PermSheetEvaluate  = "sheet:evaluate"
	PermEvaluationView = "evaluation:view"
	PermEventsView     = "events:view" // admin only
)

// AllPermissions are the permissions checked by the HTTP routes.
var AllPermissions = []string{
	PermKeyCreate,
	PermKeyView,
	PermSheetEvaluate,
	PermEvaluationView,
	PermEventsView,
}

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	"teacher": {
		"key:*",
		PermSheetEvaluate,
		PermEvaluationView,
	},
	"assistant": {
		PermKeyView,
		PermSheetEvaluate,
		PermEvaluationView,
	},
	"admin": {
		"*", // everything
	},
}
