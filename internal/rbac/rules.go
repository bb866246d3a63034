package rbac

// Simple default policy. Admin access is a role evaluated here, never an
// identity comparison in handler code.
var RolePermissions = map[string][]string{
	"learner": {
		"result:submit",
		"progress:view-own",
		"module:complete",
	},
	"admin": {
		"*", // everything
	},
}
