package identity

import "strings"

// Permission is a functional permission code in "resource:action" form
type Permission string

// Permission codes checked by bulk actions
const (
	PermissionAll        Permission = "*"
	PermissionComment    Permission = "comment:create"
	PermissionOrderView  Permission = "order:view"
	PermissionOrderEdit  Permission = "order:edit"
	PermissionEntryView  Permission = "entry:view"
	PermissionEntryEdit  Permission = "entry:edit"
	PermissionSendToTest Permission = "entry:send_to_test"
)

// OrderFieldPermission returns the permission guarding a single order field.
// Holders of "order_field:*" may edit any field.
func OrderFieldPermission(field string) Permission {
	return Permission("order_field:" + strings.ToLower(field))
}

// Resource returns the resource part of the code
func (p Permission) Resource() string {
	resource, _, _ := strings.Cut(string(p), ":")
	return resource
}

// Action returns the action part of the code
func (p Permission) Action() string {
	_, action, _ := strings.Cut(string(p), ":")
	return action
}
