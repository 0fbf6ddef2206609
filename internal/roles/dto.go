package roles

// CreateRoleRequest is the payload accepted by the role creation endpoint.
type CreateRoleRequest struct {
	Code        string            `json:"code" validate:"required,min=2,max=64"`
	Name        string            `json:"name" validate:"required,min=2,max=128"`
	Permissions []PermissionGrant `json:"permissions" validate:"omitempty,dive"`
}

// ListRolesRequest carries paging for the role listing.
type ListRolesRequest struct {
	Limit  int `json:"limit" validate:"gte=0,lte=200"`
	Offset int `json:"offset" validate:"gte=0"`
}
