package users

// CreateUserRequest is the payload for provisioning an account.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=128"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ListUsersRequest carries paging for the user listing.
type ListUsersRequest struct {
	Limit  int `json:"limit" validate:"gte=0,lte=200"`
	Offset int `json:"offset" validate:"gte=0"`
}
