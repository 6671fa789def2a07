package users

import "context"

// Repo is the admin view of the backend's user store.
type Repo interface {
	List(ctx context.Context, params ListParams) (*Page, error)
	Apply(ctx context.Context, id string, action Action, reason string) (*User, error)
	Delete(ctx context.Context, id string) error
	SendEmail(ctx context.Context, id string, email Email) error
	Me(ctx context.Context) (*User, error)
}
