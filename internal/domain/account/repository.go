// internal/domain/account/repository.go
package account

import "context"

// Directory resolves and stamps accounts. Absent accounts are reported as
// xerrors.ErrNotFound; callers at the refresh boundary collapse that into the
// generic credential rejection.
type Directory interface {
	FindByID(ctx context.Context, id int64) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}
