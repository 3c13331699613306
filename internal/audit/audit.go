// Package audit records portal actions for later review. The portal owns no
// banking data, so the audit trail is the only state it persists itself.
package audit

import (
	"context"
	"time"
)

// Actions recorded by the portal.
const (
	ActionSignIn        = "sign_in"
	ActionSignOut       = "sign_out"
	ActionSignUp        = "sign_up"
	ActionOpenAccount   = "open_account"
	ActionDeposit       = "deposit"
	ActionWithdraw      = "withdraw"
	ActionExportReport  = "export_report"
	ActionUpdateUser    = "update_user"
	ActionDeleteUser    = "delete_user"
	ActionUpdateProduct = "update_product"
	ActionResetPassword = "reset_password"
)

// Entry is one recorded portal action.
type Entry struct {
	ID        string
	ActorID   string
	Role      string
	Action    string
	Target    string
	RequestID string
	CreatedAt time.Time
}

// Repository persists audit entries.
type Repository interface {
	Record(ctx context.Context, entry Entry) error
	ListByActor(ctx context.Context, actorID string, limit int) ([]Entry, error)
}
