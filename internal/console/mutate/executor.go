// Package mutate executes the console's side-effecting operations and
// applies the invalidation policy tying each mutation to the resources it
// affects:
//
//	createOperator  -> nothing (no list in this console shows operators)
//	deleteUser      -> users (force re-fetch of the current query)
//	updateSettings  -> settings cache replaced from the payload, no re-fetch
//	validateQR      -> validation history re-fetched; result handed back
//
// On failure nothing is invalidated; the typed error goes back to the
// caller so the triggering form stays open with its values intact.
package mutate

import (
	"context"
	"errors"
	"sync"

	"github.com/mealqr/console/internal/console/models"
	"github.com/mealqr/console/internal/console/resource"
	"github.com/mealqr/console/internal/logging"
)

// Kind identifies one mutation operation.
type Kind string

const (
	KindCreateOperator Kind = "createOperator"
	KindDeleteUser     Kind = "deleteUser"
	KindUpdateSettings Kind = "updateSettings"
	KindValidateQR     Kind = "validateQR"
)

// ErrMutationPending is returned when a mutation of the same kind is still
// in flight. Distinct kinds may overlap freely.
var ErrMutationPending = errors.New("mutation already in progress")

// Backend is the slice of the API client the executor needs. Narrowed so
// tests can fake it.
type Backend interface {
	CreateOperator(ctx context.Context, username, password, role string) (models.Operator, error)
	DeleteUser(ctx context.Context, id string) error
	UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error)
	ValidateQR(ctx context.Context, code string) (models.ValidationResult, error)
}

// Executor runs one mutation at a time per kind.
type Executor struct {
	backend Backend
	log     logging.Logger

	// Post-success hooks wired by the application: refresh invalidates the
	// affected controller and re-issues its current query.
	refreshUsers      func(ctx context.Context)
	refreshValidation func(ctx context.Context)
	settings          *resource.Controller[models.Settings]

	mu      sync.Mutex
	pending map[Kind]bool
}

// New builds an executor. refreshUsers and refreshValidation re-fetch the
// respective resource with its current query; settings is the controller
// whose cache updateSettings replaces directly.
func New(backend Backend, settings *resource.Controller[models.Settings], refreshUsers, refreshValidation func(ctx context.Context), log logging.Logger) *Executor {
	return &Executor{
		backend:           backend,
		log:               log.With("component", "mutations"),
		refreshUsers:      refreshUsers,
		refreshValidation: refreshValidation,
		settings:          settings,
		pending:           make(map[Kind]bool),
	}
}

// IsPending reports whether a mutation of the given kind is in flight, so
// the UI can disable the triggering control.
func (e *Executor) IsPending(kind Kind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending[kind]
}

func (e *Executor) begin(kind Kind) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending[kind] {
		return ErrMutationPending
	}
	e.pending[kind] = true
	return nil
}

func (e *Executor) end(kind Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending[kind] = false
}

// CreateOperator registers a new console account. Invalidates nothing.
func (e *Executor) CreateOperator(ctx context.Context, username, password, role string) (models.Operator, error) {
	if err := e.begin(KindCreateOperator); err != nil {
		return models.Operator{}, err
	}
	defer e.end(KindCreateOperator)

	op, err := e.backend.CreateOperator(ctx, username, password, role)
	if err != nil {
		return models.Operator{}, err
	}
	e.log.Info(ctx, "operator created", "username", username, "role", role)
	return op, nil
}

// DeleteUser removes one registered user, then forces the user directory to
// re-fetch its current query.
func (e *Executor) DeleteUser(ctx context.Context, id string) error {
	if err := e.begin(KindDeleteUser); err != nil {
		return err
	}
	defer e.end(KindDeleteUser)

	if err := e.backend.DeleteUser(ctx, id); err != nil {
		return err
	}
	e.log.Info(ctx, "user deleted", "id", id)
	if e.refreshUsers != nil {
		e.refreshUsers(ctx)
	}
	return nil
}

// UpdateSettings stores the new machine configuration. On success the
// settings cache is replaced with the record the backend confirmed; since
// the payload is the full new record, no re-fetch is issued.
func (e *Executor) UpdateSettings(ctx context.Context, s models.Settings) error {
	if err := e.begin(KindUpdateSettings); err != nil {
		return err
	}
	defer e.end(KindUpdateSettings)

	updated, err := e.backend.UpdateSettings(ctx, s)
	if err != nil {
		return err
	}
	e.log.Info(ctx, "settings updated", "validity_hours", updated.QRValidityHours, "machine_enabled", updated.MachineEnabled)
	if e.settings != nil {
		e.settings.Replace(resource.SinglePage(updated))
	}
	return nil
}

// ValidateQR submits a coupon for redemption, refreshes validation history
// on success, and returns the result for immediate display. A rejected
// coupon (Success=false) is still a completed mutation: the backend
// recorded the attempt, so history refreshes either way.
func (e *Executor) ValidateQR(ctx context.Context, code string) (models.ValidationResult, error) {
	if err := e.begin(KindValidateQR); err != nil {
		return models.ValidationResult{}, err
	}
	defer e.end(KindValidateQR)

	result, err := e.backend.ValidateQR(ctx, code)
	if err != nil {
		return models.ValidationResult{}, err
	}
	e.log.Info(ctx, "qr validated", "success", result.Success, "message", result.Message)
	if e.refreshValidation != nil {
		e.refreshValidation(ctx)
	}
	return result, nil
}
