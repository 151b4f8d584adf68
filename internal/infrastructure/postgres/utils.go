package postgres

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/gestion-api/internal/domain"
	"github.com/jhoicas/gestion-api/internal/domain/identity"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// uniqueViolationError traduce una violación de unicidad a un error de validación por campo,
// deduciendo el campo del nombre del constraint. Devuelve nil si err no es 23505.
func uniqueViolationError(err error, fallbackField string) error {
	if !isUniqueViolation(err) {
		return nil
	}
	var pgErr *pgconn.PgError
	errors.As(err, &pgErr)
	name := strings.ToLower(pgErr.ConstraintName)
	switch {
	case strings.Contains(name, "email"):
		return domain.NewValidationError(identity.ColumnEmail, "el email ya está registrado")
	case strings.Contains(name, "user"):
		return domain.NewValidationError(identity.ColumnUsername, "el identificador ya está registrado")
	case strings.Contains(name, "name"):
		return domain.NewValidationError("name", "ya existe un registro con ese nombre")
	}
	return domain.NewValidationError(fallbackField, "el valor ya está registrado")
}

// validID descarta IDs que no son UUID antes de llegar a la base (evita 22P02 -> 500).
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
