// Package validation valida DTOs con go-playground/validator y traduce los errores
// a domain.ValidationError con mensajes por campo (nombre JSON).
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/gestion-api/internal/domain"
)

// MinPasswordLength longitud mínima de contraseña aceptada por registro y alta de usuarios.
const MinPasswordLength = 3

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Collect valida s y devuelve los errores acumulados (nunca nil).
// Permite agregar reglas que los tags no cubren antes de llamar OrNil.
func Collect(s any) *domain.ValidationError {
	verr := &domain.ValidationError{}
	err := validate.Struct(s)
	if err == nil {
		return verr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("_", "entrada inválida")
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), message(fe))
	}
	return verr
}

// Struct valida s y devuelve *domain.ValidationError o nil.
func Struct(s any) error {
	return Collect(s).OrNil()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "el campo es obligatorio"
	case "email":
		return "debe ser un email válido"
	case "min":
		if isNumeric(fe.Kind()) {
			return fmt.Sprintf("debe ser mayor o igual a %s", fe.Param())
		}
		return fmt.Sprintf("debe tener al menos %s caracteres", fe.Param())
	case "max":
		if isNumeric(fe.Kind()) {
			return fmt.Sprintf("debe ser menor o igual a %s", fe.Param())
		}
		return fmt.Sprintf("no debe superar %s caracteres", fe.Param())
	case "gte":
		return fmt.Sprintf("debe ser mayor o igual a %s", fe.Param())
	case "dive":
		return "contiene valores inválidos"
	default:
		return "valor inválido"
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
