// Package identity concentra la política de resolución del identificador de usuario.
//
// El esquema evolucionó de un login solo por email a una columna username dedicada, y hay
// instalaciones con columnas user o usuario. Ningún otro paquete debe conocer la lista de
// candidatas ni su orden.
package identity

// Columnas candidatas en orden de prioridad.
const (
	ColumnUsername = "username"
	ColumnUser     = "user"
	ColumnUsuario  = "usuario"
	ColumnEmail    = "email"
)

// Candidates devuelve las columnas candidatas en orden de prioridad.
func Candidates() []string {
	return []string{ColumnUsername, ColumnUser, ColumnUsuario, ColumnEmail}
}

// LookupOrder filtra las candidatas a las columnas existentes, conservando la prioridad.
func LookupOrder(existing []string) []string {
	set := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		set[c] = struct{}{}
	}
	var out []string
	for _, c := range Candidates() {
		if _, ok := set[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// WriteColumn devuelve la columna donde se persiste el identificador.
// Vacío si solo existe email: en ese caso el email es el identificador.
func WriteColumn(existing []string) string {
	for _, c := range LookupOrder(existing) {
		if c != ColumnEmail {
			return c
		}
	}
	return ""
}

// Resolve devuelve el primer valor no nulo y no vacío según la prioridad.
func Resolve(values map[string]*string) string {
	for _, c := range Candidates() {
		if v, ok := values[c]; ok && v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
