package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/gestion-api/internal/domain/identity"
)

func strPtr(s string) *string { return &s }

func TestLookupOrder_RespetaPrioridad(t *testing.T) {
	cases := []struct {
		name     string
		existing []string
		want     []string
	}{
		{"esquema actual", []string{"id", "email", "username", "name"}, []string{"username", "email"}},
		{"solo email", []string{"id", "email", "password_hash"}, []string{"email"}},
		{"legado usuario", []string{"email", "usuario", "user"}, []string{"user", "usuario", "email"}},
		{"sin candidatas", []string{"id", "name"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, identity.LookupOrder(tc.existing))
		})
	}
}

func TestWriteColumn_NormalizaAUsername(t *testing.T) {
	assert.Equal(t, "username", identity.WriteColumn([]string{"usuario", "username", "email"}))
	assert.Equal(t, "usuario", identity.WriteColumn([]string{"usuario", "email"}))
	assert.Equal(t, "", identity.WriteColumn([]string{"email"}))
}

func TestResolve_PrimerValorNoNulo(t *testing.T) {
	values := map[string]*string{
		"username": nil,
		"usuario":  strPtr("jperez"),
		"email":    strPtr("jperez@example.com"),
	}
	assert.Equal(t, "jperez", identity.Resolve(values))

	assert.Equal(t, "a@b.com", identity.Resolve(map[string]*string{"email": strPtr("a@b.com")}))
	assert.Equal(t, "", identity.Resolve(map[string]*string{"username": nil}))
}
