package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	dErrors "onestop/pkg/domain-errors"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", time.Hour)

	signed, err := svc.Issue(RoleAdmin, "account-1", Claims{
		Name:       "วิชัย",
		Department: "กองช่าง",
	})
	require.NoError(t, err)

	claims, err := svc.Validate(signed)
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, claims.Role)
	require.Equal(t, "account-1", claims.Subject)
	require.Equal(t, "วิชัย", claims.Name)
	require.Equal(t, "กองช่าง", claims.Department)
	require.Equal(t, "onestop", claims.Issuer)
	require.NotEmpty(t, claims.ID)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewService("test-signing-key", -time.Minute)
	signed, err := svc.Issue(RoleCitizen, "session-1", Claims{})
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	require.Equal(t, "token has expired", dErrors.MessageOf(err))
}

func TestValidateWrongKey(t *testing.T) {
	signed, err := NewService("key-one", time.Hour).Issue(RoleService, "Adminuse", Claims{})
	require.NoError(t, err)

	_, err = NewService("key-two", time.Hour).Validate(signed)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateGarbage(t *testing.T) {
	svc := NewService("test-signing-key", time.Hour)
	for _, raw := range []string{"", "not-a-token", "aaaa.bbbb.cccc"} {
		_, err := svc.Validate(raw)
		require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}
}
