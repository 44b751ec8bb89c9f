package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/sgabriel/rolodex/server/auth/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("very-secure")
	require.Nil(t, err)

	assert.NotEqual(t, "very-secure", hash)
	assert.True(t, CheckPasswordHash("very-secure", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestEncodeDecodeJWT(t *testing.T) {
	keyPair, err := key.NewRandomKeyPair()
	require.Nil(t, err)

	claims := RolodexTokenClaims{
		Name: "tony",
		StandardClaims: jwt.StandardClaims{
			Subject:   "1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}

	token, err := EncodeJWT(claims, keyPair)
	require.Nil(t, err)

	decoded, err := DecodeJWT(token, keyPair)
	require.Nil(t, err)
	assert.Equal(t, "tony", decoded.Name)
	assert.Equal(t, "1", decoded.Subject)
}

func TestDecodeJWTRejectsWrongKey(t *testing.T) {
	keyPair, err := key.NewRandomKeyPair()
	require.Nil(t, err)
	otherKeyPair, err := key.NewRandomKeyPair()
	require.Nil(t, err)

	claims := RolodexTokenClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}

	token, err := EncodeJWT(claims, keyPair)
	require.Nil(t, err)

	_, err = DecodeJWT(token, otherKeyPair)
	assert.NotNil(t, err)
}

func TestDecodeJWTRejectsExpiredToken(t *testing.T) {
	keyPair, err := key.NewRandomKeyPair()
	require.Nil(t, err)

	claims := RolodexTokenClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "1",
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		},
	}

	token, err := EncodeJWT(claims, keyPair)
	require.Nil(t, err)

	_, err = DecodeJWT(token, keyPair)
	assert.NotNil(t, err)
}
