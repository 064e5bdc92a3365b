package replikit

import (
	"github.com/golang-jwt/jwt/v5"
)

// IdentityFromToken builds an Identity from a pre-validated JWT. The token
// signature is verified with keyFunc; the subject claim becomes the user
// id and the remaining claims are kept opaque.
//
// Example:
//
//	identity, err := replikit.IdentityFromToken(tokenString, func(t *jwt.Token) (any, error) {
//	    return secret, nil
//	})
func IdentityFromToken(tokenString string, keyFunc jwt.Keyfunc) (Identity, error) {
	token, err := jwt.Parse(tokenString, keyFunc)
	if err != nil {
		return Identity{}, NewError(ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, NewError(ErrInvalidToken, "unexpected claims type")
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return Identity{}, NewError(ErrInvalidToken, "subject claim: "+err.Error())
	}

	return Identity{UserID: subject, Claims: claims}, nil
}

// AnonymousIdentity returns the identity of an unauthenticated connection.
func AnonymousIdentity() Identity {
	return Identity{}
}
