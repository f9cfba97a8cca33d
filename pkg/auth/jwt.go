package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kinds. A storefront token never authenticates against the admin API
// and vice versa.
const (
	KindUser    = "user"
	KindAccount = "account"
)

const audience = "tourhub-api"

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Kind  string `json:"kind"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SubjectID returns the numeric principal id carried in the sub claim.
func (c *Claims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a new HS256 token. Every call yields a distinct string because
// of the random jti, so a stored token can be compared for equality.
func (i *Issuer) Issue(kind string, id int64, email string) (string, error) {
	now := i.now()
	claims := Claims{
		Kind:  kind,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			Audience:  []string{audience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse verifies signature, expiry and audience and checks the token kind.
func (i *Issuer) Parse(tokenString, kind string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
