package utils // package utils provides helper functions for token creation and hashing

import (
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Token parse failures.  Callers map these to distinct client messages.
var (
    ErrTokenExpired = errors.New("token expired")
    ErrTokenInvalid = errors.New("invalid token")
)

// SessionClaims is the single claim shape carried by every session token.
// CompanyID is nil for the admin and for users that have no company yet.
type SessionClaims struct {
    ID        uint64
    Email     string
    Role      string
    CompanyID *uint64
    IsAdmin   bool
    AuthType  string
}

// IssueSessionToken signs an HS256 JWT for the claims.  The token carries
// id, email, role, company_id, isAdmin and auth_type plus exp/iat.  It
// returns the signed token and its expiry.
func IssueSessionToken(secret string, sc SessionClaims, ttl time.Duration, now time.Time) (string, time.Time, error) {
    exp := now.UTC().Add(ttl)
    var company any
    if sc.CompanyID != nil {
        company = *sc.CompanyID
    }
    claims := jwt.MapClaims{
        "id":         sc.ID,
        "email":      sc.Email,
        "role":       sc.Role,
        "company_id": company,
        "isAdmin":    sc.IsAdmin,
        "exp":        exp.Unix(),
        "iat":        now.UTC().Unix(),
    }
    if sc.AuthType != "" {
        claims["auth_type"] = sc.AuthType
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return "", time.Time{}, err
    }
    return signed, exp, nil
}

// ParseSessionToken verifies signature and expiry and decodes the claims.
// It returns ErrTokenExpired for an otherwise valid but expired token and
// ErrTokenInvalid for everything else.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Type assert the signing method to HMAC; reject others.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return SessionClaims{}, ErrTokenExpired
        }
        return SessionClaims{}, ErrTokenInvalid
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok || !tok.Valid {
        return SessionClaims{}, ErrTokenInvalid
    }

    var sc SessionClaims
    id, ok := claims["id"].(float64) // JSON numbers decode as float64
    if !ok || id < 0 {
        return SessionClaims{}, ErrTokenInvalid
    }
    sc.ID = uint64(id)
    sc.Email, _ = claims["email"].(string)
    sc.Role, _ = claims["role"].(string)
    sc.IsAdmin, _ = claims["isAdmin"].(bool)
    sc.AuthType, _ = claims["auth_type"].(string)
    if v, ok := claims["company_id"].(float64); ok && v > 0 {
        cid := uint64(v)
        sc.CompanyID = &cid
    }
    return sc, nil
}
