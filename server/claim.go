package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	claimTokenExpiry = 7 * 24 * time.Hour
	bcryptCost       = 12
	claimCodeBytes   = 8
	claimRateWindow  = 60 * time.Second
	maxClaimAttempts = 10
)

// Claims lets a holder prove control of their address and act on its
// bubble. A one-time code (hash stored in the ledger DB) is exchanged
// for a JWT whose subject is the address; talent actions require it.
type Claims struct {
	db        *DB
	jwtSecret []byte

	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewClaims creates the claim handler, loading or generating the
// signing secret from the settings table.
func NewClaims(db *DB) *Claims {
	return &Claims{
		db:        db,
		jwtSecret: loadOrCreateSecret(db),
		rateMap:   make(map[string]*rateEntry),
	}
}

// loadOrCreateSecret loads the JWT secret from the database, or
// generates and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// IssueCode creates a fresh one-time claim code for an address and
// stores only its hash. Exposed through the admin intake; delivery of
// the code to the holder happens out of band.
func (cl *Claims) IssueCode(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("empty address")
	}
	raw := make([]byte, claimCodeBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("internal error")
	}
	code := hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("internal error")
	}
	if err := cl.db.SetClaimCode(address, string(hash)); err != nil {
		return "", fmt.Errorf("database error")
	}
	return code, nil
}

// Claim exchanges a valid code for a signed token. Rate limited per IP.
func (cl *Claims) Claim(address, code, ip string) (string, error) {
	if !cl.checkRate(ip) {
		return "", fmt.Errorf("too many claim attempts, try again later")
	}

	hash, claimed, err := cl.db.GetClaim(address)
	if err != nil {
		return "", fmt.Errorf("database error")
	}
	if hash == "" {
		return "", fmt.Errorf("no claim code issued for this address")
	}
	if claimed {
		return "", fmt.Errorf("address already claimed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return "", fmt.Errorf("invalid claim code")
	}
	if err := cl.db.MarkClaimed(address); err != nil {
		return "", fmt.Errorf("database error")
	}
	return cl.generateToken(address)
}

// Verify parses a token and returns the claimed address.
func (cl *Claims) Verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return cl.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	address, _ := claims["sub"].(string)
	if address == "" {
		return "", fmt.Errorf("invalid token subject")
	}
	return address, nil
}

func (cl *Claims) generateToken(address string) (string, error) {
	claims := jwt.MapClaims{
		"sub": address,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(claimTokenExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cl.jwtSecret)
}

// checkRate allows at most maxClaimAttempts per IP per window.
func (cl *Claims) checkRate(ip string) bool {
	cl.rateMu.Lock()
	defer cl.rateMu.Unlock()

	now := time.Now()
	entry, ok := cl.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		cl.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(claimRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxClaimAttempts
}
