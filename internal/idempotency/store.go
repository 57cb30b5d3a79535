// Package idempotency implements the scoped idempotency-key protocol:
// hash the canonical request, and either execute-and-record, replay, or
// reject a payload mismatch.
package idempotency

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/boutledger/escrowsettle/internal/models"
)

var (
	ErrKeyReusedWithDifferentPayload = errors.New("idempotency_key_reused_with_different_payload")
)

// Store persists idempotency records in Postgres, optionally fronted by a
// Cache fast-path.
type Store struct {
	db    *sql.DB
	cache *Cache
}

// NewStore constructs a Store. cache may be nil to skip the fast path.
func NewStore(db *sql.DB, cache *Cache) *Store {
	return &Store{db: db, cache: cache}
}

// HashRequest computes the canonical-JSON SHA-256 hash of a request body:
// sorted keys, compact separators, ASCII-escaped.
func HashRequest(body any) (string, error) {
	canonical, err := CanonicalJSON(body)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// CanonicalJSON serializes v with sorted object keys, compact separators,
// and every non-ASCII rune written as a \uXXXX escape (a UTF-16 surrogate
// pair above U+FFFF). Go's encoding/json supplies the first two and also
// HTML-escapes <, > and &; the non-ASCII escaping is done below.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(generic); err != nil {
		return nil, err
	}
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	var out bytes.Buffer
	for _, r := range string(result) {
		switch {
		case r < 0x80:
			out.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&out, `\u%04x\u%04x`, r1, r2)
		default:
			fmt.Fprintf(&out, `\u%04x`, r)
		}
	}
	return out.Bytes(), nil
}

// Lookup returns the stored record for (scope, key), if any.
func (s *Store) Lookup(scope, key string) (*models.IdempotencyKey, error) {
	if s.cache != nil {
		if rec, ok := s.cache.Get(scope, key); ok {
			return rec, nil
		}
	}

	row := s.db.QueryRow(
		`SELECT scope, key, request_hash, response_code, response_body, created_at
		 FROM idempotency_keys WHERE scope = $1 AND key = $2`,
		scope, key,
	)
	var rec models.IdempotencyKey
	if err := row.Scan(&rec.Scope, &rec.Key, &rec.RequestHash, &rec.ResponseCode, &rec.ResponseBody, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(&rec)
	}
	return &rec, nil
}

// Record stores the outcome of a first-time execution within the caller's
// transaction. The caller commits or rolls back the enclosing transaction;
// Record does not commit on its own.
func (s *Store) Record(tx *sql.Tx, scope, key, requestHash string, responseCode int, responseBody []byte) error {
	_, err := tx.Exec(
		`INSERT INTO idempotency_keys (scope, key, request_hash, response_code, response_body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		scope, key, requestHash, responseCode, responseBody, time.Now().UTC(),
	)
	return err
}

// Invalidate drops a cached record so subsequent lookups read the durable
// Postgres row. The request path does not call it; the cache is filled only
// by Lookup, and its entries expire after the cache TTL.
func (s *Store) Invalidate(scope, key string) {
	if s.cache != nil {
		s.cache.Delete(scope, key)
	}
}
