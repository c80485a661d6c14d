// Package storage provides persistent storage of synthesized projection plans
// for agego.
//
// The in-memory LRU in pkg/cache is lost on restart; the PlanStore keeps
// plans on disk so long-running services and the CLI start warm.
//
// Example:
//
//	store, err := storage.OpenPlanStore("./data/plans")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	if err := store.Put(query, cypher.NewPlan(query)); err != nil {
//		return err
//	}
//	rec, err := store.Get(query)
package storage

import (
	"encoding/hex"
	"errors"
	"time"

	"github.com/orneryd/agego/pkg/cypher"
	"golang.org/x/crypto/blake2b"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidData   = errors.New("invalid data")
	ErrStorageClosed = errors.New("storage closed")
)

// Fingerprint identifies a query by the blake2b-256 digest of its text.
type Fingerprint [blake2b.Size256]byte

// FingerprintOf computes the fingerprint of query.
//
// Example:
//
//	fp := storage.FingerprintOf("MATCH (n) RETURN n")
//	fmt.Println(fp) // 64 hex characters
func FingerprintOf(query string) Fingerprint {
	return Fingerprint(blake2b.Sum256([]byte(query)))
}

// String returns the lowercase hex form of the fingerprint.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// PlanRecord is one stored plan together with the query it was derived from.
type PlanRecord struct {
	Query     string      `json:"query"`
	Plan      cypher.Plan `json:"plan"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Fingerprint returns the fingerprint of the record's query.
func (r PlanRecord) Fingerprint() Fingerprint {
	return FingerprintOf(r.Query)
}
