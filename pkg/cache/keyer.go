package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer derives cache keys for each cached artifact.
type Keyer interface {
	// AnalysisKey identifies an analysis report for a snapshot.
	AnalysisKey(snapshotHash string, opts AnalysisKeyOpts) string

	// TreeKey identifies the assembled category tree for a snapshot.
	TreeKey(snapshotHash string) string
}

// AnalysisKeyOpts holds the options that change an analysis report.
// Worker count is deliberately absent: results do not depend on it.
type AnalysisKeyOpts struct {
	SampleSize int `json:"sample_size"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// AnalysisKey returns "analysis:<sha256>" over the hash and options.
func (DefaultKeyer) AnalysisKey(snapshotHash string, opts AnalysisKeyOpts) string {
	return "analysis:" + sumJSON(snapshotHash, opts)
}

// TreeKey returns "tree:<sha256>" over the snapshot hash.
func (DefaultKeyer) TreeKey(snapshotHash string) string {
	return "tree:" + sum(snapshotHash)
}

func sum(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// sumJSON hashes the JSON encoding of parts. Every caller passes plain
// strings and structs of ints, which always encode.
func sumJSON(parts ...any) string {
	data, _ := json.Marshal(parts)
	return sum(string(data))
}
