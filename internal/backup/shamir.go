// File: internal/backup/shamir.go
package backup

import (
	"encoding/hex"
	"encoding/json"

	"github.com/corvus-ch/shamir"

	"wallet.module/internal/errors"
)

// Share is one Shamir share of a secret. The recovery threshold is
// stamped into every share so recovery can fail deterministically when
// too few are presented, instead of combining into garbage.
type Share struct {
	Index     byte   `json:"index"`
	Payload   string `json:"payload"`
	Threshold int    `json:"threshold"`
}

// SplitSecret splits a secret into total shares over GF(256); any
// threshold of them reconstruct the exact original bytes.
func SplitSecret(secret []byte, threshold, total int) ([]Share, error) {
	if len(secret) == 0 {
		return nil, errors.New(errors.ErrCodeEncryption, "cannot split an empty secret")
	}
	if threshold < 2 || total < threshold || total > 255 {
		return nil, errors.Newf(errors.ErrCodeEncryption,
			"invalid share parameters: threshold %d of %d", threshold, total)
	}

	parts, err := shamir.Split(secret, total, threshold)
	if err != nil {
		return nil, errors.NewEncryptionError(err)
	}

	shares := make([]Share, 0, total)
	for index, payload := range parts {
		shares = append(shares, Share{
			Index:     index,
			Payload:   hex.EncodeToString(payload),
			Threshold: threshold,
		})
	}
	return shares, nil
}

// CombineShares reconstructs the secret from at least threshold shares.
func CombineShares(shares []Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, errors.NewShareThresholdError(0, 2)
	}

	threshold := shares[0].Threshold
	for _, s := range shares {
		if s.Threshold != threshold {
			return nil, errors.NewBackupCorruptError(nil).
				WithDetails("shares carry conflicting thresholds")
		}
	}
	if len(shares) < threshold {
		return nil, errors.NewShareThresholdError(len(shares), threshold)
	}

	parts := make(map[byte][]byte, len(shares))
	for _, s := range shares {
		payload, err := hex.DecodeString(s.Payload)
		if err != nil {
			return nil, errors.NewBackupCorruptError(err).
				WithDetails("share payload is not valid hexadecimal")
		}
		parts[s.Index] = payload
	}

	secret, err := shamir.Combine(parts)
	if err != nil {
		return nil, errors.NewBackupCorruptError(err).
			WithDetails("share recombination failed")
	}
	return secret, nil
}

// MarshalShares renders shares as JSON, one document for all of them.
func MarshalShares(shares []Share) ([]byte, error) {
	data, err := json.MarshalIndent(shares, "", "  ")
	if err != nil {
		return nil, errors.NewSerializationError("shares", err)
	}
	return data, nil
}

// UnmarshalShares parses a share document.
func UnmarshalShares(data []byte) ([]Share, error) {
	var shares []Share
	if err := json.Unmarshal(data, &shares); err != nil {
		return nil, errors.NewBackupCorruptError(err).
			WithDetails("not a valid share document")
	}
	return shares, nil
}
