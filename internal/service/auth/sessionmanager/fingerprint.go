package sessionmanager

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/models"
)

// Fingerprint is stored next to the refresh token as base64(json)
// It's an opaque payload here: the manager never compares fingerprints

func encodeFingerprint(fp models.Fingerprint) string {
	data, err := json.Marshal(fp)
	if err != nil {
		// Fingerprint is a plain struct of strings, marshalling can't fail
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(data)
}

func decodeFingerprint(blob string) (models.Fingerprint, error) {
	var fp models.Fingerprint

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return fp, fmt.Errorf("%w. Err: %w", apperrors.ErrFingerprintMalformed, err)
	}

	if err := json.Unmarshal(raw, &fp); err != nil {
		return fp, fmt.Errorf("%w. Err: %w", apperrors.ErrFingerprintMalformed, err)
	}

	return fp, nil
}
