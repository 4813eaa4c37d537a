package sessionmanager

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/models"
)

func Test_Fingerprint(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		fp := models.Fingerprint{UserAgent: "UA", IP: "1.2.3.4"}

		decoded, err := decodeFingerprint(encodeFingerprint(fp))
		require.NoError(t, err)
		require.Equal(t, fp, decoded)
	})

	t.Run("blob is transport safe", func(t *testing.T) {
		blob := encodeFingerprint(models.Fingerprint{UserAgent: "Mozilla/5.0 (weird; chars)", IP: "::1"})

		_, err := base64.StdEncoding.DecodeString(blob)
		require.NoError(t, err, "blob should be plain base64")
	})

	t.Run("not base64 fails", func(t *testing.T) {
		_, err := decodeFingerprint("%%% not base64 %%%")
		require.ErrorIs(t, err, apperrors.ErrFingerprintMalformed)
	})

	t.Run("base64 but not json fails", func(t *testing.T) {
		blob := base64.StdEncoding.EncodeToString([]byte("not json"))

		_, err := decodeFingerprint(blob)
		require.ErrorIs(t, err, apperrors.ErrFingerprintMalformed)
	})
}
