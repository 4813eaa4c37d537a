package billing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func Test_BillingClient(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("CreateBalance", func(t *testing.T) {
		t.Run("created ok", func(t *testing.T) {
			var gotPath string
			var gotBody struct {
				UserID uuid.UUID `json:"user_id"`
			}

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
				w.WriteHeader(http.StatusCreated)
			}))
			defer srv.Close()

			err := NewClient(srv.URL, nil).CreateBalance(t.Context(), userID)

			require.NoError(t, err)
			require.Equal(t, "/api/balances", gotPath)
			require.Equal(t, userID, gotBody.UserID)
		})

		t.Run("conflict means exists already", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
			}))
			defer srv.Close()

			err := NewClient(srv.URL, nil).CreateBalance(t.Context(), userID)

			require.NoError(t, err, "conflict should count as success")
		})

		t.Run("server error fails", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			err := NewClient(srv.URL, nil).CreateBalance(t.Context(), userID)

			require.Error(t, err)
		})

		t.Run("unreachable service fails", func(t *testing.T) {
			err := NewClient("http://127.0.0.1:1", nil).CreateBalance(t.Context(), userID)

			require.Error(t, err)
		})
	})

	t.Run("GetBalance", func(t *testing.T) {
		t.Run("get ok", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/api/balances/"+userID.String(), r.URL.Path)

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"user_id":"` + userID.String() + `","current":"42.5","withdrawn":"0"}`))
			}))
			defer srv.Close()

			balance, err := NewClient(srv.URL, nil).GetBalance(t.Context(), userID)

			require.NoError(t, err)
			require.Equal(t, userID, balance.UserID)
			require.True(t, balance.Current.Equal(decimal.RequireFromString("42.5")))
			require.True(t, balance.Withdrawn.IsZero())
		})

		t.Run("not found fails", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, nil).GetBalance(t.Context(), userID)

			require.Error(t, err)
		})

		t.Run("broken body fails", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, nil).GetBalance(t.Context(), userID)

			require.Error(t, err)
		})
	})
}
