package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mealqr/console/internal/console/models"
)

func authedClient(t *testing.T, mux *http.ServeMux) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	store := &memStore{creds: Credentials{Token: "tok", Role: "admin", Username: "a"}}
	s := NewSession(srv.URL, store, testLogger())
	require.NoError(t, s.Start(context.Background()))
	return NewClient(s), srv
}

func TestClient_UsersDecodesListAndPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "20", r.URL.Query().Get("limit"))
		require.Equal(t, "ami", r.URL.Query().Get("search"))
		require.Equal(t, "staff", r.URL.Query().Get("role"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"users": []map[string]any{
					{"id": "u1", "full_name": "Amira Khan", "role": "staff", "active": true, "created_at": "2026-08-01T09:00:00Z"},
				},
				"pagination": map[string]int{"page": 2, "limit": 20, "total": 35, "pages": 2},
			},
		})
	})
	c, _ := authedClient(t, mux)

	users, pg, err := c.Users(context.Background(), 2, 20, "ami", "staff")
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "Amira Khan", users[0].FullName)
	require.Equal(t, 35, pg.Total)
	require.Equal(t, 2, pg.Pages)
}

func TestClient_UsersOmitsEmptyFilters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		require.False(t, r.URL.Query().Has("search"))
		require.False(t, r.URL.Query().Has("role"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"users":      []any{},
				"pagination": map[string]int{"page": 1, "limit": 20, "total": 0, "pages": 1},
			},
		})
	})
	c, _ := authedClient(t, mux)

	_, _, err := c.Users(context.Background(), 1, 20, "", "")
	require.NoError(t, err)
}

func TestClient_ValidateQRRejectionIsNotAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/validation/scan", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ABC123", body["qr_code"])
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "QR already used"})
	})
	c, _ := authedClient(t, mux)

	res, err := c.ValidateQR(context.Background(), "ABC123")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "QR already used", res.Message)
}

func TestClient_DeleteUserStatusOnly(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "u42", r.PathValue("id"))
		w.WriteHeader(http.StatusOK)
	})
	c, _ := authedClient(t, mux)

	require.NoError(t, c.DeleteUser(context.Background(), "u42"))
}

func TestClient_RegisterSendsMultipart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/registration/register", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "Rafi Ahmed", r.FormValue("full_name"))
		require.Equal(t, "guest", r.FormValue("role"))
		require.Equal(t, "patient_family", r.FormValue("guest_type"))

		file, header, err := r.FormFile("face_image")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "face.jpg", header.Filename)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "u9", "full_name": "Rafi Ahmed", "role": "guest"},
		})
	})
	c, _ := authedClient(t, mux)

	user, err := c.Register(context.Background(), models.Registration{
		FullName:     "Rafi Ahmed",
		MobileNumber: "01700000000",
		Role:         "guest",
		GuestType:    "patient_family",
		FaceImage:    []byte{0xFF, 0xD8, 0xFF},
	})
	require.NoError(t, err)
	require.Equal(t, "u9", user.ID)
}
