// Package devserver is a self-contained development backend for the
// distribution console. It serves the full REST contract from an in-memory
// store so the console can be exercised without the production stack.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mealqr/console/internal/common"
	"github.com/mealqr/console/internal/console/models"
	"github.com/mealqr/console/internal/logging"
)

const maxFaceImageBytes = 10 << 20

type handlers struct {
	store    *Store
	secret   []byte
	validity time.Duration
	log      logging.Logger
}

type ctxKey int

const claimsKey ctxKey = 0

// NewRouter wires every endpoint of the REST contract onto a chi router.
func NewRouter(store *Store, secret []byte, validity time.Duration, log logging.Logger) http.Handler {
	h := &handlers{store: store, secret: secret, validity: validity, log: log}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Post("/api/auth/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Post("/api/auth/create-operator", h.createOperator)
		r.Get("/api/admin/dashboard/stats", h.dashboardStats)
		r.Get("/api/admin/users", h.listUsers)
		r.Delete("/api/admin/users/{id}", h.deleteUser)
		r.Get("/api/admin/qr-logs", h.listQRLogs)
		r.Get("/api/admin/audit-logs", h.listAuditLogs)
		r.Get("/api/admin/settings", h.getSettings)
		r.Put("/api/admin/settings", h.updateSettings)
		r.Get("/api/validation/history", h.validationHistory)
		r.Post("/api/validation/scan", h.validateQR)
		r.Post("/api/registration/register", h.register)
	})

	return r
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeStoreError maps the store's sentinel errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func queryInt(r *http.Request, name, fallback string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		v = fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// requireAuth verifies the bearer token and stores the claims in the
// request context.
func (h *handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := ParseToken(token, h.secret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func actor(r *http.Request) string {
	if claims, ok := r.Context().Value(claimsKey).(*Claims); ok {
		return claims.Username
	}
	return "unknown"
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed login request")
		return
	}

	op, err := h.store.Authenticate(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := GenerateToken(op.Username, op.Role, h.secret, h.validity)
	if err != nil {
		h.log.Error(r.Context(), "signing token failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	// The login response is the one endpoint outside the envelope.
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"admin": map[string]string{"username": op.Username, "role": op.Role},
	})
}

func (h *handlers) createOperator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}
	op, err := h.store.CreateOperator(req.Username, req.Password, req.Role)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusCreated, op)
}

func (h *handlers) dashboardStats(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.store.Stats())
}

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", "1")
	limit := queryInt(r, "limit", "20")
	users, pg := h.store.Users(page, limit, r.URL.Query().Get("search"), r.URL.Query().Get("role"))
	writeData(w, http.StatusOK, map[string]any{"users": users, "pagination": pg})
}

func (h *handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteUser(chi.URLParam(r, "id"), actor(r)); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "user deleted"})
}

func (h *handlers) listQRLogs(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", "1")
	limit := queryInt(r, "limit", "50")
	logs, pg := h.store.QRLogs(page, limit, r.URL.Query().Get("date"), r.URL.Query().Get("status"))
	writeData(w, http.StatusOK, map[string]any{"logs": logs, "pagination": pg})
}

func (h *handlers) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", "1")
	limit := queryInt(r, "limit", "50")
	logs, pg := h.store.AuditLogs(page, limit, r.URL.Query().Get("action"), r.URL.Query().Get("date"))
	writeData(w, http.StatusOK, map[string]any{"logs": logs, "pagination": pg})
}

func (h *handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.store.Settings())
}

func (h *handlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	var in models.Settings
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed settings")
		return
	}
	updated, err := h.store.UpdateSettings(in, actor(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (h *handlers) validationHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", "50")
	records := h.store.Validations(limit, r.URL.Query().Get("date"))
	writeData(w, http.StatusOK, map[string]any{"records": records})
}

func (h *handlers) validateQR(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QRCode string `json:"qr_code"`
	}
	if err := decodeBody(r, &req); err != nil || req.QRCode == "" {
		writeError(w, http.StatusBadRequest, "qr_code is required")
		return
	}
	// Rejections are 200s with success=false, matching the scanner flow.
	result := h.store.ValidateQR(req.QRCode, actor(r))
	writeJSON(w, http.StatusOK, envelope{Success: result.Success, Message: result.Message})
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFaceImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "malformed multipart form")
		return
	}

	reg := models.Registration{
		FullName:     r.FormValue("full_name"),
		MobileNumber: r.FormValue("mobile_number"),
		Email:        r.FormValue("email"),
		Role:         r.FormValue("role"),
		GuestType:    r.FormValue("guest_type"),
	}
	if file, header, err := r.FormFile("face_image"); err == nil {
		defer file.Close()
		img, err := io.ReadAll(io.LimitReader(file, maxFaceImageBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "reading face image failed")
			return
		}
		reg.FaceImage = img
		reg.FaceImageExt = filepath.Ext(header.Filename)
	}

	user, err := h.store.Register(reg)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusCreated, user)
}
