package devserver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mealqr/console/internal/common"
	"github.com/mealqr/console/internal/console/models"
)

const dateLayout = "2006-01-02"

type operator struct {
	models.Operator
	passwordHash []byte
}

// Store is the in-memory state of the development backend. Every method is
// safe for concurrent use; list methods return copies.
type Store struct {
	mu          sync.Mutex
	operators   map[string]*operator
	users       []models.User
	qrLogs      []models.QRLog
	validations []models.ValidationRecord
	auditLogs   []models.AuditLog
	settings    models.Settings
	now         func() time.Time
}

// NewStore builds an empty store with default settings. Call Seed to load
// the sample dataset.
func NewStore() *Store {
	return &Store{
		operators: make(map[string]*operator),
		settings: models.Settings{
			QRGenerationStartTime: "08:00",
			QRGenerationEndTime:   "20:00",
			QRValidityHours:       24,
			MachineEnabled:        true,
		},
		now: time.Now,
	}
}

// Authenticate checks an operator password and returns the account.
func (s *Store) Authenticate(username, password string) (models.Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.operators[username]
	if !ok {
		return models.Operator{}, common.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(op.passwordHash, []byte(password)) != nil {
		return models.Operator{}, common.ErrInvalidCredentials
	}
	return op.Operator, nil
}

// CreateOperator adds a console account. Usernames are unique.
func (s *Store) CreateOperator(username, password, role string) (models.Operator, error) {
	if username == "" || password == "" {
		return models.Operator{}, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}
	if role != "admin" && role != "operator" {
		return models.Operator{}, fmt.Errorf("%w: unknown role %q", common.ErrValidation, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.operators[username]; ok {
		return models.Operator{}, fmt.Errorf("%w: username %q", common.ErrAlreadyExists, username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Operator{}, err
	}
	op := &operator{
		Operator: models.Operator{
			ID:        uuid.NewString(),
			Username:  username,
			Role:      role,
			CreatedAt: s.now().UTC(),
		},
		passwordHash: hash,
	}
	s.operators[username] = op
	s.appendAuditLocked("create_operator", username, "role "+role)
	return op.Operator, nil
}

// Users returns one page of the directory, filtered by substring search over
// name and mobile number and by exact role.
func (s *Store) Users(page, limit int, search, role string) ([]models.User, models.Pagination) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.User, 0, len(s.users))
	needle := strings.ToLower(search)
	for _, u := range s.users {
		if role != "" && u.Role != role {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.FullName), needle) &&
			!strings.Contains(u.MobileNumber, needle) {
			continue
		}
		matched = append(matched, u)
	}
	return paginate(matched, page, limit)
}

// Register adds one user from an intake submission. The face image is
// accepted and discarded; the development backend has no object storage.
func (s *Store) Register(reg models.Registration) (models.User, error) {
	if reg.FullName == "" || reg.MobileNumber == "" {
		return models.User{}, fmt.Errorf("%w: full name and mobile number are required", common.ErrValidation)
	}
	if reg.Role != "staff" && reg.Role != "guest" {
		return models.User{}, fmt.Errorf("%w: unknown role %q", common.ErrValidation, reg.Role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.MobileNumber == reg.MobileNumber {
			return models.User{}, fmt.Errorf("%w: mobile number %s", common.ErrAlreadyExists, reg.MobileNumber)
		}
	}
	user := models.User{
		ID:           uuid.NewString(),
		FullName:     reg.FullName,
		MobileNumber: reg.MobileNumber,
		Email:        reg.Email,
		Role:         reg.Role,
		GuestType:    reg.GuestType,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	s.users = append(s.users, user)
	s.appendAuditLocked("register_user", "system", user.FullName)
	return user, nil
}

// DeleteUser removes one user by id.
func (s *Store) DeleteUser(id, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			s.appendAuditLocked("delete_user", actor, u.FullName)
			return nil
		}
	}
	return fmt.Errorf("%w: user %s", common.ErrNotFound, id)
}

// GenerateQR issues a coupon for a user, valid for the configured number of
// hours. Used by the seed data and by tests driving redemption flows.
func (s *Store) GenerateQR(userID string) (models.QRLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *models.User
	for i := range s.users {
		if s.users[i].ID == userID {
			user = &s.users[i]
			break
		}
	}
	if user == nil {
		return models.QRLog{}, fmt.Errorf("%w: user %s", common.ErrNotFound, userID)
	}

	code, err := common.MakeRandHexString(8)
	if err != nil {
		return models.QRLog{}, err
	}
	now := s.now().UTC()
	expires := now.Add(time.Duration(s.settings.QRValidityHours) * time.Hour)
	log := models.QRLog{
		ID:          uuid.NewString(),
		QRCode:      code,
		UserID:      user.ID,
		UserName:    user.FullName,
		Status:      models.QRStatusActive,
		GeneratedAt: now,
		ExpiresAt:   &expires,
	}
	s.qrLogs = append(s.qrLogs, log)
	return log, nil
}

// QRLogs returns one page of coupon logs, newest first, filtered by
// generation date and status.
func (s *Store) QRLogs(page, limit int, date, status string) ([]models.QRLog, models.Pagination) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireStaleLocked()

	matched := make([]models.QRLog, 0, len(s.qrLogs))
	for _, l := range s.qrLogs {
		if status != "" && l.Status != status {
			continue
		}
		if date != "" && l.GeneratedAt.Format(dateLayout) != date {
			continue
		}
		matched = append(matched, l)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].GeneratedAt.After(matched[j].GeneratedAt)
	})
	return paginate(matched, page, limit)
}

// ValidateQR redeems a coupon. Rejections (unknown, expired, already used)
// are outcomes, not errors; every attempt lands in the validation history.
func (s *Store) ValidateQR(code, actor string) models.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireStaleLocked()

	var log *models.QRLog
	for i := range s.qrLogs {
		if s.qrLogs[i].QRCode == code {
			log = &s.qrLogs[i]
			break
		}
	}

	now := s.now().UTC()
	result := models.ValidationResult{}
	userName := ""
	switch {
	case log == nil:
		result.Message = "QR code not found"
	case log.Status == models.QRStatusUsed:
		userName = log.UserName
		result.Message = "QR already used"
	case log.Status == models.QRStatusExpired:
		userName = log.UserName
		result.Message = "QR code expired"
	default:
		log.Status = models.QRStatusUsed
		log.UsedAt = &now
		userName = log.UserName
		result.Success = true
		result.Message = "Meal validated for " + log.UserName
	}

	record := models.ValidationRecord{
		ID:       uuid.NewString(),
		QRCode:   code,
		UserName: userName,
		Result:   result.Message,
		UsedAt:   now,
	}
	if log != nil {
		record.GeneratedAt = log.GeneratedAt
	}
	s.validations = append(s.validations, record)
	s.appendAuditLocked("validate_qr", actor, result.Message)
	return result
}

// Validations returns the newest redemption records up to limit, optionally
// restricted to one date.
func (s *Store) Validations(limit int, date string) []models.ValidationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.ValidationRecord, 0, len(s.validations))
	for _, v := range s.validations {
		if date != "" && v.UsedAt.Format(dateLayout) != date {
			continue
		}
		matched = append(matched, v)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UsedAt.After(matched[j].UsedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// AuditLogs returns one page of the trail, newest first, filtered by action
// and date.
func (s *Store) AuditLogs(page, limit int, action, date string) ([]models.AuditLog, models.Pagination) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.AuditLog, 0, len(s.auditLogs))
	for _, l := range s.auditLogs {
		if action != "" && l.Action != action {
			continue
		}
		if date != "" && l.CreatedAt.Format(dateLayout) != date {
			continue
		}
		matched = append(matched, l)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page, limit)
}

// Settings returns the machine configuration.
func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings replaces the machine configuration and returns the stored
// record.
func (s *Store) UpdateSettings(in models.Settings, actor string) (models.Settings, error) {
	if in.QRValidityHours < 1 {
		return models.Settings{}, fmt.Errorf("%w: qr_validity_hours must be positive", common.ErrValidation)
	}
	for _, v := range []string{in.QRGenerationStartTime, in.QRGenerationEndTime} {
		if _, err := time.Parse("15:04", v); err != nil {
			return models.Settings{}, fmt.Errorf("%w: %q is not an HH:MM time", common.ErrValidation, v)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = in
	s.appendAuditLocked("update_settings", actor, fmt.Sprintf("validity %dh", in.QRValidityHours))
	return s.settings, nil
}

// Stats derives the dashboard counters for the current day.
func (s *Store) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireStaleLocked()

	now := s.now().UTC()
	today := now.Format(dateLayout)
	stats := models.Stats{TotalUsers: len(s.users), Date: today}
	for _, u := range s.users {
		switch u.Role {
		case "staff":
			stats.StaffCount++
		case "guest":
			stats.GuestCount++
		}
		if u.CreatedAt.Format(dateLayout) == today {
			stats.TodayRegistrations++
		}
	}
	for _, l := range s.qrLogs {
		if l.GeneratedAt.Format(dateLayout) == today {
			stats.TodayQRGenerated++
		}
		switch l.Status {
		case models.QRStatusActive:
			stats.ActiveQRs++
		case models.QRStatusExpired:
			if l.ExpiresAt != nil && l.ExpiresAt.Format(dateLayout) == today {
				stats.ExpiredQRsToday++
			}
		}
	}
	return stats
}

// expireStaleLocked flips active coupons past their expiry. Called from any
// reader that exposes coupon state.
func (s *Store) expireStaleLocked() {
	now := s.now().UTC()
	for i := range s.qrLogs {
		l := &s.qrLogs[i]
		if l.Status == models.QRStatusActive && l.ExpiresAt != nil && l.ExpiresAt.Before(now) {
			l.Status = models.QRStatusExpired
		}
	}
}

func (s *Store) appendAuditLocked(action, actor, details string) {
	s.auditLogs = append(s.auditLogs, models.AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		Actor:     actor,
		Details:   details,
		CreatedAt: s.now().UTC(),
	})
}

// paginate slices one page out of matched rows and computes the paging
// block. Page counts never drop below 1 so an empty result still has a
// valid current page.
func paginate[T any](items []T, page, limit int) ([]T, models.Pagination) {
	if limit < 1 {
		limit = 1
	}
	pages := (len(items) + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * limit
	end := start + limit
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, models.Pagination{Page: page, Limit: limit, Total: len(items), Pages: pages}
}
