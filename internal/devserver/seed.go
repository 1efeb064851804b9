package devserver

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mealqr/console/internal/console/models"
)

// Seed loads the sample dataset: the default admin account, a mix of staff
// and guest users, coupons in every state, and a short audit trail. Safe to
// call once on an empty store.
func (s *Store) Seed() error {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.operators["admin"] = &operator{
		Operator: models.Operator{
			ID:        uuid.NewString(),
			Username:  "admin",
			Role:      "admin",
			CreatedAt: now.Add(-90 * 24 * time.Hour),
		},
		passwordHash: hash,
	}

	seedUsers := []struct {
		name, mobile, email, role, guestType string
		daysAgo                              int
	}{
		{"Amina Rahman", "01711000001", "amina@example.org", "staff", "", 40},
		{"Jahid Hasan", "01711000002", "", "staff", "", 35},
		{"Farzana Akter", "01711000003", "farzana@example.org", "staff", "", 21},
		{"Rafiq Islam", "01711000004", "", "guest", "daily", 14},
		{"Shilpi Begum", "01711000005", "", "guest", "weekly", 7},
		{"Kamal Uddin", "01711000006", "", "guest", "daily", 2},
		{"Nusrat Jahan", "01711000007", "nusrat@example.org", "staff", "", 0},
	}
	for _, u := range seedUsers {
		s.users = append(s.users, models.User{
			ID:           uuid.NewString(),
			FullName:     u.name,
			MobileNumber: u.mobile,
			Email:        u.email,
			Role:         u.role,
			GuestType:    u.guestType,
			Active:       true,
			CreatedAt:    now.Add(-time.Duration(u.daysAgo) * 24 * time.Hour),
		})
	}

	// One coupon per state so every list filter has something to show.
	usedAt := now.Add(-2 * time.Hour)
	activeExpiry := now.Add(20 * time.Hour)
	pastExpiry := now.Add(-30 * time.Hour)
	s.qrLogs = append(s.qrLogs,
		models.QRLog{
			ID:          uuid.NewString(),
			QRCode:      "a1b2c3d4e5f60001",
			UserID:      s.users[0].ID,
			UserName:    s.users[0].FullName,
			Status:      models.QRStatusActive,
			GeneratedAt: now.Add(-4 * time.Hour),
			ExpiresAt:   &activeExpiry,
		},
		models.QRLog{
			ID:          uuid.NewString(),
			QRCode:      "a1b2c3d4e5f60002",
			UserID:      s.users[3].ID,
			UserName:    s.users[3].FullName,
			Status:      models.QRStatusUsed,
			GeneratedAt: now.Add(-6 * time.Hour),
			ExpiresAt:   &activeExpiry,
			UsedAt:      &usedAt,
		},
		models.QRLog{
			ID:          uuid.NewString(),
			QRCode:      "a1b2c3d4e5f60003",
			UserID:      s.users[4].ID,
			UserName:    s.users[4].FullName,
			Status:      models.QRStatusExpired,
			GeneratedAt: now.Add(-54 * time.Hour),
			ExpiresAt:   &pastExpiry,
		},
	)

	s.validations = append(s.validations, models.ValidationRecord{
		ID:          uuid.NewString(),
		QRCode:      "a1b2c3d4e5f60002",
		UserName:    s.users[3].FullName,
		Result:      "Meal validated for " + s.users[3].FullName,
		GeneratedAt: now.Add(-6 * time.Hour),
		UsedAt:      usedAt,
	})

	s.appendAuditLocked("seed", "system", "sample dataset loaded")
	return nil
}
