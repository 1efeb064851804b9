// Package models defines the wire types exchanged with the distribution
// backend. Field names mirror the backend's JSON exactly; nothing here is
// reordered or normalized beyond time parsing.
package models

import "time"

// Pagination is the paging block attached to every list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Stats is the dashboard counters snapshot.
type Stats struct {
	TotalUsers         int    `json:"total_users"`
	TodayRegistrations int    `json:"today_registrations"`
	TodayQRGenerated   int    `json:"today_qr_generated"`
	ActiveQRs          int    `json:"active_qrs"`
	ExpiredQRsToday    int    `json:"expired_qrs_today"`
	StaffCount         int    `json:"staff_count"`
	GuestCount         int    `json:"guest_count"`
	Date               string `json:"date"`
}

// User is a registered staff member or guest.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	MobileNumber string    `json:"mobile_number"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role"`
	GuestType    string    `json:"guest_type,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// QR log status values as reported by the backend.
const (
	QRStatusActive  = "active"
	QRStatusUsed    = "used"
	QRStatusExpired = "expired"
)

// QRLog is one generated meal coupon.
type QRLog struct {
	ID          string     `json:"id"`
	QRCode      string     `json:"qr_code"`
	UserID      string     `json:"user_id"`
	UserName    string     `json:"user_name"`
	Status      string     `json:"status"`
	GeneratedAt time.Time  `json:"generated_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
}

// ValidationRecord is one successful or attempted coupon redemption.
type ValidationRecord struct {
	ID          string    `json:"id"`
	QRCode      string    `json:"qr_code"`
	UserName    string    `json:"user_name"`
	Result      string    `json:"result"`
	GeneratedAt time.Time `json:"generated_at"`
	UsedAt      time.Time `json:"used_at"`
}

// ValidationResult is the immediate outcome of scanning a coupon.
type ValidationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AuditLog is one administrative action trail entry.
type AuditLog struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Settings is the machine configuration singleton. Times are "HH:MM" wall
// clock strings, matching the backend.
type Settings struct {
	QRGenerationStartTime string `json:"qr_generation_start_time"`
	QRGenerationEndTime   string `json:"qr_generation_end_time"`
	QRValidityHours       int    `json:"qr_validity_hours"`
	MachineEnabled        bool   `json:"machine_enabled"`
}

// Operator is a console account (admin or operator role).
type Operator struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Registration is the intake payload submitted by the operator flow,
// sent as multipart form data with the captured photo attached.
type Registration struct {
	FullName     string
	MobileNumber string
	Email        string
	Role         string
	GuestType    string
	FaceImage    []byte
	FaceImageExt string
}
