package auth

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleStudent can consume lessons and quizzes
	RoleStudent UserRole = "student"
	// RoleTeacher can author and review content
	RoleTeacher UserRole = "teacher"
	// RoleAdmin manages the platform
	RoleAdmin UserRole = "admin"
)

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(roleStr)))
	switch role {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return role, true
	default:
		return role, false
	}
}

// Streams available to grade 12 and 13 students
const (
	StreamScience    = "Science Stream"
	StreamCommerce   = "Commerce Stream"
	StreamArts       = "Arts Stream"
	StreamTechnology = "Technology Stream"
)

// ValidStreams returns the streams a senior student may select
func ValidStreams() []string {
	return []string{StreamScience, StreamCommerce, StreamArts, StreamTechnology}
}

// IsValidStream reports whether the value is a selectable stream
func IsValidStream(stream string) bool {
	for _, s := range ValidStreams() {
		if s == stream {
			return true
		}
	}
	return false
}

// User is the account model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Role          UserRole   `bun:"role,notnull" json:"role,omitempty"`
	Confirmed     bool       `bun:"is_confirmed" json:"is_confirmed"`
	Grade         string     `bun:"grade" json:"grade,omitempty"`
	Subjects      string     `bun:"subjects" json:"subjects,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Identity adapts the persisted user to the Identity contract
func (u *User) Identity() Identity {
	return authIdentity{
		id:       u.ID.String(),
		username: u.Username,
		email:    u.Email,
		role:     u.Role,
	}
}

// GradeBand maps a student's grade level to the subject fields it requires
type GradeBand int

const (
	// BandNone requires neither baskets nor stream
	BandNone GradeBand = iota
	// BandBasket requires three basket-subject selections (grades 10-11)
	BandBasket
	// BandStream requires a single stream selection (grades 12-13)
	BandStream
)

// ParseGrade extracts the numeric level from a "Grade N" label
func ParseGrade(grade string) (int, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(grade), "Grade"))
	level, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrInvalidGrade
	}
	return level, nil
}

// GradeBandFor resolves the banding rules that apply to a grade label
func GradeBandFor(grade string) (GradeBand, error) {
	level, err := ParseGrade(grade)
	if err != nil {
		return BandNone, err
	}

	switch level {
	case 10, 11:
		return BandBasket, nil
	case 12, 13:
		return BandStream, nil
	default:
		return BandNone, nil
	}
}

// ResolveSubjects applies grade banding to produce the stored subjects value:
// a comma-joined basket list, the stream name, or empty for unbanded grades.
func ResolveSubjects(grade string, baskets []string, stream string) (string, error) {
	band, err := GradeBandFor(grade)
	if err != nil {
		return "", err
	}

	switch band {
	case BandBasket:
		if len(baskets) != 3 {
			return "", ErrInvalidGrade
		}
		for _, b := range baskets {
			if strings.TrimSpace(b) == "" {
				return "", ErrInvalidGrade
			}
		}
		return strings.Join(baskets, ","), nil
	case BandStream:
		if !IsValidStream(stream) {
			return "", ErrInvalidStream
		}
		return stream, nil
	default:
		return "", nil
	}
}
