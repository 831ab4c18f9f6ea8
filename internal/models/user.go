package models

import (
	"time"

	"github.com/lib/pq"
)

// Role identifies the authenticated party for the RBAC system.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleStudent  Role = "STUDENT"
	RoleTeacher  Role = "TEACHER"
	RoleEmployee Role = "EMPLOYEE"
)

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleTeacher, RoleEmployee:
		return true
	default:
		return false
	}
}

// UserType discriminates which table an attendance event refers to.
// Admin accounts are configured, not stored, so they never appear here.
type UserType string

const (
	UserTypeStudent  UserType = "Student"
	UserTypeTeacher  UserType = "Teacher"
	UserTypeEmployee UserType = "Employee"
)

// Valid reports whether the user type is a supported value.
func (t UserType) Valid() bool {
	switch t {
	case UserTypeStudent, UserTypeTeacher, UserTypeEmployee:
		return true
	default:
		return false
	}
}

// Role maps the user type onto its RBAC role.
func (t UserType) Role() Role {
	switch t {
	case UserTypeStudent:
		return RoleStudent
	case UserTypeTeacher:
		return RoleTeacher
	case UserTypeEmployee:
		return RoleEmployee
	default:
		return ""
	}
}

// Person carries the identity columns shared by all three role tables.
// Code is the badge lookup key used by the sign-in/out kiosks; both Code
// and Email are unique within each table.
type Person struct {
	ID           string     `db:"id" json:"id"`
	Code         string     `db:"code" json:"code"`
	FirstName    string     `db:"first_name" json:"first_name"`
	MiddleName   string     `db:"middle_name" json:"middle_name,omitempty"`
	LastName     string     `db:"last_name" json:"last_name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Phone        string     `db:"phone" json:"phone"`
	Address      string     `db:"address" json:"address"`
	ImageURL     string     `db:"image_url" json:"image_url,omitempty"`
	SignInTime   *time.Time `db:"sign_in_time" json:"sign_in_time,omitempty"`
	SignOutTime  *time.Time `db:"sign_out_time" json:"sign_out_time,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins the name parts, skipping an empty middle name.
func (p Person) FullName() string {
	if p.MiddleName == "" {
		return p.FirstName + " " + p.LastName
	}
	return p.FirstName + " " + p.MiddleName + " " + p.LastName
}

// Student is a learner scoped by the three-tier classification used for
// roster resolution.
type Student struct {
	Person
	StudentNumber  string         `db:"student_number" json:"student_number"`
	EducationLevel string         `db:"education_level" json:"education_level"`
	GradeYearLevel string         `db:"grade_year_level" json:"grade_year_level"`
	Section        string         `db:"section" json:"section"`
	ClassSchedule  pq.StringArray `db:"class_schedule" json:"class_schedule"`
	Subjects       pq.StringArray `db:"subjects" json:"subjects"`
}

// Teacher holds instructor identity; teaching assignments live in their own
// table and are loaded separately.
type Teacher struct {
	Person
	ClassSchedule pq.StringArray `db:"class_schedule" json:"class_schedule"`
	Subjects      pq.StringArray `db:"subjects" json:"subjects"`
}

// Employee is non-teaching staff.
type Employee struct {
	Person
	Position string `db:"position" json:"position"`
}

// UserRef is the slim projection returned by code lookups: enough to stamp
// attendance and render the kiosk card without loading role arrays.
type UserRef struct {
	Person
	UserType UserType `db:"-" json:"user_type"`
}

// ListFilter captures the common paging/search parameters for admin lists.
type ListFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination is returned alongside list payloads.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// RosterScope is one (education level, grade/year level, section) triple.
// Matching is case-insensitive exact per field.
type RosterScope struct {
	EducationLevel string `json:"education_level"`
	GradeYearLevel string `json:"grade_year_level"`
	Section        string `json:"section"`
}
