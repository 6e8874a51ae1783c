package models

import "time"

// CopyState is the lifecycle state of a physical copy.
type CopyState string

const (
	CopyAvailable CopyState = "AVAILABLE"
	CopyReserved  CopyState = "RESERVED"
	CopyLoaned    CopyState = "LOANED"
	CopyWithdrawn CopyState = "WITHDRAWN"
)

// ReservationState is the lifecycle state of a reservation.
type ReservationState string

const (
	ReservationActive    ReservationState = "ACTIVE"
	ReservationCancelled ReservationState = "CANCELLED"
	ReservationExpired   ReservationState = "EXPIRED"
	ReservationConverted ReservationState = "CONVERTED"
)

// IsTerminal reports whether the state permits no further transitions.
func (s ReservationState) IsTerminal() bool {
	return s == ReservationCancelled || s == ReservationExpired || s == ReservationConverted
}

// LoanState is the lifecycle state of a loan.
type LoanState string

const (
	LoanActive   LoanState = "ACTIVE"
	LoanReturned LoanState = "RETURNED"
)

// Role is a member's role within the library.
type Role string

const (
	RolePatron Role = "PATRON"
	RoleStaff  Role = "STAFF"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RolePatron, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

// Title represents a catalogued work. Copies reference it by id.
type Title struct {
	ID     uint   `gorm:"column:id;primaryKey"`
	Name   string `gorm:"column:name;not null"`
	Author string `gorm:"column:author"`
	ISBN   string `gorm:"column:isbn"`
}

// TableName overrides the table name.
func (Title) TableName() string {
	return "title"
}

// Copy represents a single physical instance of a title.
// State is mutated only by the lifecycle engine, through a compare-and-swap
// on Version; a row is never deleted while referenced by history.
type Copy struct {
	ID       uint      `gorm:"column:id;primaryKey"`
	TitleID  uint      `gorm:"column:title_id;not null;index"`
	Barcode  string    `gorm:"column:barcode;uniqueIndex;not null"`
	State    CopyState `gorm:"column:state;not null"`
	Location string    `gorm:"column:location"`
	Version  uint      `gorm:"column:version;not null"`
}

// TableName overrides the table name.
func (Copy) TableName() string {
	return "copy"
}

// Reservation is a time-boxed hold on a copy for a member.
//
// ActiveCopyID mirrors CopyID while the reservation is ACTIVE and becomes
// NULL on any terminal transition. The unique index on it is what lets two
// concurrent reservation attempts on the same copy serialize: the loser hits
// a duplicate-key error at commit time.
type Reservation struct {
	ID           uint             `gorm:"column:id;primaryKey"`
	MemberID     uint             `gorm:"column:member_id;not null;index"`
	CopyID       uint             `gorm:"column:copy_id;not null;index"`
	StartsAt     time.Time        `gorm:"column:starts_at;not null"`
	EndsAt       time.Time        `gorm:"column:ends_at;not null"`
	State        ReservationState `gorm:"column:state;not null"`
	ActiveCopyID *uint            `gorm:"column:active_copy_id;uniqueIndex"`
}

// TableName overrides the table name.
func (Reservation) TableName() string {
	return "reservation"
}

// Loan is an active or completed borrowing of a copy.
// ActiveCopyID follows the same nullable-unique scheme as Reservation.
// ReservationID records the originating reservation for audit only.
type Loan struct {
	ID            uint       `gorm:"column:id;primaryKey"`
	MemberID      uint       `gorm:"column:member_id;not null;index"`
	CopyID        uint       `gorm:"column:copy_id;not null;index"`
	LoanDate      time.Time  `gorm:"column:loan_date;not null"`
	DueDate       time.Time  `gorm:"column:due_date;not null"`
	ReturnDate    *time.Time `gorm:"column:return_date"`
	State         LoanState  `gorm:"column:state;not null"`
	ReservationID *uint      `gorm:"column:reservation_id"`
	ActiveCopyID  *uint      `gorm:"column:active_copy_id;uniqueIndex"`
}

// TableName overrides the table name.
func (Loan) TableName() string {
	return "loan"
}

// Member represents a registered library member.
type Member struct {
	ID             uint       `gorm:"column:id;primaryKey"`
	Username       string     `gorm:"column:username;uniqueIndex;not null"`
	Role           Role       `gorm:"column:role;not null"`
	MaxActiveItems int        `gorm:"column:max_active_items"`
	PenalizedUntil *time.Time `gorm:"column:penalized_until"`
	Name           string     `gorm:"column:name"`
	Email          string     `gorm:"column:email"`
}

// TableName overrides the table name.
func (Member) TableName() string {
	return "member"
}

// IsStaff reports whether the member may act on other members' items.
func (m Member) IsStaff() bool {
	return m.Role == RoleStaff || m.Role == RoleAdmin
}

// IsPenalized reports whether the member is under an active penalty.
func (m Member) IsPenalized(now time.Time) bool {
	return m.PenalizedUntil != nil && now.Before(*m.PenalizedUntil)
}

// All returns every entity for schema migration.
func All() []any {
	return []any{&Title{}, &Copy{}, &Reservation{}, &Loan{}, &Member{}}
}
