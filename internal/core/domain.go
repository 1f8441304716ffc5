package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ExpenseOrdinary ExpenseKind = "gasto"
	ExpenseDebt     ExpenseKind = "divida"
)

const (
	ProfileIndividual        ProfileType = "individual"
	ProfileMicroEntrepreneur ProfileType = "mei"
	ProfileCouple            ProfileType = "couple"
)

const maxTextLength = 200

type (
	ExpenseKind string
	ProfileType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// User is the signed-in identity every record is scoped to.
	User struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}

	IncomeEntry struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user_id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Date        Date      `json:"date"`
		Category    string    `json:"category"`
		CreatedAt   time.Time `json:"created_at"`
	}

	ExpenseEntry struct {
		ID          string      `json:"id"`
		UserID      string      `json:"user_id"`
		Description string      `json:"description"`
		Amount      Money       `json:"amount"`
		Date        Date        `json:"date"`
		Category    string      `json:"category"`
		Kind        ExpenseKind `json:"type"`
		Details     string      `json:"details,omitempty"`
		CreatedAt   time.Time   `json:"created_at"`
	}

	Goal struct {
		ID            string    `json:"id"`
		UserID        string    `json:"user_id"`
		Title         string    `json:"title"`
		CurrentAmount Money     `json:"current_amount"`
		TargetAmount  Money     `json:"target_amount"`
		Deadline      string    `json:"deadline"`
		Description   string    `json:"description,omitempty"`
		CreatedAt     time.Time `json:"created_at"`
	}

	Profile struct {
		UserID      string      `json:"user_id"`
		DisplayName string      `json:"display_name"`
		ProfileType ProfileType `json:"profile_type"`
	}

	Subscription struct {
		UserID string `json:"user_id"`
		Plan   Plan   `json:"plan"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", maxTextLength)
	ErrEmptyTitle         = errors.New("empty title")
	ErrInvalidExpenseKind = errors.New("invalid expense type")
	ErrInvalidTarget      = errors.New("target amount must be greater than zero")
	ErrInvalidProfileType = errors.New("invalid profile type")
	ErrEmptyDisplayName   = errors.New("empty display name")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD, the storage and wire format.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// Display formats the date the way the dashboard lists show it (DD/MM/YYYY).
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (k ExpenseKind) Valid() bool {
	return k == ExpenseOrdinary || k == ExpenseDebt
}

func (t ProfileType) Valid() bool {
	switch t {
	case ProfileIndividual, ProfileMicroEntrepreneur, ProfileCouple:
		return true
	default:
		return false
	}
}

func validateText(s string, empty error) error {
	if strings.TrimSpace(s) == "" {
		return empty
	}
	if len(s) > maxTextLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (e IncomeEntry) Validate() error {
	if err := validateText(e.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.Date.Validate()
}

func (e ExpenseEntry) Validate() error {
	if err := validateText(e.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Kind.Valid() {
		return ErrInvalidExpenseKind
	}
	if len(e.Details) > maxTextLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (g Goal) Validate() error {
	if err := validateText(g.Title, ErrEmptyTitle); err != nil {
		return err
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidTarget
	}
	if len(g.Description) > maxTextLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.DisplayName) == "" {
		return ErrEmptyDisplayName
	}
	if !p.ProfileType.Valid() {
		return ErrInvalidProfileType
	}
	return nil
}

// DefaultProfile is the profile a user starts with before saving settings.
func DefaultProfile(u User) Profile {
	return Profile{UserID: u.ID, DisplayName: u.DisplayName, ProfileType: ProfileIndividual}
}
