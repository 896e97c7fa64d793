package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NoMember is the member key used for expenses not attributed to a member.
const NoMember int64 = 0

// Cents is a fixed-point monetary amount with two decimal places.
type Cents int64

// ErrInvalidAmount is returned for amounts ParseCents cannot read exactly.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseCents accepts "1234.5", "1.234,56", "1,234.56", "1.234", "-10,00" and
// "" (zero). A separator followed by one or two digits is the decimal one; any
// other separator must group thousands in threes.
func ParseCents(s string) (Cents, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, nil
	}

	body, neg := raw, false
	if body[0] == '-' || body[0] == '+' {
		neg = body[0] == '-'
		body = body[1:]
	}

	intPart, frac := body, ""
	var decimalSep byte
	if i := strings.LastIndexAny(body, ".,"); i >= 0 {
		switch len(body) - i - 1 {
		case 1, 2:
			intPart, frac, decimalSep = body[:i], body[i+1:], body[i]
		case 3:
			// "1.234" is a grouped integer.
		default:
			return 0, fmt.Errorf("%w %q: ambiguous separator", ErrInvalidAmount, raw)
		}
	}

	digits, err := ungroup(intPart, decimalSep)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidAmount, raw, err)
	}
	if digits == "" && frac == "" {
		return 0, fmt.Errorf("%w %q: no digits", ErrInvalidAmount, raw)
	}
	if !allDigits(frac) {
		return 0, fmt.Errorf("%w %q: bad decimals", ErrInvalidAmount, raw)
	}
	if digits == "" {
		digits = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidAmount, raw, err)
	}
	hundredths := int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	if units > (math.MaxInt64-hundredths)/100 {
		return 0, fmt.Errorf("%w %q: out of range", ErrInvalidAmount, raw)
	}

	c := Cents(units*100 + hundredths)
	if neg {
		c = -c
	}
	return c, nil
}

// ungroup strips thousands separators from an integer part. Groups must use a
// single separator distinct from the decimal one, start with 1 to 3 digits
// without a leading zero and continue in groups of exactly 3.
func ungroup(s string, decimalSep byte) (string, error) {
	i := strings.IndexAny(s, ".,")
	if i < 0 {
		if !allDigits(s) {
			return "", fmt.Errorf("non-digit in %q", s)
		}
		return s, nil
	}

	sep := s[i]
	if sep == decimalSep {
		return "", errors.New("grouping and decimal separators are the same")
	}
	groups := strings.Split(s, string(sep))
	lead := groups[0]
	if len(lead) == 0 || len(lead) > 3 || lead[0] == '0' || !allDigits(lead) {
		return "", fmt.Errorf("bad leading group %q", lead)
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !allDigits(g) {
			return "", fmt.Errorf("bad group %q", g)
		}
	}
	return strings.Join(groups, ""), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Expense is a reimbursed parliamentary expense.
type Expense struct {
	MemberID       *int64     `db:"member_id"`
	MemberKey      int64      `db:"member_key"`
	Year           int        `db:"year"`
	Month          int        `db:"month"`
	ExpenseType    string     `db:"expense_type"`
	DocumentType   string     `db:"document_type"`
	DocumentDate   *time.Time `db:"document_date"`
	DocumentNumber string     `db:"document_number"`
	DocumentURL    string     `db:"document_url"`
	DocumentCode   string     `db:"document_code"`
	BatchCode      string     `db:"batch_code"`
	Installment    int        `db:"installment"`
	GrossAmount    Cents      `db:"gross_cents"`
	NetAmount      Cents      `db:"net_cents"`
	WithheldAmount Cents      `db:"withheld_cents"`
	SupplierName   string     `db:"supplier_name"`
	SupplierTaxID  string     `db:"supplier_tax_id"`
}

// ExpenseKey is the deduplication identity of an expense.
type ExpenseKey struct {
	MemberKey      int64
	Year           int
	Month          int
	ExpenseType    string
	SupplierTaxID  string
	DocumentNumber string
}

// Normalize fills the dedup-key columns so the uniqueness constraint never
// sees NULLs: sentinel member key, digit-only tax id, trimmed document number.
func (e *Expense) Normalize() {
	e.MemberKey = NoMember
	if e.MemberID != nil {
		e.MemberKey = *e.MemberID
	}
	e.ExpenseType = strings.TrimSpace(e.ExpenseType)
	e.SupplierTaxID = digitsOnly(e.SupplierTaxID)
	e.DocumentNumber = strings.ToUpper(strings.TrimSpace(e.DocumentNumber))
}

// Key returns the dedup key. Call Normalize first.
func (e Expense) Key() ExpenseKey {
	return ExpenseKey{
		MemberKey:      e.MemberKey,
		Year:           e.Year,
		Month:          e.Month,
		ExpenseType:    e.ExpenseType,
		SupplierTaxID:  e.SupplierTaxID,
		DocumentNumber: e.DocumentNumber,
	}
}

// ErrInvalidMonth is returned for months outside 1..12.
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
