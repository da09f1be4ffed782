// Package coerce turns raw CSV records into typed domain rows.
//
// Rules per field kind:
//   - identifiers: integer, required; a blank value is a coercion error.
//   - money (amount, income, expenses): float64, blank becomes NULL.
//   - flags (credit, deposit): integer, blank becomes 0.
//   - optional dates (date_end): passed through, blank becomes NULL.
//   - everything else, including required dates: passed through verbatim.
//
// A transaction with a blank client_id is skipped, not rejected. No
// cross-field validation is done here; referential integrity is the
// database's job.
package coerce

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bankload/internal/domain"
)

// ErrCoerce matches every *Error via errors.Is.
var ErrCoerce = errors.New("coercion failed")

// ReasonMissingClientID is the skip reason for transactions without a client.
const ReasonMissingClientID = "missing_client_id"

// Error describes a value that could not be converted.
type Error struct {
	Entity string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s line %d: column %q: invalid value %q: %v", e.Entity, e.Line, e.Column, e.Value, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrCoerce }

// Record is the read side of a parsed CSV row.
type Record interface {
	Get(column string) (string, bool)
}

var (
	errBlank   = errors.New("value is required")
	errMissing = errors.New("column missing from record")
)

// ParseInt parses a required integer. Surrounding spaces are ignored.
func ParseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errBlank
	}
	return strconv.ParseInt(s, 10, 64)
}

// OptFloat returns nil for an empty value, otherwise the parsed float.
func OptFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Flag returns 0 for an empty value, otherwise the parsed integer.
func Flag(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

// OptString returns nil for an empty value.
func OptString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CheckHeader reports every required column missing from a file's header.
func CheckHeader(entity string, has func(string) bool, required []string) error {
	var missing []string
	for _, c := range required {
		if !has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: header is missing column(s) %s", entity, strings.Join(missing, ", "))
	}
	return nil
}

// fields reads typed values off one record; the first failure sticks and
// later reads become no-ops.
type fields struct {
	entity string
	line   int
	rec    Record
	err    error
}

func (f *fields) fail(col, val string, err error) {
	if f.err == nil {
		f.err = &Error{Entity: f.entity, Line: f.line, Column: col, Value: val, Err: err}
	}
}

func (f *fields) str(col string) string {
	if f.err != nil {
		return ""
	}
	v, ok := f.rec.Get(col)
	if !ok {
		f.fail(col, "", errMissing)
	}
	return v
}

func (f *fields) integer(col string) int64 {
	v := f.str(col)
	if f.err != nil {
		return 0
	}
	n, err := ParseInt(v)
	if err != nil {
		f.fail(col, v, err)
	}
	return n
}

func (f *fields) optFloat(col string) *float64 {
	v := f.str(col)
	if f.err != nil {
		return nil
	}
	p, err := OptFloat(v)
	if err != nil {
		f.fail(col, v, err)
	}
	return p
}

func (f *fields) flag(col string) int64 {
	v := f.str(col)
	if f.err != nil {
		return 0
	}
	n, err := Flag(v)
	if err != nil {
		f.fail(col, v, err)
	}
	return n
}

func (f *fields) optStr(col string) *string {
	return OptString(f.str(col))
}

// ParseCategory coerces one categories.csv record.
func ParseCategory(line int, r Record) (domain.Category, error) {
	f := fields{entity: domain.TableCategories, line: line, rec: r}
	c := domain.Category{
		ID:          f.integer("id"),
		Name:        f.str("name"),
		Description: f.str("description"),
		MCCCode:     f.str("mcc-code"),
	}
	return c, f.err
}

// ParseClient coerces one clients.csv record.
func ParseClient(line int, r Record) (domain.Client, error) {
	f := fields{entity: domain.TableClients, line: line, rec: r}
	c := domain.Client{
		ID:               f.integer("id"),
		Fullname:         f.str("fullname"),
		Address:          f.str("address"),
		PhoneNumber:      f.str("phone_number"),
		Email:            f.str("email"),
		Workplace:        f.str("workplace"),
		Birthdate:        f.str("birthdate"),
		RegistrationDate: f.str("registration_date"),
		Gender:           f.str("gender"),
		Income:           f.optFloat("income"),
		Expenses:         f.optFloat("expenses"),
		Credit:           f.flag("credit"),
		Deposit:          f.flag("deposit"),
	}
	return c, f.err
}

// ParseSubscription coerces one subscriptions.csv record. date_start is
// passed through unvalidated.
func ParseSubscription(line int, r Record) (domain.Subscription, error) {
	f := fields{entity: domain.TableSubscriptions, line: line, rec: r}
	s := domain.Subscription{
		ID:              f.integer("id"),
		ClientID:        f.integer("client_id"),
		ProductCategory: f.integer("product_category"),
		ProductCompany:  f.str("product_company"),
		Amount:          f.optFloat("amount"),
		DateStart:       f.str("date_start"),
		DateEnd:         f.optStr("date_end"),
	}
	return s, f.err
}

// ParseTransaction coerces one transactions.csv record. skip is true (and
// err nil) only when client_id is empty; a whitespace-only client_id fails.
func ParseTransaction(line int, r Record) (t domain.Transaction, skip bool, err error) {
	if v, ok := r.Get("client_id"); ok && v == "" {
		return domain.Transaction{}, true, nil
	}
	f := fields{entity: domain.TableTransactions, line: line, rec: r}
	t = domain.Transaction{
		ClientID:        f.integer("client_id"),
		ProductCategory: f.integer("product_category"),
		ProductCompany:  f.str("product_company"),
		Subtype:         f.str("subtype"),
		Amount:          f.optFloat("amount"),
		Date:            f.str("date"),
		TransactionType: f.str("transaction_type"),
	}
	return t, false, f.err
}
