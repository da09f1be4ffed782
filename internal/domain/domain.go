// Package domain holds the business objects of the bank dataset and the
// table layout they are loaded into.
//
// Nullable columns are pointers; Values converts a nil pointer to an untyped
// nil so every driver binds it as SQL NULL.
package domain

// Table names, in foreign-key-safe load order.
const (
	TableCategories    = "categories"
	TableClients       = "clients"
	TableSubscriptions = "subscriptions"
	TableTransactions  = "transactions"
)

// Tables lists every table in load order. Drop order is the reverse.
var Tables = []string{TableCategories, TableClients, TableSubscriptions, TableTransactions}

// Category is a purchase category (MCC).
type Category struct {
	ID          int64
	Name        string
	Description string
	MCCCode     string
}

// CategoryColumns is the insert column order of Category.Values.
var CategoryColumns = []string{"id", "name", "description", "mcc_code"}

// CategoryHeader is the CSV header a categories file must carry.
var CategoryHeader = []string{"id", "name", "description", "mcc-code"}

// Values returns the row in CategoryColumns order.
func (c Category) Values() []any {
	return []any{c.ID, c.Name, c.Description, c.MCCCode}
}

// Client is a bank client plus a financial summary.
type Client struct {
	ID               int64
	Fullname         string
	Address          string
	PhoneNumber      string
	Email            string
	Workplace        string
	Birthdate        string
	RegistrationDate string
	Gender           string
	Income           *float64
	Expenses         *float64
	Credit           int64
	Deposit          int64
}

// ClientColumns is the insert column order of Client.Values.
var ClientColumns = []string{
	"id", "fullname", "address", "phone_number", "email",
	"workplace", "birthdate", "registration_date", "gender",
	"income", "expenses", "credit", "deposit",
}

// ClientHeader matches ClientColumns.
var ClientHeader = ClientColumns

// Values returns the row in ClientColumns order, blank money as NULL.
func (c Client) Values() []any {
	return []any{
		c.ID, c.Fullname, c.Address, c.PhoneNumber, c.Email,
		c.Workplace, c.Birthdate, c.RegistrationDate, c.Gender,
		nullFloat(c.Income), nullFloat(c.Expenses), c.Credit, c.Deposit,
	}
}

// Subscription links a client to a product category.
type Subscription struct {
	ID              int64
	ClientID        int64
	ProductCategory int64
	ProductCompany  string
	Amount          *float64
	DateStart       string
	DateEnd         *string
}

// SubscriptionColumns is the insert column order of Subscription.Values.
var SubscriptionColumns = []string{
	"id", "client_id", "product_category", "product_company",
	"amount", "date_start", "date_end",
}

// SubscriptionHeader matches SubscriptionColumns.
var SubscriptionHeader = SubscriptionColumns

// Values returns the row in SubscriptionColumns order.
func (s Subscription) Values() []any {
	return []any{
		s.ID, s.ClientID, s.ProductCategory, s.ProductCompany,
		nullFloat(s.Amount), s.DateStart, nullString(s.DateEnd),
	}
}

// Transaction is a single client transaction. The table assigns the id.
type Transaction struct {
	ClientID        int64
	ProductCategory int64
	ProductCompany  string
	Subtype         string
	Amount          *float64
	Date            string
	TransactionType string
}

// TransactionColumns is the insert column order of Transaction.Values; the
// surrogate id is left to the table.
var TransactionColumns = []string{
	"client_id", "product_category", "product_company", "subtype",
	"amount", "date", "transaction_type",
}

// TransactionHeader matches TransactionColumns.
var TransactionHeader = TransactionColumns

// Values returns the row in TransactionColumns order.
func (t Transaction) Values() []any {
	return []any{
		t.ClientID, t.ProductCategory, t.ProductCompany, t.Subtype,
		nullFloat(t.Amount), t.Date, t.TransactionType,
	}
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
