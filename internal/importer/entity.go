package importer

import (
	"bankload/internal/coerce"
	"bankload/internal/domain"
	"bankload/internal/parser/csv"
)

// entity binds one CSV file to one table.
type entity struct {
	table   string
	header  []string // columns the CSV must carry
	columns []string // insert column order
	loaded  State    // state reached once the table is loaded

	// skipField names the column checked by the skip rule, if any.
	skipField  string
	skipReason string

	convert func(rec csv.Record) (row []any, skip bool, err error)
}

// entities lists every import in foreign-key-safe order.
var entities = []entity{
	{
		table:   domain.TableCategories,
		header:  domain.CategoryHeader,
		columns: domain.CategoryColumns,
		loaded:  CategoriesLoaded,
		convert: func(rec csv.Record) ([]any, bool, error) {
			c, err := coerce.ParseCategory(rec.Line, rec)
			return c.Values(), false, err
		},
	},
	{
		table:   domain.TableClients,
		header:  domain.ClientHeader,
		columns: domain.ClientColumns,
		loaded:  ClientsLoaded,
		convert: func(rec csv.Record) ([]any, bool, error) {
			c, err := coerce.ParseClient(rec.Line, rec)
			return c.Values(), false, err
		},
	},
	{
		table:   domain.TableSubscriptions,
		header:  domain.SubscriptionHeader,
		columns: domain.SubscriptionColumns,
		loaded:  SubscriptionsLoaded,
		convert: func(rec csv.Record) ([]any, bool, error) {
			s, err := coerce.ParseSubscription(rec.Line, rec)
			return s.Values(), false, err
		},
	},
	{
		table:      domain.TableTransactions,
		header:     domain.TransactionHeader,
		columns:    domain.TransactionColumns,
		loaded:     TransactionsLoaded,
		skipField:  "client_id",
		skipReason: coerce.ReasonMissingClientID,
		convert: func(rec csv.Record) ([]any, bool, error) {
			t, skip, err := coerce.ParseTransaction(rec.Line, rec)
			if skip || err != nil {
				return nil, skip, err
			}
			return t.Values(), false, nil
		},
	},
}
