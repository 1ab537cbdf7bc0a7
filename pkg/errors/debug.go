package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// constraintSubjects names the record behind each constraint in the service
// schema, so rejected writes log "scheme" or "invoice" instead of a bare
// constraint identifier.
var constraintSubjects = map[string]string{
	"promotional_schemes_name_key":         "scheme",
	"promotional_schemes_party_side_check": "scheme",
	"promotional_schemes_apply_on_check":   "scheme",
	"promotional_schemes_window_check":     "scheme",
	"invoices_name_key":                    "invoice",
	"invoices_kind_check":                  "invoice",
	"invoices_docstatus_check":             "invoice",
}

// ErrorDump is the log view of an error: its code, the wrap chain and, when a
// postgres driver error is inside, the server-side diagnostics.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Details    any      `json:"details,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	Driver       string `json:"driver,omitempty"`
	DBCode       string `json:"db_code,omitempty"`
	DBConstraint string `json:"db_constraint,omitempty"`
	DBTable      string `json:"db_table,omitempty"`
	DBColumn     string `json:"db_column,omitempty"`
	DBDetail     string `json:"db_detail,omitempty"`
	DBMessage    string `json:"db_message,omitempty"`
	Subject      string `json:"subject,omitempty"`
}

// Dump flattens err for logging. Both pgx and lib/pq errors are recognized.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Details = te.Details()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.Driver = "pgx"
		d.DBCode = pgxErr.Code
		d.DBConstraint = pgxErr.ConstraintName
		d.DBTable = pgxErr.TableName
		d.DBColumn = pgxErr.ColumnName
		d.DBDetail = pgxErr.Detail
		d.DBMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.Driver = "pq"
		d.DBCode = string(pqErr.Code)
		d.DBConstraint = pqErr.Constraint
		d.DBTable = pqErr.Table
		d.DBColumn = pqErr.Column
		d.DBDetail = pqErr.Detail
		d.DBMessage = pqErr.Message
	}
	d.Subject = subjectFor(d.DBConstraint, d.DBTable)
	return d
}

// Fields renders the non-empty parts of the dump as structured log fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error": d.TopMessage}
	put := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	put("error_code", string(d.Code))
	put("db_driver", d.Driver)
	put("db_code", d.DBCode)
	put("db_constraint", d.DBConstraint)
	put("db_table", d.DBTable)
	put("db_column", d.DBColumn)
	put("db_detail", d.DBDetail)
	put("db_message", d.DBMessage)
	put("subject", d.Subject)
	if len(d.Chain) > 0 {
		fields["error_chain"] = d.Chain
	}
	if d.Details != nil {
		fields["error_details"] = d.Details
	}
	return fields
}

func subjectFor(constraint, table string) string {
	if s, ok := constraintSubjects[constraint]; ok {
		return s
	}
	switch {
	case strings.HasPrefix(table, "promotional_scheme"), strings.HasPrefix(table, "scheme_"):
		return "scheme"
	case strings.HasPrefix(table, "invoice"):
		return "invoice"
	}
	return ""
}
