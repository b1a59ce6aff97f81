package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const maxDumpChain = 8

// ErrorDump flattens an error chain into log-friendly fields. Database failures
// carry the driver's code and constraint so a rejected photo write can be traced
// back to the row that caused it.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`
	Truncated  bool     `json:"truncated,omitempty"`

	Store      string `json:"store,omitempty"`
	StoreCode  string `json:"store_code,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		if len(d.Chain) == maxDumpChain {
			d.Truncated = true
			break
		}
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgErr *pgconn.PgError
	var liteErr sqlite3.Error
	switch {
	case errors.As(err, &pgErr):
		d.Store = "postgres"
		d.StoreCode = pgErr.Code
		d.Constraint = pgErr.ConstraintName
		d.Table = pgErr.TableName
		d.Detail = pgErr.Detail
	case errors.As(err, &liteErr):
		d.Store = "sqlite"
		d.StoreCode = fmt.Sprintf("%d", int(liteErr.ExtendedCode))
		d.Detail = liteErr.Error()
	}

	return d
}

// Fields renders the dump as structured log fields. Store fields are only
// present when the chain contains a driver error.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.Truncated {
		fields["error_chain_truncated"] = true
	}
	if d.Store != "" {
		fields["db_store"] = d.Store
		fields["db_code"] = d.StoreCode
		fields["db_detail"] = d.Detail
		if d.Table != "" {
			fields["db_table"] = d.Table
		}
		if d.Constraint != "" {
			fields["db_constraint"] = d.Constraint
		}
	}
	return fields
}
