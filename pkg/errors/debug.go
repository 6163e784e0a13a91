package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-friendly breakdown of an error chain. It is only ever
// written to logs or, outside production, into the debug block of a response.
type ErrorDump struct {
	TopMessage string       `json:"top_message"`
	Code       Code         `json:"code,omitempty"`
	Chain      []string     `json:"chain,omitempty"`
	DB         *DBErrorInfo `json:"db,omitempty"`
}

// DBErrorInfo carries the driver-level fields of a Postgres error from
// either pgx or lib/pq.
type DBErrorInfo struct {
	Code       string `json:"code,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.code
	}
	for link := err; link != nil; link = errors.Unwrap(link) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", link, link))
		if d.DB == nil {
			d.DB = driverInfo(link)
		}
	}
	return d
}

// driverInfo inspects a single link, not the whole chain.
func driverInfo(link error) *DBErrorInfo {
	switch e := link.(type) {
	case *pgconn.PgError:
		return &DBErrorInfo{e.Code, e.ConstraintName, e.TableName, e.ColumnName, e.Detail, e.Message}
	case *pq.Error:
		return &DBErrorInfo{string(e.Code), e.Constraint, e.Table, e.Column, e.Detail, e.Message}
	}
	return nil
}
