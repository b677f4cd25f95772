package driver

import (
	"database/sql"
	"errors"
	"net"

	mysqldriver "github.com/go-sql-driver/mysql"
	pqdriver "github.com/lib/pq"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
	"github.com/imransaadullah/SimpleMDB-sub000/dialect"
)

// classify turns a raw database/sql error into one of the §7 typed errors,
// dispatching to the dialect-specific classifier. sqlText (when non-empty)
// is attached so QueryError carries the statement that was rejected.
func classify(kind dialect.Kind, err error, sqlText ...string) error {
	if err == nil {
		return nil
	}

	var text string
	if len(sqlText) > 0 {
		text = sqlText[0]
	}

	switch kind {
	case dialect.MySQL:
		return classifyMySQL(err, text)
	case dialect.Postgres:
		return classifyPostgres(err, text)
	default:
		return err
	}
}

// mysqlNumberAdapter implements retry.MySQLNumberer so retry.IsRetryable can
// classify a MySQL error by its numeric code without importing this
// package (avoiding an import cycle between driver and retry).
type mysqlNumberAdapter struct {
	*mysqldriver.MySQLError
}

func (a mysqlNumberAdapter) MySQLErrorNumber() uint16 { return a.Number }

// classifyMySQL maps *mysql.MySQLError and network errors onto §7's typed
// errors. 1062 (duplicate key), 1451/1452 (FK violation), 1048 (not null)
// are IntegrityError; anything else server-rejected is QueryError;
// network-level failures are ConnectionError.
func classifyMySQL(err error, sqlText string) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, mysqldriver.ErrInvalidConn) {
		return &dberrors.ConnectionError{Err: err}
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		wrapped := error(mysqlNumberAdapter{myErr})
		switch {
		case isIntegrityCode(myErr.Number):
			return &dberrors.IntegrityError{Err: wrapped}
		default:
			qErr := &dberrors.QueryError{SQL: sqlText, Err: wrapped}
			if isTransientMySQLCode(myErr.Number) {
				return &dberrors.TransientError{Err: qErr}
			}
			return qErr
		}
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return &dberrors.ConnectionError{Err: err}
	}

	return &dberrors.QueryError{SQL: sqlText, Err: err}
}

func isIntegrityCode(code uint16) bool {
	switch code {
	case 1062, 1451, 1452, 1048, 1216, 1217, 1364:
		return true
	default:
		return false
	}
}

func isTransientMySQLCode(code uint16) bool {
	switch code {
	case 1040, 1203, 1205, 1213, 2006, 2013:
		return true
	default:
		return false
	}
}

// classifyPostgres maps *pq.Error onto §7's typed errors using SQLSTATE
// class prefixes: "23" is integrity constraint violation, "08" is
// connection exception.
func classifyPostgres(err error, sqlText string) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &dberrors.ConnectionError{Err: err}
	}

	var pqErr *pqdriver.Error
	if errors.As(err, &pqErr) {
		class := ""
		if len(pqErr.Code) >= 2 {
			class = string(pqErr.Code)[:2]
		}
		switch class {
		case "23":
			return &dberrors.IntegrityError{Err: pqErr}
		case "08":
			return &dberrors.ConnectionError{Err: pqErr}
		case "40":
			// 40001 serialization_failure, 40P01 deadlock_detected
			return &dberrors.TransientError{Err: &dberrors.QueryError{SQL: sqlText, Err: pqErr}}
		default:
			return &dberrors.QueryError{SQL: sqlText, Err: pqErr}
		}
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return &dberrors.ConnectionError{Err: err}
	}

	return &dberrors.QueryError{SQL: sqlText, Err: err}
}
