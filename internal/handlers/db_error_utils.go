package handlers

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// isForeignKeyConstraintError checks if the error corresponds to a MySQL/MariaDB
// foreign key constraint failure.
func isForeignKeyConstraintError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1452
}
