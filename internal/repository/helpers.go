package repository

import (
	"database/sql"
	"strings"
)

// expectRow turns an UPDATE or DELETE that touched nothing into sql.ErrNoRows.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`%`, ``, `_`, ``)

// likePattern wraps term for a substring LIKE match. Wildcards typed by the user are dropped.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
}
