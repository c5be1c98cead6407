package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Common errors for repository operations.
var (
	ErrOwnerNotFound = errors.New("server not found")
	ErrHostExists    = errors.New("host already registered")
	ErrURLNotFound   = errors.New("url not found")
	ErrOwnerMissing  = errors.New("referenced server does not exist")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == pgForeignKeyViolation
}

// isInvalidID reports a malformed UUID literal rejected by PostgreSQL.
func isInvalidID(err error) bool {
	return pgErrorCode(err) == pgInvalidText
}
