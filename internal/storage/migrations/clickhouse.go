package migrations

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	chstore "solana-copy-trader/internal/storage/clickhouse"
)

// ErrSemicolonInLiteral is returned for a file the statement splitter cannot
// handle.
var ErrSemicolonInLiteral = errors.New("semicolon inside string literal")

// RunClickhouseMigrations creates the DSN's database if needed, applies the
// embedded files and returns a connection to that database.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}
	files, err := load(ClickhouseFS, "clickhouse")
	if err != nil {
		return nil, err
	}

	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	err = admin.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName))
	admin.Close()
	if err != nil {
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}
	for _, m := range files {
		stmts, err := splitStatements(m.sql)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("migration %s: %w", m.name, err)
		}
		// The driver runs one statement per Exec.
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				conn.Close()
				return nil, fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
	}
	return conn, nil
}

// splitStatements drops "--" comment lines and splits on ";". Files must not
// put semicolons inside string literals or block comments.
func splitStatements(sql string) ([]string, error) {
	if err := checkLiterals(sql); err != nil {
		return nil, err
	}

	var kept []string
	for _, line := range strings.Split(sql, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "--") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(kept, "\n"), ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts, nil
}

func checkLiterals(sql string) error {
	inString := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			inString = !inString
		case ';':
			if inString {
				return ErrSemicolonInLiteral
			}
		}
	}
	return nil
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", errors.New("clickhouse dsn missing database")
	}
	return db, nil
}
