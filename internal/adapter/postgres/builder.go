package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
)

// Builder returns a squirrel statement builder using PostgreSQL placeholders.
func Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Select builds the query and scans all rows into dst (pointer to slice).
func Select(ctx context.Context, q Querier, dst any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, q, dst, query, args...)
}

// Get builds the query and scans exactly one row into dst.
// Returns pgx.ErrNoRows when nothing matched.
func Get(ctx context.Context, q Querier, dst any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Get(ctx, q, dst, query, args...)
}

// Exec builds the statement and executes it, returning the affected row count.
func Exec(ctx context.Context, q Querier, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
