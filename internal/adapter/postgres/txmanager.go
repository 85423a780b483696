package postgres

import (
	"context"
	"fmt"
)

// TxManager runs callbacks inside a transaction carried by the context.
// Repositories pick it up through QuerierFromCtx; a nested RunInTx joins the
// outer transaction instead of opening a second one.
type TxManager struct {
	db Beginner
}

func NewTxManager(db Beginner) *TxManager {
	return &TxManager{db: db}
}

// RunInTx executes fn in a Read Committed transaction, committing on nil and
// rolling back on error or panic. Rollback ignores cancellation of ctx, so a
// request aborted mid-transition still releases its row locks promptly.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTx(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	rollbackCtx := context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(rollbackCtx)
			panic(r)
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(rollbackCtx); rbErr != nil {
			return fmt.Errorf("rollback: %w (after: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
