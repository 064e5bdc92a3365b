package replikit

import (
	"context"
	"log/slog"
)

// WriteHandler applies a transaction arriving from the edge.
type WriteHandler func(ctx context.Context, tx Transaction) error

// ReadHandler delivers a filtered transaction and its move-outs to the
// edge.
type ReadHandler func(ctx context.Context, tx Transaction, moveOuts []MoveOut) error

// Gate bolts the evaluator onto a replication pipeline: WriteGate guards
// an upstream apply function, ReadGate filters a downstream delivery
// function. The compiled permissions are read through a function so the
// pipeline always evaluates against the handle most recently swapped in by
// a configuration update.
type Gate struct {
	permissions func() *CompiledPermissions
	onDenied    func(ctx context.Context, tx Transaction, err error)
	logger      *slog.Logger
}

// GateOption configures the Gate.
type GateOption func(*Gate)

// NewGate creates a new Gate.
//
// Example:
//
//	var current atomic.Pointer[replikit.CompiledPermissions]
//	gate := replikit.NewGate(current.Load)
//	apply = gate.WriteGate(apply)
func NewGate(permissions func() *CompiledPermissions, opts ...GateOption) *Gate {
	g := &Gate{permissions: permissions}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithDeniedHandler sets a callback invoked when a transaction is
// rejected, before the denial is returned to the pipeline.
func WithDeniedHandler(fn func(ctx context.Context, tx Transaction, err error)) GateOption {
	return func(g *Gate) {
		g.onDenied = fn
	}
}

// WithGateLogger sets a logger for gate decisions.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WriteGate wraps an apply function so that only admitted transactions
// reach it. A rejected transaction never reaches next; the denial is
// reported to the denied handler and returned.
func (g *Gate) WriteGate(next WriteHandler) WriteHandler {
	return func(ctx context.Context, tx Transaction) error {
		if err := g.permissions().ValidateWrite(tx); err != nil {
			if g.logger != nil {
				g.logger.Debug("transaction rejected", slog.Uint64("lsn", uint64(tx.LSN)), slog.String("reason", err.Error()))
			}
			if g.onDenied != nil {
				g.onDenied(ctx, tx, err)
			}
			return err
		}
		return next(ctx, tx)
	}
}

// ReadGate wraps a delivery function so it only ever sees the changes the
// user may read, together with the move-outs the filter produced.
func (g *Gate) ReadGate(next ReadHandler) ReadHandler {
	return func(ctx context.Context, tx Transaction, moveOuts []MoveOut) error {
		filtered, filteredOuts := g.permissions().FilterRead(tx)
		if g.logger != nil && len(filtered.Changes) != len(tx.Changes) {
			g.logger.Debug("transaction filtered",
				slog.Uint64("lsn", uint64(tx.LSN)),
				slog.Int("in", len(tx.Changes)),
				slog.Int("out", len(filtered.Changes)),
			)
		}
		return next(ctx, filtered, append(moveOuts, filteredOuts...))
	}
}
