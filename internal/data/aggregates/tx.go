package aggregates

import (
	"context"
	"time"

	domainagg "github.com/yungbote/neurobridge-coursepack/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
	"gorm.io/gorm"
)

// TxRunner is the transaction boundary of an import: reconcile, write and
// repackage either all land or none do.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// TxRunnerFunc adapts a function to TxRunner.
type TxRunnerFunc func(ctx context.Context, fn func(dbc dbctx.Context) error) error

func (f TxRunnerFunc) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return f(ctx, fn)
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return TxRunnerFunc(func(ctx context.Context, fn func(dbc dbctx.Context) error) error {
		if fn == nil {
			return nil
		}
		if db == nil {
			return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
		}
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	})
}

// Hooks captures outcome events of transactional writes.
// *observability.Metrics implements it.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

func NoopHooks() Hooks { return noopHooks{} }

type multiHooks []Hooks

func (m multiHooks) ObserveOperation(name, status string, dur time.Duration) {
	for _, h := range m {
		h.ObserveOperation(name, status, dur)
	}
}

func (m multiHooks) IncConflict(name string) {
	for _, h := range m {
		h.IncConflict(name)
	}
}

func (m multiHooks) IncRetry(name string) {
	for _, h := range m {
		h.IncRetry(name)
	}
}

// JoinHooks fans every event out to hs. Nil entries are dropped.
func JoinHooks(hs ...Hooks) Hooks {
	out := make(multiHooks, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	switch len(out) {
	case 0:
		return noopHooks{}
	case 1:
		return out[0]
	}
	return out
}

type logHooks struct {
	log *logger.Logger
}

// LogHooks logs non-success writes. Lost version races are the interesting
// case: two uploads of one course slipped past the per-course lock.
func LogHooks(log *logger.Logger) Hooks {
	return logHooks{log: log.With("component", "WriteHooks")}
}

func (h logHooks) ObserveOperation(name, status string, dur time.Duration) {
	if status == "success" {
		h.log.Debug("write committed", "op", name, "duration_ms", dur.Milliseconds())
		return
	}
	h.log.Debug("write rolled back", "op", name, "status", status, "duration_ms", dur.Milliseconds())
}

func (h logHooks) IncConflict(name string) {
	h.log.Warn("write lost a version race", "op", name)
}

func (h logHooks) IncRetry(name string) {
	h.log.Info("write failed with a retryable error", "op", name)
}
