package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskSessionPrune removes expired session audit rows.
const TaskSessionPrune = "sessions:prune"

// NewSessionPruneTask constructs an Asynq task. The task carries no payload.
func NewSessionPruneTask() *asynq.Task {
	return asynq.NewTask(TaskSessionPrune, nil)
}

// SessionPruneJob deletes session records past their expiry. Redis drops the
// live session state on its own; this keeps the audit table from growing
// without bound.
type SessionPruneJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

// NewSessionPruneJob wires dependencies for the prune handler.
func NewSessionPruneJob(pool *pgxpool.Pool, logger *slog.Logger) *SessionPruneJob {
	return &SessionPruneJob{Pool: pool, Logger: logger}
}

// Handle processes TaskSessionPrune tasks.
func (j *SessionPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("session prune: handler not configured")
	}
	tag, err := j.Pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		j.logger().Error("session prune", slog.Any("error", err))
		return err
	}
	if tag.RowsAffected() > 0 {
		j.logger().Info("sessions pruned", slog.Int64("removed", tag.RowsAffected()))
	}
	return nil
}

func (j *SessionPruneJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSessionPrune))
	}
	return slog.Default().With(slog.String("job", TaskSessionPrune))
}
