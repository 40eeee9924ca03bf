package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/RichardKnop/rageval"
)

func (a *Adapter) SaveRun(ctx context.Context, aRun *rageval.Run) error {
	return a.inTxDo(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := execQueryCheckRowsAffected(ctx, tx, upsertRunQuery{run: aRun}); err != nil {
			return fmt.Errorf("exec upsert run query failed: %w", err)
		}
		return nil
	})
}

type upsertRunQuery struct {
	run *rageval.Run
}

func (q upsertRunQuery) SQL() (string, []any) {
	// JSON has no NaN or infinities
	finite := make(map[string]float64, len(q.run.Summary))
	for k, v := range q.run.Summary {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite[k] = v
		}
	}
	summary, _ := json.Marshal(finite)

	query := `
		insert into "run" (
			"id",
			"kind",
			"input",
			"output",
			"rows",
			"summary",
			"status",
			"message",
			"created",
			"finished"
		)
		values (?, ?, ?, ?, ?, ?, (select "id" from "run_status" rs where rs."name" = ?), ?, ?, ?)
		on conflict("id") do update set
			"output"=excluded."output",
			"rows"=excluded."rows",
			"summary"=excluded."summary",
			"status"=excluded."status",
			"message"=excluded."message",
			"finished"=excluded."finished"
	`
	args := []any{
		q.run.ID,
		q.run.Kind,
		q.run.Input,
		q.run.Output,
		q.run.Rows,
		string(summary),
		q.run.Status,
		sql.NullString{String: q.run.Message, Valid: q.run.Message != ""},
		q.run.Created.UTC(),
		sql.NullTime{Time: q.run.Finished.UTC(), Valid: !q.run.Finished.IsZero()},
	}

	return query, args
}

func (a *Adapter) FindRun(ctx context.Context, id rageval.RunID) (*rageval.Run, error) {
	var aRun *rageval.Run

	if err := a.inTxDo(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query, args := selectRunsQuery{filter: rageval.RunFilter{}}.SQL()
		query += ` where r."id" = ?`
		args = append(args, id)

		var err error
		aRun, err = scanRun(tx.QueryRowContext(ctx, query, args...))
		return err
	}); err != nil {
		return nil, err
	}

	return aRun, nil
}

// ListRuns returns runs matching filter, most recent first.
func (a *Adapter) ListRuns(ctx context.Context, filter rageval.RunFilter, limit int) ([]*rageval.Run, error) {
	var runs []*rageval.Run

	if err := a.inTxDo(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query, args := selectRunsQuery{filter: filter}.SQL()

		where, whereArgs := runFilterClauses(filter)
		if where != "" {
			query += " where " + where
			args = append(args, whereArgs...)
		}

		query += ` order by r."created" desc, r."id"`
		if limit > 0 {
			query += ` limit ?`
			args = append(args, limit)
		}

		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("select runs query failed: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			aRun, err := scanRun(rows)
			if err != nil {
				return err
			}
			runs = append(runs, aRun)
		}

		return rows.Err()
	}); err != nil {
		return nil, err
	}

	return runs, nil
}

type selectRunsQuery struct {
	filter rageval.RunFilter
}

func (q selectRunsQuery) SQL() (string, []any) {
	query := `
		select
			r."id",
			r."kind",
			r."input",
			r."output",
			r."rows",
			r."summary",
			rs."name" as "status",
			r."message",
			r."created",
			r."finished"
		from "run" r
		inner join "run_status" rs on r."status" = rs."id"
	`

	return query, []any{}
}

func runFilterClauses(filter rageval.RunFilter) (string, []any) {
	var (
		clauses = []string{}
		args    = []any{}
	)

	if filter.Kind != "" {
		clauses = append(clauses, `r."kind" = ?`)
		args = append(args, filter.Kind)
	}

	if filter.Status != "" {
		clauses = append(clauses, `rs."name" = ?`)
		args = append(args, filter.Status)
	}

	return strings.Join(clauses, " and "), args
}

func scanRun(row Scannable) (*rageval.Run, error) {
	var (
		aRun     = new(rageval.Run)
		summary  string
		message  = sql.NullString{}
		finished = sql.NullTime{}
	)

	if err := row.Scan(
		&aRun.ID,
		&aRun.Kind,
		&aRun.Input,
		&aRun.Output,
		&aRun.Rows,
		&summary,
		&aRun.Status,
		&message,
		&aRun.Created,
		&finished,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, rageval.ErrNotFound
		}
		return nil, fmt.Errorf("scan run failed: %w", err)
	}

	aRun.Summary = map[string]float64{}
	if err := json.Unmarshal([]byte(summary), &aRun.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal run summary failed: %w", err)
	}
	if message.Valid {
		aRun.Message = message.String
	}
	if finished.Valid {
		aRun.Finished = finished.Time
	}

	return aRun, nil
}
