package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/renjie/cellmatch-core/pkg/core/domain"
	"github.com/renjie/cellmatch-core/pkg/core/ports"
)

// SqliteRunRepository 基于 SQLite 的运行留痕仓储
// 实现 ports.RunRepository，供产线追溯历史选配运行
type SqliteRunRepository struct {
	db *sql.DB
}

// Open 打开（或创建）留痕数据库并初始化表结构
func Open(path string) (*SqliteRunRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id         TEXT PRIMARY KEY,
		created_at     TEXT NOT NULL,
		series         INTEGER NOT NULL,
		parallel       INTEGER NOT NULL,
		cell_count     INTEGER NOT NULL,
		excluded_count INTEGER NOT NULL,
		r_min          REAL NOT NULL,
		r_max          REAL NOT NULL,
		r_avg          REAL NOT NULL,
		spread         REAL NOT NULL,
		spread_pct     REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS run_members (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       TEXT NOT NULL,
		module_index INTEGER NOT NULL,
		combined_r   REAL NOT NULL,
		serial       TEXT NOT NULL,
		dcir         REAL NOT NULL,
		ocv          REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_run_members_run ON run_members(run_id);

	CREATE TABLE IF NOT EXISTS run_excluded (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id  TEXT NOT NULL,
		serial  TEXT NOT NULL,
		dcir    REAL NOT NULL,
		ocv     REAL NOT NULL,
		reason  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_run_excluded_run ON run_excluded(run_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return &SqliteRunRepository{db: db}, nil
}

// Close 关闭底层数据库连接
func (r *SqliteRunRepository) Close() error {
	return r.db.Close()
}

// SaveRun 实现 ports.RunRepository.SaveRun
// 运行头、成员明细、剔除明细在同一事务内落库
func (r *SqliteRunRepository) SaveRun(ctx context.Context, result *domain.GroupingResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	cellCount := result.Series * result.Parallel
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, series, parallel, cell_count, excluded_count,
		                   r_min, r_max, r_avg, spread, spread_pct)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.CreatedAt.Format(time.RFC3339), result.Series, result.Parallel,
		cellCount, len(result.Excluded),
		result.Stats.Min, result.Stats.Max, result.Stats.Avg,
		result.Stats.Spread, result.Stats.SpreadPercent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, m := range result.Modules {
		for _, c := range m.Members {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO run_members (run_id, module_index, combined_r, serial, dcir, ocv)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				result.RunID, m.Index, m.CombinedResistance, c.ID, c.Resistance, c.Voltage,
			)
			if err != nil {
				return fmt.Errorf("failed to insert member %s: %w", c.ID, err)
			}
		}
	}

	for _, e := range result.Excluded {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_excluded (run_id, serial, dcir, ocv, reason)
			 VALUES (?, ?, ?, ?, ?)`,
			result.RunID, e.ID, e.Resistance, e.Voltage, string(e.Reason),
		)
		if err != nil {
			return fmt.Errorf("failed to insert excluded %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// ListRuns 实现 ports.RunRepository.ListRuns
func (r *SqliteRunRepository) ListRuns(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, created_at, series, parallel, cell_count, excluded_count, spread_pct
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []ports.RunSummary
	for rows.Next() {
		var s ports.RunSummary
		if err := rows.Scan(&s.RunID, &s.CreatedAt, &s.Series, &s.Parallel,
			&s.CellCount, &s.ExcludedCount, &s.SpreadPercent); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetRun 实现 ports.RunRepository.GetRun
// 从三张表重建完整的 GroupingResult
func (r *SqliteRunRepository) GetRun(ctx context.Context, runID string) (*domain.GroupingResult, error) {
	result := &domain.GroupingResult{RunID: runID}

	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT created_at, series, parallel, r_min, r_max, r_avg, spread, spread_pct
		 FROM runs WHERE run_id = ?`, runID).
		Scan(&createdAt, &result.Series, &result.Parallel,
			&result.Stats.Min, &result.Stats.Max, &result.Stats.Avg,
			&result.Stats.Spread, &result.Stats.SpreadPercent)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, err
	}
	if result.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at for run %s: %w", runID, err)
	}

	// 成员明细 -> 模组重建（按 module_index, serial 有序读出）
	rows, err := r.db.QueryContext(ctx,
		`SELECT module_index, combined_r, serial, dcir, ocv
		 FROM run_members WHERE run_id = ? ORDER BY module_index, serial`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var current *domain.Module
	for rows.Next() {
		var idx int
		var combined float64
		var c domain.Cell
		if err := rows.Scan(&idx, &combined, &c.ID, &c.Resistance, &c.Voltage); err != nil {
			return nil, err
		}
		if current == nil || current.Index != idx {
			result.Modules = append(result.Modules, domain.Module{
				Index:              idx,
				CombinedResistance: combined,
			})
			current = &result.Modules[len(result.Modules)-1]
		}
		current.Members = append(current.Members, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 剔除明细
	exRows, err := r.db.QueryContext(ctx,
		`SELECT serial, dcir, ocv, reason
		 FROM run_excluded WHERE run_id = ? ORDER BY serial`, runID)
	if err != nil {
		return nil, err
	}
	defer exRows.Close()

	for exRows.Next() {
		var e domain.ExcludedCell
		var reason string
		if err := exRows.Scan(&e.ID, &e.Resistance, &e.Voltage, &reason); err != nil {
			return nil, err
		}
		e.Reason = domain.ExclusionReason(reason)
		result.Excluded = append(result.Excluded, e)
	}
	return result, exRows.Err()
}
