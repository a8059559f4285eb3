package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/pkg/logger"
)

// ScoreRepository persists computed ETF scores and triggers the
// server-side score functions the loops call after each pass.
type ScoreRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(pool *pgxpool.Pool, log *logger.Logger) *ScoreRepository {
	return &ScoreRepository{pool: pool, logger: log}
}

// SaveBatch upserts one cycle's scores on etf_code.
func (r *ScoreRepository) SaveBatch(ctx context.Context, scores []contracts.ETFScore) error {
	query := `
		INSERT INTO etf_flow_score (etf_code, etf_name, total_score, foreign_score, institution_score, member_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (etf_code) DO UPDATE SET
			etf_name = EXCLUDED.etf_name,
			total_score = EXCLUDED.total_score,
			foreign_score = EXCLUDED.foreign_score,
			institution_score = EXCLUDED.institution_score,
			member_count = EXCLUDED.member_count,
			updated_at = EXCLUDED.updated_at
	`

	for _, s := range scores {
		if _, err := r.pool.Exec(ctx, query,
			s.ETFCode, s.ETFName, s.TotalScore, s.ForeignScore, s.InstitutionScore, s.MemberCount, s.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

// List retrieves scores ordered by total score, highest first.
func (r *ScoreRepository) List(ctx context.Context, limit int) ([]contracts.ETFScore, error) {
	query := `
		SELECT etf_code, etf_name, total_score, foreign_score, institution_score, member_count, updated_at
		FROM etf_flow_score
		ORDER BY total_score DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []contracts.ETFScore
	for rows.Next() {
		var s contracts.ETFScore
		if err := rows.Scan(&s.ETFCode, &s.ETFName, &s.TotalScore, &s.ForeignScore, &s.InstitutionScore, &s.MemberCount, &s.UpdatedAt); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// PurgeBefore deletes score rows last updated before cutoff.
// 매일 KST 자정 기준으로 전일 점수를 정리한다.
func (r *ScoreRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM etf_flow_score WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}

	deleted := tag.RowsAffected()
	r.logger.WithFields(map[string]interface{}{
		"cutoff":  cutoff,
		"deleted": deleted,
	}).Info("Stale ETF scores purged")
	return deleted, nil
}

// RunPremarketScore invokes the server-side premarket score function for
// one pass timestamp.
func (r *ScoreRepository) RunPremarketScore(ctx context.Context, targetTime time.Time) error {
	_, err := r.pool.Exec(ctx, `SELECT calculate_premarket_score_server($1)`, targetTime)
	return err
}

// RunPollingScore invokes the server-side score function for the REST
// polling snapshots.
func (r *ScoreRepository) RunPollingScore(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `SELECT calculate_kiwoom_etf_score()`)
	return err
}

// RunWebsocketScore invokes the server-side score function for the
// websocket snapshots.
func (r *ScoreRepository) RunWebsocketScore(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `SELECT calculate_kiwoom_websocket_etf_score()`)
	return err
}
