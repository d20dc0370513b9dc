package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cgbot/database"
	"cgbot/infrastructure/observability"
	"cgbot/models"

	"github.com/jackc/pgx/v5"
)

// ModCaseRepository implements the ModCaseRepository interface
type ModCaseRepository struct {
	q       Queryable
	guildID int64
}

// NewModCaseRepository creates a guild-scoped case repository outside of a transaction
func NewModCaseRepository(db *database.DB, guildID int64) *ModCaseRepository {
	return &ModCaseRepository{q: db.Pool, guildID: guildID}
}

// NewModCaseRepositoryScoped creates a case repository with a transaction and guild scope
func NewModCaseRepositoryScoped(tx Queryable, guildID int64) *ModCaseRepository {
	return &ModCaseRepository{q: tx, guildID: guildID}
}

// Create allocates the next case number for the guild and inserts the case.
// Allocation and insert run as one statement so concurrent moderators never share a number.
func (r *ModCaseRepository) Create(ctx context.Context, modCase *models.ModCase) error {
	defer observability.GetMetrics().MeasureDatabaseQuery("mod_case", "Create")()

	metadata := modCase.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal case metadata: %w", err)
	}

	query := `
		WITH counter AS (
			INSERT INTO guild_counters (guild_id, last_case_number)
			VALUES ($1, 1)
			ON CONFLICT (guild_id)
			DO UPDATE SET last_case_number = guild_counters.last_case_number + 1
			RETURNING last_case_number
		)
		INSERT INTO mod_cases
			(guild_id, case_number, action, target_id, target_name,
			 moderator_id, moderator_name, reason, metadata)
		SELECT $1, counter.last_case_number, $2, $3, $4, $5, $6, $7, $8
		FROM counter
		RETURNING id, case_number, created_at
	`

	err = r.q.QueryRow(ctx, query,
		r.guildID,
		string(modCase.Action),
		modCase.TargetID,
		modCase.TargetName,
		modCase.ModeratorID,
		modCase.ModeratorName,
		modCase.Reason,
		metadataJSON,
	).Scan(&modCase.ID, &modCase.CaseNumber, &modCase.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create case in guild %d: %w", r.guildID, err)
	}

	modCase.GuildID = r.guildID
	modCase.Metadata = metadata
	return nil
}

// GetByNumber returns the case with the given number, or nil
func (r *ModCaseRepository) GetByNumber(ctx context.Context, caseNumber int) (*models.ModCase, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery("mod_case", "GetByNumber")()

	query := `
		SELECT id, guild_id, case_number, action, target_id, target_name,
		       moderator_id, moderator_name, reason, metadata, created_at
		FROM mod_cases
		WHERE guild_id = $1 AND case_number = $2
	`

	modCase, err := scanModCase(r.q.QueryRow(ctx, query, r.guildID, caseNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case %d in guild %d: %w", caseNumber, r.guildID, err)
	}
	return modCase, nil
}

// ListByTarget returns the newest cases for a user first
func (r *ModCaseRepository) ListByTarget(ctx context.Context, targetID int64, limit int) ([]*models.ModCase, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery("mod_case", "ListByTarget")()

	query := `
		SELECT id, guild_id, case_number, action, target_id, target_name,
		       moderator_id, moderator_name, reason, metadata, created_at
		FROM mod_cases
		WHERE guild_id = $1 AND target_id = $2
		ORDER BY case_number DESC
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, r.guildID, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases for %d in guild %d: %w", targetID, r.guildID, err)
	}
	defer rows.Close()

	var cases []*models.ModCase
	for rows.Next() {
		modCase, err := scanModCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, modCase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cases: %w", err)
	}

	return cases, nil
}

// CountByAction returns case counts per action, most frequent first
func (r *ModCaseRepository) CountByAction(ctx context.Context) ([]models.ActionCount, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery("mod_case", "CountByAction")()

	query := `
		SELECT action, COUNT(*)
		FROM mod_cases
		WHERE guild_id = $1
		GROUP BY action
		ORDER BY COUNT(*) DESC, action
	`

	rows, err := r.q.Query(ctx, query, r.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to count cases in guild %d: %w", r.guildID, err)
	}
	defer rows.Close()

	var counts []models.ActionCount
	for rows.Next() {
		var action string
		var count models.ActionCount
		if err := rows.Scan(&action, &count.Count); err != nil {
			return nil, fmt.Errorf("failed to scan case count: %w", err)
		}
		count.Action = models.ModAction(action)
		counts = append(counts, count)
	}
	return counts, rows.Err()
}

func scanModCase(row pgx.Row) (*models.ModCase, error) {
	var modCase models.ModCase
	var action string
	var metadataJSON []byte

	err := row.Scan(
		&modCase.ID,
		&modCase.GuildID,
		&modCase.CaseNumber,
		&action,
		&modCase.TargetID,
		&modCase.TargetName,
		&modCase.ModeratorID,
		&modCase.ModeratorName,
		&modCase.Reason,
		&metadataJSON,
		&modCase.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	modCase.Action = models.ModAction(action)
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &modCase.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal case metadata: %w", err)
		}
	}

	return &modCase, nil
}
