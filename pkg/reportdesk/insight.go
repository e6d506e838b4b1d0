package reportdesk

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateInsight asks the model for investment opportunities in a sector and
// location, shortens the reply and saves it.
func (c *Core) GenerateInsight(ctx context.Context, req InsightRequest) (*InsightRecord, error) {
	return c.generateInsight(ctx, req, nil)
}

// GenerateInsightStream is GenerateInsight with model text streamed to
// onDelta as it arrives.
func (c *Core) GenerateInsightStream(ctx context.Context, req InsightRequest, onDelta func(string)) (*InsightRecord, error) {
	return c.generateInsight(ctx, req, onDelta)
}

func (c *Core) generateInsight(ctx context.Context, req InsightRequest, onDelta func(string)) (*InsightRecord, error) {
	location := strings.TrimSpace(req.Location)
	sector := strings.TrimSpace(req.Sector)
	if location == "" || sector == "" {
		return nil, NewError(ErrCodeInvalidInput, "location and sector are required")
	}
	settings, apiKey, err := c.resolveAISettings(ctx, req.AI)
	if err != nil {
		return nil, err
	}

	count := c.report.MaxEntries
	if count <= 0 {
		count = 3
	}
	chat, err := c.completeChat(ctx, settings, apiKey, "", buildInsightPrompt(location, sector, count), onDelta)
	if err != nil {
		return nil, err
	}

	shortened := c.ShortenInsight(chat.Content, location, sector)
	record := &InsightRecord{
		UID:          uuid.NewString(),
		Location:     location,
		Sector:       sector,
		Model:        chat.Model,
		Provider:     settings.Provider,
		Text:         shortened.Text,
		Entries:      shortened.Entries,
		Insight:      shortened.Insight,
		UsedFallback: shortened.UsedFallback,
		RawText:      chat.Content,
		CreatedAt:    c.nowRFC3339(),
	}
	if shortened.UsedFallback {
		c.Logger().Info("insight reply had no usable numbered entries; truncated instead",
			"location", location, "sector", sector, "model", chat.Model)
	}

	if id, err := c.saveInsight(ctx, record); err != nil {
		c.Logger().Warn("failed to save insight", "uid", record.UID, "err", err)
	} else {
		record.ID = id
	}
	return record, nil
}

func (c *Core) saveInsight(ctx context.Context, record *InsightRecord) (int64, error) {
	entries, err := json.Marshal(record.Entries)
	if err != nil {
		return 0, fmt.Errorf("marshal entries: %w", err)
	}
	usedFallback := 0
	if record.UsedFallback {
		usedFallback = 1
	}

	var id int64
	err = c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO investment_insights (
				uid, location, sector, provider, model, text, entries, insight, used_fallback, raw_text, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			record.UID,
			record.Location,
			record.Sector,
			record.Provider,
			record.Model,
			record.Text,
			string(entries),
			record.Insight,
			usedFallback,
			record.RawText,
			record.CreatedAt,
		)
		if err != nil {
			return WrapError(ErrCodeDatabase, "failed to insert insight", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return WrapError(ErrCodeDatabase, "failed to read insight id", err)
		}
		details := fmt.Sprintf("location=%s sector=%s entries=%d", record.Location, record.Sector, len(record.Entries))
		return insertOperationLog(tx, OpInsightCreated, record.UID, details)
	})
	return id, err
}

const insightColumns = `id, uid, location, sector, provider, model, text, entries, insight, used_fallback, raw_text, created_at`

func scanInsight(row rowScanner) (InsightRecord, error) {
	var record InsightRecord
	var entries string
	var usedFallback int
	err := row.Scan(
		&record.ID,
		&record.UID,
		&record.Location,
		&record.Sector,
		&record.Provider,
		&record.Model,
		&record.Text,
		&entries,
		&record.Insight,
		&usedFallback,
		&record.RawText,
		&record.CreatedAt,
	)
	if err != nil {
		return InsightRecord{}, err
	}
	record.Entries = decodeStringList(entries)
	record.UsedFallback = usedFallback != 0
	return record, nil
}

// GetInsight loads a saved insight by numeric id or uid.
func (c *Core) GetInsight(ctx context.Context, ref string) (*InsightRecord, error) {
	column, value, err := recordKey(ref)
	if err != nil {
		return nil, err
	}
	row := c.db.QueryRowContext(ctx,
		"SELECT "+insightColumns+" FROM investment_insights WHERE "+column+" = ?", value)
	record, err := scanInsight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewError(ErrCodeNotFound, fmt.Sprintf("insight %s not found", strings.TrimSpace(ref)))
	}
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to load insight", err)
	}
	return &record, nil
}

// ListInsights returns saved insights, newest first, without raw model text.
func (c *Core) ListInsights(ctx context.Context, limit, offset int) ([]InsightRecord, error) {
	limit, offset = normalizePage(limit, offset)
	rows, err := c.db.QueryContext(ctx,
		"SELECT "+insightColumns+" FROM investment_insights ORDER BY id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to query insights", err)
	}
	defer rows.Close()

	records := []InsightRecord{}
	for rows.Next() {
		record, err := scanInsight(rows)
		if err != nil {
			return nil, WrapError(ErrCodeDatabase, "failed to scan insight", err)
		}
		record.RawText = ""
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to iterate insights", err)
	}
	return records, nil
}

// DeleteInsight removes a saved insight by numeric id or uid.
func (c *Core) DeleteInsight(ctx context.Context, ref string) error {
	column, value, err := recordKey(ref)
	if err != nil {
		return err
	}
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		var uid string
		err := tx.QueryRow("SELECT uid FROM investment_insights WHERE "+column+" = ?", value).Scan(&uid)
		if errors.Is(err, sql.ErrNoRows) {
			return NewError(ErrCodeNotFound, fmt.Sprintf("insight %s not found", strings.TrimSpace(ref)))
		}
		if err != nil {
			return WrapError(ErrCodeDatabase, "failed to load insight", err)
		}
		if _, err := tx.Exec("DELETE FROM investment_insights WHERE uid = ?", uid); err != nil {
			return WrapError(ErrCodeDatabase, "failed to delete insight", err)
		}
		return insertOperationLog(tx, OpInsightDeleted, uid, "")
	})
}
