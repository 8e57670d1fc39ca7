// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meshintel/model-engine/pkg/types"
)

// QueryOptions filters template queries. Zero-value fields are ignored.
type QueryOptions struct {
	// Kind restricts results to one template variant.
	Kind types.Kind

	// ModelID restricts results to templates extracted from one model.
	ModelID string

	// Grounding matches templates with a participant grounded to the
	// given CURIE (e.g. "ido:0000514").
	Grounding string

	// MaxResults overrides the store default when positive.
	MaxResults int
}

// IsEmpty reports whether no filter is set.
func (o QueryOptions) IsEmpty() bool {
	return o.Kind == "" && o.ModelID == "" && o.Grounding == ""
}

// QueryResult is one indexed template with its provenance.
type QueryResult struct {
	ModelID  string               `json:"model_id"`
	Index    int                  `json:"index"`
	Template types.TemplateRecord `json:"template"`
}

// Templates queries the index for templates matching opts, ordered by
// model and document position.
func (s *Store) Templates(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	query := `SELECT model_id, idx, record FROM templates`
	var conds []string
	var args []any

	if opts.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(opts.Kind))
	}
	if opts.ModelID != "" {
		conds = append(conds, "model_id = ?")
		args = append(args, opts.ModelID)
	}
	if opts.Grounding != "" {
		// groundings holds a JSON string array; match the quoted element.
		conds = append(conds, "groundings LIKE ?")
		args = append(args, `%"`+opts.Grounding+`"%`)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY model_id, idx LIMIT ?"
	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var r QueryResult
		var recordJSON string
		if err := rows.Scan(&r.ModelID, &r.Index, &recordJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(recordJSON), &r.Template); err != nil {
			return nil, fmt.Errorf("decoding template record: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Models lists every indexed model with its template count.
func (s *Store) Models(ctx context.Context) ([]ModelRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.name, m.skipped, COUNT(t.rowid)
		FROM models m LEFT JOIN templates t ON t.model_id = m.id
		GROUP BY m.id ORDER BY m.id`)
	if err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
	}
	defer rows.Close()

	var out []ModelRow
	for rows.Next() {
		var r ModelRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Skipped, &r.Templates); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ModelRow is one line of the model listing.
type ModelRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Skipped   int    `json:"skipped"`
	Templates int    `json:"templates"`
}
