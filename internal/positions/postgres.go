package positions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/onnwee/repulse/internal/force"
)

const selectPositions = `SELECT id, pos_x, pos_y, pos_z
FROM graph_nodes
WHERE pos_x IS NOT NULL AND pos_y IS NOT NULL
ORDER BY id`

// PostgresSource reads stored layout coordinates from graph_nodes.
// Rows without x or y are skipped; a NULL z reads as 0.
type PostgresSource struct {
	DB    *sql.DB
	Limit int
}

// Load implements Source.
func (p PostgresSource) Load(ctx context.Context) (*Snapshot, error) {
	query := selectPositions
	var args []any
	if p.Limit > 0 {
		query += " LIMIT $1"
		args = append(args, p.Limit)
	}

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		var (
			id   string
			x, y float64
			z    sql.NullFloat64
		)
		if err := rows.Scan(&id, &x, &y, &z); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		nodes = append(nodes, Node{ID: id, Pos: force.Vec{x, y, z.Float64}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return FromNodes(nodes)
}
