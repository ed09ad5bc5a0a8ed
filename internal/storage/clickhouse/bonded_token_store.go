package clickhouse

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"tokenomics-lab/internal/domain"
	"tokenomics-lab/internal/storage"
	"tokenomics-lab/internal/units"
)

// identifierPattern matches database and table names that are safe to
// interpolate into a query.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// bondedStatus is the validator status counted as bonded.
const bondedStatus = "BOND_STATUS_BONDED"

// BondedTokenStore implements storage.BondedTokenSource over a ClickHouse
// validator snapshot table with columns ingestion_timestamp, status, tokens.
// tokens holds 18-decimal fixed-point integers.
type BondedTokenStore struct {
	conn *Conn
}

// NewBondedTokenStore creates a new BondedTokenStore.
func NewBondedTokenStore(conn *Conn) *BondedTokenStore {
	return &BondedTokenStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BondedTokenSource = (*BondedTokenStore)(nil)

// DailyBondedTokens sums the tokens of bonded validators per ingestion day,
// from since through today, newest first. An empty database selects the
// database of the connection DSN.
func (s *BondedTokenStore) DailyBondedTokens(ctx context.Context, database, table string, since domain.Date) ([]domain.BondedDay, error) {
	if database == "" {
		database = s.conn.Database()
	}
	if !identifierPattern.MatchString(database) || !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("%w: table %q.%q", storage.ErrInvalidInput, database, table)
	}

	// The sum is taken exactly and returned as text; scaling happens client side.
	query := fmt.Sprintf(`
		SELECT
			toDate(ingestion_timestamp) AS day,
			toString(sum(toDecimal256(tokens, 0))) AS total_tokens
		FROM %s.%s
		WHERE status = ?
		  AND toDate(ingestion_timestamp) BETWEEN ? AND today()
		GROUP BY day
		ORDER BY day DESC
	`, database, table)

	rows, err := s.conn.Query(ctx, query, bondedStatus, since.Time())
	if err != nil {
		return nil, fmt.Errorf("query bonded tokens: %w", err)
	}
	defer rows.Close()

	var out []domain.BondedDay
	for rows.Next() {
		var (
			day   time.Time
			total string
		)
		if err := rows.Scan(&day, &total); err != nil {
			return nil, fmt.Errorf("scan bonded tokens: %w", err)
		}
		out = append(out, domain.BondedDay{
			Date:   domain.DateOf(day),
			Tokens: units.FromFixedPoint(total),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bonded tokens: %w", err)
	}
	return out, nil
}
