package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
)

var ErrNoImport = errors.New("no trip dataset imported")

// ResolveLatestImportDBName returns the database holding the most recent trip
// import for a city, from public.trip_dataset_imports on the meta database.
func ResolveLatestImportDBName(ctx context.Context, meta *sql.DB, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", errors.New("city is required")
	}
	q := `
SELECT db_name
FROM public.trip_dataset_imports
WHERE city ILIKE '%' || $1 || '%' AND succeeded
ORDER BY imported_at DESC
LIMIT 1`
	var dbName sql.NullString
	if err := meta.QueryRowContext(ctx, q, city).Scan(&dbName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errors.Wrapf(ErrNoImport, "city like %q", city)
		}
		return "", errors.Wrap(err, "query trip_dataset_imports")
	}
	if !dbName.Valid || dbName.String == "" {
		return "", errors.Wrapf(ErrNoImport, "empty db_name for city like %q", city)
	}
	return dbName.String, nil
}
