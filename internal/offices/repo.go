package offices

import (
	"context"

	"github.com/example/vicroadsq/internal/db"
	"github.com/example/vicroadsq/internal/domain/booking"
	"github.com/jackc/pgx/v5"
)

// Repo is the Postgres-backed Store.
type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Load(ctx context.Context) ([]booking.Office, error) {
	rows, err := r.db.Query(ctx, `
SELECT id,short_name,name,address,suburb,state,postcode,latitude,longitude
FROM offices
ORDER BY short_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Office
	for rows.Next() {
		var o booking.Office
		if err := rows.Scan(&o.ID, &o.ShortName, &o.Name, &o.Address, &o.Suburb, &o.State, &o.Postcode, &o.Latitude, &o.Longitude); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Save upserts every office in one transaction; a failure leaves the table
// untouched.
func (r *Repo) Save(ctx context.Context, offices []booking.Office) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		for _, o := range offices {
			if _, err := tx.Exec(ctx, `
INSERT INTO offices(id,short_name,name,address,suburb,state,postcode,latitude,longitude)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
	short_name=EXCLUDED.short_name, name=EXCLUDED.name, address=EXCLUDED.address,
	suburb=EXCLUDED.suburb, state=EXCLUDED.state, postcode=EXCLUDED.postcode,
	latitude=EXCLUDED.latitude, longitude=EXCLUDED.longitude, updated_at=now()`,
				o.ID, o.ShortName, o.Name, o.Address, o.Suburb, o.State, o.Postcode, o.Latitude, o.Longitude,
			); err != nil {
				return db.WrapNotFound(err)
			}
		}
		return nil
	})
}
