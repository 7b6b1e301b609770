package sightings

import (
	"context"
	"time"

	"github.com/example/vicroadsq/internal/db"
	"github.com/example/vicroadsq/internal/domain/booking"
)

// Sighting is one viable slot seen at an office.
type Sighting struct {
	ID          int64
	OfficeID    int
	OfficeName  string
	SlotDate    time.Time
	DisplayTime string
	DisplayDate string
	SeenAt      time.Time
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Record(ctx context.Context, office booking.Office, found []booking.Viable) error {
	for _, v := range found {
		if err := r.db.Exec(ctx, `
INSERT INTO sightings(office_id, office_name, slot_date, display_time, display_date)
VALUES ($1,$2,$3,$4,$5)`,
			office.ID, office.ShortName, v.Date, v.DisplayTime, v.DisplayDate,
		); err != nil {
			return db.WrapNotFound(err)
		}
	}
	return nil
}

func (r *Repo) ListRecent(ctx context.Context, limit int) ([]Sighting, error) {
	if limit < 1 {
		limit = 25
	}
	rows, err := r.db.Query(ctx, `
SELECT id,office_id,office_name,slot_date,display_time,display_date,seen_at
FROM sightings
ORDER BY seen_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sighting
	for rows.Next() {
		var s Sighting
		if err := rows.Scan(&s.ID, &s.OfficeID, &s.OfficeName, &s.SlotDate, &s.DisplayTime, &s.DisplayDate, &s.SeenAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
