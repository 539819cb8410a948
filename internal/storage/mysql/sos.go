package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"safeher_travel/internal/domain"
)

func (r *Repo) CreateAlert(ctx context.Context, a domain.SOSAlert) error {
	contacts, _ := json.Marshal(a.EmergencyContacts)
	var police []byte
	if a.Police != nil {
		police, _ = json.Marshal(a.Police)
	}
	var resolved any
	if a.ResolvedAt != nil {
		resolved = a.ResolvedAt.UTC()
	}
	_, err := r.db.ExecContext(ctx, insertAlertSQL,
		a.ID,
		a.UserID,
		a.Location.Lat,
		a.Location.Lng,
		string(a.Status),
		string(contacts),
		valJSON(police),
		a.ActivatedAt.UTC(),
		resolved,
	)
	return mapErr(err)
}

func (r *Repo) ResolveAlert(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, resolveAlertSQL, at.UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(s rowScanner) (domain.SOSAlert, error) {
	var a domain.SOSAlert
	var status string
	var contactsRaw, policeRaw []byte
	var resolved sql.NullTime
	if err := s.Scan(
		&a.ID, &a.UserID,
		&a.Location.Lat, &a.Location.Lng,
		&status, &contactsRaw, &policeRaw,
		&a.ActivatedAt, &resolved,
	); err != nil {
		return domain.SOSAlert{}, err
	}
	a.Status = domain.SOSStatus(status)
	if len(contactsRaw) > 0 {
		_ = json.Unmarshal(contactsRaw, &a.EmergencyContacts)
	}
	if len(policeRaw) > 0 {
		var p domain.PoliceDispatch
		if json.Unmarshal(policeRaw, &p) == nil {
			a.Police = &p
		}
	}
	if resolved.Valid {
		t := resolved.Time
		a.ResolvedAt = &t
	}
	return a, nil
}

func (r *Repo) GetAlert(ctx context.Context, id string) (domain.SOSAlert, error) {
	a, err := scanAlert(r.db.QueryRowContext(ctx, getAlertSQL, id))
	return a, mapErr(err)
}

func (r *Repo) ListAlerts(ctx context.Context, userID string, limit int) ([]domain.SOSAlert, error) {
	rows, err := r.db.QueryContext(ctx, listAlertsSQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SOSAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) CountAlerts(ctx context.Context) (total, resolved int, err error) {
	err = r.db.QueryRowContext(ctx, countAlertsSQL).Scan(&total, &resolved)
	return total, resolved, err
}
