package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"

	"safeher_travel/internal/domain"
)

const errDuplicateEntry = 1062

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// mapErr translates driver errors into domain errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var me *gomysql.MySQLError
	if errors.As(err, &me) && me.Number == errDuplicateEntry {
		return domain.ErrConflict
	}
	return err
}

// Repo implements every relational repository port over one *sql.DB.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) PingContext(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *Repo) UpsertResources(ctx context.Context, rs []domain.Resource) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*17)
	for _, x := range rs {
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			x.ID,
			string(x.Kind),
			x.Name,
			valStr(x.Address),
			valStr(x.City),
			valStr(x.District),
			valStr(x.State),
			x.Lat,
			x.Lng,
			valStr(x.Phone),
			valStr(x.EmergencyPhone),
			valStr(x.Subtype),
			x.Is24x7,
			valStr(x.Description),
			valInt(x.Stars),
			valStr(x.Website),
			valStr(x.Source),
		)
	}
	_, err := r.db.ExecContext(ctx, upsertResourcesPrefix+strings.Join(values, ",")+upsertResourcesOnDup, args...)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, region string, kind domain.ResourceKind, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, region, string(kind), status, reason)
	return err
}

func (r *Repo) ListResources(ctx context.Context, kind domain.ResourceKind, within *domain.Bounds) ([]domain.Resource, error) {
	q := listResourcesSQL
	args := []any{string(kind)}
	if within != nil {
		q += withinBoundsSQL
		args = append(args, within.MinLat, within.MaxLat, within.MinLng, within.MaxLng)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Resource
	for rows.Next() {
		var x domain.Resource
		var kindCol string
		var address, city, district, state, phone, ePhone, subtype, desc, website, source sql.NullString
		var stars sql.NullInt64
		if err := rows.Scan(
			&x.ID, &kindCol, &x.Name,
			&address, &city, &district, &state,
			&x.Lat, &x.Lng,
			&phone, &ePhone, &subtype,
			&x.Is24x7, &desc, &stars, &website, &source,
		); err != nil {
			return nil, err
		}
		x.Kind = domain.ResourceKind(kindCol)
		x.Address, x.City, x.District, x.State = address.String, city.String, district.String, state.String
		x.Phone, x.EmergencyPhone, x.Subtype = phone.String, ePhone.String, subtype.String
		x.Description, x.Website, x.Source = desc.String, website.String, source.String
		if stars.Valid {
			s := int(stars.Int64)
			x.Stars = &s
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *Repo) CountResources(ctx context.Context, kind domain.ResourceKind) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countResourcesSQL, string(kind)).Scan(&n)
	return n, err
}
