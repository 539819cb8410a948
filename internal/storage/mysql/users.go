package mysql

import (
	"context"

	"safeher_travel/internal/domain"
)

func (r *Repo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, insertUserSQL, u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.CreatedAt.UTC())
	return mapErr(err)
}

func scanUser(s rowScanner) (domain.User, error) {
	var u domain.User
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	return u, mapErr(err)
}

func (r *Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserSQL, id))
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, getUserByEmailSQL, email))
}

func (r *Repo) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countUsersSQL).Scan(&n)
	return n, err
}

func (r *Repo) AddContact(ctx context.Context, c domain.EmergencyContact) error {
	_, err := r.db.ExecContext(ctx, insertContactSQL, c.ID, c.UserID, c.Name, c.Phone, c.Relationship, c.CreatedAt.UTC())
	return mapErr(err)
}

func (r *Repo) ListContacts(ctx context.Context, userID string) ([]domain.EmergencyContact, error) {
	rows, err := r.db.QueryContext(ctx, listContactsSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EmergencyContact
	for rows.Next() {
		var c domain.EmergencyContact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Relationship, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
