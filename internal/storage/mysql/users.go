package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"hostel_hub/internal/domain"
)

type userRow struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func (u userRow) toDomain() domain.User {
	return domain.User{ID: u.ID, Email: u.Email, Role: domain.Role(u.Role), CreatedAt: u.CreatedAt}
}

type profileRow struct {
	UserID      string         `db:"user_id"`
	Role        string         `db:"role"`
	FullName    string         `db:"full_name"`
	Phone       sql.NullString `db:"phone"`
	AvatarURL   sql.NullString `db:"avatar_url"`
	Bio         sql.NullString `db:"bio"`
	University  sql.NullString `db:"university"`
	CompanyName sql.NullString `db:"company_name"`
	AgencyName  sql.NullString `db:"agency_name"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func toProfileRow(p domain.Profile) profileRow {
	return profileRow{
		UserID:      p.UserID,
		Role:        string(p.Role),
		FullName:    p.FullName,
		Phone:       nullStr(p.Phone),
		AvatarURL:   nullStr(p.AvatarURL),
		Bio:         nullStr(p.Bio),
		University:  nullStr(p.University),
		CompanyName: nullStr(p.CompanyName),
		AgencyName:  nullStr(p.AgencyName),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func (p profileRow) toDomain() domain.Profile {
	return domain.Profile{
		UserID:      p.UserID,
		Role:        domain.Role(p.Role),
		FullName:    p.FullName,
		Phone:       ptrStr(p.Phone),
		AvatarURL:   ptrStr(p.AvatarURL),
		Bio:         ptrStr(p.Bio),
		University:  ptrStr(p.University),
		CompanyName: ptrStr(p.CompanyName),
		AgencyName:  ptrStr(p.AgencyName),
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r *Repo) CreateUser(ctx context.Context, u domain.User, p domain.Profile) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		row := userRow{ID: u.ID, Email: strings.ToLower(u.Email), Role: string(u.Role), CreatedAt: u.CreatedAt.UTC()}
		if _, err := tx.NamedExecContext(ctx, insertUserSQL, row); err != nil {
			if isDuplicate(err) {
				return domain.ErrEmailTaken
			}
			return err
		}
		_, err := tx.NamedExecContext(ctx, insertProfileSQL, toProfileRow(p))
		return err
	})
}

func (r *Repo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return domain.User{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	if err := r.db.GetContext(ctx, &row, q, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return domain.User{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (r *Repo) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var row profileRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID); err != nil {
		return domain.Profile{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (r *Repo) UpdateProfile(ctx context.Context, p domain.Profile) error {
	_, err := r.db.NamedExecContext(ctx, updateProfileSQL, toProfileRow(p))
	return err
}

// ---- credentials (local identity provider) ----

func (r *Repo) SaveCredential(ctx context.Context, c domain.Credential) error {
	_, err := r.db.ExecContext(ctx, insertCredentialSQL, c.UID, strings.ToLower(c.Email), c.PasswordHash, c.CreatedAt.UTC())
	if isDuplicate(err) {
		return domain.ErrConflict
	}
	return err
}

func (r *Repo) GetCredential(ctx context.Context, email string) (domain.Credential, error) {
	var row struct {
		UID          string    `db:"uid"`
		Email        string    `db:"email"`
		PasswordHash []byte    `db:"password_hash"`
		CreatedAt    time.Time `db:"created_at"`
	}
	q := `SELECT uid, email, password_hash, created_at FROM credentials WHERE email = ?`
	if err := r.db.GetContext(ctx, &row, q, strings.ToLower(email)); err != nil {
		return domain.Credential{}, notFound(err)
	}
	return domain.Credential{UID: row.UID, Email: row.Email, PasswordHash: row.PasswordHash, CreatedAt: row.CreatedAt}, nil
}

func (r *Repo) SaveContactMessage(ctx context.Context, m domain.ContactMessage) error {
	_, err := r.db.ExecContext(ctx, insertContactSQL, m.ID, m.Name, m.Email, m.Message, m.CreatedAt.UTC())
	return err
}
