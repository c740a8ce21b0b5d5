package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"hostel_hub/internal/domain"
)

type bookingRow struct {
	ID         string         `db:"id"`
	HostelID   string         `db:"hostel_id"`
	HostelName sql.NullString `db:"hostel_name"`
	StudentID  string         `db:"student_id"`
	OwnerID    string         `db:"owner_id"`
	AgentID    sql.NullString `db:"agent_id"`
	MoveIn     time.Time      `db:"move_in"`
	Months     int            `db:"months"`
	TotalCents int64          `db:"total_cents"`
	Currency   string         `db:"currency"`
	Note       sql.NullString `db:"note"`
	Status     string         `db:"status"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (r bookingRow) toDomain() domain.Booking {
	return domain.Booking{
		ID:         r.ID,
		HostelID:   r.HostelID,
		HostelName: r.HostelName.String,
		StudentID:  r.StudentID,
		OwnerID:    r.OwnerID,
		AgentID:    ptrStr(r.AgentID),
		MoveIn:     r.MoveIn,
		Months:     r.Months,
		TotalCents: r.TotalCents,
		Currency:   r.Currency,
		Note:       ptrStr(r.Note),
		Status:     domain.BookingStatus(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) error {
	row := bookingRow{
		ID:         b.ID,
		HostelID:   b.HostelID,
		StudentID:  b.StudentID,
		OwnerID:    b.OwnerID,
		AgentID:    nullStr(b.AgentID),
		MoveIn:     b.MoveIn.UTC(),
		Months:     b.Months,
		TotalCents: b.TotalCents,
		Currency:   b.Currency,
		Note:       nullStr(b.Note),
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt.UTC(),
		UpdatedAt:  b.UpdatedAt.UTC(),
	}
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		var locked string
		if err := tx.GetContext(ctx, &locked, lockHostelSQL, b.HostelID); err != nil {
			return notFound(err)
		}
		var active int
		if err := tx.GetContext(ctx, &active, countActiveBookingsSQL, b.StudentID, b.HostelID); err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: you already have an active booking for this hostel", domain.ErrConflict)
		}
		_, err := tx.NamedExecContext(ctx, insertBookingSQL, row)
		return err
	})
}

func (r *Repo) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	var row bookingRow
	q := `SELECT ` + bookingColumns + ` FROM bookings b LEFT JOIN hostels h ON h.id = b.hostel_id WHERE b.id = ?`
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return domain.Booking{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (r *Repo) TransitionBooking(ctx context.Context, id string, from, to domain.BookingStatus, roomDelta int, at time.Time) error {
	at = at.UTC()
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, transitionBookingSQL, string(to), at, id, string(from))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: booking is no longer %s", domain.ErrConflict, from)
		}
		switch {
		case roomDelta < 0:
			res, err := tx.ExecContext(ctx, takeRoomSQL, at, id)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: no rooms available", domain.ErrConflict)
			}
		case roomDelta > 0:
			if _, err := tx.ExecContext(ctx, releaseRoomSQL, at, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// partyColumn picks the column for the first non-empty filter id.
func partyColumn(studentID, ownerID, agentID string) (col, id string, ok bool) {
	switch {
	case studentID != "":
		return "student_id", studentID, true
	case ownerID != "":
		return "owner_id", ownerID, true
	case agentID != "":
		return "agent_id", agentID, true
	}
	return "", "", false
}

func (r *Repo) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	col, id, ok := partyColumn(f.StudentID, f.OwnerID, f.AgentID)
	if !ok {
		return []domain.Booking{}, nil
	}
	where := []string{"b." + col + " = ?"}
	args := []any{id}
	if f.Status != nil {
		where, args = append(where, "b.status = ?"), append(args, string(*f.Status))
	}
	args = append(args, limitOr(f.Limit))

	q := `SELECT ` + bookingColumns + ` FROM bookings b LEFT JOIN hostels h ON h.id = b.hostel_id WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY b.created_at DESC, b.id DESC LIMIT ?`
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *Repo) CountBookings(ctx context.Context, f domain.BookingFilter) (map[domain.BookingStatus]int, error) {
	out := map[domain.BookingStatus]int{}
	col, id, ok := partyColumn(f.StudentID, f.OwnerID, f.AgentID)
	if !ok {
		return out, nil
	}
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	q := `SELECT status, COUNT(*) AS n FROM bookings WHERE ` + col + ` = ? GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, q, id); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[domain.BookingStatus(row.Status)] = row.N
	}
	return out, nil
}

// ---- payments ----

type paymentRow struct {
	ID          string         `db:"id"`
	BookingID   string         `db:"booking_id"`
	StudentID   string         `db:"student_id"`
	OwnerID     string         `db:"owner_id"`
	AgentID     sql.NullString `db:"agent_id"`
	AmountCents int64          `db:"amount_cents"`
	Currency    string         `db:"currency"`
	Method      string         `db:"method"`
	Status      string         `db:"status"`
	Reference   string         `db:"reference"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r *Repo) CreatePayment(ctx context.Context, p domain.Payment) error {
	row := paymentRow{
		ID:          p.ID,
		BookingID:   p.BookingID,
		StudentID:   p.StudentID,
		OwnerID:     p.OwnerID,
		AgentID:     nullStr(p.AgentID),
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Method:      string(p.Method),
		Status:      p.Status,
		Reference:   p.Reference,
		CreatedAt:   p.CreatedAt.UTC(),
	}
	_, err := r.db.NamedExecContext(ctx, insertPaymentSQL, row)
	if isDuplicate(err) {
		return fmt.Errorf("%w: booking is already paid", domain.ErrConflict)
	}
	return err
}

func (r *Repo) HasPayment(ctx context.Context, bookingID string) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok, `SELECT EXISTS (SELECT 1 FROM payments WHERE booking_id = ?)`, bookingID)
	return ok, err
}

func (r *Repo) ListPayments(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, error) {
	col, id, ok := partyColumn(f.StudentID, f.OwnerID, f.AgentID)
	if !ok {
		return []domain.Payment{}, nil
	}
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + col + ` = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	var rows []paymentRow
	if err := r.db.SelectContext(ctx, &rows, q, id, limitOr(f.Limit)); err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Payment{
			ID:          row.ID,
			BookingID:   row.BookingID,
			StudentID:   row.StudentID,
			OwnerID:     row.OwnerID,
			AgentID:     ptrStr(row.AgentID),
			AmountCents: row.AmountCents,
			Currency:    row.Currency,
			Method:      domain.PaymentMethod(row.Method),
			Status:      row.Status,
			Reference:   row.Reference,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func (r *Repo) SumPayments(ctx context.Context, f domain.PaymentFilter) (int64, error) {
	col, id, ok := partyColumn(f.StudentID, f.OwnerID, f.AgentID)
	if !ok {
		return 0, nil
	}
	var total int64
	q := `SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE ` + col + ` = ?`
	err := r.db.GetContext(ctx, &total, q, id)
	return total, err
}
