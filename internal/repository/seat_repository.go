package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/ticketing-core/internal/model"
)

// SeatRepo is tenant-scoped CRUD for seats, generalized from the
// show_seat_repository.go bulk-insert pattern.
type SeatRepo struct{ DB *sql.DB }

func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{DB: db} }

// GenerateGrid bulk-inserts rows x seatsPerRow seats, labelled "<row><n>",
// all starting available. Rows are letters A, B, C, ...
func (r *SeatRepo) GenerateGrid(ctx context.Context, tenantID uuid.UUID, zoneID uint64, rows, seatsPerRow int) error {
	if rows <= 0 || seatsPerRow <= 0 {
		return ErrConflict
	}
	var sb strings.Builder
	args := make([]any, 0, rows*seatsPerRow*6)
	sb.WriteString(`INSERT INTO seats (tenant_id, zone_id, row_label, number, label, state) VALUES `)
	first := true
	for row := 0; row < rows; row++ {
		rowLabel := rowLetter(row)
		for n := 1; n <= seatsPerRow; n++ {
			if !first {
				sb.WriteString(",")
			}
			first = false
			sb.WriteString("(?,?,?,?,?,?)")
			args = append(args, tenantID, zoneID, rowLabel, n, rowLabel+itoa(n), model.SeatAvailable)
		}
	}
	_, err := r.DB.ExecContext(ctx, sb.String(), args...)
	return err
}

// rowLetter maps 0 -> "A", 25 -> "Z", 26 -> "AA", following spreadsheet
// column naming, which comfortably covers any venue's row count.
func rowLetter(n int) string {
	s := ""
	for {
		s = string(rune('A'+n%26)) + s
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return s
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

// CreateExplicit inserts a caller-supplied list of seats (used when a
// venue's seating chart isn't a uniform grid).
func (r *SeatRepo) CreateExplicit(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	var sb strings.Builder
	args := make([]any, 0, len(seats)*6)
	sb.WriteString(`INSERT INTO seats (tenant_id, zone_id, row_label, number, label, state) VALUES `)
	for i, s := range seats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?,?,?)")
		state := s.State
		if state == "" {
			state = model.SeatAvailable
		}
		args = append(args, s.TenantID, s.ZoneID, s.Row, s.Number, s.Label, state)
	}
	_, err := r.DB.ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *SeatRepo) GetByID(ctx context.Context, tenantID uuid.UUID, id uint64) (model.Seat, error) {
	var s model.Seat
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, tenant_id, zone_id, table_id, row_label, number, label, state, created_at, updated_at
		 FROM seats WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	).Scan(&s.ID, &s.TenantID, &s.ZoneID, &s.TableID, &s.Row, &s.Number, &s.Label, &s.State, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return s, ErrSeatNotFound
	}
	return s, err
}

func (r *SeatRepo) ListByZone(ctx context.Context, tenantID uuid.UUID, zoneID uint64) ([]model.Seat, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, tenant_id, zone_id, table_id, row_label, number, label, state, created_at, updated_at
		 FROM seats WHERE tenant_id = ? AND zone_id = ? ORDER BY row_label, number`,
		tenantID, zoneID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.TenantID, &s.ZoneID, &s.TableID, &s.Row, &s.Number, &s.Label, &s.State, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetBlocked soft-disables or re-enables a seat without renumbering it.
// Blocking a held/reserved/sold seat is refused: it must return to
// available first.
func (r *SeatRepo) SetBlocked(ctx context.Context, tenantID uuid.UUID, id uint64, blocked bool) error {
	s, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if blocked {
		if s.State != model.SeatAvailable {
			return ErrConflict
		}
		_, err = r.DB.ExecContext(ctx,
			`UPDATE seats SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE tenant_id = ? AND id = ?`,
			model.SeatBlocked, tenantID, id,
		)
		return err
	}
	if s.State != model.SeatBlocked {
		return ErrConflict
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE seats SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE tenant_id = ? AND id = ?`,
		model.SeatAvailable, tenantID, id,
	)
	return err
}
