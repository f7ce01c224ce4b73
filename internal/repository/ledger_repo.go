package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/senyabanana/procurement-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// LedgerClient - интерфейс реестра: чтение записей заявок и предложений и
// отправка переходов состояния. Реестр сам сериализует конкурирующие отправки:
// несовпадение ожидаемого статуса на момент записи даёт ErrConflict.
type LedgerClient interface {
	CreateRequest(ctx context.Context, requester string, draft models.RequestDraft) (*models.Request, error)
	GetRequest(ctx context.Context, id int64) (*models.Request, error)
	GetBids(ctx context.Context, requestID int64) ([]models.Bid, error)
	GetRequestIDs(ctx context.Context) ([]int64, error)
	ListRequests(ctx context.Context, limit, offset int, statuses []string, requester string) ([]models.Request, error)
	GetAccount(ctx context.Context, address string) (*models.Account, error)
	GetLedgerEntries(ctx context.Context, address string) ([]models.LedgerEntry, error)
	SubmitTransition(ctx context.Context, id int64, kind models.TransitionKind, actor models.Participant, params models.TransitionParams, expected models.RequestStatus) (*models.Request, error)
}

// PostgresLedgerClient - реализация LedgerClient для базы данных.
type PostgresLedgerClient struct {
	DB *pgxpool.Pool
}

// NewPostgresLedgerClient создаёт новый экземпляр PostgresLedgerClient.
func NewPostgresLedgerClient(db *pgxpool.Pool) *PostgresLedgerClient {
	return &PostgresLedgerClient{DB: db}
}

const requestColumns = `id, requester, description, estimated_amount, status, winner, winning_amount, delivered, created_at`

// CreateRequest записывает новую заявку в статусе Created.
// Идентификаторы назначает реестр, монотонно.
func (r *PostgresLedgerClient) CreateRequest(ctx context.Context, requester string, draft models.RequestDraft) (*models.Request, error) {
	newRequest := models.Request{
		Requester:       strings.ToLower(requester),
		Description:     draft.Description,
		EstimatedAmount: draft.EstimatedAmount,
		Status:          models.CreatedRequest,
		CreatedAt:       time.Now().UTC(),
	}
	err := r.DB.QueryRow(ctx, `
       INSERT INTO request (requester, description, estimated_amount, status, winner, winning_amount, delivered, created_at)
       VALUES ($1, $2, $3, $4, '', 0, false, $5)
       RETURNING id
   `,
		newRequest.Requester,
		newRequest.Description,
		newRequest.EstimatedAmount,
		newRequest.Status,
		newRequest.CreatedAt).Scan(&newRequest.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert request: %v", models.ErrLedgerUnavailable, err)
	}
	return &newRequest, nil
}

// GetRequest возвращает заявку по ID.
func (r *PostgresLedgerClient) GetRequest(ctx context.Context, id int64) (*models.Request, error) {
	req, err := scanRequest(r.DB.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM request WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	return req, nil
}

// GetBids возвращает предложения по заявке в порядке подачи.
func (r *PostgresLedgerClient) GetBids(ctx context.Context, requestID int64) ([]models.Bid, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, request_id, vendor, amount, created_at
		FROM bid WHERE request_id = $1 ORDER BY created_at, id`, requestID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.ID, &b.RequestID, &b.Vendor, &b.Amount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// GetRequestIDs возвращает идентификаторы всех заявок.
func (r *PostgresLedgerClient) GetRequestIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.DB.Query(ctx, `SELECT id FROM request ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListRequests возвращает список заявок с фильтрами по статусу и заказчику.
func (r *PostgresLedgerClient) ListRequests(ctx context.Context, limit, offset int, statuses []string, requester string) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM request`
	var filters []string
	var args []interface{}
	argIndex := 1

	if len(statuses) > 0 {
		filters = append(filters, fmt.Sprintf("status = ANY($%d)", argIndex))
		args = append(args, pq.Array(statuses))
		argIndex++
	}
	if requester != "" {
		filters = append(filters, fmt.Sprintf("requester = $%d", argIndex))
		args = append(args, strings.ToLower(requester))
		argIndex++
	}

	if len(filters) > 0 {
		query += " WHERE " + strings.Join(filters, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// GetAccount возвращает счёт участника по адресу.
func (r *PostgresLedgerClient) GetAccount(ctx context.Context, address string) (*models.Account, error) {
	var account models.Account
	err := r.DB.QueryRow(ctx,
		`SELECT address, balance FROM account WHERE address = $1`,
		strings.ToLower(address)).Scan(&account.Address, &account.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s", models.ErrNotFound, address)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	return &account, nil
}

// GetLedgerEntries возвращает проводки по счёту, новые первыми.
func (r *PostgresLedgerClient) GetLedgerEntries(ctx context.Context, address string) ([]models.LedgerEntry, error) {
	addr := strings.ToLower(address)
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM account WHERE address = $1)`, addr).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: account %s", models.ErrNotFound, address)
	}

	rows, err := r.DB.Query(ctx, `
		SELECT request_id, address, delta
		FROM ledger_entry WHERE address = $1 ORDER BY created_at DESC, id DESC`, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.RequestID, &e.Address, &e.Delta); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SubmitTransition применяет переход в одной транзакции.
// Строка заявки блокируется, затем её статус сверяется с тем, что наблюдался
// при валидации: расхождение означает гонку и даёт ErrConflict.
func (r *PostgresLedgerClient) SubmitTransition(ctx context.Context, id int64, kind models.TransitionKind, actor models.Participant, params models.TransitionParams, expected models.RequestStatus) (*models.Request, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("%w: tx begin failed: %v", models.ErrLedgerUnavailable, err)
	}
	defer tx.Rollback(ctx)

	var current models.RequestStatus
	err = tx.QueryRow(ctx, `SELECT status FROM request WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	if current != expected {
		return nil, fmt.Errorf("%w: request %d is %s, expected %s", models.ErrConflict, id, current, expected)
	}

	switch kind {
	case models.SubmitBid:
		err = r.insertBid(ctx, tx, id, actor, params)
	case models.Approve:
		_, err = tx.Exec(ctx, `UPDATE request SET status = $1 WHERE id = $2`,
			models.TenderingRequest, id)
	case models.Award:
		_, err = tx.Exec(ctx,
			`UPDATE request SET winner = $1, winning_amount = $2, status = $3 WHERE id = $4`,
			strings.ToLower(params.Vendor), params.Amount, models.OrderedRequest, id)
	case models.MarkDelivered:
		_, err = tx.Exec(ctx, `UPDATE request SET delivered = true, status = $1 WHERE id = $2`,
			models.DeliveredRequest, id)
	case models.ConfirmReceived:
		_, err = tx.Exec(ctx, `UPDATE request SET status = $1 WHERE id = $2`,
			models.ReceivedRequest, id)
	case models.Pay:
		err = r.executePayment(ctx, tx, id, actor, params)
	case models.Cancel:
		_, err = tx.Exec(ctx, `UPDATE request SET status = $1 WHERE id = $2`,
			models.CancelledRequest, id)
	default:
		err = fmt.Errorf("%w: unknown transition %q", models.ErrInvalidTransition, kind)
	}
	if err != nil {
		return nil, err
	}

	updated, err := scanRequest(tx.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM request WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: tx commit failed: %v", models.ErrLedgerUnavailable, err)
	}
	return updated, nil
}

// insertBid добавляет предложение. Записи не затирают друг друга.
func (r *PostgresLedgerClient) insertBid(ctx context.Context, tx pgx.Tx, requestID int64, actor models.Participant, params models.TransitionParams) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bid (id, request_id, vendor, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(),
		requestID,
		strings.ToLower(actor.Address),
		params.Amount,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: failed to insert bid: %v", models.ErrLedgerUnavailable, err)
	}
	return nil
}

// executePayment проводит оплату двойной записью: списание со счёта
// администратора, зачисление победителю, статус Paid. Счета блокируются в
// порядке адресов, чтобы исключить взаимную блокировку.
func (r *PostgresLedgerClient) executePayment(ctx context.Context, tx pgx.Tx, requestID int64, actor models.Participant, params models.TransitionParams) error {
	var winner string
	var winningAmount int64
	err := tx.QueryRow(ctx,
		`SELECT winner, winning_amount FROM request WHERE id = $1`, requestID).
		Scan(&winner, &winningAmount)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	if params.Amount != winningAmount {
		return fmt.Errorf("%w: supplied %d, stored %d", models.ErrAmountMismatch, params.Amount, winningAmount)
	}

	payer := strings.ToLower(actor.Address)
	payee := winner

	for _, addr := range []string{payer, payee} {
		if _, err := tx.Exec(ctx,
			`INSERT INTO account (address, balance) VALUES ($1, 0) ON CONFLICT (address) DO NOTHING`,
			addr); err != nil {
			return fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
		}
	}

	first, second := payer, payee
	if first > second {
		first, second = second, first
	}
	var firstBalance, secondBalance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM account WHERE address = $1 FOR UPDATE`, first).Scan(&firstBalance); err != nil {
		return fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	if err := tx.QueryRow(ctx, `SELECT balance FROM account WHERE address = $1 FOR UPDATE`, second).Scan(&secondBalance); err != nil {
		return fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}

	payerBalance := firstBalance
	if payer == second {
		payerBalance = secondBalance
	}
	if payerBalance < winningAmount {
		return fmt.Errorf("%w: balance %d, payment %d", models.ErrInsufficientFunds, payerBalance, winningAmount)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO ledger_entry (request_id, address, delta) VALUES ($1, $2, $3), ($1, $4, $5)`,
		requestID, payer, -winningAmount, payee, winningAmount)
	if err != nil {
		return fmt.Errorf("%w: ledger entry failed: %v", models.ErrLedgerUnavailable, err)
	}

	if _, err = tx.Exec(ctx, `UPDATE account SET balance = balance - $1 WHERE address = $2`, winningAmount, payer); err != nil {
		return fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	if _, err = tx.Exec(ctx, `UPDATE account SET balance = balance + $1 WHERE address = $2`, winningAmount, payee); err != nil {
		return fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}

	if _, err = tx.Exec(ctx, `UPDATE request SET status = $1 WHERE id = $2`, models.PaidRequest, requestID); err != nil {
		return fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}
	return nil
}

func scanRequest(row pgx.Row) (*models.Request, error) {
	var req models.Request
	err := row.Scan(
		&req.ID,
		&req.Requester,
		&req.Description,
		&req.EstimatedAmount,
		&req.Status,
		&req.Winner,
		&req.WinningAmount,
		&req.Delivered,
		&req.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
