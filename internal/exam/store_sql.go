package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutKey(ctx context.Context, k AnswerKey) error {
	qj, err := json.Marshal(k.Questions)
	if err != nil {
		return errors.Wrap(err, "marshal questions")
	}
	if k.CreatedAt == 0 {
		k.CreatedAt = time.Now().Unix()
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO answer_keys (id,title,questions_json,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO NOTHING`,
		k.ID, k.Title, string(qj), k.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "put answer key %s", k.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "put answer key %s", k.ID)
	}
	if n == 0 {
		return errors.Wrapf(ErrConflict, "answer key %s", k.ID)
	}
	return nil
}

func (s *SQLStore) GetKey(ctx context.Context, id string) (AnswerKey, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,questions_json,created_at FROM answer_keys WHERE id=$1`, id)
	k, err := scanKey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return AnswerKey{}, errors.Wrapf(ErrNotFound, "answer key %s", id)
	}
	if err != nil {
		return AnswerKey{}, errors.Wrapf(err, "get answer key %s", id)
	}
	return k, nil
}

func (s *SQLStore) ListKeys(ctx context.Context, opts ListOpts) ([]AnswerKey, error) {
	query := `SELECT id,title,questions_json,created_at FROM answer_keys`
	var args []any
	if q := strings.TrimSpace(opts.Q); q != "" {
		query += ` WHERE LOWER(title) LIKE $1`
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	query += ` ORDER BY created_at DESC, id ` + limitClause(len(args), opts.Limit, opts.Offset, &args)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list answer keys")
	}
	defer rows.Close()
	out := []AnswerKey{}
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan answer key")
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveEvaluation(ctx context.Context, ev Evaluation) error {
	rj, err := json.Marshal(ev.Result)
	if err != nil {
		return errors.Wrap(err, "marshal result")
	}
	if ev.CreatedAt == 0 {
		ev.CreatedAt = time.Now().Unix()
	}
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM answer_keys WHERE id=$1`, ev.KeyID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(ErrNotFound, "answer key %s", ev.KeyID)
		}
		return errors.Wrapf(err, "check answer key %s", ev.KeyID)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO evaluations
		(id,key_id,roll_number,section,score,max_score,result_json,scan_key,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		ev.ID, ev.KeyID, ev.RollNumber, ev.Section, ev.Score, ev.MaxScore, string(rj), ev.ScanKey, ev.CreatedAt)
	return errors.Wrapf(err, "save evaluation %s", ev.ID)
}

func (s *SQLStore) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,key_id,roll_number,section,score,max_score,result_json,scan_key,created_at
		FROM evaluations WHERE id=$1`, id)
	ev, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Evaluation{}, errors.Wrapf(ErrNotFound, "evaluation %s", id)
	}
	if err != nil {
		return Evaluation{}, errors.Wrapf(err, "get evaluation %s", id)
	}
	return ev, nil
}

func (s *SQLStore) ListEvaluations(ctx context.Context, opts EvaluationListOpts) ([]Evaluation, error) {
	query := `SELECT id,key_id,roll_number,section,score,max_score,result_json,scan_key,created_at FROM evaluations`
	var where []string
	var args []any
	if opts.KeyID != "" {
		args = append(args, opts.KeyID)
		where = append(where, "key_id="+placeholder(len(args)))
	}
	if opts.RollNumber != "" {
		args = append(args, opts.RollNumber)
		where = append(where, "roll_number="+placeholder(len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id ` + limitClause(len(args), opts.Limit, opts.Offset, &args)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list evaluations")
	}
	defer rows.Close()
	out := []Evaluation{}
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan evaluation")
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanKey(r scanner) (AnswerKey, error) {
	var k AnswerKey
	var qjson string
	if err := r.Scan(&k.ID, &k.Title, &qjson, &k.CreatedAt); err != nil {
		return AnswerKey{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &k.Questions); err != nil {
		return AnswerKey{}, errors.Wrap(err, "decode questions_json")
	}
	return k, nil
}

func scanEvaluation(r scanner) (Evaluation, error) {
	var ev Evaluation
	var rjson string
	if err := r.Scan(&ev.ID, &ev.KeyID, &ev.RollNumber, &ev.Section, &ev.Score, &ev.MaxScore,
		&rjson, &ev.ScanKey, &ev.CreatedAt); err != nil {
		return Evaluation{}, err
	}
	if err := json.Unmarshal([]byte(rjson), &ev.Result); err != nil {
		return Evaluation{}, errors.Wrap(err, "decode result_json")
	}
	return ev, nil
}

func placeholder(n int) string { return "$" + strconv.Itoa(n) }

func limitClause(n, limit, offset int, args *[]any) string {
	if offset < 0 {
		offset = 0
	}
	*args = append(*args, clampLimit(limit), offset)
	return "LIMIT " + placeholder(n+1) + " OFFSET " + placeholder(n+2)
}
