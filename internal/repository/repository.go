package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/facturacr/edocs-api/internal/models"
	"github.com/jmoiron/sqlx"
)

// ErrDuplicate reports that a document with the same key already exists for
// the channel. Batch ingestion counts these instead of failing.
var ErrDuplicate = errors.New("document already exists")

type Repository interface {
	Create(ctx context.Context, rec *models.FlatRecord) error
	ListByChannel(ctx context.Context, channel string) ([]*models.FlatRecord, error)
	GetByKey(ctx context.Context, channel, clave string) (*models.FlatRecord, error)
	DeleteByKey(ctx context.Context, channel, clave string) error
	UpdateEnrichment(ctx context.Context, channel, clave, branchName, activityName string) error
	UpsertActivity(ctx context.Context, row models.ActivityRow) error
	ActivityName(ctx context.Context, channel, code string) (string, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// docRow mirrors the documents table; the pass-through fields travel as one
// JSON column.
type docRow struct {
	Clave         string    `db:"clave"`
	Channel       string    `db:"channel"`
	Kind          string    `db:"kind"`
	EmisionRaw    string    `db:"emision_raw"`
	EmisionCode   string    `db:"emision_code"`
	Consecutive   string    `db:"consecutive"`
	DocTypeCode   string    `db:"doc_type_code"`
	DocTypeLabel  string    `db:"doc_type_label"`
	IssuerIdent   string    `db:"issuer_ident"`
	IssuerName    string    `db:"issuer_name"`
	ReceiverIdent string    `db:"receiver_ident"`
	ReceiverName  string    `db:"receiver_name"`
	Condition     string    `db:"condition"`
	BranchCode    string    `db:"branch_code"`
	BranchName    string    `db:"branch_name"`
	ActivityCode  string    `db:"activity_code"`
	ActivityName  string    `db:"activity_name"`
	Day           string    `db:"day"`
	Month         string    `db:"month"`
	Year          string    `db:"year"`
	IsResponse    bool      `db:"is_response"`
	S3Key         string    `db:"s3_key"`
	FieldsJSON    string    `db:"fields"`
	CreatedAt     time.Time `db:"created_at"`
}

func toRow(rec *models.FlatRecord) (*docRow, error) {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	return &docRow{
		Clave:         rec.Clave,
		Channel:       rec.Channel,
		Kind:          string(rec.Kind),
		EmisionRaw:    rec.EmisionRaw,
		EmisionCode:   rec.EmisionCode,
		Consecutive:   rec.Consecutive,
		DocTypeCode:   rec.DocTypeCode,
		DocTypeLabel:  rec.DocTypeLabel,
		IssuerIdent:   rec.IssuerIdent,
		IssuerName:    rec.IssuerName,
		ReceiverIdent: rec.ReceiverIdent,
		ReceiverName:  rec.ReceiverName,
		Condition:     rec.Condition,
		BranchCode:    rec.BranchCode,
		BranchName:    rec.BranchName,
		ActivityCode:  rec.ActivityCode,
		ActivityName:  rec.ActivityName,
		Day:           rec.Day,
		Month:         rec.Month,
		Year:          rec.Year,
		IsResponse:    rec.IsResponse,
		S3Key:         rec.S3Key,
		FieldsJSON:    string(fieldsJSON),
		CreatedAt:     rec.CreatedAt,
	}, nil
}

func (r *docRow) toRecord() (*models.FlatRecord, error) {
	rec := &models.FlatRecord{
		Clave:         r.Clave,
		Channel:       r.Channel,
		Kind:          models.DocumentKind(r.Kind),
		EmisionRaw:    r.EmisionRaw,
		EmisionCode:   r.EmisionCode,
		Consecutive:   r.Consecutive,
		DocTypeCode:   r.DocTypeCode,
		DocTypeLabel:  r.DocTypeLabel,
		IssuerIdent:   r.IssuerIdent,
		IssuerName:    r.IssuerName,
		ReceiverIdent: r.ReceiverIdent,
		ReceiverName:  r.ReceiverName,
		Condition:     r.Condition,
		BranchCode:    r.BranchCode,
		BranchName:    r.BranchName,
		ActivityCode:  r.ActivityCode,
		ActivityName:  r.ActivityName,
		Day:           r.Day,
		Month:         r.Month,
		Year:          r.Year,
		IsResponse:    r.IsResponse,
		S3Key:         r.S3Key,
		CreatedAt:     r.CreatedAt,
	}

	if r.FieldsJSON != "" {
		if err := json.Unmarshal([]byte(r.FieldsJSON), &rec.Fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
		}
	}

	return rec, nil
}

const docColumns = `clave, channel, kind, emision_raw, emision_code, consecutive,
	doc_type_code, doc_type_label, issuer_ident, issuer_name, receiver_ident,
	receiver_name, condition, branch_code, branch_name, activity_code,
	activity_name, day, month, year, is_response, s3_key, fields, created_at`

func (r *repository) Create(ctx context.Context, rec *models.FlatRecord) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (` + docColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err = r.db.ExecContext(ctx, query,
		row.Clave, row.Channel, row.Kind, row.EmisionRaw, row.EmisionCode,
		row.Consecutive, row.DocTypeCode, row.DocTypeLabel, row.IssuerIdent,
		row.IssuerName, row.ReceiverIdent, row.ReceiverName, row.Condition,
		row.BranchCode, row.BranchName, row.ActivityCode, row.ActivityName,
		row.Day, row.Month, row.Year, row.IsResponse, row.S3Key,
		row.FieldsJSON, row.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return err
	}

	return nil
}

func (r *repository) ListByChannel(ctx context.Context, channel string) ([]*models.FlatRecord, error) {
	query := `
		SELECT ` + docColumns + `
		FROM documents
		WHERE channel = $1
		ORDER BY created_at, clave
	`

	var rows []docRow
	if err := r.db.SelectContext(ctx, &rows, query, channel); err != nil {
		return nil, err
	}

	records := make([]*models.FlatRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (r *repository) GetByKey(ctx context.Context, channel, clave string) (*models.FlatRecord, error) {
	query := `
		SELECT ` + docColumns + `
		FROM documents
		WHERE channel = $1 AND clave = $2
	`

	var row docRow
	err := r.db.GetContext(ctx, &row, query, channel, clave)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return row.toRecord()
}

func (r *repository) DeleteByKey(ctx context.Context, channel, clave string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE channel = $1 AND clave = $2`, channel, clave)
	return err
}

func (r *repository) UpdateEnrichment(ctx context.Context, channel, clave, branchName, activityName string) error {
	query := `
		UPDATE documents
		SET branch_name = $3, activity_name = $4
		WHERE channel = $1 AND clave = $2
	`

	_, err := r.db.ExecContext(ctx, query, channel, clave, branchName, activityName)
	return err
}

func (r *repository) UpsertActivity(ctx context.Context, row models.ActivityRow) error {
	query := `
		INSERT INTO activities (channel, code, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (channel, code) DO UPDATE SET name = excluded.name
	`

	_, err := r.db.ExecContext(ctx, query, row.Channel, row.Code, row.Name)
	return err
}

func (r *repository) ActivityName(ctx context.Context, channel, code string) (string, error) {
	var name string
	err := r.db.GetContext(ctx, &name,
		`SELECT name FROM activities WHERE channel = $1 AND code = $2`, channel, code)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}
