package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/facturacr/edocs-api/internal/catalog"
	"github.com/facturacr/edocs-api/internal/classify"
	"github.com/facturacr/edocs-api/internal/config"
	"github.com/facturacr/edocs-api/internal/dataset"
	"github.com/facturacr/edocs-api/internal/filterset"
	"github.com/facturacr/edocs-api/internal/ingestlog"
	"github.com/facturacr/edocs-api/internal/models"
	"github.com/facturacr/edocs-api/internal/normalize"
	"github.com/facturacr/edocs-api/internal/repository"
	"github.com/facturacr/edocs-api/internal/storage"
	"github.com/facturacr/edocs-api/internal/utils"
	"github.com/facturacr/edocs-api/internal/xmltree"
)

// UploadFile is one payload from a multi-file upload.
type UploadFile struct {
	Name string
	Data []byte
}

type DocumentService interface {
	IngestBatch(ctx context.Context, channelID string, files []UploadFile) (*models.BatchResult, error)
	LoadDataset(ctx context.Context, channelID string) (*models.DatasetResponse, error)
	GetDocument(ctx context.Context, channelID, clave string) (*models.FlatRecord, error)
	DeleteDocument(ctx context.Context, channelID, clave string) error

	OpenFilterDialog(ctx context.Context, channelID, column string) (*models.FilterDialogResponse, error)
	ConfirmFilter(ctx context.Context, channelID, column string, selected []string) error
	RemoveFilter(channelID, column string)
	RemoveAllFilters(channelID string)
	ActiveFilters(channelID string) []map[string]string

	IngestLog(channelID string, outcome ingestlog.Outcome) []ingestlog.Entry
	ClearIngestLog(channelID string)

	SyncActivities(ctx context.Context, channelID string) (int, error)
}

// session is the per-channel working state: the assembled dataset, the
// cascading filter engine and the ingest log. All access is serialized
// behind the service mutex; the engine itself is lock-free.
type session struct {
	channel models.Channel
	engine  *filterset.Engine
	log     *ingestlog.Service
	records []*models.FlatRecord
	fresh   []*models.FlatRecord
	loaded  bool
}

type documentService struct {
	repo    repository.Repository
	archive storage.Archive
	catalog catalog.Client
	logger  *utils.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewService(repo repository.Repository, cfg *config.Config, logger *utils.Logger) DocumentService {
	archive, err := storage.NewS3Archive(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize S3 archive", "error", err)
	}

	catalogClient := catalog.NewHTTPClient(cfg.CatalogBaseURL, logger)

	return &documentService{
		repo:     repo,
		archive:  archive,
		catalog:  catalogClient,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// The channel path segment is the tenant's own tax identification number,
// which is also what Sale/Purchase classification compares against.
func (s *documentService) session(channelID string) *session {
	if sess, ok := s.sessions[channelID]; ok {
		return sess
	}

	sess := &session{
		channel: models.Channel{ID: channelID, IdentNumber: channelID},
		engine:  filterset.New(),
		log:     ingestlog.NewService(channelID, nil),
	}
	s.sessions[channelID] = sess
	return sess
}

func (s *documentService) IngestBatch(ctx context.Context, channelID string, files []UploadFile) (*models.BatchResult, error) {
	if len(files) == 0 {
		return nil, utils.NewBadRequestError("No files provided")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(channelID)
	result := &models.BatchResult{
		BatchID:   utils.GenerateID(),
		Processed: len(files),
		StartedAt: time.Now(),
	}

	// Per-document isolation: one bad payload never aborts the batch.
	for _, file := range files {
		s.ingestOne(ctx, sess, file, result)
	}

	result.FinishedAt = time.Now()
	s.logger.Info("Batch ingested",
		"batch_id", result.BatchID,
		"channel", channelID,
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"rejected", result.Rejected,
		"responses", result.Responses,
		"duplicates", result.Duplicates)

	return result, nil
}

func (s *documentService) ingestOne(ctx context.Context, sess *session, file UploadFile, result *models.BatchResult) {
	tree, err := xmltree.Parse(file.Data)
	if err != nil {
		result.Rejected++
		sess.log.Record(file.Name, "", ingestlog.OutcomeRejected, err.Error())
		s.logger.Warn("Document rejected", "file", file.Name, "error", err)
		return
	}

	kind := classify.Kind(tree.RootTag())

	rec, err := normalize.Record(tree, kind, sess.channel)
	if err != nil {
		result.Rejected++
		sess.log.Record(file.Name, tree.FindTag("Clave"), ingestlog.OutcomeRejected, err.Error())
		s.logger.Warn("Document rejected", "file", file.Name, "error", err)
		return
	}

	s3Key, err := s.archive.Put(ctx, sess.channel.ID, rec.Clave, file.Data)
	if err != nil {
		result.Rejected++
		sess.log.Record(file.Name, rec.Clave, ingestlog.OutcomeRejected, "failed to archive payload")
		s.logger.Error("Failed to archive payload", "file", file.Name, "error", err)
		return
	}
	rec.S3Key = s3Key

	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			result.Duplicates++
			sess.log.Record(file.Name, rec.Clave, ingestlog.OutcomeRejected, "duplicate document key")
			return
		}
		result.Rejected++
		sess.log.Record(file.Name, rec.Clave, ingestlog.OutcomeRejected, "failed to persist record")
		s.logger.Error("Failed to persist record", "file", file.Name, "clave", rec.Clave, "error", err)
		// Keep the store and archive consistent.
		_ = s.archive.Delete(ctx, s3Key)
		return
	}

	sess.fresh = append(sess.fresh, rec)
	sess.loaded = false

	if rec.IsResponse {
		result.Responses++
		sess.log.Record(file.Name, rec.Clave, ingestlog.OutcomeResponse, "")
		return
	}

	result.Succeeded++
	sess.log.Record(file.Name, rec.Clave, ingestlog.OutcomeSuccess, "")
}

// ensureLoaded rehydrates the store, merges in session-fresh records,
// enriches purchases and sorts. The result is cached until the next
// ingestion or deletion invalidates it.
func (s *documentService) ensureLoaded(ctx context.Context, sess *session) error {
	if sess.loaded {
		return nil
	}

	stored, err := s.repo.ListByChannel(ctx, sess.channel.ID)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	// A fresh record that already reached the store supersedes its stored
	// copy so enrichment is not lost on the next merge.
	freshKeys := make(map[string]bool, len(sess.fresh))
	for _, rec := range sess.fresh {
		freshKeys[rec.Clave] = true
	}
	kept := stored[:0]
	for _, rec := range stored {
		if !freshKeys[rec.Clave] {
			kept = append(kept, rec)
		}
	}

	records := dataset.Merge(kept, sess.fresh)

	lookup := &cachedLookup{repo: s.repo, client: s.catalog}
	dataset.Enrich(ctx, records, lookup, func(done, total int) {
		if done%25 == 0 || done == total {
			s.logger.Debug("Enrichment progress", "channel", sess.channel.ID, "done", done, "total", total)
		}
	})

	for _, rec := range records {
		if rec.Condition == models.ConditionPurchase && (rec.BranchName != "" || rec.ActivityName != "") {
			if err := s.repo.UpdateEnrichment(ctx, rec.Channel, rec.Clave, rec.BranchName, rec.ActivityName); err != nil {
				s.logger.Warn("Failed to persist enrichment", "clave", rec.Clave, "error", err)
			}
		}
	}

	dataset.SortByEmision(records)

	sess.records = records
	sess.loaded = true
	return nil
}

// defaultView excludes response documents from the tabular display.
func (sess *session) defaultView() []*models.FlatRecord {
	view := make([]*models.FlatRecord, 0, len(sess.records))
	for _, rec := range sess.records {
		if !rec.IsResponse {
			view = append(view, rec)
		}
	}
	return view
}

func (s *documentService) LoadDataset(ctx context.Context, channelID string) (*models.DatasetResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(channelID)
	if err := s.ensureLoaded(ctx, sess); err != nil {
		s.logger.Error("Failed to assemble dataset", "channel", channelID, "error", err)
		return nil, utils.NewInternalError("Failed to assemble dataset")
	}

	view := sess.defaultView()
	visible := make([]*models.FlatRecord, 0, len(view))
	for _, rec := range view {
		if sess.engine.Visible(rec) {
			visible = append(visible, rec)
		}
	}

	return &models.DatasetResponse{
		Channel: channelID,
		Total:   len(view),
		Visible: len(visible),
		Records: visible,
	}, nil
}

func (s *documentService) GetDocument(ctx context.Context, channelID, clave string) (*models.FlatRecord, error) {
	rec, err := s.repo.GetByKey(ctx, channelID, clave)
	if err != nil {
		s.logger.Error("Failed to get document", "clave", clave, "error", err)
		return nil, utils.NewInternalError("Failed to retrieve document")
	}
	if rec == nil {
		return nil, utils.NewNotFoundError("Document not found")
	}
	return rec, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, channelID, clave string) error {
	rec, err := s.repo.GetByKey(ctx, channelID, clave)
	if err != nil {
		s.logger.Error("Failed to get document", "clave", clave, "error", err)
		return utils.NewInternalError("Failed to retrieve document")
	}
	if rec == nil {
		return utils.NewNotFoundError("Document not found")
	}

	if err := s.repo.DeleteByKey(ctx, channelID, clave); err != nil {
		s.logger.Error("Failed to delete document", "clave", clave, "error", err)
		return utils.NewInternalError("Failed to delete document")
	}
	if rec.S3Key != "" {
		_ = s.archive.Delete(ctx, rec.S3Key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(channelID)
	sess.loaded = false
	for i, fresh := range sess.fresh {
		if fresh.Clave == clave {
			sess.fresh = append(sess.fresh[:i], sess.fresh[i+1:]...)
			break
		}
	}

	return nil
}

func (s *documentService) OpenFilterDialog(ctx context.Context, channelID, column string) (*models.FilterDialogResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(channelID)
	if err := s.ensureLoaded(ctx, sess); err != nil {
		return nil, utils.NewInternalError("Failed to assemble dataset")
	}

	domain, err := sess.engine.OpenDialog(sess.defaultView(), column)
	if err != nil {
		return nil, utils.NewBadRequestError(err.Error())
	}

	return &models.FilterDialogResponse{Column: column, Values: domain}, nil
}

func (s *documentService) ConfirmFilter(ctx context.Context, channelID, column string, selected []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(channelID)
	if err := sess.engine.Confirm(column, selected); err != nil {
		return utils.NewBadRequestError(err.Error())
	}
	return nil
}

func (s *documentService) RemoveFilter(channelID, column string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(channelID).engine.Remove(column)
}

func (s *documentService) RemoveAllFilters(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(channelID).engine.RemoveAll()
}

func (s *documentService) ActiveFilters(channelID string) []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session(channelID).engine.Columns()
}

func (s *documentService) IngestLog(channelID string, outcome ingestlog.Outcome) []ingestlog.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session(channelID).log.Entries(outcome)
}

func (s *documentService) ClearIngestLog(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(channelID).log.Clear()
}

func (s *documentService) SyncActivities(ctx context.Context, channelID string) (int, error) {
	rows, err := s.catalog.FetchActivities(ctx, channelID)
	if err != nil {
		s.logger.Error("Failed to fetch activity catalog", "channel", channelID, "error", err)
		return 0, utils.NewInternalError("Failed to fetch activity catalog")
	}

	count := 0
	for _, row := range rows {
		if err := s.repo.UpsertActivity(ctx, row); err != nil {
			s.logger.Warn("Failed to upsert activity", "code", row.Code, "error", err)
			continue
		}
		count++
	}

	return count, nil
}

// cachedLookup resolves activity names from the synced catalog table first
// and falls back to the live catalog API, caching what it finds. Branch
// names always come from the API.
type cachedLookup struct {
	repo   repository.Repository
	client catalog.Client
}

func (l *cachedLookup) BranchName(ctx context.Context, channel, code string) (string, error) {
	return l.client.BranchName(ctx, channel, code)
}

func (l *cachedLookup) ActivityName(ctx context.Context, channel, code string) (string, error) {
	if name, err := l.repo.ActivityName(ctx, channel, code); err == nil && name != "" {
		return name, nil
	}

	name, err := l.client.ActivityName(ctx, channel, code)
	if err != nil {
		return "", err
	}
	if name != "" {
		_ = l.repo.UpsertActivity(ctx, models.ActivityRow{Channel: channel, Code: code, Name: name})
	}
	return name, nil
}
