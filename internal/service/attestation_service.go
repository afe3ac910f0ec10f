package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stainespoir/parent-portal-api/internal/models"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
	"github.com/stainespoir/parent-portal-api/pkg/export"
	"github.com/stainespoir/parent-portal-api/pkg/jobs"
	"github.com/stainespoir/parent-portal-api/pkg/storage"
)

type attestationRegistrationRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error)
	ListConfirmedForOuting(ctx context.Context, outingID string) ([]models.RegistrationDetail, error)
}

// ExportState tracks one queued attestation export run.
type ExportState struct {
	ID        string       `json:"id"`
	OutingID  string       `json:"outing_id"`
	Status    string       `json:"status"`
	Files     []ExportFile `json:"files,omitempty"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	DoneAt    *time.Time   `json:"done_at,omitempty"`
}

// ExportFile is one rendered attestation with its signed download token.
type ExportFile struct {
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

const (
	exportPending = "pending"
	exportDone    = "done"
	exportFailed  = "failed"
)

// AttestationService renders consent attestation documents, on demand for
// parents and in queued batches per outing for admins.
type AttestationService struct {
	repo            attestationRegistrationRepository
	renderer        *export.AttestationRenderer
	store           *storage.LocalStorage
	signer          *storage.SignedURLSigner
	queue           *jobs.Queue
	metrics         *MetricsService
	associationName string
	logger          *zap.Logger

	mu      sync.RWMutex
	exports map[string]*ExportState
}

type exportPayload struct {
	ExportID string
	OutingID string
}

// NewAttestationService constructs the attestation service and its export
// queue. Call Start before enqueueing exports and Stop on shutdown.
func NewAttestationService(repo attestationRegistrationRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, associationName string, queueCfg jobs.QueueConfig, logger *zap.Logger) *AttestationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AttestationService{
		repo:            repo,
		renderer:        export.NewAttestationRenderer(),
		store:           store,
		signer:          signer,
		metrics:         metrics,
		associationName: associationName,
		logger:          logger,
		exports:         make(map[string]*ExportState),
	}
	if queueCfg.Logger == nil {
		queueCfg.Logger = logger
	}
	s.queue = jobs.NewQueue("attestation-export", s.handleExport, queueCfg)
	return s
}

// Start launches the export workers.
func (s *AttestationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *AttestationService) Stop() {
	s.queue.Stop()
}

// RenderForRegistration produces the attestation PDF for one confirmed
// registration, enforcing parent ownership when parentProfileID is set.
func (s *AttestationService) RenderForRegistration(ctx context.Context, parentProfileID, registrationID string) ([]byte, string, error) {
	detail, err := s.repo.FindDetailByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if parentProfileID != "" && detail.ParentProfileID != parentProfileID {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "registration not found")
	}
	if !detail.Signed() {
		return nil, "", appErrors.Clone(appErrors.ErrConflict, "registration is not signed")
	}

	data, err := s.renderer.Render(s.attestationFor(detail))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "attestation rendering failed")
	}
	return data, attestationFilename(detail), nil
}

// StartExport queues a batch export of every signed attestation for the
// outing and returns the tracking state.
func (s *AttestationService) StartExport(ctx context.Context, outingID string) (*ExportState, error) {
	state := &ExportState{
		ID:        uuid.NewString(),
		OutingID:  outingID,
		Status:    exportPending,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.exports[state.ID] = state
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{
		ID:      state.ID,
		Type:    "attestation-export",
		Payload: exportPayload{ExportID: state.ID, OutingID: outingID},
	})
	if err != nil {
		s.mu.Lock()
		delete(s.exports, state.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export queue unavailable")
	}
	return state, nil
}

// ExportState returns the current state of an export run.
func (s *AttestationService) ExportState(exportID string) (*ExportState, error) {
	s.mu.RLock()
	state, ok := s.exports[exportID]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	snapshot := *state
	return &snapshot, nil
}

// OpenDownload validates a signed download token and opens the referenced
// file.
func (s *AttestationService) OpenDownload(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return file, path.Base(relPath), nil
}

func (s *AttestationService) handleExport(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	details, err := s.repo.ListConfirmedForOuting(ctx, payload.OutingID)
	if err != nil {
		s.failExport(payload.ExportID, err)
		return err
	}

	files := make([]ExportFile, 0, len(details))
	for _, detail := range details {
		data, err := s.renderer.Render(s.attestationFor(&detail))
		if err != nil {
			s.failExport(payload.ExportID, err)
			return err
		}
		relPath := path.Join(payload.ExportID, attestationFilename(&detail))
		if _, err := s.store.Save(relPath, data); err != nil {
			s.failExport(payload.ExportID, err)
			return err
		}
		token, expiresAt, err := s.signer.Generate(payload.ExportID, relPath)
		if err != nil {
			s.failExport(payload.ExportID, err)
			return err
		}
		files = append(files, ExportFile{Name: attestationFilename(&detail), Token: token, ExpiresAt: expiresAt})
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if state, ok := s.exports[payload.ExportID]; ok {
		state.Status = exportDone
		state.Files = files
		state.DoneAt = &now
	}
	s.mu.Unlock()
	s.metrics.RecordExportJob("success")
	s.logger.Info("attestation export finished",
		zap.String("export_id", payload.ExportID),
		zap.String("outing_id", payload.OutingID),
		zap.Int("files", len(files)))
	return nil
}

func (s *AttestationService) failExport(exportID string, err error) {
	s.mu.Lock()
	if state, ok := s.exports[exportID]; ok {
		state.Status = exportFailed
		state.Error = err.Error()
	}
	s.mu.Unlock()
	s.metrics.RecordExportJob("error")
}

func (s *AttestationService) attestationFor(detail *models.RegistrationDetail) export.Attestation {
	a := export.Attestation{
		AssociationName: s.associationName,
		ChildName:       detail.ChildName(),
		ChildLevel:      detail.ChildLevel,
		OutingTitle:     detail.OutingTitle,
		OutingStartsAt:  detail.OutingStartsAt,
	}
	if detail.OutingLocation != nil {
		a.OutingLocation = *detail.OutingLocation
	}
	if detail.SignatureName != nil {
		a.SignatureName = *detail.SignatureName
	}
	if detail.SignaturePhone != nil {
		a.SignaturePhone = *detail.SignaturePhone
	}
	if detail.HealthNotes != nil {
		a.HealthNotes = *detail.HealthNotes
	}
	if detail.SignedAt != nil {
		a.SignedAt = *detail.SignedAt
	}
	if detail.SignatureIP != nil {
		a.SignatureIP = *detail.SignatureIP
	}
	if detail.SignatureUserAgent != nil {
		a.UserAgent = *detail.SignatureUserAgent
	}
	return a
}

func attestationFilename(detail *models.RegistrationDetail) string {
	name := strings.ToLower(detail.ChildFirstName + "-" + detail.ChildLastName)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, name)
	if name == "" || name == "-" {
		name = "attestation"
	}
	return fmt.Sprintf("%s-%s.pdf", name, detail.ID[:8])
}
