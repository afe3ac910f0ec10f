package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/stainespoir/parent-portal-api/internal/models"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
)

// Message placeholders substituted into invitation and reminder templates.
const (
	placeholderChild    = "{ENFANT}"
	placeholderOuting   = "{SORTIE}"
	placeholderDate     = "{DATE}"
	placeholderLocation = "{LIEU}"
)

// defaultInvitationTemplate is the fallback body when the admin provides
// none.
const defaultInvitationTemplate = "Bonjour, {ENFANT} est invité(e) à la sortie \"{SORTIE}\" le {DATE} ({LIEU}). Merci de signer l'autorisation sur votre espace parent."

type invitationRegistrationRepository interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	ExistingByChildIDs(ctx context.Context, tx *sqlx.Tx, outingID string, childIDs []string) (map[string]models.OutingRegistration, error)
	CreateInvited(ctx context.Context, tx *sqlx.Tx, childID, outingID string) (*models.OutingRegistration, error)
	ListInvited(ctx context.Context, outingID string) ([]models.RegistrationDetail, error)
}

type invitationOutingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Outing, error)
}

type invitationMessageRepository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, msg *models.Message) (*models.Message, error)
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
}

// InvitationService bulk-creates outing invitations and sends the matching
// parent notifications. Invitation runs are idempotent per (child, outing).
type InvitationService struct {
	regRepo    invitationRegistrationRepository
	outingRepo invitationOutingRepository
	childRepo  rosterChildRepository
	msgRepo    invitationMessageRepository
	loc        *time.Location
	logger     *zap.Logger
}

// NewInvitationService constructs the invitation service.
func NewInvitationService(regRepo invitationRegistrationRepository, outingRepo invitationOutingRepository, childRepo rosterChildRepository, msgRepo invitationMessageRepository, loc *time.Location, logger *zap.Logger) *InvitationService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvitationService{
		regRepo:    regRepo,
		outingRepo: outingRepo,
		childRepo:  childRepo,
		msgRepo:    msgRepo,
		loc:        loc,
		logger:     logger,
	}
}

// InviteRequest selects the target children and the messaging behaviour of
// a bulk invitation run.
type InviteRequest struct {
	Levels          []string `json:"levels"`
	ChildIDs        []string `json:"child_ids"`
	OnlyEligible    bool     `json:"only_eligible"`
	SendMessage     bool     `json:"send_message"`
	MessageTemplate string   `json:"message_template"`
}

// ReminderRequest controls a reminder run over invited registrations.
type ReminderRequest struct {
	SendMessage     bool   `json:"send_message"`
	MessageTemplate string `json:"message_template"`
}

// Invite creates invited registrations for the targeted validated children.
// Children already registered for the outing are never recreated; with
// OnlyEligible they are skipped from messaging too. The whole batch commits
// in one transaction.
func (s *InvitationService) Invite(ctx context.Context, outingID string, req InviteRequest) (*models.InvitationOutcome, error) {
	outing, err := s.loadOuting(ctx, outingID)
	if err != nil {
		return nil, err
	}

	filter := models.ChildFilter{Levels: req.Levels, ChildIDs: req.ChildIDs}
	children, err := s.childRepo.ListValidated(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve target children")
	}

	outcome := &models.InvitationOutcome{Targets: len(children)}
	if len(children) == 0 {
		return outcome, nil
	}

	childIDs := make([]string, len(children))
	for i, child := range children {
		childIDs[i] = child.ID
	}

	template := req.MessageTemplate
	if strings.TrimSpace(template) == "" {
		template = defaultInvitationTemplate
	}

	err = s.regRepo.WithinTx(ctx, func(tx *sqlx.Tx) error {
		existing, txErr := s.regRepo.ExistingByChildIDs(ctx, tx, outing.ID, childIDs)
		if txErr != nil {
			return txErr
		}
		for _, child := range children {
			_, registered := existing[child.ID]
			if registered {
				outcome.Skipped++
				if req.OnlyEligible {
					continue
				}
			} else {
				if _, txErr := s.regRepo.CreateInvited(ctx, tx, child.ID, outing.ID); txErr != nil {
					return txErr
				}
				outcome.Created++
			}
			if req.SendMessage {
				if txErr := s.notify(ctx, tx, child.ID, child.FullName(), outing, template); txErr != nil {
					return txErr
				}
				outcome.Messages++
			}
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.FromPQError(err, "invitation batch failed")
	}

	s.logger.Info("invitation run finished",
		zap.String("outing_id", outing.ID),
		zap.Int("targets", outcome.Targets),
		zap.Int("created", outcome.Created),
		zap.Int("skipped", outcome.Skipped),
		zap.Int("messages", outcome.Messages))
	return outcome, nil
}

// RemindInvited messages the parents of registrations still in invited
// status. Statuses are never touched.
func (s *InvitationService) RemindInvited(ctx context.Context, outingID string, req ReminderRequest) (*models.ReminderOutcome, error) {
	outing, err := s.loadOuting(ctx, outingID)
	if err != nil {
		return nil, err
	}

	invited, err := s.regRepo.ListInvited(ctx, outing.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invited registrations")
	}

	outcome := &models.ReminderOutcome{Invited: len(invited)}
	if !req.SendMessage || len(invited) == 0 {
		return outcome, nil
	}

	template := req.MessageTemplate
	if strings.TrimSpace(template) == "" {
		template = defaultInvitationTemplate
	}
	for _, reg := range invited {
		msg := s.buildMessage(reg.ChildID, reg.ChildName(), outing, template)
		if _, err := s.msgRepo.Create(ctx, msg); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "reminder message failed")
		}
		outcome.Messages++
	}

	s.logger.Info("reminder run finished",
		zap.String("outing_id", outing.ID),
		zap.Int("invited", outcome.Invited),
		zap.Int("messages", outcome.Messages))
	return outcome, nil
}

func (s *InvitationService) loadOuting(ctx context.Context, outingID string) (*models.Outing, error) {
	outing, err := s.outingRepo.FindByID(ctx, outingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "outing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load outing")
	}
	return outing, nil
}

func (s *InvitationService) notify(ctx context.Context, tx *sqlx.Tx, childID, childName string, outing *models.Outing, template string) error {
	_, err := s.msgRepo.CreateTx(ctx, tx, s.buildMessage(childID, childName, outing, template))
	return err
}

func (s *InvitationService) buildMessage(childID, childName string, outing *models.Outing, template string) *models.Message {
	location := ""
	if outing.Location != nil {
		location = *outing.Location
	}
	body := strings.NewReplacer(
		placeholderChild, childName,
		placeholderOuting, outing.Title,
		placeholderDate, outing.StartsAt.In(s.loc).Format("02/01/2006 à 15h04"),
		placeholderLocation, location,
	).Replace(template)
	return &models.Message{
		ChildID: childID,
		Sender:  models.SenderStaff,
		Subject: "Sortie : " + outing.Title,
		Body:    body,
	}
}
