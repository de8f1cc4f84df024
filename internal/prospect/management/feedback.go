package management

import (
	"context"
	"fmt"
	"io"

	"prospectai_backend/internal/events"
	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/platform/apperr"
	"prospectai_backend/platform/sanitize"

	"github.com/google/uuid"
)

// MaxFeedbackImages bounds the images attached to one feedback entry.
const MaxFeedbackImages = 10

// FeedbackImageFolder is the key prefix of a lead's feedback images.
func FeedbackImageFolder(leadID uuid.UUID) string {
	return fmt.Sprintf("feedback-images/%s", leadID)
}

// SubmitFeedback appends a feedback entry and refreshes last_feedback_at.
func (s *Service) SubmitFeedback(ctx context.Context, actor domain.Actor, leadID uuid.UUID, text string, images []string) (domain.Lead, error) {
	text = sanitize.Text(text)
	refs := make([]string, 0, len(images))
	for _, img := range images {
		if img != "" {
			refs = append(refs, img)
		}
	}
	if text == "" && len(refs) == 0 {
		return domain.Lead{}, apperr.Validation("feedback needs text or at least one image")
	}
	if len(refs) > MaxFeedbackImages {
		return domain.Lead{}, apperr.Validation(fmt.Sprintf("at most %d images per feedback", MaxFeedbackImages))
	}

	lead, err := s.repo.GetLead(ctx, actor.TenantID, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	if !actor.CanActOn(lead) {
		return domain.Lead{}, apperr.Forbidden("only the owner or a manager can add feedback")
	}

	updated, err := s.repo.AppendFeedback(ctx, actor.TenantID, lead.ID, domain.Feedback{
		Text:      text,
		Images:    refs,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return domain.Lead{}, err
	}

	s.metrics.RecordFeedback()
	s.bus.Publish(ctx, events.LeadFeedbackAdded{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     updated.ID,
		TenantID:   updated.TenantID,
		ActorID:    actor.ID,
		LeadName:   updated.Name,
		ImageCount: len(refs),
	})
	return updated, nil
}

// ImageUpload is one file received for a feedback entry.
type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// ImageRef identifies a stored feedback image.
type ImageRef struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// UploadFeedbackImage stores one image under the lead's folder and returns
// the reference to include in SubmitFeedback.
func (s *Service) UploadFeedbackImage(ctx context.Context, actor domain.Actor, leadID uuid.UUID, file ImageUpload) (ImageRef, error) {
	if s.storage == nil {
		return ImageRef{}, apperr.Internal("image storage is not configured")
	}
	if err := s.storage.ValidateContentType(file.ContentType); err != nil {
		return ImageRef{}, apperr.Validation(err.Error())
	}
	if err := s.storage.ValidateFileSize(file.Size); err != nil {
		return ImageRef{}, apperr.Validation(err.Error())
	}

	lead, err := s.repo.GetLead(ctx, actor.TenantID, leadID)
	if err != nil {
		return ImageRef{}, err
	}
	if !actor.CanActOn(lead) {
		return ImageRef{}, apperr.Forbidden("only the owner or a manager can attach images")
	}

	key, err := s.storage.UploadFile(ctx, s.bucket, FeedbackImageFolder(lead.ID), file.FileName, file.ContentType, file.Reader, file.Size)
	if err != nil {
		return ImageRef{}, apperr.Wrap(apperr.KindInternal, "failed to store image", err).WithOp("management.UploadFeedbackImage")
	}
	url, err := s.storage.ObjectURL(ctx, s.bucket, key)
	if err != nil {
		return ImageRef{}, apperr.Wrap(apperr.KindInternal, "failed to resolve image url", err).WithOp("management.UploadFeedbackImage")
	}
	return ImageRef{Key: key, URL: url}, nil
}
