package qt

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/church"
	"github.com/trezcool/dalant/core/talent"
)

const photoContentType = "image/jpeg"

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("qt submission")
	ErrAlreadyApproved  = errors.New("submission is already approved")
	ErrAlreadyRejected  = errors.New("submission is already rejected")
	ErrFutureDate       = errors.New("date cannot be in the future")
	ErrUnsupportedPhoto = errors.New("photo must be a jpeg, png, gif or webp image")
	ErrPhotoTooLarge    = errors.New("photo has too many pixels")
)

type (
	Repository interface {
		// GetSubmissionByDay returns ErrNotFound when the student has not submitted anything for the date.
		GetSubmissionByDay(ctx context.Context, churchID, studentID string, date core.Date, exec ...core.DBExecutor) (Submission, error)
		GetSubmissionByID(ctx context.Context, churchID, id string, exec ...core.DBExecutor) (Submission, error)
		CreateSubmission(ctx context.Context, s Submission, exec ...core.DBExecutor) (Submission, error)
		UpdateSubmission(ctx context.Context, s Submission, exec ...core.DBExecutor) (Submission, error)
		QuerySubmissions(ctx context.Context, churchID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Submission, error)
		PendingSummary(ctx context.Context, churchID string, exec ...core.DBExecutor) (PendingSummary, error)
	}

	// PhotoProcessor turns an uploaded image into the JPEG that gets stored.
	// It returns ErrUnsupportedPhoto for content that is not an accepted image
	// and ErrPhotoTooLarge for images too big to decode.
	PhotoProcessor interface {
		Process(r io.Reader) ([]byte, error)
	}

	Service struct {
		repo     Repository
		store    core.FileStore
		photos   PhotoProcessor
		churches *church.Service
		ledger   *talent.Service
		tx       core.Transactor
		logger   core.Logger
	}
)

func NewService(
	repo Repository,
	store core.FileStore,
	photos PhotoProcessor,
	churches *church.Service,
	ledger *talent.Service,
	tx core.Transactor,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		store:    store,
		photos:   photos,
		churches: churches,
		ledger:   ledger,
		tx:       tx,
		logger:   logger,
	}
}

func (svc *Service) withURL(s Submission) Submission {
	s.PhotoURL = svc.store.URL(s.PhotoKey)
	return s
}

func photoKey(churchID, studentID string, date core.Date) string {
	return fmt.Sprintf("qt/%s/%s/%s-%s.jpg", churchID, studentID, date, uuid.New().String()[:8])
}

// Submit stores the photo of a student's devotional for date.
// A pending or rejected submission for the same day gets its photo replaced and goes back to pending.
func (svc *Service) Submit(ctx context.Context, churchID, studentID string, date core.Date, photo io.Reader) (Submission, error) {
	if date.IsZero() {
		date = core.Today()
	}
	if date.After(core.Today()) {
		return Submission{}, core.NewValidationError(ErrFutureDate, core.FieldError{Field: "date", Error: ErrFutureDate.Error()})
	}

	orig, err := svc.repo.GetSubmissionByDay(ctx, churchID, studentID, date)
	exists := err == nil
	if err != nil && errors.Cause(err) != ErrNotFound {
		return Submission{}, errors.Wrap(err, "finding submission")
	}
	if exists && orig.Status == StatusApproved {
		return Submission{}, core.NewValidationError(ErrAlreadyApproved)
	}

	data, err := svc.photos.Process(photo)
	if err != nil {
		if cause := errors.Cause(err); cause == ErrUnsupportedPhoto || cause == ErrPhotoTooLarge {
			return Submission{}, core.NewValidationError(err, core.FieldError{Field: "photo", Error: err.Error()})
		}
		return Submission{}, errors.Wrap(err, "processing photo")
	}
	key := photoKey(churchID, studentID, date)
	if err = svc.store.Save(ctx, key, bytes.NewReader(data), photoContentType); err != nil {
		return Submission{}, errors.Wrap(err, "saving photo")
	}

	now := core.NowFunc().UTC()
	var sub Submission
	if exists {
		sub = orig
		sub.PhotoKey = key
		sub.Status = StatusPending
		sub.Note = ""
		sub.ReviewerID = ""
		sub.ReviewedAt = nil
		sub.UpdatedAt = now
		sub, err = svc.repo.UpdateSubmission(ctx, sub)
	} else {
		sub, err = svc.repo.CreateSubmission(ctx, Submission{
			ID:        uuid.New().String(),
			ChurchID:  churchID,
			StudentID: studentID,
			Date:      date,
			PhotoKey:  key,
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err != nil {
		svc.removePhoto(ctx, key)
		return Submission{}, errors.Wrap(err, "saving submission")
	}
	if exists {
		svc.removePhoto(ctx, orig.PhotoKey)
	}
	return svc.withURL(sub), nil
}

func (svc *Service) removePhoto(ctx context.Context, key string) {
	if err := svc.store.Delete(ctx, key); err != nil {
		svc.logger.Warn(fmt.Sprintf("deleting photo %s: %v", key, err), err)
	}
}

func (svc *Service) Query(ctx context.Context, churchID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Submission, error) {
	subs, err := svc.repo.QuerySubmissions(ctx, churchID, filter, ordering)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i] = svc.withURL(subs[i])
	}
	return subs, nil
}

func (svc *Service) GetByID(ctx context.Context, churchID, id string) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, churchID, id)
	if err != nil {
		return Submission{}, err
	}
	return svc.withURL(sub), nil
}

// Approve moves a pending or rejected submission to approved and awards the church's QT points.
func (svc *Service) Approve(ctx context.Context, churchID, reviewerID, id string) (Submission, error) {
	ch, err := svc.churches.GetByID(ctx, churchID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "finding church")
	}

	var sub Submission
	err = svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if sub, err = svc.repo.GetSubmissionByID(ctx, churchID, id, exec); err != nil {
			return err
		}
		if sub.Status == StatusApproved {
			return core.NewValidationError(ErrAlreadyApproved)
		}
		svc.review(&sub, StatusApproved, reviewerID, "")
		if sub, err = svc.repo.UpdateSubmission(ctx, sub, exec); err != nil {
			return errors.Wrap(err, "updating submission")
		}
		return errors.Wrap(
			svc.ledger.Award(ctx, exec, churchID, reviewerID, sub.StudentID, ch.Settings.QTPoints, talent.KindQT, sub.ID),
			"awarding qt",
		)
	})
	if err != nil {
		return Submission{}, err
	}
	return svc.withURL(sub), nil
}

// Reject moves a pending or approved submission to rejected. Rejecting an approved one
// appends the entry reversing its award.
func (svc *Service) Reject(ctx context.Context, churchID, reviewerID, id string, r Reject) (Submission, error) {
	var sub Submission
	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if sub, err = svc.repo.GetSubmissionByID(ctx, churchID, id, exec); err != nil {
			return err
		}
		wasApproved := sub.Status == StatusApproved
		if sub.Status == StatusRejected {
			return core.NewValidationError(ErrAlreadyRejected)
		}
		svc.review(&sub, StatusRejected, reviewerID, r.Note)
		if sub, err = svc.repo.UpdateSubmission(ctx, sub, exec); err != nil {
			return errors.Wrap(err, "updating submission")
		}
		if wasApproved {
			return errors.Wrap(
				svc.ledger.Reverse(ctx, exec, churchID, reviewerID, sub.StudentID, talent.KindQT, sub.ID),
				"reversing qt",
			)
		}
		return nil
	})
	if err != nil {
		return Submission{}, err
	}
	return svc.withURL(sub), nil
}

func (svc *Service) review(sub *Submission, status, reviewerID, note string) {
	now := core.NowFunc().UTC()
	sub.Status = status
	sub.Note = note
	sub.ReviewerID = reviewerID
	sub.ReviewedAt = &now
	sub.UpdatedAt = now
}

// OpenPhoto returns the stored photo of a submission.
func (svc *Service) OpenPhoto(ctx context.Context, sub Submission) (io.ReadCloser, string, error) {
	rc, err := svc.store.Open(ctx, sub.PhotoKey)
	if err != nil {
		return nil, "", errors.Wrap(err, "opening photo")
	}
	return rc, photoContentType, nil
}

func (svc *Service) PendingSummary(ctx context.Context, churchID string) (PendingSummary, error) {
	return svc.repo.PendingSummary(ctx, churchID)
}
