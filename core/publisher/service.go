package publisher

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ministry/core"
)

var (
	// errors
	ErrNotFound = errors.New("publisher not found")
)

var nowFunc = time.Now // mockable

type (
	Repository interface {
		CreatePublisher(ctx context.Context, pub Publisher) (Publisher, error)
		GetPublisher(ctx context.Context, id string) (Publisher, error)
		QueryPublishers(ctx context.Context) ([]Publisher, error)
		UpdatePublisher(ctx context.Context, pub Publisher) (Publisher, error)
		// UpdatePublisherStatus merges the status fields into the stored publisher.
		UpdatePublisherStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, np NewPublisher) (Publisher, error) {
	np.Clean()
	if err := svc.validate.Struct(np); err != nil {
		return Publisher{}, err
	}

	now := nowFunc().UTC()
	pub := Publisher{
		ID:               uuid.New().String(),
		Name:             np.Name,
		CongregationDate: np.CongregationDate.UTC(),
		BaptismDate:      np.BaptismDate.UTC(),
		Status:           np.Status,
		PioneerTier:      np.PioneerTier,
		StatusUpdatedAt:  now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	pub, err := svc.repo.CreatePublisher(ctx, pub)
	return pub, errors.Wrap(err, "creating publisher")
}

func (svc *Service) QueryAll(ctx context.Context) ([]Publisher, error) {
	return svc.repo.QueryPublishers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Publisher, error) {
	return svc.repo.GetPublisher(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, up UpdatePublisher) (Publisher, error) {
	if err := svc.validate.Struct(up); err != nil {
		return Publisher{}, err
	}
	pub, err := svc.repo.GetPublisher(ctx, id)
	if err != nil {
		return Publisher{}, err
	}

	if name := core.CleanString(up.Name); name != "" {
		pub.Name = name
	}
	if !up.CongregationDate.IsZero() {
		pub.CongregationDate = up.CongregationDate.UTC()
	}
	if !up.BaptismDate.IsZero() {
		pub.BaptismDate = up.BaptismDate.UTC()
	}
	if up.PioneerTier != nil {
		pub.PioneerTier = *up.PioneerTier
	}
	pub.UpdatedAt = nowFunc().UTC()

	pub, err = svc.repo.UpdatePublisher(ctx, pub)
	return pub, errors.Wrap(err, "updating publisher")
}

// SetStatus is the operator's manual override. Unlike status inference, it may set protected states.
func (svc *Service) SetStatus(ctx context.Context, id string, ss SetStatus) (Publisher, error) {
	if err := svc.validate.Struct(ss); err != nil {
		return Publisher{}, err
	}
	pub, err := svc.repo.GetPublisher(ctx, id)
	if err != nil {
		return Publisher{}, err
	}
	if pub.Status == ss.Status {
		return pub, nil
	}

	now := nowFunc().UTC()
	if err = svc.repo.UpdatePublisherStatus(ctx, id, ss.Status, now); err != nil {
		return Publisher{}, errors.Wrap(err, "updating publisher status")
	}
	pub.Status = ss.Status
	pub.StatusUpdatedAt = now
	return pub, nil
}
