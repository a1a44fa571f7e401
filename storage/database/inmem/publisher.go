package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/ministry/core/publisher"
)

type publisherRepository struct {
	db *publisherTable
}

func NewPublisherRepository(db *DB) publisher.Repository {
	return &publisherRepository{db: db.publisher}
}

func (repo *publisherRepository) CreatePublisher(_ context.Context, pub publisher.Publisher) (publisher.Publisher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[pub.ID] = &pub
	return pub, nil
}

func (repo *publisherRepository) GetPublisher(_ context.Context, id string) (publisher.Publisher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if pub, ok := repo.db.table[id]; ok {
		return *pub, nil
	}
	return publisher.Publisher{}, publisher.ErrNotFound
}

func (repo *publisherRepository) QueryPublishers(context.Context) ([]publisher.Publisher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	pubs := make([]publisher.Publisher, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		pubs = append(pubs, *p)
	}
	sort.Slice(pubs, func(i, j int) bool {
		if pubs[i].Name != pubs[j].Name {
			return pubs[i].Name < pubs[j].Name
		}
		return pubs[i].ID < pubs[j].ID
	})
	return pubs, nil
}

func (repo *publisherRepository) UpdatePublisher(_ context.Context, pub publisher.Publisher) (publisher.Publisher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// status fields are only written by UpdatePublisherStatus
	orig, ok := repo.db.table[pub.ID]
	if !ok {
		return publisher.Publisher{}, publisher.ErrNotFound
	}
	pub.Status = orig.Status
	pub.StatusUpdatedAt = orig.StatusUpdatedAt
	pub.CreatedAt = orig.CreatedAt

	repo.db.table[pub.ID] = &pub
	return pub, nil
}

func (repo *publisherRepository) UpdatePublisherStatus(_ context.Context, id string, status publisher.Status, updatedAt time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	pub, ok := repo.db.table[id]
	if !ok {
		return publisher.ErrNotFound
	}
	pub.Status = status
	pub.StatusUpdatedAt = updatedAt
	return nil
}
