package publisher

import (
	"time"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/calendar"
)

// Status is the publisher's standing in the congregation.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusIrregular Status = "irregular"
	StatusRemoved   Status = "removed"
	StatusExcluded  Status = "excluded"
	StatusMoved     Status = "moved"
)

var (
	AllStatuses = []Status{StatusActive, StatusInactive, StatusIrregular, StatusRemoved, StatusExcluded, StatusMoved}

	statusAliases = map[string]Status{
		"active":    StatusActive,
		"ativo":     StatusActive,
		"inactive":  StatusInactive,
		"inativo":   StatusInactive,
		"irregular": StatusIrregular,
		"removed":   StatusRemoved,
		"removido":  StatusRemoved,
		"excluded":  StatusExcluded,
		"excluido":  StatusExcluded,
		"moved":     StatusMoved,
		"mudou":     StatusMoved,
		"mudou-se":  StatusMoved,
	}
)

// ParseStatus maps canonical & legacy labels to a Status. ok is false for unknown labels.
func ParseStatus(s string) (Status, bool) {
	st, ok := statusAliases[core.FoldString(s)]
	return st, ok
}

// IsProtected reports whether the status is a terminal state that status inference never overwrites.
func (s Status) IsProtected() bool {
	switch s {
	case StatusRemoved, StatusExcluded, StatusMoved:
		return true
	}
	return false
}

// IsPotentialReporter reports whether a publisher with this status is expected to report monthly.
func (s Status) IsPotentialReporter() bool {
	return s == StatusActive || s == StatusIrregular
}

// PioneerTier is the declared long-term pioneer commitment of a publisher.
type PioneerTier string

const (
	TierNone       PioneerTier = ""
	TierAuxiliary  PioneerTier = "auxiliary"
	TierRegular    PioneerTier = "regular"
	TierSpecial    PioneerTier = "special"
	TierMissionary PioneerTier = "missionary"
)

var AllTiers = []PioneerTier{TierNone, TierAuxiliary, TierRegular, TierSpecial, TierMissionary}

type Publisher struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	CongregationDate time.Time   `json:"congregation_date"` // UTC
	BaptismDate      time.Time   `json:"baptism_date"`      // UTC
	Status           Status      `json:"status"`
	PioneerTier      PioneerTier `json:"pioneer_tier"`
	StatusUpdatedAt  time.Time   `json:"status_updated_at"` // UTC
	CreatedAt        time.Time   `json:"created_at"`        // UTC
	UpdatedAt        time.Time   `json:"updated_at"`        // UTC
}

// StartDate is the congregation date, or the baptism date when unknown.
// Publishers with neither are considered to have started a long time ago.
func (p Publisher) StartDate() time.Time {
	if !p.CongregationDate.IsZero() {
		return p.CongregationDate
	}
	return calendar.DateOrVeryOld(p.BaptismDate)
}

// NewPublisher contains information needed to register a Publisher.
type NewPublisher struct {
	Name             string      `json:"name" validate:"required"`
	CongregationDate time.Time   `json:"congregation_date"`
	BaptismDate      time.Time   `json:"baptism_date"`
	Status           Status      `json:"status" validate:"omitempty,pubstatus"`
	PioneerTier      PioneerTier `json:"pioneer_tier" validate:"omitempty,pioneertier"`
}

func (np *NewPublisher) Clean() {
	np.Name = core.CleanString(np.Name)
	if np.Status == "" {
		np.Status = StatusActive
	}
}

// UpdatePublisher defines what information may be provided to modify an existing Publisher.
// Zero values keep the original data.
type UpdatePublisher struct {
	Name             string       `json:"name"`
	CongregationDate time.Time    `json:"congregation_date"`
	BaptismDate      time.Time    `json:"baptism_date"`
	PioneerTier      *PioneerTier `json:"pioneer_tier" validate:"omitempty,pioneertier"`
}

// SetStatus is an operator's manual status change.
type SetStatus struct {
	Status Status `json:"status" validate:"required,pubstatus"`
}
