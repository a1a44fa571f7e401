package publisher

import (
	"fmt"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/calendar"
)

var (
	idKeys               = []string{"_id", "id"}
	nameKeys             = []string{"name", "nome"}
	congregationDateKeys = []string{"congregationDate", "congregation_date", "dataCongregacao", "data_congregacao"}
	baptismDateKeys      = []string{"baptismDate", "baptism_date", "dataBatismo", "data_batismo"}
	statusKeys           = []string{"status", "situacao"}
	tierKeys             = []string{"pioneerTier", "pioneer_tier"}
	statusUpdatedAtKeys  = []string{"statusUpdatedAt", "status_updated_at"}
	createdAtKeys        = []string{"createdAt", "created_at"}
	updatedAtKeys        = []string{"updatedAt", "updated_at"}
)

// Normalize converts a stored publisher document into a Publisher.
// Malformed dates are left zero (see StartDate); unknown statuses are kept as is, lowercased.
func Normalize(doc map[string]interface{}) Publisher {
	pub := Publisher{
		ID:          toString(lookup(doc, idKeys)),
		Name:        core.CleanString(toString(lookup(doc, nameKeys))),
		PioneerTier: PioneerTier(core.FoldString(toString(lookup(doc, tierKeys)))),
	}
	pub.CongregationDate, _ = calendar.ParseDate(lookup(doc, congregationDateKeys))
	pub.BaptismDate, _ = calendar.ParseDate(lookup(doc, baptismDateKeys))
	pub.StatusUpdatedAt, _ = calendar.ParseDate(lookup(doc, statusUpdatedAtKeys))
	pub.CreatedAt, _ = calendar.ParseDate(lookup(doc, createdAtKeys))
	pub.UpdatedAt, _ = calendar.ParseDate(lookup(doc, updatedAtKeys))

	raw := toString(lookup(doc, statusKeys))
	if st, ok := ParseStatus(raw); ok {
		pub.Status = st
	} else {
		pub.Status = Status(core.FoldString(raw))
	}
	return pub
}

// Document is the canonical stored form of a publisher.
func Document(pub Publisher) map[string]interface{} {
	return map[string]interface{}{
		"_id":              pub.ID,
		"name":             pub.Name,
		"congregationDate": pub.CongregationDate,
		"baptismDate":      pub.BaptismDate,
		"status":           string(pub.Status),
		"pioneerTier":      string(pub.PioneerTier),
		"statusUpdatedAt":  pub.StatusUpdatedAt,
		"createdAt":        pub.CreatedAt,
		"updatedAt":        pub.UpdatedAt,
	}
}

func lookup(doc map[string]interface{}, keys []string) interface{} {
	for _, k := range keys {
		if v, ok := doc[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}
