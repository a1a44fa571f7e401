package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/calendar"
)

// Field aliases found in stored report documents, canonical name first.
var (
	idKeys           = []string{"_id", "id"}
	publisherIDKeys  = []string{"publisherId", "publisher_id", "publicadorId", "publicador_id"}
	monthKeys        = []string{"referenceMonth", "reference_month", "month", "mesReferencia", "mes_referencia"}
	yearKeys         = []string{"year", "ano"}
	participatedKeys = []string{"participated", "participou"}
	hoursKeys        = []string{"hours", "horas"}
	bonusHoursKeys   = []string{"bonusHours", "bonus_hours", "creditHours", "credit_hours", "horasCredito"}
	studiesKeys      = []string{"bibleStudies", "bible_studies", "studies", "estudos", "estudosBiblicos"}
	serviceTypeKeys  = []string{"serviceType", "service_type", "tipo", "tipoServico"}
	auxiliaryKeys    = []string{"auxiliary", "isAuxiliary", "is_auxiliary", "pioneiroAuxiliar"}
	noteKeys         = []string{"note", "notes", "observacao", "observacoes"}
	createdAtKeys    = []string{"createdAt", "created_at"}
	updatedAtKeys    = []string{"updatedAt", "updated_at"}
)

// Normalize converts a stored report document into the canonical ActivityReport.
// It is the one place legacy field names are resolved; malformed numbers become zero.
func Normalize(doc map[string]interface{}) ActivityReport {
	r := ActivityReport{
		ID:           toString(lookup(doc, idKeys)),
		PublisherID:  toString(lookup(doc, publisherIDKeys)),
		Month:        toMonth(doc),
		Participated: toBool(lookup(doc, participatedKeys)),
		Hours:        nonNegative(toFloat(lookup(doc, hoursKeys))),
		BonusHours:   nonNegative(toFloat(lookup(doc, bonusHoursKeys))),
		BibleStudies: int(nonNegative(math.Trunc(toFloat(lookup(doc, studiesKeys))))),
		ServiceType:  ParseServiceType(toString(lookup(doc, serviceTypeKeys))),
		Auxiliary:    toBool(lookup(doc, auxiliaryKeys)),
		Note:         core.CleanString(toString(lookup(doc, noteKeys))),
	}
	r.CreatedAt, _ = calendar.ParseDate(lookup(doc, createdAtKeys))
	r.UpdatedAt, _ = calendar.ParseDate(lookup(doc, updatedAtKeys))

	// documents keyed "YYYY-MM_publisherId" without the fields themselves
	if (r.PublisherID == "" || r.Month.IsZero()) && r.ID != "" {
		if i := strings.Index(r.ID, "_"); i > 0 {
			if m, err := calendar.ParseMonth(r.ID[:i]); err == nil {
				if r.Month.IsZero() {
					r.Month = m
				}
				if r.PublisherID == "" {
					r.PublisherID = r.ID[i+1:]
				}
			}
		}
	}
	if r.ID == "" && r.PublisherID != "" && !r.Month.IsZero() {
		r.ID = r.Key()
	}
	return r
}

// Document is the canonical stored form of a report, the inverse of Normalize.
func Document(r ActivityReport) map[string]interface{} {
	return map[string]interface{}{
		"_id":            r.ID,
		"publisherId":    r.PublisherID,
		"referenceMonth": r.Month.String(),
		"participated":   r.Participated,
		"hours":          r.Hours,
		"bonusHours":     r.BonusHours,
		"bibleStudies":   r.BibleStudies,
		"serviceType":    string(r.ServiceType),
		"auxiliary":      r.Auxiliary,
		"note":           r.Note,
		"createdAt":      r.CreatedAt,
		"updatedAt":      r.UpdatedAt,
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

func toMonth(doc map[string]interface{}) calendar.Month {
	switch v := lookup(doc, monthKeys).(type) {
	case string:
		if m, err := calendar.ParseMonth(v); err == nil {
			return m
		}
	case time.Time:
		return calendar.MonthOf(v.UTC())
	case nil:
		return calendar.Month{}
	default:
		// separate numeric year & month fields
		month := int(toFloat(v))
		year := int(toFloat(lookup(doc, yearKeys)))
		if month >= 1 && month <= 12 && year > 0 {
			return calendar.NewMonth(year, time.Month(month))
		}
	}
	return calendar.Month{}
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

func toFloat(v interface{}) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		f, _ = n.Float64()
	case string:
		s := strings.Replace(strings.TrimSpace(n), ",", ".", 1)
		f, _ = strconv.ParseFloat(s, 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func toBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch core.FoldString(b) {
		case "true", "1", "yes", "sim", "s", "y":
			return true
		}
		return false
	case nil:
		return false
	}
	return toFloat(v) != 0
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

// PublisherIDFields lists the field names a stored document may carry its publisher id in.
func PublisherIDFields() []string { return append([]string(nil), publisherIDKeys...) }

// MonthFields lists the field names a stored document may carry its reference month in.
func MonthFields() []string { return append([]string(nil), monthKeys...) }
