package publisher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cong := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		doc  map[string]interface{}
		want Publisher
	}{
		{
			name: "canonical",
			doc:  Document(Publisher{ID: "p1", Name: "Ana", CongregationDate: cong, Status: StatusIrregular, PioneerTier: TierRegular}),
			want: Publisher{ID: "p1", Name: "Ana", CongregationDate: cong, Status: StatusIrregular, PioneerTier: TierRegular},
		},
		{
			name: "legacy fields",
			doc:  map[string]interface{}{"id": "p2", "nome": " Bruno ", "dataCongregacao": "01/01/2024", "situacao": "Removido"},
			want: Publisher{ID: "p2", Name: "Bruno", CongregationDate: cong, Status: StatusRemoved},
		},
		{
			name: "malformed date & unknown status",
			doc:  map[string]interface{}{"_id": "p3", "congregationDate": "someday", "status": "Pausado"},
			want: Publisher{ID: "p3", Status: Status("pausado")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.doc))
		})
	}
}
