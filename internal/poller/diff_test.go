package poller

import (
	"database/sql"
	"testing"

	"github.com/jpalmerr/storewatch/internal/store"
	"github.com/jpalmerr/storewatch/internal/ubereats"
)

func TestEvaluate(t *testing.T) {
	base := store.Record{ID: "s1", Title: "Joe's Pizza", Image: "img", Status: open("OPEN")}

	tests := []struct {
		name   string
		prev   store.Record
		detail ubereats.StoreDetail
		want   Outcome
	}{
		{
			name:   "identical",
			prev:   base,
			detail: ubereats.StoreDetail{Title: "Joe's Pizza", Image: "img", State: "OPEN"},
			want:   OutcomeUnchanged,
		},
		{
			name:   "status changed",
			prev:   base,
			detail: ubereats.StoreDetail{Title: "Joe's Pizza", Image: "img", State: "CLOSED"},
			want:   OutcomeNotified,
		},
		{
			name:   "title changed",
			prev:   base,
			detail: ubereats.StoreDetail{Title: "Joe's", Image: "img", State: "OPEN"},
			want:   OutcomeUpdated,
		},
		{
			name:   "image changed",
			prev:   base,
			detail: ubereats.StoreDetail{Title: "Joe's Pizza", Image: "", State: "OPEN"},
			want:   OutcomeUpdated,
		},
		{
			name:   "title and status changed",
			prev:   base,
			detail: ubereats.StoreDetail{Title: "Joe's", Image: "img", State: "CLOSED"},
			want:   OutcomeNotified,
		},
		{
			name:   "null status never equals observed",
			prev:   store.Record{ID: "s1", Title: "Joe's Pizza", Image: "img"},
			detail: ubereats.StoreDetail{Title: "Joe's Pizza", Image: "img", State: "OPEN"},
			want:   OutcomeNotified,
		},
		{
			name:   "null status and empty observed state",
			prev:   store.Record{ID: "s1", Title: "Joe's Pizza", Image: "img"},
			detail: ubereats.StoreDetail{Title: "Joe's Pizza", Image: "img", State: ""},
			want:   OutcomeNotified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, got := Evaluate(tt.prev, tt.detail)
			if got != tt.want {
				t.Errorf("Evaluate() outcome = %v, want %v", got, tt.want)
			}
			if next.ID != tt.prev.ID {
				t.Errorf("candidate ID = %q, want %q", next.ID, tt.prev.ID)
			}
			if next.Status != (sql.NullString{String: tt.detail.State, Valid: true}) {
				t.Errorf("candidate status = %v, want %q", next.Status, tt.detail.State)
			}
		})
	}
}

func TestOutcome_String(t *testing.T) {
	tests := map[Outcome]string{
		OutcomeUnchanged:   "unchanged",
		OutcomeUpdated:     "updated",
		OutcomeNotified:    "notified",
		OutcomeFetchFailed: "fetch_failed",
		OutcomeFailed:      "failed",
		Outcome(99):        "unknown",
	}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(o), got, want)
		}
	}
}
