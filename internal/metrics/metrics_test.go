package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pdfwala/pdfops"
)

func TestKindLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{pdfops.Errorf("Op", pdfops.ErrValidation, "x"), "validation"},
		{pdfops.Errorf("Op", pdfops.ErrResourceLimit, "x"), "resource_limit"},
		{pdfops.NewError("Parse", pdfops.ErrCorruptDocument, pdfops.ErrEncrypted), "corrupt"},
		{errors.New("unclassified"), "internal"},
	}
	for _, tt := range tests {
		if got := KindLabel(tt.err); got != tt.want {
			t.Errorf("KindLabel(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestJobObserver(t *testing.T) {
	counter := Jobs.WithLabelValues("Test", "validation")
	before := testutil.ToFloat64(counter)

	JobObserver{}.ObserveJob("Test", time.Millisecond, pdfops.Errorf("Test", pdfops.ErrValidation, "x"))

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}
}
