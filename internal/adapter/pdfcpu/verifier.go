// Package pdfcpu checks serialized documents with pdfcpu, an independent
// PDF reader.
package pdfcpu

import (
	"bytes"
	"context"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"

	"github.com/pdfwala/pdfops/pipeline"
)

type Verifier struct {
	conf *model.Configuration
}

func NewVerifier() *Verifier {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Verifier{conf: conf}
}

// Verify validates data and makes sure pdfcpu can count its pages.
func (v *Verifier) Verify(ctx context.Context, data []byte) error {
	if err := api.Validate(bytes.NewReader(data), v.conf); err != nil {
		return errors.Wrap(err, "pdfcpu rejected the document")
	}
	if _, err := api.PageCount(bytes.NewReader(data), v.conf); err != nil {
		return errors.Wrap(err, "pdfcpu could not count pages")
	}
	return nil
}

// PageCount returns the number of pages pdfcpu reads from data.
func (v *Verifier) PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), v.conf)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return n, nil
}

var _ pipeline.Verifier = &Verifier{}
