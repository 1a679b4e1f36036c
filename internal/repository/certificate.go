package repository

import (
	"context"
	"net/http"
	"net/url"

	"github.com/SeakMengs/AutoCard/pkg/autocard"
)

type CertificateRepository struct {
	*baseRepository
}

func (cr CertificateRepository) GetById(ctx context.Context, id string) (*autocard.CertificateData, error) {
	var env envelope[autocard.CertificateData]
	if err := cr.do(ctx, http.MethodGet, "/api/certificates/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, err
	}

	c := env.Data
	if c.Picture == "" && c.StudentID != "" {
		c.Picture = autocard.PictureURL(cr.baseURL, autocard.StudentKindStudent, c.StudentID)
	}
	return &c, nil
}
