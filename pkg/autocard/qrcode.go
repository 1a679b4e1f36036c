package autocard

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

type QRValueSource string

const (
	QRSourceStudentCode     QRValueSource = "student_code"
	QRSourceAdmissionNumber QRValueSource = "admission_number"
	QRSourceCardNumber      QRValueSource = "card_number"
	QRSourceRollNumber      QRValueSource = "roll_number"
	QRSourceID              QRValueSource = "id"
)

func ParseQRValueSource(s string) (QRValueSource, error) {
	switch src := QRValueSource(s); src {
	case QRSourceStudentCode, QRSourceAdmissionNumber, QRSourceCardNumber, QRSourceRollNumber, QRSourceID:
		return src, nil
	case "":
		return QRSourceStudentCode, nil
	default:
		return "", fmt.Errorf("invalid qr value source %q", s)
	}
}

// ResolveQRValue tries the selected source, then the student code, then the id.
func ResolveQRValue(subject Subject, source QRValueSource) string {
	for _, s := range []QRValueSource{source, QRSourceStudentCode, QRSourceID} {
		if v := strings.TrimSpace(subject.QRValue(s)); v != "" {
			return v
		}
	}
	return ""
}

type QRProvider interface {
	QRCode(ctx context.Context, value string, size int) (image.Image, error)
}

const DefaultQRServiceURL = "https://api.qrserver.com/v1/create-qr-code/"

// RemoteQRProvider delegates encoding to the external QR image service.
type RemoteQRProvider struct {
	ServiceURL string
	Fetcher    AssetFetcher
}

func NewRemoteQRProvider(serviceURL string, fetcher AssetFetcher) *RemoteQRProvider {
	if serviceURL == "" {
		serviceURL = DefaultQRServiceURL
	}
	return &RemoteQRProvider{ServiceURL: serviceURL, Fetcher: fetcher}
}

// Example output: https://api.qrserver.com/v1/create-qr-code/?size=150x150&data=STU-1
func (p *RemoteQRProvider) URL(value string, size int) string {
	return fmt.Sprintf("%s?size=%dx%d&data=%s", p.ServiceURL, size, size, url.QueryEscape(value))
}

func (p *RemoteQRProvider) QRCode(ctx context.Context, value string, size int) (image.Image, error) {
	if p.Fetcher == nil {
		return nil, fmt.Errorf("qr provider has no fetcher")
	}
	// The service is public, the bearer token of the caller is not forwarded
	img, err := p.Fetcher.Fetch(WithBearerToken(ctx, ""), p.URL(value, size))
	if err != nil {
		return nil, fmt.Errorf("fetching qr code: %w", err)
	}
	return img, nil
}

// LocalQRProvider encodes in process, used offline and by batch jobs.
type LocalQRProvider struct {
	Level qrcode.RecoveryLevel
}

func NewLocalQRProvider() *LocalQRProvider {
	return &LocalQRProvider{Level: qrcode.Medium}
}

func (p *LocalQRProvider) QRCode(ctx context.Context, value string, size int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := qrcode.New(value, p.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return q.Image(size), nil
}
