package facades

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/nurlanv/cbar-rates/internal/logger"
	"github.com/nurlanv/cbar-rates/internal/models"
)

var (
	// ErrUpstreamUnavailable is returned on transport failures, timeouts and
	// non-2xx responses from the CBAR endpoint.
	ErrUpstreamUnavailable = errors.New("cbar feed unavailable")

	// ErrMalformedFeed is returned when the response body is not a valid
	// ValCurs document.
	ErrMalformedFeed = errors.New("cbar feed malformed")
)

// feedDateLayout is the day.month.year convention CBAR uses in feed URLs.
const feedDateLayout = "02.01.2006"

// valCurs mirrors the CBAR document: a dated root with one or more value-type
// groups, each holding currency entries in document order.
type valCurs struct {
	XMLName  xml.Name  `xml:"ValCurs"`
	Date     string    `xml:"Date,attr"`
	ValTypes []valType `xml:"ValType"`
}

type valType struct {
	Type    string   `xml:"Type,attr"`
	Valutes []valute `xml:"Valute"`
}

type valute struct {
	Code    string `xml:"Code,attr"`
	Nominal string `xml:"Nominal"`
	Name    string `xml:"Name"`
	Value   string `xml:"Value"`
}

// CbarFacade fetches daily exchange-rate documents from the CBAR XML feed.
type CbarFacade struct {
	client  *http.Client
	baseURL string
}

// NewCbarFacade creates a facade with a bounded request timeout.
func NewCbarFacade(baseURL string, timeout time.Duration) *CbarFacade {
	return &CbarFacade{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// GetCurrencies downloads and parses the feed for the given date. Entries are
// returned in document order. An empty document yields an empty slice; callers
// must not assume any particular currency ordering across documents.
func (f *CbarFacade) GetCurrencies(ctx context.Context, date time.Time) ([]models.RawFeedEntry, error) {
	url := fmt.Sprintf("%s/%s.xml", f.baseURL, date.Format(feedDateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/xml;charset=UTF-8")
	req.Header.Set("Accept-Charset", "UTF-8")

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Log.Errorw("cbar request failed", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Log.Errorw("cbar returned non-2xx", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	decoder := xml.NewDecoder(resp.Body)
	decoder.CharsetReader = charset.NewReaderLabel

	var doc valCurs
	if err := decoder.Decode(&doc); err != nil {
		logger.Log.Errorw("cbar document decode failed", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	var entries []models.RawFeedEntry
	for _, vt := range doc.ValTypes {
		for _, v := range vt.Valutes {
			entries = append(entries, models.RawFeedEntry{
				Code:    v.Code,
				Name:    v.Name,
				Nominal: v.Nominal,
				Value:   v.Value,
			})
		}
	}

	logger.Log.Infow("cbar feed fetched",
		"url", url,
		"val_types", len(doc.ValTypes),
		"entries", len(entries),
	)

	return entries, nil
}
