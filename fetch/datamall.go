// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cast"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

var (
	ErrAccountKeyEmpty = errors.New("datamall account key is required")
	ErrCameraNotListed = errors.New("camera not listed by datamall")
)

const (
	DefaultDataMallURL = "https://datamall2.mytransport.sg/ltaodataservice/Traffic-Imagesv2"

	accountKeyHeader   = "AccountKey"
	defaultLinkTTL     = 4 * time.Minute
	defaultListTimeout = 30 * time.Second
)

// DataMallConfig configures link resolution through the LTA DataMall
// traffic images API.
type DataMallConfig struct {
	// URL of the Traffic-Imagesv2 endpoint.
	// (Optional) Defaults to DefaultDataMallURL.
	URL string

	// AccountKey is the DataMall API key. Usually supplied by LTA_API_KEY.
	AccountKey string

	// LinkTTL is how long a listing is reused. DataMall image links are signed
	// and expire after about five minutes.
	// (Optional) Defaults to 4 minutes.
	LinkTTL time.Duration

	// Timeout bounds the listing request.
	// (Optional) Defaults to 30 seconds.
	Timeout time.Duration
}

type dataMallCamera struct {
	CameraID  interface{} `json:"CameraID"`
	ImageLink string      `json:"ImageLink"`
	Location  string      `json:"Location"`
	Latitude  float64     `json:"Latitude"`
	Longitude float64     `json:"Longitude"`
}

type dataMallResponse struct {
	Value []dataMallCamera `json:"value"`
}

// DataMallResolver resolves links from a cached DataMall listing. A single
// refresh runs at a time. Cameras carrying their own URL bypass the API.
type DataMallResolver struct {
	client     *http.Client
	url        string
	accountKey string
	ttl        time.Duration
	timeout    time.Duration
	getLogger  func(context.Context) *zap.Logger
	now        func() time.Time

	lock    sync.Mutex
	links   map[int]Link
	fetched time.Time
}

func NewDataMallResolver(config DataMallConfig, client *http.Client, getLogger func(context.Context) *zap.Logger) (*DataMallResolver, error) {
	if config.AccountKey == "" {
		return nil, ErrAccountKeyEmpty
	}
	if config.URL == "" {
		config.URL = DefaultDataMallURL
	}
	if config.LinkTTL <= 0 {
		config.LinkTTL = defaultLinkTTL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultListTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	if getLogger == nil {
		getLogger = sallust.Get
	}
	return &DataMallResolver{
		client:     client,
		url:        config.URL,
		accountKey: config.AccountKey,
		ttl:        config.LinkTTL,
		timeout:    config.Timeout,
		getLogger:  getLogger,
		now:        time.Now,
	}, nil
}

func (d *DataMallResolver) Resolve(ctx context.Context, camera model.CameraSpec) (Link, error) {
	if camera.URL != "" {
		return Link{URL: camera.URL}, nil
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.links == nil || d.now().Sub(d.fetched) >= d.ttl {
		links, err := d.list(ctx)
		if err != nil {
			return Link{}, err
		}
		d.links = links
		d.fetched = d.now()
		d.getLogger(ctx).Debug("refreshed datamall camera listing", zap.Int("cameras", len(links)))
	}

	link, ok := d.links[camera.ID]
	if !ok {
		return Link{}, &model.Failure{
			Reason:  model.ReasonEmptyResponse,
			Message: fmt.Sprintf("%v: %d", ErrCameraNotListed, camera.ID),
		}
	}
	return link, nil
}

func (d *DataMallResolver) list(ctx context.Context) (map[int]Link, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, &model.Failure{Reason: model.ReasonNetworkError, Message: err.Error()}
	}
	req.Header.Set(accountKeyHeader, d.accountKey)
	req.Header.Set("accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.Failure{
			Reason:     model.ReasonHTTPError,
			StatusCode: resp.StatusCode,
			Message:    "datamall listing failed",
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, err)
	}

	var payload dataMallResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &model.Failure{Reason: model.ReasonNetworkError, Message: "failed decoding datamall listing: " + err.Error()}
	}

	links := make(map[int]Link, len(payload.Value))
	for _, c := range payload.Value {
		id, err := cast.ToIntE(c.CameraID)
		if err != nil || c.ImageLink == "" {
			d.getLogger(ctx).Debug("skipping datamall entry", zap.Any("cameraID", c.CameraID), zap.Error(err))
			continue
		}
		links[id] = Link{
			URL:       c.ImageLink,
			Location:  c.Location,
			Latitude:  c.Latitude,
			Longitude: c.Longitude,
		}
	}
	return links, nil
}
