// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/causeway/model"
)

const listing = `{
	"odata.metadata": "http://datamall2.mytransport.sg/ltaodataservice/$metadata#TrafficImagesv2",
	"value": [
		{"CameraID": "4703", "Latitude": 1.3484, "Longitude": 103.6362, "ImageLink": "https://images.example/4703.jpg?sig=a"},
		{"CameraID": "2701", "Latitude": 1.4476, "Longitude": 103.7703, "ImageLink": "https://images.example/2701.jpg?sig=b"},
		{"CameraID": 4713, "Latitude": 1.3412, "Longitude": 103.6365, "ImageLink": "https://images.example/4713.jpg?sig=c"},
		{"CameraID": "bogus", "ImageLink": "https://images.example/bogus.jpg"},
		{"CameraID": "4714", "ImageLink": ""}
	]
}`

func newDataMallServer(t *testing.T, status int) (*httptest.Server, *int32) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "secret", r.Header.Get("AccountKey"))
		assert.Equal(t, "application/json", r.Header.Get("accept"))
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(listing))
	}))
	return server, &hits
}

func TestDataMallResolve(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	server, hits := newDataMallServer(t, http.StatusOK)
	defer server.Close()

	r, err := NewDataMallResolver(DataMallConfig{URL: server.URL, AccountKey: "secret"}, nil, nil)
	require.NoError(err)
	now := time.Date(2026, 1, 23, 5, 30, 0, 0, model.Singapore)
	r.now = func() time.Time { return now }

	l, err := r.Resolve(context.Background(), testCamera)
	require.NoError(err)
	assert.Equal("https://images.example/4703.jpg?sig=a", l.URL)
	assert.InDelta(1.3484, l.Latitude, 1e-9)

	l, err = r.Resolve(context.Background(), model.CameraSpec{ID: 4713})
	require.NoError(err)
	assert.Equal("https://images.example/4713.jpg?sig=c", l.URL)
	assert.EqualValues(1, atomic.LoadInt32(hits))

	// entries without a link are not usable
	_, err = r.Resolve(context.Background(), model.CameraSpec{ID: 4714})
	var f *model.Failure
	require.True(errors.As(err, &f))
	assert.Equal(model.ReasonEmptyResponse, f.Reason)

	now = now.Add(defaultLinkTTL)
	_, err = r.Resolve(context.Background(), testCamera)
	assert.NoError(err)
	assert.EqualValues(2, atomic.LoadInt32(hits))

	// pinned cameras never hit the api
	l, err = r.Resolve(context.Background(), model.CameraSpec{ID: 1, URL: "http://pinned.example/1.jpg"})
	assert.NoError(err)
	assert.Equal("http://pinned.example/1.jpg", l.URL)
	assert.EqualValues(2, atomic.LoadInt32(hits))
}

func TestDataMallConcurrentRefresh(t *testing.T) {
	assert := assert.New(t)
	server, hits := newDataMallServer(t, http.StatusOK)
	defer server.Close()

	r, err := NewDataMallResolver(DataMallConfig{URL: server.URL, AccountKey: "secret"}, nil, nil)
	assert.NoError(err)

	var wg sync.WaitGroup
	for _, id := range []int{4703, 2701, 4713, 4703, 2701} {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), model.CameraSpec{ID: id})
			assert.NoError(err)
		}(id)
	}
	wg.Wait()
	assert.EqualValues(1, atomic.LoadInt32(hits))
}

func TestDataMallFailure(t *testing.T) {
	assert := assert.New(t)
	server, _ := newDataMallServer(t, http.StatusUnauthorized)
	defer server.Close()

	r, err := NewDataMallResolver(DataMallConfig{URL: server.URL, AccountKey: "secret"}, nil, nil)
	assert.NoError(err)

	_, err = r.Resolve(context.Background(), testCamera)
	var f *model.Failure
	if assert.True(errors.As(err, &f)) {
		assert.Equal(model.ReasonHTTPError, f.Reason)
		assert.Equal(http.StatusUnauthorized, f.StatusCode)
	}
	assert.Nil(r.links)
}

func TestDataMallThroughFetcher(t *testing.T) {
	assert := assert.New(t)
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpegBytes)
	}))
	defer images.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[{"CameraID":"4703","Location":"Woodlands Causeway","Latitude":1.5,"Longitude":103.5,"ImageLink":"` + images.URL + `/4703.jpg"}]}`))
	}))
	defer api.Close()

	r, err := NewDataMallResolver(DataMallConfig{URL: api.URL, AccountKey: "secret"}, nil, nil)
	assert.NoError(err)
	f, err := New(Config{RequestsPerSecond: -1}, nil, r, newTestMeasures(), nil)
	assert.NoError(err)

	attempt := f.Fetch(context.Background(), testCamera)
	assert.True(attempt.Succeeded())
	assert.Equal(images.URL+"/4703.jpg", attempt.Source)
	assert.Equal("Woodlands Causeway", attempt.Location)
	assert.InDelta(1.5, attempt.Latitude, 1e-9)
}

func TestNewDataMallResolver(t *testing.T) {
	assert := assert.New(t)
	_, err := NewDataMallResolver(DataMallConfig{}, nil, nil)
	assert.ErrorIs(err, ErrAccountKeyEmpty)

	r, err := NewDataMallResolver(DataMallConfig{AccountKey: "k"}, nil, nil)
	assert.NoError(err)
	assert.Equal(DefaultDataMallURL, r.url)
	assert.Equal(defaultLinkTTL, r.ttl)
}
