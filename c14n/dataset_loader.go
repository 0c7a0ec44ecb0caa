// Copyright 2015-2017 Piprate Limited
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package c14n

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/pquerna/cachecontrol"
)

// An HTTP Accept header that prefers N-Quads.
const acceptHeader = "application/n-quads, text/plain;q=0.5, */*;q=0.1"

// ApplicationNQuadsType is the media type of N-Quads documents.
const ApplicationNQuadsType = "application/n-quads"

// RemoteDataset is a dataset retrieved from a remote source.
type RemoteDataset struct {
	DocumentURL string
	Dataset     *RDFDataset
}

// DatasetLoader knows how to load remote N-Quads datasets.
type DatasetLoader interface {
	LoadDataset(u string) (*RemoteDataset, error)
}

// DefaultDatasetLoader is a standard implementation of DatasetLoader
// which can retrieve documents via HTTP, or from local files for
// non-HTTP URLs.
type DefaultDatasetLoader struct {
	httpClient *http.Client
}

// NewDefaultDatasetLoader creates a new instance of DefaultDatasetLoader.
func NewDefaultDatasetLoader(httpClient *http.Client) *DefaultDatasetLoader {
	rval := &DefaultDatasetLoader{httpClient: httpClient}

	if rval.httpClient == nil {
		rval.httpClient = http.DefaultClient
	}
	return rval
}

// LoadDataset returns a RemoteDataset containing the contents of the
// N-Quads resource from the given URL.
func (dl *DefaultDatasetLoader) LoadDataset(u string) (*RemoteDataset, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, NewC14nError(LoadingDatasetFailed, fmt.Sprintf("error parsing URL: %s", u))
	}

	remoteDoc := &RemoteDataset{}

	protocol := parsedURL.Scheme
	if protocol != "http" && protocol != "https" {
		// Can't use the HTTP client for those!
		remoteDoc.DocumentURL = u
		var file *os.File
		file, err = os.Open(u)
		if err != nil {
			return nil, NewC14nError(LoadingDatasetFailed, err)
		}
		defer file.Close()

		remoteDoc.Dataset, err = ParseNQuadsFrom(file)
		if err != nil {
			return nil, NewC14nError(LoadingDatasetFailed, err)
		}
	} else {
		req, err := http.NewRequest("GET", u, http.NoBody)
		if err != nil {
			return nil, NewC14nError(LoadingDatasetFailed, err)
		}
		req.Header.Add("Accept", acceptHeader)

		res, err := dl.httpClient.Do(req)
		if err != nil {
			return nil, NewC14nError(LoadingDatasetFailed, err)
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return nil, NewC14nError(LoadingDatasetFailed,
				fmt.Sprintf("Bad response status code: %d", res.StatusCode))
		}

		remoteDoc.DocumentURL = res.Request.URL.String()

		remoteDoc.Dataset, err = ParseNQuadsFrom(res.Body)
		if err != nil {
			return nil, NewC14nError(LoadingDatasetFailed, err)
		}
	}
	return remoteDoc, nil
}

// CachingDatasetLoader is an overlay on top of a DatasetLoader instance
// which allows caching datasets as soon as they get retrieved from the
// underlying loader. You may also preload it with datasets - this is
// useful for testing.
type CachingDatasetLoader struct {
	nextLoader DatasetLoader
	cache      map[string]*RemoteDataset
}

// NewCachingDatasetLoader creates a new instance of CachingDatasetLoader.
func NewCachingDatasetLoader(nextLoader DatasetLoader) *CachingDatasetLoader {
	return &CachingDatasetLoader{
		nextLoader: nextLoader,
		cache:      make(map[string]*RemoteDataset),
	}
}

// LoadDataset returns a RemoteDataset containing the contents of the
// N-Quads resource from the given URL, served from the cache when possible.
func (cdl *CachingDatasetLoader) LoadDataset(u string) (*RemoteDataset, error) {
	if doc, cached := cdl.cache[u]; cached {
		return doc, nil
	}

	doc, err := cdl.nextLoader.LoadDataset(u)
	if err != nil {
		return nil, err
	}
	cdl.cache[u] = doc
	return doc, nil
}

// AddDataset populates the cache with the given dataset (ds) for the provided URL (u).
func (cdl *CachingDatasetLoader) AddDataset(u string, ds *RDFDataset) {
	cdl.cache[u] = &RemoteDataset{DocumentURL: u, Dataset: ds}
}

// PreloadWithMapping populates the cache with a number of datasets which may be loaded
// from a location different from the original URL (most importantly, from local files).
//
// Example:
//
//	l.PreloadWithMapping(map[string]string{
//	    "http://www.example.com/dataset.nq": "/home/me/cache/example_com_dataset.nq",
//	})
func (cdl *CachingDatasetLoader) PreloadWithMapping(urlMap map[string]string) error {
	for srcURL, mappedURL := range urlMap {
		doc, err := cdl.nextLoader.LoadDataset(mappedURL)
		if err != nil {
			return err
		}
		cdl.cache[srcURL] = doc
	}
	return nil
}

type cachedRemoteDataset struct {
	remoteDataset *RemoteDataset
	expireTime    time.Time
	neverExpires  bool
}

// RFC7324CachingDatasetLoader respects RFC7324 caching headers in order
// to cache effectively.
type RFC7324CachingDatasetLoader struct {
	httpClient *http.Client
	cache      map[string]*cachedRemoteDataset
}

// NewRFC7324CachingDatasetLoader creates a new RFC7324CachingDatasetLoader.
func NewRFC7324CachingDatasetLoader(httpClient *http.Client) *RFC7324CachingDatasetLoader {
	rval := &RFC7324CachingDatasetLoader{
		httpClient: httpClient,
		cache:      make(map[string]*cachedRemoteDataset),
	}

	if httpClient == nil {
		rval.httpClient = http.DefaultClient
	}

	return rval
}

// LoadDataset returns a RemoteDataset containing the contents of the
// N-Quads resource from the given URL. Responses are cached for as long
// as their caching headers allow; local files never expire.
func (rcdl *RFC7324CachingDatasetLoader) LoadDataset(u string) (*RemoteDataset, error) {
	entry, ok := rcdl.cache[u]
	now := time.Now()

	if ok && (entry.neverExpires || entry.expireTime.After(now)) {
		return entry.remoteDataset, nil
	}

	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, NewC14nError(LoadingDatasetFailed, fmt.Sprintf("error parsing URL: %s", u))
	}

	remoteDoc := &RemoteDataset{}

	// neverExpires, shouldCache, and expireTime describe the cache entry
	// created at the end of this method.
	neverExpires := false
	shouldCache := false
	expireTime := time.Now()

	protocol := parsedURL.Scheme
	if protocol != "http" && protocol != "https" {
		// Can't use the HTTP client for those!
		remoteDoc.DocumentURL = u
		var file *os.File
		file, err = os.Open(u)
		if err != nil {
			return nil, NewC14nError(LoadingDatasetFailed, err)
		}
		defer file.Close()
		remoteDoc.Dataset, err = ParseNQuadsFrom(file)
		if err != nil {
			return nil, NewC14nError(LoadingDatasetFailed, err)
		}
		neverExpires = true
		shouldCache = true
	} else {
		req, err := http.NewRequest("GET", u, http.NoBody)
		if err != nil {
			return nil, NewC14nError(LoadingDatasetFailed, err)
		}
		req.Header.Add("Accept", acceptHeader)

		res, err := rcdl.httpClient.Do(req)
		if err != nil {
			return nil, NewC14nError(LoadingDatasetFailed, err)
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return nil, NewC14nError(LoadingDatasetFailed,
				fmt.Sprintf("Bad response status code: %d", res.StatusCode))
		}

		remoteDoc.DocumentURL = res.Request.URL.String()

		reasons, resExpireTime, err := cachecontrol.CachableResponse(req, res, cachecontrol.Options{})
		// Cache when the caching headers allow it
		if err == nil && len(reasons) == 0 {
			shouldCache = true
			expireTime = resExpireTime
		}

		remoteDoc.Dataset, err = ParseNQuadsFrom(res.Body)
		if err != nil {
			return nil, NewC14nError(LoadingDatasetFailed, err)
		}
	}

	if shouldCache {
		rcdl.cache[u] = &cachedRemoteDataset{
			remoteDataset: remoteDoc,
			expireTime:    expireTime,
			neverExpires:  neverExpires,
		}
	}

	return remoteDoc, nil
}
