package downloader

import (
	"context"
	"fmt"
	"sync"
)

// Serves canned responses from memory, and records what was
// requested. Handy for tests and offline runs.
type MemoryDownloader struct {
	mutex     sync.Mutex
	responses map[string]memoryResponse

	Requests []string
}

type memoryResponse struct {
	body []byte
	err  error
}

func NewMemoryDownloader() *MemoryDownloader {
	return &MemoryDownloader{
		responses: make(map[string]memoryResponse),
	}
}

// Serve body for url.
func (d *MemoryDownloader) Set(url string, body []byte) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.responses[url] = memoryResponse{body: body}
}

// Fail requests for url with err.
func (d *MemoryDownloader) Fail(url string, err error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.responses[url] = memoryResponse{err: err}
}

func (d *MemoryDownloader) Get(
	ctx context.Context,
	url string,
	headers map[string]string,
	options GetOptions,
) ([]byte, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.Requests = append(d.Requests, url)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, found := d.responses[url]
	if !found {
		return nil, fmt.Errorf("status 404")
	}
	if resp.err != nil {
		return nil, resp.err
	}

	if options.MaxSize > 0 && len(resp.body) > options.MaxSize {
		return resp.body[:options.MaxSize], nil
	}
	return resp.body, nil
}
