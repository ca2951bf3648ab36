package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avclabs/faxdesk/internal/blob"
	"github.com/avclabs/faxdesk/internal/classify"
)

type fakeBlob struct {
	mu         sync.Mutex
	objects    map[string][]byte
	presignErr error
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: make(map[string][]byte)}
}

func (f *fakeBlob) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (f *fakeBlob) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeBlob) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://blob.test/get/" + key, nil
}

func (f *fakeBlob) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://blob.test/put/" + key, nil
}

func (f *fakeBlob) Listen(ctx context.Context, prefix string) (<-chan blob.ObjectEvent, error) {
	ch := make(chan blob.ObjectEvent)
	close(ch)
	return ch, nil
}

type fakeClassifier struct {
	result   *classify.Result
	err      error
	lastText string
	calls    int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (*classify.Result, error) {
	f.calls++
	f.lastText = text
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSender struct {
	err  error
	sent []string
}

func (f *fakeSender) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+subject)
	return nil
}
