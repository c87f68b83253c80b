package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"selfieapi/services"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

// PNGDataURL is a tiny but recognizable PNG selfie.
const PNGDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

// JPEGDataURL starts with a JPEG signature.
const JPEGDataURL = "data:image/jpeg;base64,/9j/4AAQSkZJRgABAQAAAQABAAD/2Q=="

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

// Do serves req on e and decodes the JSON answer into a map.
func Do(e *echo.Echo, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

type AWSProviderMock struct {
	MockUrl string

	mu        sync.Mutex
	Uploaded  map[string][]byte
	UploadErr error
}

func (awsService *AWSProviderMock) InitPresignClient(ctx context.Context) error {
	return nil
}

func (awsService *AWSProviderMock) PresignLink(ctx context.Context, bucketName string, fileName string) (string, error) {
	return fmt.Sprintf("https://fakebucketurl.com/%s", fileName), nil
}

func (awsService *AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	if awsService.MockUrl != "" {
		return awsService.MockUrl, nil
	}
	return fmt.Sprintf("https://fakebucketurl.com/read/%s", fileKey), nil
}

func (awsService *AWSProviderMock) UploadToPresignedURL(ctx context.Context, bucketName, url string, fileContent []byte) (string, int, error) {
	if awsService.UploadErr != nil {
		return "", 0, awsService.UploadErr
	}
	awsService.mu.Lock()
	defer awsService.mu.Unlock()
	if awsService.Uploaded == nil {
		awsService.Uploaded = map[string][]byte{}
	}
	awsService.Uploaded[strings.TrimPrefix(url, "https://fakebucketurl.com/")] = fileContent
	return "", 200, nil
}

// URLCacheMock resolves every key to a fake read URL.
type URLCacheMock struct{}

func (URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	return "https://cdn.example.com/" + objectKey, nil
}

// FakeProvider is a scripted services.Provider. Zero values answer successfully.
type FakeProvider struct {
	ProviderName string
	ModelName    string

	Descriptions map[services.ReferenceKind]string
	DescribeErr  error
	Rewritten    string
	RewriteErr   error
	AskText      string
	AskErr       error
	// GenerateFunc answers the call-th (0 based) GenerateVariation call.
	GenerateFunc func(call int, in services.VariationInput) (string, error)

	mu            sync.Mutex
	DescribeCalls []services.ReferenceKind
	RewriteInputs []services.RewriteInput
	Prompts       []string
}

func (f *FakeProvider) Name() string {
	if f.ProviderName == "" {
		return services.ProviderGemini
	}
	return f.ProviderName
}

func (f *FakeProvider) Model() string {
	if f.ModelName == "" {
		return "fake-model"
	}
	return f.ModelName
}

func (f *FakeProvider) DescribeImage(ctx context.Context, kind services.ReferenceKind, image services.ImageData) (string, error) {
	f.mu.Lock()
	f.DescribeCalls = append(f.DescribeCalls, kind)
	f.mu.Unlock()
	if f.DescribeErr != nil {
		return "", f.DescribeErr
	}
	if text, ok := f.Descriptions[kind]; ok {
		return text, nil
	}
	return fmt.Sprintf("a %s description", kind), nil
}

func (f *FakeProvider) AskImage(ctx context.Context, image services.ImageData, instruction string, opts services.TextOptions) (string, error) {
	return f.AskText, f.AskErr
}

func (f *FakeProvider) RewritePrompt(ctx context.Context, in services.RewriteInput) (string, error) {
	f.mu.Lock()
	f.RewriteInputs = append(f.RewriteInputs, in)
	f.mu.Unlock()
	if f.RewriteErr != nil {
		return "", f.RewriteErr
	}
	if f.Rewritten == "" {
		return "A rewritten prompt", nil
	}
	return f.Rewritten, nil
}

func (f *FakeProvider) GenerateVariation(ctx context.Context, in services.VariationInput) (string, error) {
	f.mu.Lock()
	call := len(f.Prompts)
	f.Prompts = append(f.Prompts, in.Prompt)
	f.mu.Unlock()
	if f.GenerateFunc != nil {
		return f.GenerateFunc(call, in)
	}
	return fmt.Sprintf("data:image/png;base64,IMG%d", call), nil
}

// GeneratedPrompts returns a copy of the prompts GenerateVariation received.
func (f *FakeProvider) GeneratedPrompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Prompts...)
}

// FakeBatchProvider adds services.BatchGenerator to FakeProvider.
type FakeBatchProvider struct {
	*FakeProvider
	BatchFunc  func(in services.VariationInput, n int) ([]string, error)
	BatchCalls int
}

func (f *FakeBatchProvider) GenerateBatch(ctx context.Context, in services.VariationInput, n int) ([]string, error) {
	f.mu.Lock()
	f.BatchCalls++
	f.mu.Unlock()
	if f.BatchFunc != nil {
		return f.BatchFunc(in, n)
	}
	images := make([]string, n)
	for i := range images {
		images[i] = fmt.Sprintf("data:image/jpeg;base64,BATCH%d", i)
	}
	return images, nil
}

// JobQueueMock records enqueued tasks instead of talking to redis.
type JobQueueMock struct {
	mu    sync.Mutex
	Tasks []*asynq.Task
	Err   error
}

func (q *JobQueueMock) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.Err != nil {
		return nil, q.Err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Tasks = append(q.Tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(q.Tasks)), Queue: "generate", Type: task.Type()}, nil
}
