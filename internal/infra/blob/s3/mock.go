package s3

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Fake is an in-process S3 endpoint serving one bucket over an
// http.RoundTripper. It understands the calls Store makes: put, copy,
// head, get, delete and list-type=2.
type Fake struct {
	mu       sync.Mutex
	objects  map[string]fakeObject
	failPuts string
	calls    map[string]int
}

type fakeObject struct {
	body        []byte
	contentType string
	metadata    http.Header
}

// NewFake returns a Store wired to a fresh Fake and the Fake itself.
func NewFake() (*Store, *Fake) {
	f := &Fake{objects: make(map[string]fakeObject), calls: make(map[string]int)}
	cfg, _ := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: f}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://fake.s3.local")
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	return &Store{client: client, bucket: "rollup-test"}, f
}

// FailPutsUnder makes every upload whose key contains substr fail with AccessDenied.
func (f *Fake) FailPutsUnder(substr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPuts = substr
}

// Keys returns every stored key, staging objects included, sorted.
func (f *Fake) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns how many requests of an operation (PUT, COPY, HEAD, GET,
// DELETE, LIST) the fake has served.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, key, _ := strings.Cut(strings.TrimPrefix(req.URL.Path, "/"), "/")
	if k, err := url.PathUnescape(key); err == nil {
		key = k
	}
	switch {
	case req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2":
		f.calls["LIST"]++
		return f.list(req.URL.Query().Get("prefix"))
	case req.Method == http.MethodPut && req.Header.Get("X-Amz-Copy-Source") != "":
		f.calls["COPY"]++
		return f.copy(key, req.Header.Get("X-Amz-Copy-Source"))
	case req.Method == http.MethodPut:
		f.calls["PUT"]++
		return f.put(key, req)
	case req.Method == http.MethodHead:
		f.calls["HEAD"]++
		obj, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, nil), nil
		}
		return respond(http.StatusOK, obj.headers(), nil), nil
	case req.Method == http.MethodGet:
		f.calls["GET"]++
		obj, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, http.Header{"Content-Type": {"application/xml"}}, []byte(noSuchKeyXML)), nil
		}
		return respond(http.StatusOK, obj.headers(), obj.body), nil
	case req.Method == http.MethodDelete:
		f.calls["DELETE"]++
		delete(f.objects, key)
		return respond(http.StatusNoContent, nil, nil), nil
	}
	return respond(http.StatusNotImplemented, nil, nil), nil
}

func (f *Fake) put(key string, req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	if f.failPuts != "" && strings.Contains(key, f.failPuts) {
		return respond(http.StatusForbidden, http.Header{"Content-Type": {"application/xml"}}, []byte(accessDeniedXML)), nil
	}
	if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
		body = dechunk(body)
	}
	md := http.Header{}
	for name, vals := range req.Header {
		if strings.HasPrefix(strings.ToLower(name), "x-amz-meta-") {
			md[name] = vals
		}
	}
	f.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type"), metadata: md}
	return respond(http.StatusOK, http.Header{"ETag": {etag(body)}}, nil), nil
}

func (f *Fake) copy(key, source string) (*http.Response, error) {
	src, err := url.PathUnescape(strings.TrimPrefix(source, "/"))
	if err != nil {
		return nil, err
	}
	_, srcKey, _ := strings.Cut(src, "/")
	obj, ok := f.objects[srcKey]
	if !ok {
		return respond(http.StatusNotFound, http.Header{"Content-Type": {"application/xml"}}, []byte(noSuchKeyXML)), nil
	}
	f.objects[key] = obj
	result := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><CopyObjectResult><ETag>%s</ETag><LastModified>2026-01-01T00:00:00Z</LastModified></CopyObjectResult>`, etag(obj.body))
	return respond(http.StatusOK, http.Header{"Content-Type": {"application/xml"}}, []byte(result)), nil
}

type listResult struct {
	XMLName     xml.Name      `xml:"ListBucketResult"`
	IsTruncated bool          `xml:"IsTruncated"`
	KeyCount    int           `xml:"KeyCount"`
	Contents    []listContent `xml:"Contents"`
}

type listContent struct {
	Key          string `xml:"Key"`
	Size         int    `xml:"Size"`
	LastModified string `xml:"LastModified"`
}

func (f *Fake) list(prefix string) (*http.Response, error) {
	var out listResult
	for k, obj := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out.Contents = append(out.Contents, listContent{Key: k, Size: len(obj.body), LastModified: "2026-01-01T00:00:00Z"})
		}
	}
	sort.Slice(out.Contents, func(i, j int) bool { return out.Contents[i].Key < out.Contents[j].Key })
	out.KeyCount = len(out.Contents)
	body, err := xml.Marshal(out)
	if err != nil {
		return nil, err
	}
	return respond(http.StatusOK, http.Header{"Content-Type": {"application/xml"}}, body), nil
}

func (o fakeObject) headers() http.Header {
	h := http.Header{
		"Content-Length": {strconv.Itoa(len(o.body))},
		"Content-Type":   {o.contentType},
		"ETag":           {etag(o.body)},
		"Last-Modified":  {time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat)},
	}
	for k, v := range o.metadata {
		h[k] = v
	}
	return h
}

func respond(status int, h http.Header, body []byte) *http.Response {
	if h == nil {
		h = http.Header{}
	}
	return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(bytes.NewReader(body)), ContentLength: int64(len(body))}
}

func etag(b []byte) string { return fmt.Sprintf(`"%x"`, len(b)) }

// dechunk strips aws-chunked framing: <hex size>[;ext]\r\n<data>\r\n ... 0\r\n[trailers].
func dechunk(b []byte) []byte {
	var out []byte
	for len(b) > 0 {
		line, rest, ok := bytes.Cut(b, []byte("\r\n"))
		if !ok {
			break
		}
		sizeField, _, _ := bytes.Cut(line, []byte(";"))
		n, err := strconv.ParseInt(string(sizeField), 16, 64)
		if err != nil || n == 0 || int64(len(rest)) < n {
			break
		}
		out = append(out, rest[:n]...)
		b = bytes.TrimPrefix(rest[n:], []byte("\r\n"))
	}
	return out
}

const (
	noSuchKeyXML     = `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`
	accessDeniedXML = `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>injected failure</Message></Error>`
)
