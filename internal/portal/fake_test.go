package portal

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

type call struct {
	Method string
	Path   string
	Form   map[string]string
}

type fakeTransport struct {
	bodies map[string][]byte
	errs   map[string]error
	calls  []call
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{bodies: map[string][]byte{}, errs: map[string]error{}}
}

func (f *fakeTransport) on(method, path, body string) *fakeTransport {
	f.bodies[method+" "+path] = []byte(body)
	return f
}

func (f *fakeTransport) fail(method, path string, err error) *fakeTransport {
	f.errs[method+" "+path] = err
	return f
}

func (f *fakeTransport) Get(ctx context.Context, path string) ([]byte, error) {
	f.calls = append(f.calls, call{Method: "GET", Path: path})
	return f.bodies["GET "+path], f.errs["GET "+path]
}

func (f *fakeTransport) PostForm(ctx context.Context, path string, form map[string]string) ([]byte, error) {
	f.calls = append(f.calls, call{Method: "POST", Path: path, Form: form})
	return f.bodies["POST "+path], f.errs["POST "+path]
}

func (f *fakeTransport) posts(path string) []call {
	var out []call
	for _, c := range f.calls {
		if c.Method == "POST" && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func quietLog() zerolog.Logger { return zerolog.New(io.Discard) }
