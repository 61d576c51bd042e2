package restclient

import (
	"context"
	"io"
)

type Interface interface {
	Get(ctx context.Context, endpoint string, headers map[string]string) ([]byte, int, error)
	Post(ctx context.Context, endpoint string, body any, headers map[string]string) ([]byte, int, error)
	PostStream(ctx context.Context, endpoint string, body any, headers map[string]string) (io.ReadCloser, int, error)
	Delete(ctx context.Context, endpoint string, headers map[string]string) ([]byte, int, error)
}
