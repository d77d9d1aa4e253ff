package backup

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/cyphervault/internal/netx"
)

// URLSink PUTs the snapshot to a fixed URL, usually an S3 presigned upload
// link handed out by someone else. The object name is ignored.
type URLSink struct {
	client *http.Client
	target string
}

func NewURLSink(client *http.Client, target string) *URLSink {
	return &URLSink{client: client, target: target}
}

func (s *URLSink) Write(ctx context.Context, _ string, data []byte) (string, error) {
	if err := netx.Put(ctx, s.client, s.target, "application/json", data); err != nil {
		return "", err
	}
	return netx.Redact(s.target), nil
}
