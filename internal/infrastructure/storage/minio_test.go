package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRewriteHost(t *testing.T) {
	raw := "http://minio:9000/meeting-records/records/abc.json?X-Amz-Signature=1"

	require.Equal(t, raw, rewriteHost(raw, "http", "minio:9000", ""))
	require.Equal(t,
		"https://files.example.com/meeting-records/records/abc.json?X-Amz-Signature=1",
		rewriteHost(raw, "http", "minio:9000", "https://files.example.com"),
	)
	require.Equal(t, raw, rewriteHost(raw, "https", "other:9000", "https://files.example.com"))
}
