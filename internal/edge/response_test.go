package edge

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/dunamismax/edgeresize/internal/domain"
	"github.com/dunamismax/edgeresize/internal/pipeline"
	"github.com/stretchr/testify/require"
)

func TestFailure_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", &domain.ValidationError{Message: "Invalid format"}, 400, "Invalid format"},
		{"not found", domain.NotFound("fetch stage", errors.New("NoSuchKey")), 404, "/img/photo.jpg is not found."},
		{"wrapped not found", fmt.Errorf("outer: %w", domain.NotFound("x", nil)), 404, "/img/photo.jpg is not found."},
		{"format mismatch", &domain.FormatMismatchError{Format: "gif"}, 403, "The original file format must be jpeg or png."},
		{"unknown", errors.New("boom"), 404, "/img/photo.jpg is not found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Failure("/img/photo.jpg", tt.err)
			require.Equal(t, tt.status, resp.Status)
			require.Equal(t, tt.body, resp.Body)
			require.Equal(t, "text/plain", resp.Header("Content-Type"))
			require.Empty(t, resp.BodyEncoding)
		})
	}
}

func TestFailure_BodyNeverLeaksCause(t *testing.T) {
	resp := Failure("/a.jpg", domain.NotFound("fetch stage", errors.New("AccessDenied: arn:aws:s3:::secret")))
	require.NotContains(t, resp.Body, "AccessDenied")
}

func TestSuccess(t *testing.T) {
	resp := Success(pipeline.Result{Data: []byte{0xFF, 0xD8, 0xFF}, Format: domain.FormatJPEG})
	require.Equal(t, 200, resp.Status)
	require.Equal(t, "image/jpeg", resp.Header("content-type"))
	require.Equal(t, "/9j/", resp.Body)
	require.Equal(t, BodyEncodingBase64, resp.BodyEncoding)
}

func TestResponse_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal(Success(pipeline.Result{Data: []byte("png"), Format: domain.FormatPNG}))
	require.NoError(t, err)
	require.JSONEq(t, `{
		"status": "200",
		"statusDescription": "OK",
		"headers": {"content-type": [{"key": "Content-Type", "value": "image/png"}]},
		"body": "cG5n",
		"bodyEncoding": "base64"
	}`, string(raw))

	raw, err = json.Marshal(Failure("/x.gif", &domain.ValidationError{Message: "Invalid format"}))
	require.NoError(t, err)
	require.JSONEq(t, `{
		"status": "400",
		"statusDescription": "Bad Request",
		"headers": {"content-type": [{"key": "Content-Type", "value": "text/plain"}]},
		"body": "Invalid format"
	}`, string(raw))
}

func TestEvent_UnmarshalCloudFrontPayload(t *testing.T) {
	payload := `{
	  "Records": [{
	    "cf": {
	      "config": {"distributionId": "EDFDVBD6EXAMPLE", "eventType": "origin-request", "requestId": "abc-123"},
	      "request": {
	        "clientIp": "203.0.113.178",
	        "method": "GET",
	        "uri": "/img/photo.jpg",
	        "querystring": "width=90&height=90",
	        "headers": {"host": [{"key": "Host", "value": "images.s3.amazonaws.com"}]},
	        "origin": {"s3": {"domainName": "images.s3.amazonaws.com", "path": "", "region": "us-east-1"}}
	      }
	    }
	  }]
	}`

	var event Event
	require.NoError(t, json.Unmarshal([]byte(payload), &event))
	require.Len(t, event.Records, 1)

	req := event.Records[0].CF.Request
	require.Equal(t, "/img/photo.jpg", req.URI)
	require.Equal(t, "width=90&height=90", req.QueryString)
	require.Equal(t, "images.s3.amazonaws.com", req.Origin.BucketDomain())
	require.Equal(t, "abc-123", event.Records[0].CF.Config.RequestID)
}
