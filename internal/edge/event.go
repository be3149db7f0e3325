// Package edge adapts CDN edge invocations to the resize pipeline: it interprets the
// viewer request, picks the canonical size, and builds the single response.
package edge

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Event is the CloudFront origin-request payload handed to the function.
type Event struct {
	Records []Record `json:"Records"`
}

type Record struct {
	CF CloudFront `json:"cf"`
}

type CloudFront struct {
	Config  Config  `json:"config"`
	Request Request `json:"request"`
}

type Config struct {
	DistributionDomainName string `json:"distributionDomainName"`
	DistributionID         string `json:"distributionId"`
	EventType              string `json:"eventType"`
	RequestID              string `json:"requestId"`
}

// Request is a read-only view of the viewer request.
type Request struct {
	ClientIP    string              `json:"clientIp"`
	Method      string              `json:"method"`
	URI         string              `json:"uri"`
	QueryString string              `json:"querystring"`
	Headers     map[string][]Header `json:"headers,omitempty"`
	Origin      Origin              `json:"origin"`
}

type Origin struct {
	S3     *OriginTarget `json:"s3,omitempty"`
	Custom *OriginTarget `json:"custom,omitempty"`
}

type OriginTarget struct {
	DomainName string `json:"domainName"`
	Path       string `json:"path,omitempty"`
	Region     string `json:"region,omitempty"`
}

// BucketDomain prefers the S3 origin and falls back to a custom origin's domain.
func (o Origin) BucketDomain() string {
	if o.S3 != nil && o.S3.DomainName != "" {
		return o.S3.DomainName
	}
	if o.Custom != nil {
		return o.Custom.DomainName
	}
	return ""
}

type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

const (
	BodyEncodingText   = "text"
	BodyEncodingBase64 = "base64"
)

// Response keeps headers in order; MarshalJSON renders the CloudFront wire shape.
type Response struct {
	Status       int
	Headers      []Header
	Body         string
	BodyEncoding string
}

// Header returns the first value for key, matched case-insensitively.
func (r Response) Header(key string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value
		}
	}
	return ""
}

type wireResponse struct {
	Status            string              `json:"status"`
	StatusDescription string              `json:"statusDescription,omitempty"`
	Headers           map[string][]Header `json:"headers,omitempty"`
	Body              string              `json:"body,omitempty"`
	BodyEncoding      string              `json:"bodyEncoding,omitempty"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	wire := wireResponse{
		Status:            strconv.Itoa(r.Status),
		StatusDescription: http.StatusText(r.Status),
		Body:              r.Body,
		BodyEncoding:      r.BodyEncoding,
	}
	if len(r.Headers) > 0 {
		wire.Headers = make(map[string][]Header, len(r.Headers))
		for _, h := range r.Headers {
			name := strings.ToLower(h.Key)
			wire.Headers[name] = append(wire.Headers[name], h)
		}
	}
	return json.Marshal(wire)
}
