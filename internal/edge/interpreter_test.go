package edge

import (
	"strings"
	"testing"

	"github.com/dunamismax/edgeresize/internal/domain"
	"github.com/stretchr/testify/require"
)

func s3Request(bucketDomain, uri, query string) Request {
	return Request{
		Method:      "GET",
		URI:         uri,
		QueryString: query,
		Origin:      Origin{S3: &OriginTarget{DomainName: bucketDomain}},
	}
}

func TestInterpret_ValidRequest(t *testing.T) {
	target, err := Interpret(s3Request("images.s3.amazonaws.com", "/img/photo.jpg", "width=90&height=90"))
	require.NoError(t, err)
	require.Equal(t, Target{
		Bucket:    "images",
		Key:       "img/photo.jpg",
		Size:      domain.RequestedSize{Width: 90, Height: 90},
		Extension: "jpg",
	}, target)
}

func TestInterpret_SizeDefaultsAndClamping(t *testing.T) {
	tests := []struct {
		query string
		want  domain.RequestedSize
	}{
		{"", domain.RequestedSize{Width: 2000, Height: 2000}},
		{"width=300", domain.RequestedSize{Width: 300, Height: 2000}},
		{"height=40", domain.RequestedSize{Width: 2000, Height: 40}},
		{"width=&height=", domain.RequestedSize{Width: 2000, Height: 2000}},
		{"width=5000&height=2001", domain.RequestedSize{Width: 2000, Height: 2000}},
		{"width=99999999999999999999999&height=10", domain.RequestedSize{Width: 2000, Height: 10}},
		{"width=+120&height=%2080%20", domain.RequestedSize{Width: 120, Height: 80}},
		{"width=100&width=300", domain.RequestedSize{Width: 100, Height: 2000}},
		{"format=webp&width=10", domain.RequestedSize{Width: 10, Height: 2000}},
		{"x=%zz&width=10", domain.RequestedSize{Width: 10, Height: 2000}},
		{"width=10&width=%zz", domain.RequestedSize{Width: 10, Height: 2000}},
		{"%77idth=30&&height", domain.RequestedSize{Width: 30, Height: 2000}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			target, err := Interpret(s3Request("images.s3.amazonaws.com", "/a.png", tt.query))
			require.NoError(t, err)
			require.Equal(t, tt.want, target.Size)
		})
	}
}

func TestInterpret_NonNumericSize(t *testing.T) {
	for _, query := range []string{
		"width=abc", "height=12px", "width=1.5", "width=0", "height=-20", "width=-99999999999999999999999",
		"width=%zz", "height=12%", "width=abc;x=1", "width=120;height=80", "height=90&width=%G0",
	} {
		t.Run(query, func(t *testing.T) {
			_, err := Interpret(s3Request("images.s3.amazonaws.com", "/img/photo.jpg", query))

			var validation *domain.ValidationError
			require.ErrorAs(t, err, &validation)
			require.Equal(t, "The size must be numerical value", validation.Message)
		})
	}
}

func TestInterpret_BucketLabelLength(t *testing.T) {
	tests := []struct {
		domain string
		ok     bool
	}{
		{"ab.example.com", false},
		{"abc.s3.amazonaws.com", false},
		{"abcd.s3.amazonaws.com", true},
		{strings.Repeat("b", 63) + ".s3.amazonaws.com", true},
		{strings.Repeat("b", 64) + ".s3.amazonaws.com", false},
		{"", false},
		{".s3.amazonaws.com", false},
		{"nodotsatall", true},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			_, err := Interpret(s3Request(tt.domain, "/img/photo.jpg", ""))
			if tt.ok {
				require.NoError(t, err)
				return
			}
			var notFound *domain.NotFoundError
			require.ErrorAs(t, err, &notFound)
		})
	}
}

func TestInterpret_CustomOriginFallback(t *testing.T) {
	target, err := Interpret(Request{
		URI:    "/img/photo.png",
		Origin: Origin{Custom: &OriginTarget{DomainName: "media-bucket.example.com"}},
	})
	require.NoError(t, err)
	require.Equal(t, "media-bucket", target.Bucket)
}

func TestInterpret_PathSegments(t *testing.T) {
	notFound := []string{
		"/img/photo",
		"/img/photo.min.jpg",
		"/img.v2/photo.jpg",
		"/img/photo%2Emin.jpg",
		"/img/bad%zz.jpg",
	}
	for _, uri := range notFound {
		t.Run(uri, func(t *testing.T) {
			_, err := Interpret(s3Request("images.s3.amazonaws.com", uri, ""))
			var nf *domain.NotFoundError
			require.ErrorAs(t, err, &nf)
		})
	}

	target, err := Interpret(s3Request("images.s3.amazonaws.com", "/my%20folder/caf%C3%A9.png", ""))
	require.NoError(t, err)
	require.Equal(t, "my folder/café.png", target.Key)
	require.Equal(t, "png", target.Extension)
}

func TestInterpret_Extension(t *testing.T) {
	for _, uri := range []string{"/a.jpg", "/a.jpeg", "/a.png"} {
		_, err := Interpret(s3Request("images.s3.amazonaws.com", uri, ""))
		require.NoError(t, err, uri)
	}

	for _, uri := range []string{"/img/photo.gif", "/img/photo.JPG", "/img/photo.Png", "/img/photo.webp", "/img/photo."} {
		t.Run(uri, func(t *testing.T) {
			_, err := Interpret(s3Request("images.s3.amazonaws.com", uri, ""))
			var validation *domain.ValidationError
			require.ErrorAs(t, err, &validation)
			require.Equal(t, "Invalid format", validation.Message)
		})
	}
}

func TestInterpret_FirstFailureWins(t *testing.T) {
	// bad bucket beats bad size, path and extension
	_, err := Interpret(s3Request("ab.example.com", "/img/photo.gif", "width=abc"))
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	// bad size beats bad path
	_, err = Interpret(s3Request("images.s3.amazonaws.com", "/img/photo", "width=abc"))
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "The size must be numerical value", validation.Message)

	// bad path beats bad extension
	_, err = Interpret(s3Request("images.s3.amazonaws.com", "/img/photo.tar.gz", ""))
	require.ErrorAs(t, err, &notFound)
}
