package edge

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/dunamismax/edgeresize/internal/domain"
)

const (
	minBucketLabelLen = 4
	maxBucketLabelLen = 63
)

// Target is everything the pipeline needs from a viewer request.
type Target struct {
	Bucket    string
	Key       string
	Size      domain.RequestedSize
	Extension string
}

// Interpret validates a viewer request without doing any I/O. Checks run in a fixed
// order (bucket, size, path, extension) and the first failure is returned.
func Interpret(req Request) (Target, error) {
	bucket, err := bucketName(req.Origin.BucketDomain())
	if err != nil {
		return Target{}, err
	}

	size, err := requestedSize(req.QueryString)
	if err != nil {
		return Target{}, err
	}

	key, ext, err := objectPath(req.URI)
	if err != nil {
		return Target{}, err
	}
	if _, ok := domain.FormatForExtension(ext); !ok {
		return Target{}, &domain.ValidationError{Message: domain.MessageInvalidFormat}
	}

	return Target{
		Bucket:    bucket,
		Key:       key,
		Size:      size,
		Extension: ext,
	}, nil
}

func bucketName(bucketDomain string) (string, error) {
	label := bucketDomain
	if i := strings.IndexByte(bucketDomain, '.'); i >= 0 {
		label = bucketDomain[:i]
	}

	if len(label) < minBucketLabelLen || len(label) > maxBucketLabelLen {
		return "", domain.NotFound("invalid bucket name "+strconv.Quote(label), nil)
	}
	return label, nil
}

func requestedSize(rawQuery string) (domain.RequestedSize, error) {
	params, err := sizeParams(rawQuery)
	if err != nil {
		return domain.RequestedSize{}, err
	}

	width, err := dimension(params["width"])
	if err != nil {
		return domain.RequestedSize{}, err
	}
	height, err := dimension(params["height"])
	if err != nil {
		return domain.RequestedSize{}, err
	}

	return domain.RequestedSize{Width: width, Height: height}, nil
}

// sizeParams decodes the width and height pairs of a raw query string. Only '&' separates
// pairs, so a ';' stays inside the value, and the first occurrence of a key wins. A size
// value that cannot be percent-decoded is rejected rather than treated as absent.
func sizeParams(rawQuery string) (map[string]string, error) {
	params := make(map[string]string, 2)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		if key != "width" && key != "height" {
			continue
		}
		if _, seen := params[key]; seen {
			continue
		}

		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, &domain.ValidationError{Message: domain.MessageSizeNotNumeric}
		}
		params[key] = value
	}
	return params, nil
}

func dimension(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.MaxRequestedSize, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			return domain.MaxRequestedSize, nil
		}
		return 0, &domain.ValidationError{Message: domain.MessageSizeNotNumeric}
	}
	if value <= 0 {
		return 0, &domain.ValidationError{Message: domain.MessageSizeNotNumeric}
	}

	return min(value, domain.MaxRequestedSize), nil
}

func objectPath(uri string) (key, ext string, err error) {
	decoded, err := url.PathUnescape(uri)
	if err != nil {
		return "", "", domain.NotFound("undecodable uri", err)
	}

	parts := strings.Split(decoded, ".")
	if len(parts) != 2 {
		return "", "", domain.NotFound("path must contain exactly one dot", nil)
	}

	return strings.TrimPrefix(decoded, "/"), parts[1], nil
}
