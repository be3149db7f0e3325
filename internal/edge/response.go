package edge

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/dunamismax/edgeresize/internal/domain"
	"github.com/dunamismax/edgeresize/internal/pipeline"
)

const contentTypeText = "text/plain"

func Success(result pipeline.Result) Response {
	return Response{
		Status:       http.StatusOK,
		Headers:      []Header{{Key: "Content-Type", Value: result.Format.ContentType()}},
		Body:         base64.StdEncoding.EncodeToString(result.Data),
		BodyEncoding: BodyEncodingBase64,
	}
}

// Failure maps a pipeline or interpreter error to its response. Anything that is not a
// known domain error is reported as not found, and causes never reach the body.
func Failure(uri string, err error) Response {
	var (
		validation *domain.ValidationError
		mismatch   *domain.FormatMismatchError
	)

	switch {
	case errors.As(err, &validation):
		return textResponse(http.StatusBadRequest, validation.Message)
	case errors.As(err, &mismatch):
		return textResponse(http.StatusForbidden, domain.MessageFormatMismatch)
	default:
		return textResponse(http.StatusNotFound, uri+" is not found.")
	}
}

func textResponse(status int, body string) Response {
	return Response{
		Status:  status,
		Headers: []Header{{Key: "Content-Type", Value: contentTypeText}},
		Body:    body,
	}
}
