package discovery

import (
	"errors"

	retypes "github.com/aws/aws-sdk-go-v2/service/resourceexplorer2/types"
	"github.com/aws/smithy-go"
)

// FailureKind classifies discovery failures so the collector can pick the
// right degrade path. Anything unrecognized is treated as transient.
type FailureKind int

const (
	FailureTransient FailureKind = iota
	FailureNoIndex               // no view/index configured for the region
	FailureDenied                // permission or validation rejection
)

func (k FailureKind) String() string {
	switch k {
	case FailureNoIndex:
		return "no index"
	case FailureDenied:
		return "permission denied"
	default:
		return "transient"
	}
}

// ClassifyFailure maps a discovery error to a FailureKind
func ClassifyFailure(err error) FailureKind {
	var notFound *retypes.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return FailureNoIndex
	}

	var unauthorized *retypes.UnauthorizedException
	if errors.As(err, &unauthorized) {
		return FailureDenied
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ResourceNotFoundException":
			return FailureNoIndex
		case "AccessDenied", "AccessDeniedException", "UnauthorizedException",
			"UnauthorizedOperation", "ValidationException":
			return FailureDenied
		}
	}

	return FailureTransient
}
