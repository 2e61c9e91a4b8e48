package gcloud

import (
	"strings"

	apperrors "github.com/ynishi/propel/internal/errors"
)

// classifyDetail maps a failed gcloud invocation's detail string to an error
// kind. The detail is preserved verbatim as the error message; classification
// only inspects it for well-known markers.
func classifyDetail(detail string) *apperrors.Error {
	detail = strings.TrimSpace(detail)
	lower := strings.ToLower(detail)

	switch {
	case strings.Contains(lower, "unauthenticated") ||
		strings.Contains(lower, "gcloud auth login") ||
		strings.Contains(lower, "reauthentication") ||
		strings.Contains(lower, "credential"):
		return apperrors.ErrRemoteAuth(detail, nil)
	case strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "rate limit"):
		return apperrors.ErrRemoteQuota(detail, nil)
	case strings.Contains(lower, "permission_denied") ||
		strings.Contains(lower, "does not have permission") ||
		strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "forbidden"):
		return apperrors.ErrRemotePermission(detail, nil)
	case strings.Contains(lower, "not_found") ||
		strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist"):
		return apperrors.ErrRemoteNotFound(detail, nil)
	default:
		return apperrors.ErrRemoteUnknown(detail, nil)
	}
}
