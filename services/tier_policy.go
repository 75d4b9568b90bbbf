package services

import (
	"path/filepath"
	"strings"

	"github.com/fifthdraft/fifthdraft-backend/models"
)

// Tier policy is pure lookup tables, no I/O. The orchestrator translates
// violations into HTTP errors and the failed recording transition.

type TierLimits struct {
	MaxFileSizeBytes    int64
	FileUploadsAllowed  bool
	DefaultMinutesQuota int
}

const mb = 1024 * 1024

var tierLimits = map[models.SubscriptionTier]TierLimits{
	models.TierFree:       {MaxFileSizeBytes: 30 * mb, FileUploadsAllowed: false, DefaultMinutesQuota: 30},
	models.TierPro:        {MaxFileSizeBytes: 120 * mb, FileUploadsAllowed: true, DefaultMinutesQuota: 600},
	models.TierTeam:       {MaxFileSizeBytes: 240 * mb, FileUploadsAllowed: true, DefaultMinutesQuota: 2400},
	models.TierEnterprise: {MaxFileSizeBytes: 480 * mb, FileUploadsAllowed: true, DefaultMinutesQuota: 10000},
}

// LimitsForTier falls back to free limits for unknown tiers.
func LimitsForTier(tier models.SubscriptionTier) TierLimits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[models.TierFree]
}

// Audio-file extensions that mark a recording as a file upload. Browser
// recordings arrive as .webm and are allowed on every tier.
var uploadExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true,
	".ogg": true, ".flac": true, ".aac": true,
}

func IsFileUpload(storagePath string) bool {
	return uploadExtensions[strings.ToLower(filepath.Ext(storagePath))]
}

type ViolationReason string

const (
	ViolationUploadNotAllowed ViolationReason = "file_upload_not_allowed"
	ViolationFileTooLarge     ViolationReason = "file_too_large"
)

// PolicyViolation is a value, not an error: the caller decides the status
// code and the recording transition.
type PolicyViolation struct {
	Reason     ViolationReason
	MaxSize    int64
	ActualSize int64
}

// CheckUploadPolicy runs the pre-flight tier gates. A nil result means the
// recording may proceed to paid vendor work.
func CheckUploadPolicy(tier models.SubscriptionTier, storagePath string, fileSize int64) *PolicyViolation {
	limits := LimitsForTier(tier)

	// Free tier rejects file uploads outright, regardless of size.
	if IsFileUpload(storagePath) && !limits.FileUploadsAllowed {
		return &PolicyViolation{Reason: ViolationUploadNotAllowed}
	}
	if fileSize > limits.MaxFileSizeBytes {
		return &PolicyViolation{
			Reason:     ViolationFileTooLarge,
			MaxSize:    limits.MaxFileSizeBytes,
			ActualSize: fileSize,
		}
	}
	return nil
}
