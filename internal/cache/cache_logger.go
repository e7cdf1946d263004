package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and logs instead of failing
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and logs instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

func AssessmentKey(id uint) string {
	return fmt.Sprintf("id:%d", id)
}

// AssessmentListKey derives the key of one page of a filtered listing
func AssessmentListKey(filters interface{}) string {
	data, err := json.Marshal(filters)
	if err != nil {
		data = []byte(fmt.Sprintf("%+v", filters))
	}
	sum := sha256.Sum256(data)
	return "list:" + hex.EncodeToString(sum[:12])
}

// InvalidateAssessmentCache drops the cached definition and any cached lists
func InvalidateAssessmentCache(ctx context.Context, cm *CacheManager, assessmentID uint) {
	SafeDelete(ctx, cm.Assessment, AssessmentKey(assessmentID))
	SafeInvalidatePattern(ctx, cm.Assessment, "list:*")
}
