package store

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoPK(t *testing.T) {
	assert.Equal(t, "VIDEO#exercise-videos/uploads/workout.mp4",
		videoPK("exercise-videos", "uploads/workout.mp4"))
}

func TestValidationRecordMarshalOmitsEmptyMetadata(t *testing.T) {
	rec := &ValidationRecord{
		Bucket:        "exercise-videos",
		Key:           "uploads/clip.mov",
		CorrelationID: "req-1",
		Status:        StatusRejected,
		Reason:        "unsupported_format",
	}

	item, err := attributevalue.MarshalMap(rec)
	require.NoError(t, err)

	assert.Equal(t, &types.AttributeValueMemberS{Value: StatusRejected}, item["status"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "unsupported_format"}, item["reason"])
	// Rejected uploads have no extracted metadata to store.
	assert.NotContains(t, item, "durationSeconds")
	assert.NotContains(t, item, "resolution")
	assert.NotContains(t, item, "codec")
}
