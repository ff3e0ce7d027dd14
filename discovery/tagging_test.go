package discovery

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	taggingtypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tagpatrol/tagpatrol/types"
	"go.opentelemetry.io/otel"
)

type fakeGetResourcesClient struct {
	pages []*resourcegroupstaggingapi.GetResourcesOutput
	calls int
}

func (f *fakeGetResourcesClient) GetResources(_ context.Context, _ *resourcegroupstaggingapi.GetResourcesInput, _ ...func(*resourcegroupstaggingapi.Options)) (*resourcegroupstaggingapi.GetResourcesOutput, error) {
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func TestTaggingSource_List(t *testing.T) {
	client := &fakeGetResourcesClient{
		pages: []*resourcegroupstaggingapi.GetResourcesOutput{
			{
				ResourceTagMappingList: []taggingtypes.ResourceTagMapping{
					{
						ResourceARN: aws.String("arn:aws:sqs:us-east-1:1:queue-a"),
						Tags: []taggingtypes.Tag{
							{Key: aws.String("owner"), Value: aws.String("alice")},
						},
					},
				},
				PaginationToken: aws.String("next"),
			},
			{
				ResourceTagMappingList: []taggingtypes.ResourceTagMapping{
					{ResourceARN: aws.String("arn:aws:sqs:us-east-1:1:queue-b")},
				},
				PaginationToken: aws.String(""),
			},
		},
	}

	source := &TaggingSource{
		clientFor: func(string) resourcegroupstaggingapi.GetResourcesAPIClient { return client },
		layout:    types.DefaultARNLayout,
		tracer:    otel.Tracer("test"),
	}

	records, err := source.List(context.Background(), "us-east-1")
	require.NoError(t, err)

	assert.Len(t, records, 2)
	assert.Equal(t, 2, client.calls)

	assert.Equal(t, "arn:aws:sqs:us-east-1:1:queue-a", records[0].ARN)
	assert.Equal(t, "us-east-1", records[0].Region)
	assert.Equal(t, "sqs", records[0].Service)
	assert.Equal(t, map[string]string{"owner": "alice"}, records[0].Tags)

	assert.Empty(t, records[1].Tags)
}
