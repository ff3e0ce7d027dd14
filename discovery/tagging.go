package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	taggingtypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	"github.com/tagpatrol/tagpatrol/compliance"
	"github.com/tagpatrol/tagpatrol/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// listPageSize is the Tagging API page size
const listPageSize = 100

// TaggingSource is the fallback discovery source. It has no query language:
// it enumerates every resource the Tagging API knows about in a region with
// its full tag set, and leaves compliance filtering to the caller.
type TaggingSource struct {
	clientFor func(region string) resourcegroupstaggingapi.GetResourcesAPIClient
	layout    types.ARNLayout
	tracer    trace.Tracer
}

// NewTaggingSource creates a fallback source over the Resource Groups Tagging API
func NewTaggingSource(cfg aws.Config, layout types.ARNLayout) *TaggingSource {
	return &TaggingSource{
		clientFor: func(region string) resourcegroupstaggingapi.GetResourcesAPIClient {
			return resourcegroupstaggingapi.NewFromConfig(cfg, func(o *resourcegroupstaggingapi.Options) {
				o.Region = region
			})
		},
		layout: layout,
		tracer: otel.Tracer("discovery-tagging"),
	}
}

// List pages through every resource in one region
func (s *TaggingSource) List(ctx context.Context, region string) ([]types.Record, error) {
	ctx, span := s.tracer.Start(ctx, "TaggingList",
		trace.WithAttributes(attribute.String("region", region)))
	defer span.End()

	input := &resourcegroupstaggingapi.GetResourcesInput{
		ResourcesPerPage: aws.Int32(listPageSize),
	}

	var records []types.Record
	paginator := resourcegroupstaggingapi.NewGetResourcesPaginator(s.clientFor(region), input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("tagging api list failed in %s: %w", region, err)
		}
		for _, mapping := range page.ResourceTagMappingList {
			records = append(records, s.convertMapping(mapping))
		}
	}

	span.SetAttributes(attribute.Int("resources", len(records)))
	return records, nil
}

// convertMapping normalizes one tag mapping into a Record. The Tagging API
// reports no region or service, so both come from the ARN.
func (s *TaggingSource) convertMapping(mapping taggingtypes.ResourceTagMapping) types.Record {
	arn := aws.ToString(mapping.ResourceARN)
	region, service := s.layout.Parse(arn)

	pairs := make([]compliance.KeyValue, 0, len(mapping.Tags))
	for _, tag := range mapping.Tags {
		pairs = append(pairs, compliance.KeyValue{
			Key:   aws.ToString(tag.Key),
			Value: aws.ToString(tag.Value),
		})
	}

	return types.Record{
		ARN:     arn,
		Region:  region,
		Service: service,
		Tags:    compliance.TagsFromPairs(pairs),
	}
}
