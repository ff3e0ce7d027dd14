// Package discovery collects resources missing required governance tags.
package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/resourceexplorer2"
	retypes "github.com/aws/aws-sdk-go-v2/service/resourceexplorer2/types"
	"github.com/aws/aws-sdk-go-v2/service/resourceexplorer2/document"
	"github.com/tagpatrol/tagpatrol/compliance"
	"github.com/tagpatrol/tagpatrol/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// searchPageSize is the maximum Resource Explorer allows per page
const searchPageSize = 1000

// ExplorerSource queries AWS Resource Explorer indexes. It is the primary
// discovery source: the query expression selects noncompliant resources
// server-side.
type ExplorerSource struct {
	clientFor func(region string) resourceexplorer2.SearchAPIClient
	viewARN   string
	layout    types.ARNLayout
	tracer    trace.Tracer
}

// NewExplorerSource creates a source that builds a regional client per search
func NewExplorerSource(cfg aws.Config, viewARN string, layout types.ARNLayout) *ExplorerSource {
	return &ExplorerSource{
		clientFor: func(region string) resourceexplorer2.SearchAPIClient {
			return resourceexplorer2.NewFromConfig(cfg, func(o *resourceexplorer2.Options) {
				o.Region = region
			})
		},
		viewARN: viewARN,
		layout:  layout,
		tracer:  otel.Tracer("discovery-explorer"),
	}
}

// Search pages through all matches for the query in one region
func (s *ExplorerSource) Search(ctx context.Context, query, region string) ([]types.Record, error) {
	ctx, span := s.tracer.Start(ctx, "ExplorerSearch",
		trace.WithAttributes(attribute.String("region", region)))
	defer span.End()

	input := &resourceexplorer2.SearchInput{
		QueryString: aws.String(query),
		MaxResults:  aws.Int32(searchPageSize),
	}
	if s.viewARN != "" {
		input.ViewArn = aws.String(s.viewARN)
	}

	var records []types.Record
	paginator := resourceexplorer2.NewSearchPaginator(s.clientFor(region), input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("resource explorer search failed in %s: %w", region, err)
		}
		for _, resource := range page.Resources {
			records = append(records, s.convertResource(resource))
		}
	}

	span.SetAttributes(attribute.Int("resources", len(records)))
	return records, nil
}

// convertResource normalizes one Resource Explorer hit into a Record. Fields
// the index did not report are derived from the ARN.
func (s *ExplorerSource) convertResource(r retypes.Resource) types.Record {
	arn := aws.ToString(r.Arn)
	region, service := s.layout.Parse(arn)
	if v := aws.ToString(r.Region); v != "" {
		region = v
	}
	if v := aws.ToString(r.Service); v != "" {
		service = v
	}

	return types.Record{
		ARN:     arn,
		Region:  region,
		Service: service,
		Type:    aws.ToString(r.ResourceType),
		Tags:    extractTagProperty(r.Properties),
	}
}

// extractTagProperty pulls the "tags" property out of a search hit and
// normalizes whichever shape the index reported it in.
func extractTagProperty(props []retypes.ResourceProperty) map[string]string {
	for _, p := range props {
		if aws.ToString(p.Name) != "tags" || p.Data == nil {
			continue
		}
		return normalizeTagDocument(p.Data)
	}
	return nil
}

// normalizeTagDocument handles the observed tag document variants: a list of
// key-value pairs, a wrapped list, or a flat mapping.
func normalizeTagDocument(doc document.Interface) map[string]string {
	var pairs []compliance.KeyValue
	if err := doc.UnmarshalSmithyDocument(&pairs); err == nil {
		if tags := compliance.TagsFromPairs(pairs); len(tags) > 0 {
			return tags
		}
	}

	var wrapped []compliance.WrappedKeyValue
	if err := doc.UnmarshalSmithyDocument(&wrapped); err == nil {
		if tags := compliance.TagsFromWrappedPairs(wrapped); len(tags) > 0 {
			return tags
		}
	}

	var flat map[string]string
	if err := doc.UnmarshalSmithyDocument(&flat); err == nil && len(flat) > 0 {
		return compliance.TagsFromMap(flat)
	}

	return nil
}
