package discovery

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/resourceexplorer2"
	"github.com/aws/aws-sdk-go-v2/service/resourceexplorer2/document"
	retypes "github.com/aws/aws-sdk-go-v2/service/resourceexplorer2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tagpatrol/tagpatrol/types"
	"go.opentelemetry.io/otel"
)

// jsonDocument fakes the smithy document shape the tags property arrives in
type jsonDocument struct {
	document.Interface
	raw []byte
}

func (d jsonDocument) MarshalSmithyDocument() ([]byte, error) {
	return d.raw, nil
}

func (d jsonDocument) UnmarshalSmithyDocument(v interface{}) error {
	return json.Unmarshal(d.raw, v)
}

type fakeSearchClient struct {
	pages []*resourceexplorer2.SearchOutput
	err   error
	calls int
}

func (f *fakeSearchClient) Search(_ context.Context, _ *resourceexplorer2.SearchInput, _ ...func(*resourceexplorer2.Options)) (*resourceexplorer2.SearchOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func newTestExplorerSource(client resourceexplorer2.SearchAPIClient) *ExplorerSource {
	return &ExplorerSource{
		clientFor: func(string) resourceexplorer2.SearchAPIClient { return client },
		layout:    types.DefaultARNLayout,
		tracer:    otel.Tracer("test"),
	}
}

func TestExplorerSource_Search_Paginates(t *testing.T) {
	client := &fakeSearchClient{
		pages: []*resourceexplorer2.SearchOutput{
			{
				Resources: []retypes.Resource{
					{Arn: aws.String("arn:aws:ec2:us-east-1:1:instance/i-1")},
				},
				NextToken: aws.String("more"),
			},
			{
				Resources: []retypes.Resource{
					{Arn: aws.String("arn:aws:ec2:us-east-1:1:instance/i-2")},
				},
			},
		},
	}

	source := newTestExplorerSource(client)
	records, err := source.Search(context.Background(), "-tag.key:owner", "us-east-1")
	require.NoError(t, err)

	assert.Len(t, records, 2)
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, "arn:aws:ec2:us-east-1:1:instance/i-1", records[0].ARN)
	assert.Equal(t, "arn:aws:ec2:us-east-1:1:instance/i-2", records[1].ARN)
}

func TestExplorerSource_ConvertResource(t *testing.T) {
	source := newTestExplorerSource(nil)

	t.Run("index-reported fields win", func(t *testing.T) {
		rec := source.convertResource(retypes.Resource{
			Arn:          aws.String("arn:aws:ec2:us-east-1:1:instance/i-1"),
			Region:       aws.String("us-west-2"),
			Service:      aws.String("ec2"),
			ResourceType: aws.String("ec2:instance"),
		})
		assert.Equal(t, "us-west-2", rec.Region)
		assert.Equal(t, "ec2", rec.Service)
		assert.Equal(t, "ec2:instance", rec.Type)
	})

	t.Run("missing fields derived from arn", func(t *testing.T) {
		rec := source.convertResource(retypes.Resource{
			Arn: aws.String("arn:aws:rds:eu-west-1:1:db/prod"),
		})
		assert.Equal(t, "eu-west-1", rec.Region)
		assert.Equal(t, "rds", rec.Service)
	})

	t.Run("malformed arn gets sentinels", func(t *testing.T) {
		rec := source.convertResource(retypes.Resource{
			Arn: aws.String("garbage"),
		})
		assert.Equal(t, types.UnknownRegion, rec.Region)
		assert.Equal(t, types.UnknownService, rec.Service)
	})
}

func TestNormalizeTagDocument(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{
			name: "pair list",
			raw:  `[{"Key":"owner","Value":"alice"},{"Key":"env","Value":"prod"}]`,
			want: map[string]string{"owner": "alice", "env": "prod"},
		},
		{
			name: "wrapped pair list",
			raw:  `[{"Data":{"Key":"owner","Value":"alice"}}]`,
			want: map[string]string{"owner": "alice"},
		},
		{
			name: "flat map",
			raw:  `{"owner":"alice"}`,
			want: map[string]string{"owner": "alice"},
		},
		{
			name: "empty list",
			raw:  `[]`,
			want: nil,
		},
		{
			name: "unrecognized shape",
			raw:  `42`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeTagDocument(jsonDocument{raw: []byte(tt.raw)})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTagProperty(t *testing.T) {
	props := []retypes.ResourceProperty{
		{Name: aws.String("other"), Data: jsonDocument{raw: []byte(`{"x":"y"}`)}},
		{Name: aws.String("tags"), Data: jsonDocument{raw: []byte(`[{"Key":"owner","Value":"alice"}]`)}},
	}
	assert.Equal(t, map[string]string{"owner": "alice"}, extractTagProperty(props))

	assert.Nil(t, extractTagProperty(nil))
	assert.Nil(t, extractTagProperty([]retypes.ResourceProperty{{Name: aws.String("tags")}}))
}
