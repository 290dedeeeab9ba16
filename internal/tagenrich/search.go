// Copyright The OpenTelemetry Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tagenrich

import (
	"context"
	"fmt"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/common/auth"
	"github.com/oracle/oci-go-sdk/v65/resourcesearch"
	"github.com/pkg/errors"
)

// Resource is the part of a resource search result that carries tags.
type Resource struct {
	Identifier   string
	FreeformTags map[string]string
	DefinedTags  map[string]map[string]interface{}
	SystemTags   map[string]map[string]interface{}
}

// Searcher finds the resources with a given OCID.
type Searcher interface {
	Search(ctx context.Context, ocid string) ([]Resource, error)
}

// ResourceSearcher queries the OCI Resource Search service.
type ResourceSearcher struct {
	client resourcesearch.ResourceSearchClient
}

// NewResourceSearcher creates a searcher authenticated by provider.
func NewResourceSearcher(provider common.ConfigurationProvider) (*ResourceSearcher, error) {
	client, err := resourcesearch.NewResourceSearchClientWithConfigurationProvider(provider)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create resource search client")
	}

	return &ResourceSearcher{client: client}, nil
}

// NewResourcePrincipalSearcher creates a searcher that authenticates as the
// function's resource principal. The function's dynamic group needs a policy
// allowing it to inspect the resources whose tags it reads.
func NewResourcePrincipalSearcher() (*ResourceSearcher, error) {
	provider, err := auth.ResourcePrincipalConfigurationProvider()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get resource principal configuration")
	}

	return NewResourceSearcher(provider)
}

// NewConfigFileSearcher creates a searcher from the default OCI CLI configuration
// (~/.oci/config), for running outside of OCI Functions.
func NewConfigFileSearcher() (*ResourceSearcher, error) {
	return NewResourceSearcher(common.DefaultConfigProvider())
}

func (s *ResourceSearcher) Search(ctx context.Context, ocid string) ([]Resource, error) {
	req := resourcesearch.SearchResourcesRequest{
		SearchDetails: resourcesearch.StructuredSearchDetails{
			Query:               common.String(fmt.Sprintf("query all resources where identifier = '%s'", ocid)),
			MatchingContextType: resourcesearch.SearchDetailsMatchingContextTypeNone,
		},
	}

	resp, err := s.client.SearchResources(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "resource search failed for %s", ocid)
	}

	items := resp.ResourceSummaryCollection.Items
	resources := make([]Resource, 0, len(items))
	for _, item := range items {
		var identifier string
		if item.Identifier != nil {
			identifier = *item.Identifier
		}
		resources = append(resources, Resource{
			Identifier:   identifier,
			FreeformTags: item.FreeformTags,
			DefinedTags:  item.DefinedTags,
			SystemTags:   item.SystemTags,
		})
	}

	return resources, nil
}
