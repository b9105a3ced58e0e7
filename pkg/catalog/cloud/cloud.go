// Package cloud declares the tree of the cloud provider area: providers,
// regions, instance types, access keys and the multi-stage provider
// bootstrap.
package cloud

import (
	"github.com/aretw0/statetree/pkg/merge"
	"github.com/aretw0/statetree/pkg/reducer"
)

// Name is the area name used in the catalog.
const Name = "cloud"

// Slot keys.
const (
	Providers             = "providers"
	Regions               = "regions"
	InstanceTypes         = "instanceTypes"
	SupportedRegionList   = "supportedRegionList"
	AuthConfig            = "authConfig"
	EBSTypes              = "ebsTypes"
	GCPTypes              = "gcpTypes"
	AccessKeys            = "accessKeys"
	Bootstrap             = "bootstrap"
	DockerBootstrap       = "dockerBootstrap"
	NodeInstanceList      = "nodeInstanceList"
	CreateProviderSlot    = "createProvider"
	BootstrapProviderSlot = "bootstrapProvider"
	EditProviderSlot      = "editProvider"
)

// Flag keys.
const (
	FetchMetadata      = "fetchMetadata"
	OnPremJSONFormData = "onPremJsonFormData"
)

// Bootstrap stages, stored as the "type" of the bootstrap slot data and
// as the "type" tag of its failures.
const (
	StageProvider     = "provider"
	StageInstanceType = "instanceType"
	StageRegion       = "region"
	StageZones        = "zones"
	StageNode         = "node"
	StageAccessKey    = "accessKey"
	StageInitialize   = "initialize"
	StageCleanup      = "cleanup"

	// StageZoneFailure tags a failed zones stage; its data keeps StageZones.
	StageZoneFailure = "zone"
)

// Schema returns the slots and flags of the cloud area.
func Schema() reducer.Schema {
	return reducer.Schema{
		Slots: map[string]any{
			Providers:             []any{},
			Regions:               []any{},
			InstanceTypes:         []any{},
			SupportedRegionList:   []any{},
			AuthConfig:            []any{},
			EBSTypes:              []any{},
			GCPTypes:              []any{},
			AccessKeys:            []any{},
			Bootstrap:             map[string]any{},
			DockerBootstrap:       map[string]any{},
			NodeInstanceList:      []any{},
			CreateProviderSlot:    map[string]any{},
			BootstrapProviderSlot: map[string]any{},
			EditProviderSlot:      map[string]any{},
		},
		Flags: map[string]any{
			FetchMetadata:      false,
			OnPremJSONFormData: map[string]any{},
		},
	}
}

// Table returns the rules of the cloud area.
//
// List fetches keep the previous list while loading. Mutations start from
// an empty object, and bootstrap stages start from {type, response: nil}
// so the UI can tell which stage is in flight.
func Table() *reducer.Table {
	t := reducer.NewTable()

	t.On(GetProviderList).Begin(Providers).SetFlag(FetchMetadata, false)
	t.On(GetProviderListResponse).Commit(Providers).SetFlag(FetchMetadata, false)
	t.On(ResetProviderList).Reset(Providers, Regions, InstanceTypes)

	t.On(GetRegionList).Begin(Regions)
	t.On(GetRegionListResponse).Commit(Regions).Merge(merge.SortBy("name"))

	t.On(GetInstanceTypeList).Begin(InstanceTypes)
	t.On(GetInstanceTypeListResponse).Commit(InstanceTypes).Merge(merge.SortInstanceTypes("instanceTypeCode"))

	t.On(GetSupportedRegionData).Begin(SupportedRegionList)
	t.On(GetSupportedRegionDataResponse).Commit(SupportedRegionList).Merge(merge.SortBy("name"))

	t.On(CreateProvider).BeginWith(CreateProviderSlot, map[string]any{})
	t.On(CreateProviderResponse).Commit(CreateProviderSlot)
	t.On(EditProvider).BeginWith(EditProviderSlot, map[string]any{})
	t.On(EditProviderResponse).Commit(EditProviderSlot)
	t.On(BootstrapProvider).BeginWith(BootstrapProviderSlot, map[string]any{})
	t.On(BootstrapProviderResponse).Commit(BootstrapProviderSlot)

	stage(t, CreateOnPremProvider, CreateOnPremProviderResponse, StageProvider)
	stage(t, CreateInstanceType, CreateInstanceTypeResponse, StageInstanceType)
	stage(t, CreateRegion, CreateRegionResponse, StageRegion)
	stageTagged(t, CreateZones, CreateZonesResponse, StageZones, StageZoneFailure)
	stage(t, CreateNodeInstances, CreateNodeInstancesResponse, StageNode)
	stage(t, CreateAccessKey, CreateAccessKeyResponse, StageAccessKey)

	stage(t, InitializeProvider, "", StageInitialize)
	signals(t, InitializeProviderSuccess, InitializeProviderFailure, StageInitialize)

	stage(t, DeleteProvider, DeleteProviderResponse, StageCleanup)
	signals(t, DeleteProviderSuccess, DeleteProviderFailure, StageCleanup)

	t.On(ResetProviderBootstrap).Reset(Bootstrap)

	// Keys of several providers accumulate across responses.
	t.On(ListAccessKeys).Begin(AccessKeys)
	t.On(ListAccessKeysResponse).Commit(AccessKeys).Merge(merge.AppendDedup("idKey"))

	t.On(GetEBSTypeList).Begin(EBSTypes)
	t.On(GetEBSTypeListResponse).Commit(EBSTypes)
	t.On(GetGCPTypeList).Begin(GCPTypes)
	t.On(GetGCPTypeListResponse).Commit(GCPTypes)

	t.On(CreateDockerProvider).BeginWith(DockerBootstrap, map[string]any{})
	t.On(CreateDockerProviderResponse).Commit(DockerBootstrap)

	t.On(GetNodeInstanceList).Begin(NodeInstanceList)
	t.On(GetNodeInstanceListResponse).Commit(NodeInstanceList)

	t.On(FetchAuthConfig).Begin(AuthConfig)
	t.On(FetchAuthConfigResponse).Commit(AuthConfig)
	// The delete request changes nothing until the server confirms; the
	// response payload is the provider whose config is gone.
	t.On(DeleteKMSConfiguration).Ignore()
	t.On(DeleteKMSConfigurationResponse).RemoveWhere(AuthConfig, "provider")

	t.On(FetchCloudMetadata).SetFlag(FetchMetadata, true)
	t.On(SetOnPremConfigData).FlagFromPayload(OnPremJSONFormData)
	t.On(ResetOnPremConfigData).SetFlag(OnPremJSONFormData, map[string]any{})

	return t
}

// stage registers the begin and response rules of one bootstrap stage.
// An empty response kind registers the begin rule only.
func stage(t *reducer.Table, begin, response, name string) {
	stageTagged(t, begin, response, name, name)
}

// stageTagged is stage with a failure tag that differs from the stage name.
func stageTagged(t *reducer.Table, begin, response, name, failureTag string) {
	t.On(begin).BeginWith(Bootstrap, map[string]any{"type": name, "response": nil})
	if response == "" {
		return
	}
	t.On(response).Commit(Bootstrap).Merge(merge.Tagged(name)).Tag("type", failureTag)
}

// signals registers a stage completed by separate success and failure
// actions instead of one response.
func signals(t *reducer.Table, success, failure, name string) {
	t.On(success).Succeed(Bootstrap).Merge(merge.Tagged(name)).Tag("type", name)
	t.On(failure).Fail(Bootstrap).Tag("type", name)
}
