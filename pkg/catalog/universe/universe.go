// Package universe declares the tree of the universe area: universe CRUD,
// per-node status, tasks, configuration templates, backups and the I/O
// metrics attached to the universe list.
package universe

import (
	"github.com/aretw0/statetree/pkg/merge"
	"github.com/aretw0/statetree/pkg/reducer"
)

// Name is the area name used in the catalog.
const Name = "universe"

// Slot keys.
const (
	CurrentUniverse          = "currentUniverse"
	CreateUniverseSlot       = "createUniverse"
	EditUniverseSlot         = "editUniverse"
	DeleteUniverseSlot       = "deleteUniverse"
	UniverseList             = "universeList"
	UniverseConfigTemplate   = "universeConfigTemplate"
	UniverseResourceTemplate = "universeResourceTemplate"
	AddReadReplicaSlot       = "addReadReplica"
	EditReadReplicaSlot      = "editReadReplica"
	DeleteReadReplicaSlot    = "deleteReadReplica"
	UniverseTasks            = "universeTasks"
	UniversePerNodeStatus    = "universePerNodeStatus"
	UniversePerNodeMetrics   = "universePerNodeMetrics"
	UniverseMasterLeader     = "universeMasterLeader"
	RollingUpgradeSlot       = "rollingUpgrade"
	UniverseNodeAction       = "universeNodeAction"
	UniverseBackupList       = "universeBackupList"
	HealthCheck              = "healthCheck"
	UniverseImport           = "universeImport"
)

// Flag keys.
const (
	FetchUniverseMetadataFlag = "fetchUniverseMetadata"
	CurrentPlacementStatus    = "currentPlacementStatus"
)

// Metrics correlation parameters: the read/write RPC rate series are
// keyed by the universe node prefix.
const (
	MetricName    = "tserver_rpcs_per_sec_by_universe"
	MetricLabel   = "service_method"
	NodePrefixKey = "universeDetails.nodePrefix"
)

// Schema returns the slots and flags of the universe area.
func Schema() reducer.Schema {
	return reducer.Schema{
		Slots: map[string]any{
			CurrentUniverse:          map[string]any{},
			CreateUniverseSlot:       map[string]any{},
			EditUniverseSlot:         map[string]any{},
			DeleteUniverseSlot:       map[string]any{},
			UniverseList:             []any{},
			UniverseConfigTemplate:   map[string]any{},
			UniverseResourceTemplate: map[string]any{},
			AddReadReplicaSlot:       []any{},
			EditReadReplicaSlot:      []any{},
			DeleteReadReplicaSlot:    []any{},
			UniverseTasks:            []any{},
			UniversePerNodeStatus:    map[string]any{},
			UniversePerNodeMetrics:   map[string]any{},
			UniverseMasterLeader:     map[string]any{},
			RollingUpgradeSlot:       map[string]any{},
			UniverseNodeAction:       map[string]any{},
			UniverseBackupList:       map[string]any{},
			HealthCheck:              map[string]any{},
			UniverseImport:           []any{},
		},
		Flags: map[string]any{
			FetchUniverseMetadataFlag: false,
			CurrentPlacementStatus:    nil,
		},
	}
}

// MetricsPolicy attaches read and write RPC series to the universes of the
// list.
func MetricsPolicy() merge.Policy {
	return merge.CorrelateMetrics(merge.Correlation{
		NameField: NodePrefixKey,
		Fields:    merge.DefaultFields,
		Extract: merge.SeriesExtractor(MetricName, MetricLabel, map[string]string{
			"Read":  "read",
			"Write": "write",
		}),
	})
}

// Table returns the rules of the universe area.
//
// Lists (universes, tasks, backups, health checks) keep their previous
// contents while reloading. Requests scoped to one universe start from an
// empty object so data of a previously viewed universe never shows
// through.
func Table() *reducer.Table {
	t := reducer.NewTable()
	empty := map[string]any{}

	t.On(CreateUniverse).BeginWith(CreateUniverseSlot, empty)
	t.On(CreateUniverseResponse).Commit(CreateUniverseSlot)
	t.On(EditUniverse).BeginWith(EditUniverseSlot, empty)
	t.On(EditUniverseResponse).Commit(EditUniverseSlot)
	t.On(DeleteUniverse).BeginWith(DeleteUniverseSlot, empty)
	t.On(DeleteUniverseResponse).Commit(DeleteUniverseSlot)
	t.On(CloseUniverseDialog).Reset(UniverseConfigTemplate, UniverseResourceTemplate)

	t.On(AddReadReplica).BeginWith(AddReadReplicaSlot, empty)
	t.On(AddReadReplicaResponse).Commit(AddReadReplicaSlot)
	t.On(EditReadReplica).BeginWith(EditReadReplicaSlot, empty)
	t.On(EditReadReplicaResponse).Commit(EditReadReplicaSlot)
	t.On(DeleteReadReplica).BeginWith(DeleteReadReplicaSlot, empty)
	t.On(DeleteReadReplicaResponse).Commit(DeleteReadReplicaSlot)

	t.On(FetchUniverseInfo).BeginWith(CurrentUniverse, empty)
	t.On(FetchUniverseInfoResponse).Commit(CurrentUniverse)
	t.On(ResetUniverseInfo).Reset(CurrentUniverse)

	t.On(FetchUniverseList).Begin(UniverseList)
	t.On(FetchUniverseListResponse).Commit(UniverseList).SetFlag(FetchUniverseMetadataFlag, false)
	t.On(ResetUniverseList).Reset(UniverseList)
	t.On(SetUniverseMetrics).Succeed(UniverseList).Merge(MetricsPolicy())
	t.On(FetchUniverseMetadata).SetFlag(FetchUniverseMetadataFlag, true)

	t.On(GetUniversePerNodeStatus).BeginWith(UniversePerNodeStatus, empty)
	t.On(GetUniversePerNodeStatusResponse).Commit(UniversePerNodeStatus)
	t.On(GetUniversePerNodeMetrics).BeginWith(UniversePerNodeMetrics, empty)
	t.On(GetUniversePerNodeMetricsResponse).Commit(UniversePerNodeMetrics)
	t.On(GetMasterLeader).BeginWith(UniverseMasterLeader, empty)
	t.On(GetMasterLeaderResponse).Commit(UniverseMasterLeader)
	t.On(ResetMasterLeader).Reset(UniverseMasterLeader)

	t.On(FetchUniverseTasks).Begin(UniverseTasks)
	t.On(FetchUniverseTasksResponse).Commit(UniverseTasks)
	t.On(ResetUniverseTasks).Reset(UniverseTasks)

	t.On(ConfigureUniverseTemplate).BeginWith(UniverseConfigTemplate, empty)
	t.On(ConfigureUniverseTemplateResponse).Commit(UniverseConfigTemplate)
	t.On(ConfigureUniverseTemplateSuccess).Succeed(UniverseConfigTemplate)
	t.On(ConfigureUniverseTemplateLoading).Begin(UniverseConfigTemplate)
	t.On(ConfigureUniverseResources).BeginWith(UniverseResourceTemplate, empty)
	t.On(ConfigureUniverseResourcesResponse).Commit(UniverseResourceTemplate)
	t.On(ResetUniverseConfiguration).
		Reset(UniverseResourceTemplate, UniverseConfigTemplate).
		SetFlag(CurrentPlacementStatus, nil)
	t.On(SetPlacementStatus).FlagFromPayload(CurrentPlacementStatus)

	t.On(RollingUpgrade).BeginWith(RollingUpgradeSlot, empty)
	t.On(RollingUpgradeResponse).Commit(RollingUpgradeSlot)
	t.On(ResetRollingUpgrade).Reset(RollingUpgradeSlot)

	t.On(PerformUniverseNodeAction).BeginWith(UniverseNodeAction, empty)
	t.On(PerformUniverseNodeActionResponse).Commit(UniverseNodeAction)

	t.On(FetchUniverseBackups).Begin(UniverseBackupList)
	t.On(FetchUniverseBackupsResponse).Commit(UniverseBackupList)
	t.On(ResetUniverseBackups).Reset(UniverseBackupList)

	t.On(GetHealthCheck).Begin(HealthCheck)
	t.On(GetHealthCheckResponse).Commit(HealthCheck)

	t.On(ImportUniverse).BeginWith(UniverseImport, []any{})
	t.On(ImportUniverseInit).BeginWith(UniverseImport, []any{})
	t.On(ImportUniverseReset).Reset(UniverseImport)
	t.On(ImportUniverseResponse).Commit(UniverseImport)

	return t
}
