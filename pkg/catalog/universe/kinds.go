package universe

// Action kinds recognized by the universe area.
const (
	CreateUniverse         = "CREATE_UNIVERSE"
	CreateUniverseResponse = "CREATE_UNIVERSE_RESPONSE"
	EditUniverse           = "EDIT_UNIVERSE"
	EditUniverseResponse   = "EDIT_UNIVERSE_RESPONSE"
	DeleteUniverse         = "DELETE_UNIVERSE"
	DeleteUniverseResponse = "DELETE_UNIVERSE_RESPONSE"
	CloseUniverseDialog    = "CLOSE_UNIVERSE_DIALOG"

	AddReadReplica            = "ADD_READ_REPLICA"
	AddReadReplicaResponse    = "ADD_READ_REPLICA_RESPONSE"
	EditReadReplica           = "EDIT_READ_REPLICA"
	EditReadReplicaResponse   = "EDIT_READ_REPLICA_RESPONSE"
	DeleteReadReplica         = "DELETE_READ_REPLICA"
	DeleteReadReplicaResponse = "DELETE_READ_REPLICA_RESPONSE"

	FetchUniverseInfo         = "FETCH_UNIVERSE_INFO"
	FetchUniverseInfoResponse = "FETCH_UNIVERSE_INFO_RESPONSE"
	ResetUniverseInfo         = "RESET_UNIVERSE_INFO"
	FetchUniverseList         = "FETCH_UNIVERSE_LIST"
	FetchUniverseListResponse = "FETCH_UNIVERSE_LIST_RESPONSE"
	ResetUniverseList         = "RESET_UNIVERSE_LIST"

	GetUniversePerNodeStatus          = "GET_UNIVERSE_PER_NODE_STATUS"
	GetUniversePerNodeStatusResponse  = "GET_UNIVERSE_PER_NODE_STATUS_RESPONSE"
	GetUniversePerNodeMetrics         = "GET_UNIVERSE_PER_NODE_METRICS"
	GetUniversePerNodeMetricsResponse = "GET_UNIVERSE_PER_NODE_METRICS_RESPONSE"
	GetMasterLeader                   = "GET_MASTER_LEADER"
	GetMasterLeaderResponse           = "GET_MASTER_LEADER_RESPONSE"
	ResetMasterLeader                 = "RESET_MASTER_LEADER"

	FetchUniverseTasks         = "FETCH_UNIVERSE_TASKS"
	FetchUniverseTasksResponse = "FETCH_UNIVERSE_TASKS_RESPONSE"
	ResetUniverseTasks         = "RESET_UNIVERSE_TASKS"

	ConfigureUniverseTemplate          = "CONFIGURE_UNIVERSE_TEMPLATE"
	ConfigureUniverseTemplateResponse  = "CONFIGURE_UNIVERSE_TEMPLATE_RESPONSE"
	ConfigureUniverseTemplateSuccess   = "CONFIGURE_UNIVERSE_TEMPLATE_SUCCESS"
	ConfigureUniverseTemplateLoading   = "CONFIGURE_UNIVERSE_TEMPLATE_LOADING"
	ConfigureUniverseResources         = "CONFIGURE_UNIVERSE_RESOURCES"
	ConfigureUniverseResourcesResponse = "CONFIGURE_UNIVERSE_RESOURCES_RESPONSE"
	ResetUniverseConfiguration         = "RESET_UNIVERSE_CONFIGURATION"
	SetPlacementStatus                 = "SET_PLACEMENT_STATUS"

	RollingUpgrade         = "ROLLING_UPGRADE"
	RollingUpgradeResponse = "ROLLING_UPGRADE_RESPONSE"
	ResetRollingUpgrade    = "RESET_ROLLING_UPGRADE"

	SetUniverseMetrics    = "SET_UNIVERSE_METRICS"
	FetchUniverseMetadata = "FETCH_UNIVERSE_METADATA"

	PerformUniverseNodeAction         = "PERFORM_UNIVERSE_NODE_ACTION"
	PerformUniverseNodeActionResponse = "PERFORM_UNIVERSE_NODE_ACTION_RESPONSE"

	FetchUniverseBackups         = "FETCH_UNIVERSE_BACKUPS"
	FetchUniverseBackupsResponse = "FETCH_UNIVERSE_BACKUPS_RESPONSE"
	ResetUniverseBackups         = "RESET_UNIVERSE_BACKUPS"

	GetHealthCheck         = "GET_HEALTH_CHECK"
	GetHealthCheckResponse = "GET_HEALTH_CHECK_RESPONSE"

	ImportUniverse         = "IMPORT_UNIVERSE"
	ImportUniverseInit     = "IMPORT_UNIVERSE_INIT"
	ImportUniverseReset    = "IMPORT_UNIVERSE_RESET"
	ImportUniverseResponse = "IMPORT_UNIVERSE_RESPONSE"
)
